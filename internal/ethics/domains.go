// Package ethics scores situations across a fixed set of ethics domains and
// keeps the question catalogue the agent reflects on.
package ethics

// Domain is one weighted ethical perspective. Key is the translation key of
// its display name.
type Domain struct {
	Key        string
	Threshold  float64
	Importance float64
}

// Domains returns the eleven standard domains in evaluation order.
func Domains() []Domain {
	return []Domain{
		{Key: "RISK_OF_INJURY", Threshold: 0.7, Importance: 1.0},
		{Key: "MATURITY", Threshold: 0.7, Importance: 1.0},
		{Key: "IDENTITY_INTEGRITY", Threshold: 0.7, Importance: 1.0},
		{Key: "SELF_CARE", Threshold: 0.5, Importance: 0.7},
		{Key: "HOLISTIC_CARE", Threshold: 0.7, Importance: 1.0},
		{Key: "JUSTICE", Threshold: 0.7, Importance: 1.0},
		{Key: "SUSTAINABILITY", Threshold: 0.6, Importance: 0.8},
		{Key: "AUTONOMY", Threshold: 0.6, Importance: 0.8},
		{Key: "TRANSPARENCY", Threshold: 0.5, Importance: 0.7},
		{Key: "EMPATHY", Threshold: 0.6, Importance: 0.8},
		{Key: "RESPONSIBILITY", Threshold: 0.7, Importance: 1.0},
	}
}
