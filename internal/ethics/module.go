package ethics

import (
	"fmt"
	"math"
	"strings"

	"github.com/Rob9999/ethos-ai-clim/internal/decision"
)

// Translator resolves domain names and summary lines.
type Translator interface {
	T(key string, args ...any) string
}

// Evaluation is the result of scoring one signal.
type Evaluation struct {
	DomainValues []float64
	Overall      float64
	Decision     decision.Decision
	Summary      string
}

// Module scores a numeric signal against every domain.
type Module struct {
	domains []Domain
	tr      Translator
}

// NewModule creates a module for the given domains.
func NewModule(domains []Domain, tr Translator) *Module {
	return &Module{domains: domains, tr: tr}
}

// Domains returns the module's domains.
func (m *Module) Domains() []Domain {
	return m.domains
}

// Evaluate maps signal to a value per domain and sums them.
//
// Each domain computes score = sigmoid(mean(signal)) and
// value = (score - threshold) / (1 - min(0.99, threshold)) * 10 * importance.
// The decision is GO when the sum is positive, NOGO otherwise.
func (m *Module) Evaluate(signal []float64) Evaluation {
	score := sigmoid(mean(signal))

	values := make([]float64, len(m.domains))
	overall := 0.0
	for i, d := range m.domains {
		values[i] = DomainValue(score, d)
		overall += values[i]
	}

	d := decision.NoGo
	if overall > 0 {
		d = decision.Go
	}

	return Evaluation{
		DomainValues: values,
		Overall:      overall,
		Decision:     d,
		Summary:      m.summary(values, d),
	}
}

// DomainValue is the symmetric ethic value of score for one domain.
func DomainValue(score float64, d Domain) float64 {
	transformed := (score - d.Threshold) / (1.0 - math.Min(0.99, d.Threshold))
	return transformed * 10 * d.Importance
}

func (m *Module) summary(values []float64, d decision.Decision) string {
	lines := make([]string, 0, len(values)+1)
	lines = append(lines, fmt.Sprintf("Decision: %s.", m.tr.T(d.String())))
	for i, v := range values {
		key := "DOMAIN_SUPPORTIVE"
		if v < 0 {
			key = "DOMAIN_CRITICAL"
		}
		lines = append(lines, m.tr.T(key, i+1, m.tr.T(m.domains[i].Key), fmt.Sprintf("%.2f", v)))
	}
	return strings.Join(lines, "\n")
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
