package security

import "fmt"

// AccessError reports a refused access. Subject and the levels are optional.
type AccessError struct {
	Message  string
	Subject  string
	Required Level
	Current  Level
}

func (e *AccessError) Error() string {
	if e.Subject != "" && e.Required != 0 && e.Current != 0 {
		return fmt.Sprintf("%s [subject: %s, required level: %s, current level: %s]",
			e.Message, e.Subject, e.Required, e.Current)
	}
	return e.Message
}

// Messages used by CheckSecurity.
const (
	MsgInvalidPassword  = "invalid password"
	MsgClearanceMissing = "security level clearance missing"
)
