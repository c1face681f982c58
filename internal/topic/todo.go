package topic

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Rob9999/ethos-ai-clim/internal/decision"
	"github.com/Rob9999/ethos-ai-clim/internal/security"
)

// Access error messages for ReleaseForExecution.
const (
	MsgNoCard   = "no identity card given"
	MsgNotReady = "the to-do is not ready for execution"
	MsgDenied   = "execution of the to-do was denied"
)

// ToDo is a refined aspiration waiting for release and execution.
type ToDo struct {
	Aspiration
	Ready      bool           `json:"ready"`
	Denied     bool           `json:"denied"`
	Advice     string         `json:"advice,omitempty"`
	Level      security.Level `json:"security_level"`
	ReleasedBy string         `json:"released_by,omitempty"`
	ReleasedAt time.Time      `json:"released_at,omitempty"`
	Receipt    string         `json:"receipt,omitempty"`

	placeholder bool
}

// NewToDo wraps a copy of asp; the to-do starts ready at LOW level.
func NewToDo(asp Aspiration) *ToDo {
	return &ToDo{Aspiration: asp, Ready: true, Level: security.LevelLow}
}

// Placeholder is the diagnostic to-do returned for unrefined aspirations.
func Placeholder() *ToDo {
	t := NewToDo(Aspiration{
		Simulation: Simulation{
			Description:       "Check your code",
			Parameters:        map[string]string{},
			Answer:            "Review the code and fix the errors.",
			OverallEthicValue: 5.0,
			Decision:          decision.Go,
			DomainEthicValues: []float64{5.0, 5.0, 5.0},
			SummaryReason:     "Errors can lead to unexpected behaviour.",
		},
		Text: "Write error-free code.",
	})
	t.placeholder = true
	return t
}

// PromoteToToDo turns a refined aspiration into a to-do. An unrefined
// aspiration yields the Placeholder; callers can tell by IsPlaceholder.
func PromoteToToDo(asp *Aspiration) *ToDo {
	if !asp.Refined {
		return Placeholder()
	}
	return NewToDo(*asp)
}

// IsPlaceholder reports whether t was produced from an unrefined aspiration.
func (t *ToDo) IsPlaceholder() bool {
	return t.placeholder
}

// DenyByAdvisor marks the to-do as denied with the advisor's advice.
func (t *ToDo) DenyByAdvisor(advice string) {
	t.Denied = true
	t.Advice = advice
}

// SuccessChance starts at 75 and moves by twice each domain value's
// distance from 5, clamped to 0..100.
func (t *ToDo) SuccessChance() float64 {
	chance := 75.0
	for _, v := range t.DomainEthicValues {
		chance += (v - 5) * 2
	}
	return max(0, min(100, chance))
}

// Instructions renders the to-do as a human-readable work order.
func (t *ToDo) Instructions() string {
	var b strings.Builder
	b.WriteString("Implementation of the to-do:\n")
	fmt.Fprintf(&b, "Goal: %s\n", t.Text)
	fmt.Fprintf(&b, "Description: %s\n", t.Description)
	fmt.Fprintf(&b, "Parameters: %v\n", t.Parameters)
	b.WriteString("Recommended steps:\n")
	fmt.Fprintf(&b, "1. %s - This should be carried out considering the following ethical aspects:\n", t.Answer)
	fmt.Fprintf(&b, "   - %s\n", t.SummaryReason)
	fmt.Fprintf(&b, "\nSuccess chance: %.2f%%\n", t.SuccessChance())
	return b.String()
}

// ReleaseForExecution signs the to-do off with card. Any refusal is a
// *security.AccessError and leaves the to-do denied and not ready.
func (t *ToDo) ReleaseForExecution(card *security.IdentityCard, password string) error {
	if err := t.checkRelease(card, password); err != nil {
		t.Ready = false
		t.Denied = true
		t.Advice = err.Message
		t.ReleasedBy = ""
		t.ReleasedAt = time.Time{}
		t.Receipt = ""
		return err
	}

	receipt, err := card.SignMessage("released: " + t.Description)
	if err != nil {
		return fmt.Errorf("failed to sign release of %q: %w", t.Description, err)
	}

	t.Ready = true
	t.ReleasedBy = card.Name
	t.ReleasedAt = time.Now()
	t.Receipt = receipt
	return nil
}

func (t *ToDo) checkRelease(card *security.IdentityCard, password string) *security.AccessError {
	refuse := func(msg string) *security.AccessError {
		e := &security.AccessError{Message: msg, Subject: t.Description, Required: t.Level}
		if card != nil {
			e.Current = card.Level
		}
		return e
	}

	switch {
	case card == nil:
		return refuse(MsgNoCard)
	case !t.Ready:
		return refuse(MsgNotReady)
	case t.Denied:
		return refuse(MsgDenied)
	}

	if err := card.CheckSecurity(t.Level, password); err != nil {
		msg := err.Error()
		var accessErr *security.AccessError
		if errors.As(err, &accessErr) {
			msg = accessErr.Message
		}
		return refuse(msg)
	}
	return nil
}

// IsReleased reports whether a card has signed the to-do off.
func (t *ToDo) IsReleased() bool {
	return t.ReleasedBy != "" && t.Receipt != ""
}

func (t *ToDo) String() string {
	released := "not released"
	if t.IsReleased() {
		released = "released by " + t.ReleasedBy
	}
	return fmt.Sprintf("%s\nReady: %t\nSecurity level: %s\n%s", &t.Aspiration, t.Ready, t.Level, released)
}
