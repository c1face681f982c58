// Package watch renders the individual's live event stream.
package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/Rob9999/ethos-ai-clim/pkg/blackboard"
)

// OutputFormat selects how events are written.
type OutputFormat string

const (
	OutputFormatDefault OutputFormat = "default"
	OutputFormatJSON    OutputFormat = "json"
)

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case OutputFormatDefault, OutputFormatJSON:
		return OutputFormat(s), nil
	default:
		return "", fmt.Errorf("unknown output format %q (valid: default, json)", s)
	}
}

// Source delivers events, e.g. a *blackboard.Subscription.
type Source interface {
	Events() <-chan *blackboard.Event
	Errors() <-chan error
}

type formatter interface {
	Format(ev *blackboard.Event) error
}

func newFormatter(format OutputFormat, w io.Writer) formatter {
	if format == OutputFormatJSON {
		return &jsonFormatter{enc: json.NewEncoder(w)}
	}
	return &defaultFormatter{writer: w}
}

// Stream writes the events from src that pass match (nil passes all) until
// ctx ends or src closes. Decode errors are written as warnings and do not
// stop the stream.
func Stream(ctx context.Context, src Source, w io.Writer, format OutputFormat, match func(*blackboard.Event) bool) error {
	f := newFormatter(format, w)
	errs := src.Errors()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-src.Events():
			if !ok {
				return nil
			}
			if match != nil && !match(ev) {
				continue
			}
			if err := f.Format(ev); err != nil {
				return fmt.Errorf("failed to write event: %w", err)
			}
		case err, ok := <-errs:
			if !ok {
				// Closed together with events; keep draining events only.
				errs = nil
				continue
			}
			fmt.Fprintf(w, "⚠️  %v\n", err)
		}
	}
}

type defaultFormatter struct {
	writer io.Writer
}

func (f *defaultFormatter) Format(ev *blackboard.Event) error {
	ts := time.UnixMilli(ev.TimestampMs).Format("15:04:05")
	var line string
	switch ev.Type {
	case blackboard.EventDecision:
		line = fmt.Sprintf("⚖️  Decision %s on %q", ev.Status, ev.Subject)
	case blackboard.EventTopic:
		line = fmt.Sprintf("📌 Topic %s: %q", ev.Status, ev.Subject)
	case blackboard.EventPhase:
		line = fmt.Sprintf("🔄 Phase %s", ev.Subject)
	case blackboard.EventTask:
		line = fmt.Sprintf("📋 Task %s %s", ev.Subject, ev.Status)
	default:
		line = fmt.Sprintf("❓ %s %s", ev.Type, ev.Subject)
	}
	if ev.Detail != "" {
		line += " (" + ev.Detail + ")"
	}
	_, err := fmt.Fprintf(f.writer, "[%s] %s\n", ts, line)
	return err
}

type jsonFormatter struct {
	enc *json.Encoder
}

func (f *jsonFormatter) Format(ev *blackboard.Event) error {
	return f.enc.Encode(ev)
}
