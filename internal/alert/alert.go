// Package alert delivers end-of-day summaries to an operator.
package alert

import "log"

// Alerter sends a report to whoever is watching the engine.
type Alerter interface {
	Send(subject, body string) error
}

// LogAlerter writes reports to the process log. It is the default sink when
// no external channel is configured.
type LogAlerter struct {
	logger *log.Logger
}

var _ Alerter = (*LogAlerter)(nil)

// NewLogAlerter creates an Alerter backed by logger.
func NewLogAlerter(logger *log.Logger) *LogAlerter {
	return &LogAlerter{logger: logger}
}

// Send implements Alerter.
func (a *LogAlerter) Send(subject, body string) error {
	a.logger.Printf("%s\n%s", subject, body)
	return nil
}
