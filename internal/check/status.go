// Package check turns Foreman API data into a monitoring outcome.
package check

import (
	"strconv"
	"strings"
)

// Status is a Nagios service state.
type Status int

const (
	OK Status = iota
	Warning
	Critical
	Unknown
)

func (s Status) String() string {
	switch s {
	case OK:
		return "OK"
	case Warning:
		return "WARNING"
	case Critical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// ExitCode returns the plugin exit code for s.
func (s Status) ExitCode() int {
	switch s {
	case OK, Warning, Critical:
		return int(s)
	default:
		return int(Unknown)
	}
}

// PerfDatum is one performance data token, label=value;warn;crit;min;max.
// Empty trailing fields are dropped.
type PerfDatum struct {
	Label string
	Value float64
	Warn  string
	Crit  string
	Min   string
	Max   string
}

func (p PerfDatum) String() string {
	token := strings.Join([]string{
		p.Label + "=" + FormatValue(p.Value),
		p.Warn,
		p.Crit,
		p.Min,
		p.Max,
	}, ";")
	return strings.TrimRight(token, ";")
}

// FormatValue prints v without exponent or trailing zeros: 3, 2.5, 1200.
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Outcome is the result of one evaluation.
type Outcome struct {
	Status  Status
	Message string
	Perf    []PerfDatum
}
