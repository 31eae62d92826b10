package check

import (
	"strings"

	"github.com/nmslite/check-foreman/internal/foreman"
)

// Search classifies the number of hosts matching a search. Only the
// critical threshold applies; a search never yields WARNING.
func Search(s *foreman.HostSearch, t Thresholds) Outcome {
	var out Outcome

	found := float64(s.Subtotal)
	switch {
	case found < t.Critical:
		out.Status = OK
		out.Message = "Foreman Search: OK"
	case found >= t.Critical:
		out.Status = Critical
		out.Message = "Foreman Search: CRITICAL, bad hosts: " + strings.Join(s.Names(), ", ")
	default:
		out.Status = Unknown
		out.Message = "Foreman Search: UNKNOWN"
		return out
	}

	out.Perf = []PerfDatum{{
		Label: "found",
		Value: found,
		Crit:  FormatValue(t.Critical),
		Min:   "0",
	}}
	return out
}
