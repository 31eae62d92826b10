package check

import (
	"fmt"

	"github.com/nmslite/check-foreman/internal/foreman"
)

// Dashboard classifies the bad host count of d.
func Dashboard(d *foreman.Dashboard, t Thresholds) Outcome {
	var out Outcome

	bad := d.BadHosts
	switch {
	case bad < t.Warning:
		out.Status = OK
		out.Message = "Foreman Dashboard: OK"
	case bad >= t.Warning && bad < t.Critical:
		out.Status = Warning
		out.Message = fmt.Sprintf("Foreman Dashboard: WARNING, bad hosts: %s", FormatValue(bad))
	case bad >= t.Critical:
		out.Status = Critical
		out.Message = fmt.Sprintf("Foreman Dashboard: CRITICAL, bad hosts: %s", FormatValue(bad))
	default:
		// Only reachable for NaN counts, which JSON cannot carry.
		out.Status = Unknown
		out.Message = "Foreman Dashboard: UNKNOWN"
		return out
	}

	total := FormatValue(d.TotalHosts)
	for _, c := range d.Counters {
		p := PerfDatum{Label: c.Name, Value: c.Value, Min: "0", Max: total}
		if c.Name == "bad_hosts" {
			p.Warn = FormatValue(t.Warning)
			p.Crit = FormatValue(t.Critical)
		}
		out.Perf = append(out.Perf, p)
	}
	return out
}
