package check

import (
	"fmt"
	"strings"

	"github.com/nmslite/check-foreman/internal/foreman"
)

// FactClassification lists the hosts whose facts crossed a threshold. A host
// is listed once per crossing fact, in response order.
type FactClassification struct {
	FactName string
	Pairs    int
	Warning  []string
	Critical []string
}

// ClassifyFacts sorts every (host, fact) pair of f against t. Values below
// the warning threshold are ignored.
func ClassifyFacts(f *foreman.FactSearch, t Thresholds) FactClassification {
	c := FactClassification{Pairs: f.Pairs()}
	for _, hf := range f.Hosts {
		for _, fact := range hf.Facts {
			if c.FactName == "" {
				c.FactName = fact.Name
			}

			switch v := fact.Value; {
			case v < t.Warning:
				continue
			case v >= t.Warning && v < t.Critical:
				c.Warning = append(c.Warning, hf.Host)
			case v >= t.Critical:
				c.Critical = append(c.Critical, hf.Host)
			}
		}
	}
	return c
}

// Facts classifies the fact values of f. The message names the first fact
// seen, even when the search returned several.
func Facts(f *foreman.FactSearch, t Thresholds) Outcome {
	c := ClassifyFacts(f, t)

	prefix := "Foreman Fact"
	if c.FactName != "" {
		prefix = fmt.Sprintf("Foreman Fact '%s'", c.FactName)
	}

	var lists []string
	if len(c.Warning) > 0 {
		lists = append(lists, fmt.Sprintf("List Warning: (%s)", strings.Join(c.Warning, ",")))
	}
	if len(c.Critical) > 0 {
		lists = append(lists, fmt.Sprintf("List Critical: (%s)", strings.Join(c.Critical, ",")))
	}
	info := strings.Join(lists, " ")

	var out Outcome
	switch {
	case len(c.Critical) > 0:
		out.Status = Critical
		out.Message = prefix + ": CRITICAL, " + info
	case len(c.Warning) > 0:
		out.Status = Warning
		out.Message = prefix + ": WARNING, " + info
	case len(c.Warning) == 0 && len(c.Critical) == 0:
		out.Status = OK
		out.Message = prefix + ": OK"
	default:
		out.Status = Unknown
		out.Message = "Foreman Fact: UNKNOWN"
		return out
	}

	pairs := FormatValue(float64(c.Pairs))
	out.Perf = []PerfDatum{
		{Label: "ok_count", Value: float64(c.Pairs - len(c.Warning) - len(c.Critical)), Min: "0", Max: pairs},
		{Label: "warning_count", Value: float64(len(c.Warning)), Min: "0", Max: pairs},
		{Label: "critical_count", Value: float64(len(c.Critical)), Min: "0", Max: pairs},
	}
	return out
}
