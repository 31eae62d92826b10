package foreman

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Counter is one numeric top-level field of the dashboard response.
type Counter struct {
	Name  string
	Value float64
}

// Dashboard is the decoded /dashboard response. Counters holds every numeric
// top-level field in response order; glossary and non-numeric fields are
// dropped.
type Dashboard struct {
	BadHosts   float64
	TotalHosts float64
	Counters   []Counter
}

const (
	fieldBadHosts   = "bad_hosts"
	fieldTotalHosts = "total_hosts"
	fieldGlossary   = "glossary"
)

func (d *Dashboard) UnmarshalJSON(data []byte) error {
	var seenBad, seenTotal bool
	var counters []Counter

	err := walkObject(data, func(key string, raw json.RawMessage) error {
		if key == fieldGlossary {
			return nil
		}
		value, ok := jsonNumber(raw)
		if !ok {
			return nil
		}
		switch key {
		case fieldBadHosts:
			d.BadHosts, seenBad = value, true
		case fieldTotalHosts:
			d.TotalHosts, seenTotal = value, true
		}
		counters = append(counters, Counter{Name: key, Value: value})
		return nil
	})
	if err != nil {
		return fmt.Errorf("dashboard: %w", err)
	}
	if !seenBad {
		return fmt.Errorf("dashboard: missing numeric %s", fieldBadHosts)
	}
	if !seenTotal {
		return fmt.Errorf("dashboard: missing numeric %s", fieldTotalHosts)
	}

	d.Counters = counters
	return nil
}

// Host is a single entry of a host search.
type Host struct {
	Name string `json:"name"`
}

// HostSearch is the decoded /hosts response.
type HostSearch struct {
	Subtotal int
	Hosts    []Host
}

// Names returns the host names in response order.
func (s *HostSearch) Names() []string {
	names := make([]string, len(s.Hosts))
	for i, h := range s.Hosts {
		names[i] = h.Name
	}
	return names
}

func (s *HostSearch) UnmarshalJSON(data []byte) error {
	var wire struct {
		Subtotal *int   `json:"subtotal"`
		Results  []Host `json:"results"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("host search: %w", err)
	}
	if wire.Subtotal == nil {
		return errors.New("host search: missing subtotal")
	}
	s.Subtotal = *wire.Subtotal
	s.Hosts = wire.Results
	return nil
}

// Fact is one fact of one host, coerced to a number.
type Fact struct {
	Name  string
	Value float64
}

// HostFacts holds the facts reported by one host, in response order.
type HostFacts struct {
	Host  string
	Facts []Fact
}

// FactSearch is the decoded /fact_values response: results keyed by host,
// then by fact name. Response order is kept at both levels.
type FactSearch struct {
	Hosts []HostFacts
}

// Pairs returns the number of (host, fact) pairs.
func (f *FactSearch) Pairs() int {
	n := 0
	for _, h := range f.Hosts {
		n += len(h.Facts)
	}
	return n
}

func (f *FactSearch) UnmarshalJSON(data []byte) error {
	var seenResults bool

	err := walkObject(data, func(key string, raw json.RawMessage) error {
		if key != "results" {
			return nil
		}
		seenResults = true
		return walkObject(raw, func(host string, rawFacts json.RawMessage) error {
			hf := HostFacts{Host: host}
			err := walkObject(rawFacts, func(name string, rawValue json.RawMessage) error {
				hf.Facts = append(hf.Facts, Fact{Name: name, Value: coerceFloat(rawValue)})
				return nil
			})
			if err != nil {
				return fmt.Errorf("host %q: %w", host, err)
			}
			f.Hosts = append(f.Hosts, hf)
			return nil
		})
	})
	if err != nil {
		return fmt.Errorf("fact search: %w", err)
	}
	if !seenResults {
		return errors.New("fact search: missing results")
	}
	return nil
}

// walkObject calls fn for every member of the JSON object in data, in
// document order.
func walkObject(data []byte, fn func(key string, raw json.RawMessage) error) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected JSON object, got %v", tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", tok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
		if err := fn(key, raw); err != nil {
			return err
		}
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// jsonNumber parses raw when it is a JSON number literal.
func jsonNumber(raw json.RawMessage) (float64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || (raw[0] != '-' && (raw[0] < '0' || raw[0] > '9')) {
		return 0, false
	}
	v, err := parseFloat(string(raw))
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseFloat is strconv.ParseFloat keeping ±Inf for out of range values.
func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if errors.Is(err, strconv.ErrRange) {
		return v, nil
	}
	return v, err
}

var leadingNumber = regexp.MustCompile(`^\s*[+-]?(\d+(\.\d+)?|\.\d+)([eE][+-]?\d+)?`)

// coerceFloat turns a fact value into a number. Numbers are used as is
// (out of range ones become ±Inf), strings contribute their leading numeric
// part ("7.5 GB" is 7.5) and everything else is 0.
func coerceFloat(raw json.RawMessage) float64 {
	if v, ok := jsonNumber(raw); ok {
		return v
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0
	}
	m := leadingNumber.FindString(s)
	if m == "" {
		return 0
	}
	v, err := parseFloat(strings.TrimLeftFunc(m, unicode.IsSpace))
	if err != nil {
		return 0
	}
	return v
}
