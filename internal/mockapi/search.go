package mockapi

import (
	"fmt"
	"path"
	"regexp"
	"strings"
)

// condition is one "key op value" term of a search query.
type condition struct {
	key   string
	op    string
	value string
}

// query is a conjunction of conditions, a small subset of Foreman's scoped
// search syntax: terms joined by "and", operators =, !=, ~ and !~, and bare
// words matched against the host name.
type query []condition

var andSeparator = regexp.MustCompile(`(?i)\s+and\s+`)

// operators are the supported comparisons. The first one in a term splits
// it into field and value.
var operators = []string{"!=", "!~", "=", "~"}

func parseQuery(s string) (query, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	var q query
	for _, term := range andSeparator.Split(s, -1) {
		term = strings.TrimSpace(term)
		if term == "" {
			return nil, fmt.Errorf("empty search term in %q", s)
		}
		c, err := parseCondition(term)
		if err != nil {
			return nil, err
		}
		q = append(q, c)
	}
	return q, nil
}

func parseCondition(term string) (condition, error) {
	pos, op := -1, ""
	for _, candidate := range operators {
		if idx := strings.Index(term, candidate); idx >= 0 && (pos < 0 || idx < pos) {
			pos, op = idx, candidate
		}
	}

	switch {
	case pos < 0:
		return condition{key: "name", op: "~", value: term}, nil
	case pos == 0:
		return condition{}, fmt.Errorf("missing field name before %q in %q", op, term)
	}
	return condition{
		key:   strings.ToLower(strings.TrimSpace(term[:pos])),
		op:    op,
		value: strings.Trim(strings.TrimSpace(term[pos+len(op):]), `"'`),
	}, nil
}

func (c condition) matches(actual string) bool {
	switch c.op {
	case "=":
		return actual == c.value
	case "!=":
		return actual != c.value
	case "~":
		return like(actual, c.value)
	case "!~":
		return !like(actual, c.value)
	}
	return false
}

// like matches a "*" wildcard pattern, or a case-insensitive substring when
// the pattern has no wildcard.
func like(actual, pattern string) bool {
	if strings.Contains(pattern, "*") {
		ok, err := path.Match(strings.ToLower(pattern), strings.ToLower(actual))
		return err == nil && ok
	}
	return strings.Contains(strings.ToLower(actual), strings.ToLower(pattern))
}

// matchHost applies every host-level condition to h.
func (q query) matchHost(h *HostFixture) bool {
	for _, c := range q {
		if c.key == "fact" {
			continue
		}
		if !c.matches(hostField(h, c.key)) {
			return false
		}
	}
	return true
}

// matchFact applies the fact name conditions to name.
func (q query) matchFact(name string) bool {
	for _, c := range q {
		if c.key == "fact" && !c.matches(name) {
			return false
		}
	}
	return true
}

func hostField(h *HostFixture, key string) string {
	switch {
	case key == "name" || key == "host":
		return h.Name
	case strings.HasPrefix(key, "facts."):
		if n := h.factValue(strings.TrimPrefix(key, "facts.")); n != nil {
			return n.Value
		}
		return ""
	default:
		return h.Params[key]
	}
}
