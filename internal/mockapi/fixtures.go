// Package mockapi serves a fixture-backed subset of the Foreman API: the
// dashboard, host search and fact value search resources.
package mockapi

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed fixtures.yaml
var defaultFixtures []byte

// Fixtures is the data set served by the mock API. Mappings are kept as YAML
// nodes so their key order reaches the JSON responses unchanged.
type Fixtures struct {
	Dashboard yaml.Node     `yaml:"dashboard"`
	Hosts     []HostFixture `yaml:"hosts"`
}

// HostFixture is one managed host with its parameters and facts.
type HostFixture struct {
	Name   string            `yaml:"name"`
	Params map[string]string `yaml:"params"`
	Facts  yaml.Node         `yaml:"facts"`
}

// DefaultFixtures returns the built-in demo data set.
func DefaultFixtures() (*Fixtures, error) {
	return ParseFixtures(defaultFixtures)
}

// LoadFixtures reads a fixture file.
func LoadFixtures(path string) (*Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixtures: %w", err)
	}
	return ParseFixtures(data)
}

// ParseFixtures decodes YAML fixture data.
func ParseFixtures(data []byte) (*Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixtures: %w", err)
	}
	if !f.Dashboard.IsZero() && f.Dashboard.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("fixtures: dashboard must be a mapping (line %d)", f.Dashboard.Line)
	}
	for _, h := range f.Hosts {
		if h.Name == "" {
			return nil, fmt.Errorf("fixtures: host without name")
		}
		if !h.Facts.IsZero() && h.Facts.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("fixtures: facts of %s must be a mapping (line %d)", h.Name, h.Facts.Line)
		}
	}
	return &f, nil
}

// FactNames returns the fact names of h in fixture order.
func (h *HostFixture) FactNames() []string {
	var names []string
	for i := 0; i+1 < len(h.Facts.Content); i += 2 {
		names = append(names, h.Facts.Content[i].Value)
	}
	return names
}

// factValue returns the node holding fact name of h.
func (h *HostFixture) factValue(name string) *yaml.Node {
	for i := 0; i+1 < len(h.Facts.Content); i += 2 {
		if h.Facts.Content[i].Value == name {
			return h.Facts.Content[i+1]
		}
	}
	return nil
}

// nodeJSON renders a YAML node as JSON, keeping mapping order.
func nodeJSON(buf *bytes.Buffer, n *yaml.Node) error {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			buf.WriteString("null")
			return nil
		}
		return nodeJSON(buf, n.Content[0])
	case yaml.AliasNode:
		return nodeJSON(buf, n.Alias)
	case yaml.MappingNode:
		buf.WriteByte('{')
		for i := 0; i+1 < len(n.Content); i += 2 {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSONString(buf, n.Content[i].Value); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := nodeJSON(buf, n.Content[i+1]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case yaml.SequenceNode:
		buf.WriteByte('[')
		for i, item := range n.Content {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := nodeJSON(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case yaml.ScalarNode:
		return scalarJSON(buf, n)
	default:
		buf.WriteString("null")
	}
	return nil
}

func scalarJSON(buf *bytes.Buffer, n *yaml.Node) error {
	switch n.ShortTag() {
	case "!!int", "!!float":
		if json.Valid([]byte(n.Value)) {
			buf.WriteString(n.Value)
			return nil
		}
		// .inf, .nan, 0x1F and +5 have no JSON literal.
		return writeJSONString(buf, n.Value)
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return err
		}
		buf.WriteString(strconv.FormatBool(b))
		return nil
	case "!!null":
		buf.WriteString("null")
		return nil
	default:
		return writeJSONString(buf, n.Value)
	}
}

func writeJSONString(buf *bytes.Buffer, s string) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}
