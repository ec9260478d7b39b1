package bufmap

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ToMap returns the decoded tree as nested maps keyed by field name. Reserved
// and out of bounds fields are omitted and enum fields export their variant
// name when one matches.
func (s *Struct) ToMap() (map[string]any, error) {
	out := make(map[string]any, len(s.fields))
	for _, f := range s.fields {
		if f.Reserved() || !f.InBounds() {
			continue
		}
		if _, dup := out[f.Name()]; dup {
			continue
		}
		v, err := exportValue(f)
		if err != nil {
			return nil, fmt.Errorf("%s: export %q: %w", s.name, f.Name(), err)
		}
		out[f.Name()] = v
	}
	return out, nil
}

func exportValue(f Field) (any, error) {
	switch t := f.(type) {
	case *CompositeField:
		return t.child.ToMap()
	case *ArrayField:
		out := make([]any, len(t.elems))
		for i, e := range t.elems {
			v, err := exportValue(e)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case enumerated:
		name, ok, err := t.enumName()
		if err != nil {
			return nil, err
		}
		if ok {
			return name, nil
		}
	}
	return f.Decoded()
}

// ToJSON encodes ToMap as JSON. Keys are sorted; use ToYAML to keep
// declaration order.
func (s *Struct) ToJSON() ([]byte, error) {
	m, err := s.ToMap()
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s to JSON: %w", s.name, err)
	}
	return data, nil
}

// ToYAML encodes the decoded tree as YAML in declaration order.
func (s *Struct) ToYAML() ([]byte, error) {
	node, err := s.yamlNode()
	if err != nil {
		return nil, err
	}
	data, err := yaml.Marshal(node)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s to YAML: %w", s.name, err)
	}
	return data, nil
}

func (s *Struct) yamlNode() (*yaml.Node, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	seen := make(map[string]bool, len(s.fields))
	for _, f := range s.fields {
		if f.Reserved() || !f.InBounds() || seen[f.Name()] {
			continue
		}
		seen[f.Name()] = true
		v, err := yamlValue(f)
		if err != nil {
			return nil, fmt.Errorf("%s: export %q: %w", s.name, f.Name(), err)
		}
		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: f.Name()}, v)
	}
	return node, nil
}

func yamlValue(f Field) (*yaml.Node, error) {
	switch t := f.(type) {
	case *CompositeField:
		return t.child.yamlNode()
	case *ArrayField:
		node := &yaml.Node{Kind: yaml.SequenceNode}
		for _, e := range t.elems {
			v, err := yamlValue(e)
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content, v)
		}
		return node, nil
	}
	v, err := exportValue(f)
	if err != nil {
		return nil, err
	}
	node := &yaml.Node{}
	if err := node.Encode(v); err != nil {
		return nil, err
	}
	return node, nil
}
