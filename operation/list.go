package operation

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// List is an ordered operation script, such as a migration's up or down
// operations. In YAML every element is a mapping tagged with a "kind" key.
type List []Operation

// Kinds returns the kind of each operation in order.
func (l List) Kinds() []Kind {
	kinds := make([]Kind, len(l))
	for i, op := range l {
		kinds[i] = op.Kind()
	}
	return kinds
}

// MarshalYAML implements yaml.Marshaler.
func (l List) MarshalYAML() (any, error) {
	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for i, op := range l {
		var n yaml.Node
		if err := n.Encode(op); err != nil {
			return nil, fmt.Errorf("failed to encode operation %d (%s): %w", i, op.Kind(), err)
		}
		n.Style = 0
		n.Content = append([]*yaml.Node{
			{Kind: yaml.ScalarNode, Tag: "!!str", Value: "kind"},
			{Kind: yaml.ScalarNode, Tag: "!!str", Value: op.Kind().String()},
		}, n.Content...)
		seq.Content = append(seq.Content, &n)
	}
	return seq, nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *List) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.SequenceNode {
		return fmt.Errorf("line %d: operations must be a sequence", value.Line)
	}
	ops := make(List, 0, len(value.Content))
	for _, item := range value.Content {
		if item.Kind != yaml.MappingNode {
			return fmt.Errorf("line %d: operation must be a mapping", item.Line)
		}
		var kind string
		for i := 0; i+1 < len(item.Content); i += 2 {
			if item.Content[i].Value == "kind" {
				kind = item.Content[i+1].Value
				break
			}
		}
		k, ok := ParseKind(kind)
		if !ok {
			return fmt.Errorf("line %d: unknown operation kind %q", item.Line, kind)
		}
		op := New(k)
		if err := item.Decode(op); err != nil {
			return fmt.Errorf("line %d: failed to decode %s: %w", item.Line, kind, err)
		}
		ops = append(ops, op)
	}
	*l = ops
	return nil
}
