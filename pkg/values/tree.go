// Copyright 2026 BWI GmbH and Cluster Forge contributors
// SPDX-License-Identifier: Apache-2.0

// Package values implements the layered value model for component
// configuration. Values are held in a Tree, a tagged variant over scalars,
// sequences and mappings, so that merge behavior is total instead of
// depending on ad hoc type switches over interface{}.
package values

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// Kind discriminates the variants of a Tree.
type Kind int

const (
	// KindNull is an explicit null value.
	KindNull Kind = iota
	// KindScalar is a string, bool or numeric leaf.
	KindScalar
	// KindSequence is an ordered list of subtrees.
	KindSequence
	// KindMapping is an ordered string-keyed mapping of subtrees.
	KindMapping
)

type mapEntry struct {
	key   string
	value *Tree
}

// Tree is one node of a value tree. The zero value is null.
//
// Mappings preserve insertion order, which keeps emitted YAML stable across
// runs for identical inputs.
type Tree struct {
	kind    Kind
	scalar  any
	seq     []*Tree
	entries []mapEntry
	index   map[string]int
}

// Null returns an explicit null tree.
func Null() *Tree {
	return &Tree{kind: KindNull}
}

// Scalar returns a scalar leaf holding v.
func Scalar(v any) *Tree {
	return &Tree{kind: KindScalar, scalar: v}
}

// Sequence returns a sequence node over the given items.
func Sequence(items ...*Tree) *Tree {
	return &Tree{kind: KindSequence, seq: items}
}

// Mapping returns an empty mapping node.
func Mapping() *Tree {
	return &Tree{kind: KindMapping, index: map[string]int{}}
}

// Kind returns the variant of the node.
func (t *Tree) Kind() Kind {
	if t == nil {
		return KindNull
	}
	return t.kind
}

// IsEmpty reports whether the tree is null, or an empty mapping or sequence.
func (t *Tree) IsEmpty() bool {
	switch t.Kind() {
	case KindNull:
		return true
	case KindSequence:
		return len(t.seq) == 0
	case KindMapping:
		return len(t.entries) == 0
	default:
		return false
	}
}

// Len returns the number of entries of a mapping or items of a sequence.
func (t *Tree) Len() int {
	switch t.Kind() {
	case KindSequence:
		return len(t.seq)
	case KindMapping:
		return len(t.entries)
	default:
		return 0
	}
}

// Get returns the value for key in a mapping, or nil.
func (t *Tree) Get(key string) *Tree {
	if t.Kind() != KindMapping {
		return nil
	}
	if i, ok := t.index[key]; ok {
		return t.entries[i].value
	}
	return nil
}

// Set stores value under key, appending the key if it is new.
func (t *Tree) Set(key string, value *Tree) *Tree {
	if t.kind != KindMapping {
		panic("values: Set on non-mapping tree")
	}
	if i, ok := t.index[key]; ok {
		t.entries[i].value = value
		return t
	}
	t.index[key] = len(t.entries)
	t.entries = append(t.entries, mapEntry{key: key, value: value})
	return t
}

// Keys returns the mapping keys in insertion order.
func (t *Tree) Keys() []string {
	if t.Kind() != KindMapping {
		return nil
	}
	keys := make([]string, 0, len(t.entries))
	for _, e := range t.entries {
		keys = append(keys, e.key)
	}
	return keys
}

// Items returns the items of a sequence.
func (t *Tree) Items() []*Tree {
	if t.Kind() != KindSequence {
		return nil
	}
	return t.seq
}

// ScalarValue returns the scalar payload, or nil for non-scalars.
func (t *Tree) ScalarValue() any {
	if t.Kind() != KindScalar {
		return nil
	}
	return t.scalar
}

// Copy returns a deep copy of the tree.
func (t *Tree) Copy() *Tree {
	switch t.Kind() {
	case KindNull:
		return Null()
	case KindScalar:
		return Scalar(t.scalar)
	case KindSequence:
		items := make([]*Tree, len(t.seq))
		for i, it := range t.seq {
			items[i] = it.Copy()
		}
		return Sequence(items...)
	default:
		m := Mapping()
		for _, e := range t.entries {
			m.Set(e.key, e.value.Copy())
		}
		return m
	}
}

// FromInterface converts a decoded YAML/JSON value into a Tree. Map keys are
// sorted lexically because Go map iteration order is unspecified; documents
// decoded through UnmarshalYAML or UnmarshalJSON keep their source order
// instead.
func FromInterface(v any) (*Tree, error) {
	switch val := v.(type) {
	case nil:
		return Null(), nil
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := Mapping()
		for _, k := range keys {
			sub, err := FromInterface(val[k])
			if err != nil {
				return nil, err
			}
			m.Set(k, sub)
		}
		return m, nil
	case map[any]any:
		return nil, fmt.Errorf("unsupported non-string map key in value tree")
	case []any:
		items := make([]*Tree, len(val))
		for i, it := range val {
			sub, err := FromInterface(it)
			if err != nil {
				return nil, err
			}
			items[i] = sub
		}
		return Sequence(items...), nil
	case bool, string, int, int64, uint64, float64, json.Number:
		return Scalar(val), nil
	default:
		return nil, fmt.Errorf("unsupported value of type %T in value tree", v)
	}
}

// Interface converts the tree back into plain Go values.
func (t *Tree) Interface() any {
	switch t.Kind() {
	case KindNull:
		return nil
	case KindScalar:
		return t.scalar
	case KindSequence:
		items := make([]any, len(t.seq))
		for i, it := range t.seq {
			items[i] = it.Interface()
		}
		return items
	default:
		m := make(map[string]any, len(t.entries))
		for _, e := range t.entries {
			m[e.key] = e.value.Interface()
		}
		return m
	}
}

// UnmarshalYAML decodes a YAML node preserving mapping order.
func (t *Tree) UnmarshalYAML(node *yaml.Node) error {
	decoded, err := fromNode(node)
	if err != nil {
		return err
	}
	*t = *decoded
	return nil
}

func fromNode(node *yaml.Node) (*Tree, error) {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return Null(), nil
		}
		return fromNode(node.Content[0])
	case yaml.AliasNode:
		return fromNode(node.Alias)
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return Null(), nil
		}
		var v any
		if err := node.Decode(&v); err != nil {
			return nil, err
		}
		return Scalar(v), nil
	case yaml.SequenceNode:
		items := make([]*Tree, 0, len(node.Content))
		for _, c := range node.Content {
			sub, err := fromNode(c)
			if err != nil {
				return nil, err
			}
			items = append(items, sub)
		}
		return Sequence(items...), nil
	case yaml.MappingNode:
		m := Mapping()
		for i := 0; i+1 < len(node.Content); i += 2 {
			var key string
			if err := node.Content[i].Decode(&key); err != nil {
				return nil, fmt.Errorf("line %d: mapping key must be a string: %w", node.Content[i].Line, err)
			}
			sub, err := fromNode(node.Content[i+1])
			if err != nil {
				return nil, err
			}
			m.Set(key, sub)
		}
		return m, nil
	default:
		return Null(), nil
	}
}

// MarshalYAML emits the tree as a yaml.Node so mapping order survives
// encoding.
func (t *Tree) MarshalYAML() (any, error) {
	return t.toNode()
}

func (t *Tree) toNode() (*yaml.Node, error) {
	switch t.Kind() {
	case KindNull:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	case KindScalar:
		n := &yaml.Node{}
		if err := n.Encode(t.scalar); err != nil {
			return nil, err
		}
		return n, nil
	case KindSequence:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, it := range t.seq {
			c, err := it.toNode()
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, c)
		}
		return n, nil
	default:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, e := range t.entries {
			k := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.key}
			v, err := e.value.toNode()
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, k, v)
		}
		return n, nil
	}
}

// UnmarshalJSON decodes JSON preserving object key order, so values posted
// through the HTTP API round-trip into the same emitted YAML.
func (t *Tree) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	decoded, err := fromJSONDecoder(dec)
	if err != nil {
		return err
	}
	*t = *decoded
	return nil
}

func fromJSONDecoder(dec *json.Decoder) (*Tree, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return fromJSONToken(dec, tok)
}

func fromJSONToken(dec *json.Decoder, tok json.Token) (*Tree, error) {
	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			m := Mapping()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("unexpected object key token %v", keyTok)
				}
				sub, err := fromJSONDecoder(dec)
				if err != nil {
					return nil, err
				}
				m.Set(key, sub)
			}
			// consume '}'
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return m, nil
		case '[':
			var items []*Tree
			for dec.More() {
				sub, err := fromJSONDecoder(dec)
				if err != nil {
					return nil, err
				}
				items = append(items, sub)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return Sequence(items...), nil
		default:
			return nil, fmt.Errorf("unexpected delimiter %v", v)
		}
	case nil:
		return Null(), nil
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return Scalar(i), nil
		}
		f, err := v.Float64()
		if err != nil {
			return nil, err
		}
		return Scalar(f), nil
	default:
		return Scalar(v), nil
	}
}

// MarshalJSON emits the tree preserving mapping order.
func (t *Tree) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := t.writeJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (t *Tree) writeJSON(buf *bytes.Buffer) error {
	switch t.Kind() {
	case KindNull:
		buf.WriteString("null")
		return nil
	case KindScalar:
		data, err := json.Marshal(t.scalar)
		if err != nil {
			return err
		}
		buf.Write(data)
		return nil
	case KindSequence:
		buf.WriteByte('[')
		for i, it := range t.seq {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := it.writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	default:
		buf.WriteByte('{')
		for i, e := range t.entries {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(e.key)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := e.value.writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	}
}
