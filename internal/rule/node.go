package rule

import (
	"encoding/json"
	"strings"

	"github.com/valyala/fastjson"
)

type Kind string

const (
	KindOperand  Kind = "operand"
	KindOperator Kind = "operator"
)

// Symbol is the value of an operator node.
type Symbol string

const (
	And Symbol = "AND"
	Or  Symbol = "OR"
	Eq  Symbol = "="
	Ne  Symbol = "!="
	Gt  Symbol = ">"
	Lt  Symbol = "<"
	Ge  Symbol = ">="
	Le  Symbol = "<="
)

func (s Symbol) IsConnective() bool {
	return s == And || s == Or
}

func (s Symbol) IsComparison() bool {
	switch s {
	case Eq, Ne, Gt, Lt, Ge, Le:
		return true
	}
	return false
}

// DefaultMaxDepth bounds parser nesting, combined trees, decoding and
// evaluation recursion. It is also the ceiling for WithMaxDepth: trees are
// decoded against it, and it stays below fastjson's object nesting limit.
const DefaultMaxDepth = 256

// Node is a rule tree node. Operands hold a raw token in Value and have no
// children; operators hold a Symbol in Value and two children. Nodes are never
// mutated once built.
type Node struct {
	Kind  Kind
	Value string
	Left  *Node
	Right *Node
}

func Operand(raw string) *Node {
	return &Node{Kind: KindOperand, Value: raw}
}

func Operator(sym Symbol, left, right *Node) *Node {
	return &Node{Kind: KindOperator, Value: string(sym), Left: left, Right: right}
}

func (n *Node) IsOperand() bool  { return n != nil && n.Kind == KindOperand }
func (n *Node) IsOperator() bool { return n != nil && n.Kind == KindOperator }

func (n *Node) Symbol() Symbol {
	if !n.IsOperator() {
		return ""
	}
	return Symbol(n.Value)
}

// Equal reports whether both trees have the same shape and values.
func (n *Node) Equal(o *Node) bool {
	if n == nil || o == nil {
		return n == o
	}
	return n.Kind == o.Kind && n.Value == o.Value && n.Left.Equal(o.Left) && n.Right.Equal(o.Right)
}

// Clone returns a deep copy of the tree.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	return &Node{Kind: n.Kind, Value: n.Value, Left: n.Left.Clone(), Right: n.Right.Clone()}
}

// String renders the tree in fully parenthesized infix form.
func (n *Node) String() string {
	var b strings.Builder
	n.write(&b)
	return b.String()
}

func (n *Node) write(b *strings.Builder) {
	if n == nil {
		return
	}
	if n.Kind == KindOperand {
		b.WriteString(n.Value)
		return
	}
	b.WriteByte('(')
	n.Left.write(b)
	b.WriteByte(' ')
	b.WriteString(n.Value)
	if n.Right != nil {
		b.WriteByte(' ')
		n.Right.write(b)
	}
	b.WriteByte(')')
}

// ToMap converts the tree to its transport mapping. Absent children are
// omitted rather than stored as nil.
func (n *Node) ToMap() map[string]any {
	m := map[string]any{"type": string(n.Kind), "value": n.Value}
	if n.Left != nil {
		m["left"] = n.Left.ToMap()
	}
	if n.Right != nil {
		m["right"] = n.Right.ToMap()
	}
	return m
}

// FromMap builds a tree from a transport mapping, such as one produced by
// encoding/json decoding into map[string]any. It is the one place where the
// shape of a transport tree is checked.
func FromMap(m map[string]any) (*Node, error) {
	return fromMap(m, nil)
}

func fromMap(m map[string]any, path nodePath) (*Node, error) {
	if len(path) > DefaultMaxDepth {
		return nil, newError("decode", ErrMalformedTree, "tree deeper than %d at %s", DefaultMaxDepth, path.short())
	}
	if m == nil {
		return nil, newError("decode", ErrMalformedTree, "missing node at %s", path.short())
	}

	kind, ok := m["type"].(string)
	if !ok {
		return nil, newError("decode", ErrMalformedTree, "missing or non-string type at %s", path.short())
	}
	value, ok := m["value"].(string)
	if !ok {
		return nil, newError("decode", ErrMalformedTree, "missing or non-string value at %s", path.short())
	}

	n := &Node{Kind: Kind(kind), Value: value}
	switch n.Kind {
	case KindOperand:
		if m["left"] != nil || m["right"] != nil {
			return nil, newError("decode", ErrMalformedTree, "operand %q has children at %s", value, path.short())
		}
		return n, nil
	case KindOperator:
	default:
		return nil, newError("decode", ErrMalformedTree, "unknown node type %q at %s", kind, path.short())
	}

	var err error
	if n.Left, err = childFromMap(m, "left", path.left()); err != nil {
		return nil, err
	}
	if n.Right, err = childFromMap(m, "right", path.right()); err != nil {
		return nil, err
	}
	return n, nil
}

func childFromMap(m map[string]any, key string, path nodePath) (*Node, error) {
	raw, ok := m[key]
	if !ok || raw == nil {
		return nil, nil
	}
	child, ok := raw.(map[string]any)
	if !ok {
		return nil, newError("decode", ErrMalformedTree, "%s is not an object", path.short())
	}
	return fromMap(child, path)
}

func (n *Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.ToMap())
}

func (n *Node) UnmarshalJSON(b []byte) error {
	parsed, err := ParseJSON(b)
	if err != nil {
		return err
	}
	*n = *parsed
	return nil
}

var parserPool fastjson.ParserPool

// ParseJSON decodes a transport JSON document into a tree. Only the node
// fields are copied out of the document before FromMap checks the shape.
func ParseJSON(b []byte) (*Node, error) {
	p := parserPool.Get()
	defer parserPool.Put(p)

	v, err := p.ParseBytes(b)
	if err != nil {
		return nil, newError("decode", ErrMalformedTree, "invalid json: %v", err)
	}
	if v.Type() != fastjson.TypeObject {
		return nil, newError("decode", ErrMalformedTree, "node at root is %s, want object", v.Type())
	}
	m, err := nodeFields(v, 0)
	if err != nil {
		return nil, err
	}
	return FromMap(m)
}

// nodeFields maps the type/value/left/right members of an object. Members of
// any other JSON type are kept as their *fastjson.Value so FromMap rejects them.
func nodeFields(v *fastjson.Value, depth int) (map[string]any, error) {
	if depth > DefaultMaxDepth {
		return nil, newError("decode", ErrMalformedTree, "tree deeper than %d", DefaultMaxDepth)
	}
	obj, err := v.Object()
	if err != nil {
		return nil, newError("decode", ErrMalformedTree, "invalid node: %v", err)
	}

	m := make(map[string]any, 4)
	obj.Visit(func(k []byte, f *fastjson.Value) {
		if err != nil {
			return
		}
		key := string(k)
		switch key {
		case "type", "value", "left", "right":
		default:
			return
		}
		switch f.Type() {
		case fastjson.TypeString:
			b, _ := f.StringBytes()
			m[key] = string(b)
		case fastjson.TypeNull:
			m[key] = nil
		case fastjson.TypeObject:
			var child map[string]any
			if child, err = nodeFields(f, depth+1); err == nil {
				m[key] = child
			}
		default:
			m[key] = f
		}
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}
