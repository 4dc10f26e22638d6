// Package ir is a typed record of the constructs that replaced the
// original implementation's "stringly-typed markers split by __": a small
// closed set of node kinds, each carrying its own typed operand payload,
// recorded during statement lowering (internal/codegen) alongside the Zig
// text codegen renders directly. No later phase rewrites or resolves the
// nodes; `--show-ir` (SPEC_FULL.md §3) dumps a Sequence exactly as
// produced here.
//
// Node shape follows the teacher's internal/core CoreExpr pattern (a
// common embedded node struct plus a closed interface with a private
// marker method) rather than its actual ANF semantics, which do not
// apply here.
package ir

import (
	"fmt"

	"github.com/sunholo/boxc/internal/ast"
	"github.com/sunholo/boxc/internal/types"
)

// Kind discriminates the deferred-expansion node variants.
type Kind int

const (
	PrimitiveWrapKind Kind = iota
	InMarkerKind
	CollectionLiteralKind
	ComprehensionKind
	SumKind
	StatementMethodKind
)

func (k Kind) String() string {
	switch k {
	case PrimitiveWrapKind:
		return "primitive-wrap"
	case InMarkerKind:
		return "in-marker"
	case CollectionLiteralKind:
		return "collection-literal"
	case ComprehensionKind:
		return "comprehension"
	case SumKind:
		return "sum"
	case StatementMethodKind:
		return "statement-method"
	}
	return "unknown"
}

// Node is the base for all deferred-expansion variants.
type Node struct {
	NodeID uint64
	Pos    ast.Pos
}

func (n Node) Position() ast.Pos { return n.Pos }

// Op is the common interface over every deferred-expansion node.
type Op interface {
	Kind() Kind
	Position() ast.Pos
	String() string
	opNode()
}

// PrimitiveWrap defers boxing a native value (int/float/bool) into a
// dynamic pyobject, resolved once the enclosing call site's expected
// receiver kind is known (registry.CallShape.WrapPrimitive).
type PrimitiveWrap struct {
	Node
	SourceTag types.Tag
	ValueText string // rendered Zig expression text of the unboxed value
}

func (*PrimitiveWrap) Kind() Kind    { return PrimitiveWrapKind }
func (*PrimitiveWrap) opNode()       {}
func (p *PrimitiveWrap) String() string {
	return fmt.Sprintf("wrap<%s>(%s)", p.SourceTag, p.ValueText)
}

// InMarker defers lowering `needle in haystack`: the runtime call it
// resolves to depends on haystack's tag (list membership, dict key
// presence, or string substring search all share the `in` spelling in
// the accepted subset).
type InMarker struct {
	Node
	NeedleText   string
	HaystackText string
	HaystackTag  types.Tag
}

func (*InMarker) Kind() Kind { return InMarkerKind }
func (*InMarker) opNode()    {}
func (m *InMarker) String() string {
	return fmt.Sprintf("in<%s>(%s, %s)", m.HaystackTag, m.NeedleText, m.HaystackText)
}

// CollectionLiteral records a list/tuple/dict literal's element tag and
// element texts. Codegen renders every such literal as a dynamically
// allocated, reference-counted runtime object; it never emits a native
// inline array for one.
type CollectionLiteral struct {
	Node
	ElemTag   types.Tag
	ElemTexts []string
}

func (*CollectionLiteral) Kind() Kind { return CollectionLiteralKind }
func (*CollectionLiteral) opNode()    {}
func (c *CollectionLiteral) String() string {
	return fmt.Sprintf("collect<%s>(%d elems)", c.ElemTag, len(c.ElemTexts))
}

// Comprehension defers `[result for var in iter if cond]` lowering until
// the element tag of iter and the tag of result are both known, at which
// point it expands into an allocating loop over the runtime list/iterator.
type Comprehension struct {
	Node
	ResultText string
	VarName    string
	IterText   string
	IterTag    types.Tag
	CondText   string // "" when there is no filter
}

func (*Comprehension) Kind() Kind { return ComprehensionKind }
func (*Comprehension) opNode()    {}
func (c *Comprehension) String() string {
	if c.CondText == "" {
		return fmt.Sprintf("comprehension(%s for %s in %s<%s>)", c.ResultText, c.VarName, c.IterText, c.IterTag)
	}
	return fmt.Sprintf("comprehension(%s for %s in %s<%s> if %s)", c.ResultText, c.VarName, c.IterText, c.IterTag, c.CondText)
}

// Sum records a `+` that codegen lowered to a runtime call: string
// concatenation, list concatenation, or a runtime add for operands of any
// other tag. A `+` on int or float operands renders as native addition
// and records no Sum.
type Sum struct {
	Node
	LeftText  string
	LeftTag   types.Tag
	RightText string
	RightTag  types.Tag
}

func (*Sum) Kind() Kind { return SumKind }
func (*Sum) opNode()    {}
func (s *Sum) String() string {
	return fmt.Sprintf("sum(%s<%s> + %s<%s>)", s.LeftText, s.LeftTag, s.RightText, s.RightTag)
}

// StatementMethod defers a method call used only for effect (its result,
// if any, is discarded), so the generator can drop the `_ = ` temporary
// wrapper a value-producing call would otherwise need.
type StatementMethod struct {
	Node
	ReceiverText string
	ReceiverTag  types.Tag
	Method       string
	ArgTexts     []string
}

func (*StatementMethod) Kind() Kind { return StatementMethodKind }
func (*StatementMethod) opNode()    {}
func (s *StatementMethod) String() string {
	return fmt.Sprintf("stmt-call<%s>(%s.%s(%d args))", s.ReceiverTag, s.ReceiverText, s.Method, len(s.ArgTexts))
}

// Sequence is an ordered list of deferred-expansion nodes produced while
// lowering one function body, in source order. `--show-ir` renders it
// with Dump; internal/runtimeinline does not read it (it scans the
// generated source text for rt.* symbols instead).
type Sequence []Op

// Dump renders every node on its own line, prefixed with its Kind, for
// the `--show-ir` diagnostic dump (SPEC_FULL.md §3).
func (s Sequence) Dump() string {
	var out string
	for i, op := range s {
		out += fmt.Sprintf("%3d: %-18s %s\n", i, op.Kind(), op)
	}
	return out
}

// Builder assigns stable, increasing NodeIDs to deferred-expansion nodes
// as a function body is lowered, mirroring the teacher's elaborator
// assigning NodeID on core.CoreNode.
type Builder struct {
	next uint64
	seq  Sequence
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder { return &Builder{} }

// node stamps n with the next NodeID; called by each Emit* helper below.
func (b *Builder) node(pos ast.Pos) Node {
	b.next++
	return Node{NodeID: b.next, Pos: pos}
}

func (b *Builder) EmitPrimitiveWrap(pos ast.Pos, tag types.Tag, valueText string) *PrimitiveWrap {
	op := &PrimitiveWrap{Node: b.node(pos), SourceTag: tag, ValueText: valueText}
	b.seq = append(b.seq, op)
	return op
}

func (b *Builder) EmitInMarker(pos ast.Pos, needle, haystack string, haystackTag types.Tag) *InMarker {
	op := &InMarker{Node: b.node(pos), NeedleText: needle, HaystackText: haystack, HaystackTag: haystackTag}
	b.seq = append(b.seq, op)
	return op
}

func (b *Builder) EmitCollectionLiteral(pos ast.Pos, elemTag types.Tag, elemTexts []string) *CollectionLiteral {
	op := &CollectionLiteral{Node: b.node(pos), ElemTag: elemTag, ElemTexts: elemTexts}
	b.seq = append(b.seq, op)
	return op
}

func (b *Builder) EmitComprehension(pos ast.Pos, resultText, varName, iterText string, iterTag types.Tag, condText string) *Comprehension {
	op := &Comprehension{Node: b.node(pos), ResultText: resultText, VarName: varName, IterText: iterText, IterTag: iterTag, CondText: condText}
	b.seq = append(b.seq, op)
	return op
}

func (b *Builder) EmitSum(pos ast.Pos, leftText string, leftTag types.Tag, rightText string, rightTag types.Tag) *Sum {
	op := &Sum{Node: b.node(pos), LeftText: leftText, LeftTag: leftTag, RightText: rightText, RightTag: rightTag}
	b.seq = append(b.seq, op)
	return op
}

func (b *Builder) EmitStatementMethod(pos ast.Pos, receiverText string, receiverTag types.Tag, method string, argTexts []string) *StatementMethod {
	op := &StatementMethod{Node: b.node(pos), ReceiverText: receiverText, ReceiverTag: receiverTag, Method: method, ArgTexts: argTexts}
	b.seq = append(b.seq, op)
	return op
}

// Sequence returns every node emitted so far, in emission order.
func (b *Builder) Sequence() Sequence { return b.seq }
