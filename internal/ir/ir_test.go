package ir

import (
	"strings"
	"testing"

	"github.com/sunholo/boxc/internal/ast"
	"github.com/sunholo/boxc/internal/types"
)

func TestBuilderAssignsIncreasingNodeIDs(t *testing.T) {
	b := NewBuilder()
	pos := ast.Pos{File: "t.py", Line: 1, Column: 1}
	first := b.EmitPrimitiveWrap(pos, types.TagInt, "42")
	second := b.EmitSum(pos, "a", types.TagInt, "b", types.TagInt)
	if first.NodeID >= second.NodeID {
		t.Fatalf("expected increasing NodeIDs, got %d then %d", first.NodeID, second.NodeID)
	}
}

func TestSequenceDumpIncludesEveryKind(t *testing.T) {
	b := NewBuilder()
	pos := ast.Pos{File: "t.py", Line: 1, Column: 1}
	b.EmitPrimitiveWrap(pos, types.TagInt, "1")
	b.EmitInMarker(pos, "x", "xs", types.TagList)
	b.EmitCollectionLiteral(pos, types.TagInt, []string{"1", "2"})
	b.EmitComprehension(pos, "x", "x", "xs", types.TagList, "")
	b.EmitSum(pos, "a", types.TagString, "b", types.TagString)
	b.EmitStatementMethod(pos, "xs", types.TagList, "append", []string{"1"})

	dump := b.Sequence().Dump()
	for _, want := range []string{"primitive-wrap", "in-marker", "collection-literal", "comprehension", "sum", "statement-method"} {
		if !strings.Contains(dump, want) {
			t.Fatalf("expected dump to mention %q, got:\n%s", want, dump)
		}
	}
}
