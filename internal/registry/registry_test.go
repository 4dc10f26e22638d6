package registry

import (
	"testing"

	"github.com/sunholo/boxc/internal/types"
)

func TestListAppendNeedsTryAndWrapsPrimitive(t *testing.T) {
	shape, ok := Lookup("append", ReceiverList)
	if !ok {
		t.Fatal("expected list.append to be registered")
	}
	if !shape.NeedsTry {
		t.Fatal("expected append to need try (runtime allocation can fail)")
	}
	if !shape.WrapPrimitive {
		t.Fatal("expected append to wrap a native primitive argument")
	}
	if !shape.IsStatement {
		t.Fatal("expected append to lower as a statement, not an expression")
	}
}

func TestDictGetIsExpressionNotStatement(t *testing.T) {
	shape, ok := Lookup("get", ReceiverDict)
	if !ok {
		t.Fatal("expected dict.get to be registered")
	}
	if shape.IsStatement {
		t.Fatal("expected dict.get to be usable as an expression")
	}
}

func TestUnknownMethodReceiverPairIsAbsent(t *testing.T) {
	if _, ok := Lookup("nope", ReceiverList); ok {
		t.Fatal("expected unregistered method to be absent")
	}
}

func TestDictGetNeedsTryBecauseRtDictGetReturnsErrorUnion(t *testing.T) {
	shape, ok := Lookup("get", ReceiverDict)
	if !ok {
		t.Fatal("expected dict.get to be registered")
	}
	if !shape.NeedsTry {
		t.Fatal("expected dict.get to need try: rt_dict_get returns !*Object")
	}
	if shape.ResultTag != types.TagPyObject {
		t.Fatalf("expected dict.get result tag TagPyObject, got %v", shape.ResultTag)
	}
}

// rt_dict_pop has no default-value slot (unlike rt_dict_get), so the shape
// must cap at a single key argument rather than accept an optional default
// the runtime function has nowhere to put.
func TestDictPopHasNoDefaultArgumentSlot(t *testing.T) {
	shape, ok := Lookup("pop", ReceiverDict)
	if !ok {
		t.Fatal("expected dict.pop to be registered")
	}
	if shape.MaxArgs != 1 {
		t.Fatalf("expected dict.pop MaxArgs=1 (no default slot in rt_dict_pop), got %d", shape.MaxArgs)
	}
}

func TestListInsertIndexArgumentStaysNative(t *testing.T) {
	shape, ok := Lookup("insert", ReceiverList)
	if !ok {
		t.Fatal("expected list.insert to be registered")
	}
	if !shape.NeedsAllocator {
		t.Fatal("expected list.insert to thread the allocator")
	}
	native := map[int]bool{}
	for _, i := range shape.NativeArgs {
		native[i] = true
	}
	if !native[0] {
		t.Fatal("expected list.insert's index argument (position 0) to stay unboxed")
	}
}

func TestNamesFiltersByReceiver(t *testing.T) {
	names := Names(ReceiverString)
	found := false
	for _, n := range names {
		if n == "upper" {
			found = true
		}
		if n == "append" {
			t.Fatalf("Names(ReceiverString) leaked a list method: %v", names)
		}
	}
	if !found {
		t.Fatal("expected upper in ReceiverString method names")
	}
}
