// Package registry implements the Method Dispatch Registry of spec §4.1
// (C1): a static table keyed by (method name, receiver kind) giving the
// runtime call shape internal/codegen needs to lower a `recv.method(args)`
// call, grounded on the teacher's init()-driven builtin metadata table in
// internal/builtins/registry.go.
package registry

import "github.com/sunholo/boxc/internal/types"

// ReceiverKind is the semantic tag of the value a method is called on
// (mirrors the subset of types.Tag that can receive a method call).
type ReceiverKind string

const (
	ReceiverList   ReceiverKind = "list"
	ReceiverDict   ReceiverKind = "dict"
	ReceiverString ReceiverKind = "string"
	ReceiverTuple  ReceiverKind = "tuple"
	ReceiverPyInt  ReceiverKind = "pyint"
	ReceiverObject ReceiverKind = "pyobject"
)

// CallShape is everything internal/codegen needs to emit a call to
// method on a value of some ReceiverKind.
type CallShape struct {
	// RuntimeFunc is the runtime/ symbol internal/runtimeinline splices
	// in and internal/codegen calls, e.g. "rt_list_append".
	RuntimeFunc string

	// NeedsTry marks a call whose Zig signature returns `!T`, so the
	// generated call site must be prefixed with `try` (spec §4.1's
	// "needs-try bit").
	NeedsTry bool

	// NeedsAllocator marks a call whose Zig signature takes `allocator:
	// std.mem.Allocator` as its first parameter, so internal/codegen must
	// thread the enclosing function's `allocator` binding into the call
	// ahead of the receiver.
	NeedsAllocator bool

	// WrapPrimitive marks a call whose argument(s) must be boxed from a
	// native primitive into a dynamic object before the call, e.g.
	// appending a native int onto a list of pyobjects (spec §4.1's
	// "wrap-primitive marker").
	WrapPrimitive bool

	// NativeArgs lists zero-indexed argument positions that stay native
	// (i64/bool) even when WrapPrimitive is set, e.g. list.insert's index
	// parameter — everything else the runtime signature takes as
	// `*Object` gets boxed.
	NativeArgs []int

	// IsStatement marks a call with no meaningful return value, so
	// internal/codegen lowers it as a bare statement rather than an
	// expression producing a temporary (e.g. list.append, list.sort).
	IsStatement bool

	// ResultTag is the VarType tag internal/codegen should attribute to
	// this call's result, so callers downstream (print, assignment,
	// further method calls) make the right ownership/formatting decision
	// instead of an unconditional TagPyObject guess.
	ResultTag types.Tag

	// MinArgs/MaxArgs bound the accepted argument count; MaxArgs == -1
	// means unbounded (the string format entry uses it for its variadic
	// arguments).
	MinArgs int
	MaxArgs int
}

// Key identifies one registry entry.
type Key struct {
	Method   string
	Receiver ReceiverKind
}

// Table holds every known (method, receiver) -> CallShape entry.
var Table = make(map[Key]CallShape)

func init() {
	registerListMethods()
	registerDictMethods()
	registerStringMethods()
	registerTupleMethods()
	registerPyIntMethods()
}

// Lookup resolves a method call's shape, reporting false when the pair is
// unknown — internal/codegen then falls back to a runtime rt.dyn_dispatch
// call.
func Lookup(method string, receiver ReceiverKind) (CallShape, bool) {
	shape, ok := Table[Key{Method: method, Receiver: receiver}]
	return shape, ok
}

// Names returns every method name registered for receiver, for
// diagnostics and `--show-ir` dumps.
func Names(receiver ReceiverKind) []string {
	var names []string
	for k := range Table {
		if k.Receiver == receiver {
			names = append(names, k.Method)
		}
	}
	return names
}

func register(method string, receiver ReceiverKind, shape CallShape) {
	Table[Key{Method: method, Receiver: receiver}] = shape
}

func registerListMethods() {
	register("append", ReceiverList, CallShape{RuntimeFunc: "rt_list_append", NeedsTry: true, NeedsAllocator: true, WrapPrimitive: true, IsStatement: true, ResultTag: types.TagInt, MinArgs: 1, MaxArgs: 1})
	register("pop", ReceiverList, CallShape{RuntimeFunc: "rt_list_pop", NeedsTry: true, NeedsAllocator: true, ResultTag: types.TagPyObject, MinArgs: 0, MaxArgs: 1})
	register("sort", ReceiverList, CallShape{RuntimeFunc: "rt_list_sort", IsStatement: true, MinArgs: 0, MaxArgs: 0})
	register("reverse", ReceiverList, CallShape{RuntimeFunc: "rt_list_reverse", IsStatement: true, MinArgs: 0, MaxArgs: 0})
	register("index", ReceiverList, CallShape{RuntimeFunc: "rt_list_index", NeedsTry: true, WrapPrimitive: true, ResultTag: types.TagInt, MinArgs: 1, MaxArgs: 1})
	register("count", ReceiverList, CallShape{RuntimeFunc: "rt_list_count", WrapPrimitive: true, ResultTag: types.TagInt, MinArgs: 1, MaxArgs: 1})
	register("extend", ReceiverList, CallShape{RuntimeFunc: "rt_list_extend", NeedsTry: true, NeedsAllocator: true, IsStatement: true, MinArgs: 1, MaxArgs: 1})
	register("clear", ReceiverList, CallShape{RuntimeFunc: "rt_list_clear", NeedsAllocator: true, IsStatement: true, MinArgs: 0, MaxArgs: 0})
	register("insert", ReceiverList, CallShape{RuntimeFunc: "rt_list_insert", NeedsTry: true, NeedsAllocator: true, WrapPrimitive: true, NativeArgs: []int{0}, IsStatement: true, MinArgs: 2, MaxArgs: 2})
	register("remove", ReceiverList, CallShape{RuntimeFunc: "rt_list_remove", NeedsTry: true, NeedsAllocator: true, WrapPrimitive: true, IsStatement: true, MinArgs: 1, MaxArgs: 1})
}

func registerDictMethods() {
	register("get", ReceiverDict, CallShape{RuntimeFunc: "rt_dict_get", NeedsTry: true, WrapPrimitive: true, ResultTag: types.TagPyObject, MinArgs: 1, MaxArgs: 2})
	register("keys", ReceiverDict, CallShape{RuntimeFunc: "rt_dict_keys", NeedsTry: true, NeedsAllocator: true, ResultTag: types.TagList, MinArgs: 0, MaxArgs: 0})
	register("values", ReceiverDict, CallShape{RuntimeFunc: "rt_dict_values", NeedsTry: true, NeedsAllocator: true, ResultTag: types.TagList, MinArgs: 0, MaxArgs: 0})
	register("items", ReceiverDict, CallShape{RuntimeFunc: "rt_dict_items", NeedsTry: true, NeedsAllocator: true, ResultTag: types.TagList, MinArgs: 0, MaxArgs: 0})
	// rt_dict_pop has no default-value parameter (unlike rt_dict_get), so
	// unlike dict.get this shape caps at a single (key) argument rather
	// than padding a default that the runtime function has no slot for.
	register("pop", ReceiverDict, CallShape{RuntimeFunc: "rt_dict_pop", NeedsTry: true, NeedsAllocator: true, WrapPrimitive: true, ResultTag: types.TagPyObject, MinArgs: 1, MaxArgs: 1})
	register("update", ReceiverDict, CallShape{RuntimeFunc: "rt_dict_update", NeedsTry: true, NeedsAllocator: true, IsStatement: true, MinArgs: 1, MaxArgs: 1})
	register("setdefault", ReceiverDict, CallShape{RuntimeFunc: "rt_dict_setdefault", NeedsTry: true, NeedsAllocator: true, WrapPrimitive: true, ResultTag: types.TagPyObject, MinArgs: 2, MaxArgs: 2})
}

func registerStringMethods() {
	register("upper", ReceiverString, CallShape{RuntimeFunc: "rt_str_upper", NeedsTry: true, NeedsAllocator: true, ResultTag: types.TagString, MinArgs: 0, MaxArgs: 0})
	register("lower", ReceiverString, CallShape{RuntimeFunc: "rt_str_lower", NeedsTry: true, NeedsAllocator: true, ResultTag: types.TagString, MinArgs: 0, MaxArgs: 0})
	register("strip", ReceiverString, CallShape{RuntimeFunc: "rt_str_strip", NeedsTry: true, NeedsAllocator: true, ResultTag: types.TagString, MinArgs: 0, MaxArgs: 0})
	register("split", ReceiverString, CallShape{RuntimeFunc: "rt_str_split", NeedsTry: true, NeedsAllocator: true, ResultTag: types.TagList, MinArgs: 0, MaxArgs: 1})
	register("join", ReceiverString, CallShape{RuntimeFunc: "rt_str_join", NeedsTry: true, NeedsAllocator: true, ResultTag: types.TagString, MinArgs: 1, MaxArgs: 1})
	register("find", ReceiverString, CallShape{RuntimeFunc: "rt_str_find", ResultTag: types.TagInt, MinArgs: 1, MaxArgs: 1})
	register("replace", ReceiverString, CallShape{RuntimeFunc: "rt_str_replace", NeedsTry: true, NeedsAllocator: true, ResultTag: types.TagString, MinArgs: 2, MaxArgs: 2})
	register("startswith", ReceiverString, CallShape{RuntimeFunc: "rt_str_startswith", ResultTag: types.TagBool, MinArgs: 1, MaxArgs: 1})
	register("endswith", ReceiverString, CallShape{RuntimeFunc: "rt_str_endswith", ResultTag: types.TagBool, MinArgs: 1, MaxArgs: 1})
	register("format", ReceiverString, CallShape{RuntimeFunc: "rt_str_format", NeedsTry: true, NeedsAllocator: true, WrapPrimitive: true, ResultTag: types.TagString, MinArgs: 0, MaxArgs: -1})
}

func registerTupleMethods() {
	register("count", ReceiverTuple, CallShape{RuntimeFunc: "rt_tuple_count", WrapPrimitive: true, ResultTag: types.TagInt, MinArgs: 1, MaxArgs: 1})
	register("index", ReceiverTuple, CallShape{RuntimeFunc: "rt_tuple_index", NeedsTry: true, WrapPrimitive: true, ResultTag: types.TagInt, MinArgs: 1, MaxArgs: 1})
}

func registerPyIntMethods() {
	register("bit_length", ReceiverPyInt, CallShape{RuntimeFunc: "rt_pyint_bit_length", ResultTag: types.TagInt, MinArgs: 0, MaxArgs: 0})
}
