package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sunholo/boxc/internal/ast"
	"github.com/sunholo/boxc/internal/registry"
	"github.com/sunholo/boxc/internal/types"
)

// exprText renders e to Zig expression text, returning the inferred
// VarType alongside it so callers (assignment, method dispatch) can make
// tag-informed decisions (spec §4 Expression Lowering, C5).
func (g *Generator) exprText(e ast.Expr, env *types.Env) (string, types.VarType) {
	switch ex := e.(type) {
	case *ast.Literal:
		return g.literalText(ex)
	case *ast.Ident:
		vt, _ := env.Lookup(ex.Name)
		return ex.Name, vt
	case *ast.BinOp:
		return g.binOpText(ex, env)
	case *ast.UnaryOp:
		return g.unaryOpText(ex, env)
	case *ast.ListLit:
		return g.listLitText(ex, env)
	case *ast.TupleLit:
		return g.tupleLitText(ex, env)
	case *ast.DictLit:
		return g.dictLitText(ex, env)
	case *ast.Subscript:
		return g.subscriptText(ex, env)
	case *ast.Attribute:
		return g.attributeText(ex, env)
	case *ast.Call:
		return g.callText(ex, env)
	case *ast.Comprehension:
		return g.comprehensionText(ex, env)
	}
	g.fail(e.Position(), fmt.Sprintf("expression kind %T", e))
	return "undefined", types.VarType{Tag: types.TagPyObject}
}

// literalText renders a literal. A string literal boxes through
// rt.box_string rather than splicing a raw Zig string literal in place,
// since every dynamic string downstream (concat, method calls, release)
// expects a boxed *rt.Object, not a `[]const u8` slice.
func (g *Generator) literalText(l *ast.Literal) (string, types.VarType) {
	switch l.Kind {
	case ast.IntLit:
		return strconv.FormatInt(l.Int, 10), types.VarType{Tag: types.TagInt}
	case ast.FloatLit:
		return strconv.FormatFloat(l.Float, 'g', -1, 64), types.VarType{Tag: types.TagFloat}
	case ast.StringLit:
		return g.fallible(fmt.Sprintf("rt.box_string(allocator, %s)", strconv.Quote(l.Str))), types.VarType{Tag: types.TagString}
	case ast.BoolLit:
		return strconv.FormatBool(l.Bool), types.VarType{Tag: types.TagBool}
	}
	return "undefined", types.VarType{Tag: types.TagPyObject}
}

// binOpText lowers a binary expression. Two integer literals under `+`,
// `-` or `*` fold to one integer constant. `+` on int or float operands
// renders as native addition and records no IR node; every other `+`
// (string or list concatenation, or a runtime add) records an ir.Sum
// node alongside the call it renders. `in` always records an
// ir.InMarker, since its runtime call shape depends entirely on the
// haystack's tag.
func (g *Generator) binOpText(b *ast.BinOp, env *types.Env) (string, types.VarType) {
	if ll, ok := b.Left.(*ast.Literal); ok && ll.Kind == ast.IntLit {
		if rl, ok := b.Right.(*ast.Literal); ok && rl.Kind == ast.IntLit {
			switch b.Op {
			case "+":
				return strconv.FormatInt(ll.Int+rl.Int, 10), types.VarType{Tag: types.TagInt}
			case "-":
				return strconv.FormatInt(ll.Int-rl.Int, 10), types.VarType{Tag: types.TagInt}
			case "*":
				return strconv.FormatInt(ll.Int*rl.Int, 10), types.VarType{Tag: types.TagInt}
			}
		}
	}
	left, leftTag := g.exprText(b.Left, env)
	right, rightTag := g.exprText(b.Right, env)

	if b.Op == "in" {
		g.ir.EmitInMarker(b.Pos, left, right, rightTag.Tag)
		call := g.fallible(fmt.Sprintf("rt.contains(allocator, %s, %s)", left, right))
		return call, types.VarType{Tag: types.TagBool}
	}

	if b.Op == "+" {
		switch {
		case leftTag.Tag == types.TagInt && rightTag.Tag == types.TagInt:
			return fmt.Sprintf("(%s + %s)", left, right), types.VarType{Tag: types.TagInt}
		case leftTag.Tag == types.TagFloat || rightTag.Tag == types.TagFloat:
			return fmt.Sprintf("(%s + %s)", left, right), types.VarType{Tag: types.TagFloat}
		case leftTag.Tag == types.TagString && rightTag.Tag == types.TagString:
			g.ir.EmitSum(b.Pos, left, leftTag.Tag, right, rightTag.Tag)
			call := g.fallible(fmt.Sprintf("rt.str_concat(allocator, %s, %s)", left, right))
			return call, types.VarType{Tag: types.TagString}
		case leftTag.Tag == types.TagList && rightTag.Tag == types.TagList:
			g.ir.EmitSum(b.Pos, left, leftTag.Tag, right, rightTag.Tag)
			call := g.fallible(fmt.Sprintf("rt.list_concat(allocator, %s, %s)", left, right))
			return call, types.VarType{Tag: types.TagList}
		default:
			g.ir.EmitSum(b.Pos, left, leftTag.Tag, right, rightTag.Tag)
			call := g.fallible(fmt.Sprintf("rt.dynamic_add(allocator, %s, %s)", left, right))
			return call, types.VarType{Tag: types.TagPyObject}
		}
	}

	if op, ok := comparisonOps[b.Op]; ok {
		return fmt.Sprintf("(%s %s %s)", left, op, right), types.VarType{Tag: types.TagBool}
	}
	if b.Op == "and" || b.Op == "or" {
		return fmt.Sprintf("(%s %s %s)", left, b.Op, right), types.VarType{Tag: types.TagBool}
	}

	// Remaining native arithmetic: "-", "*", "/", "//", "%".
	if b.Op == "//" {
		return fmt.Sprintf("@divFloor(%s, %s)", left, right), types.VarType{Tag: types.TagInt}
	}
	resultTag := leftTag
	return fmt.Sprintf("(%s %s %s)", left, b.Op, right), resultTag
}

var comparisonOps = map[string]string{
	"==": "==", "!=": "!=", "<": "<", "<=": "<=", ">": ">", ">=": ">=",
}

func (g *Generator) unaryOpText(u *ast.UnaryOp, env *types.Env) (string, types.VarType) {
	text, vt := g.exprText(u.Expr, env)
	if u.Op == "not" {
		return fmt.Sprintf("(!%s)", text), types.VarType{Tag: types.TagBool}
	}
	return fmt.Sprintf("(-%s)", text), vt
}

// listLitText boxes every native element before handing it to rt.list_new,
// since a list's backing store is always `[]*Object` regardless of the
// element tag (spec §4.5: a collection literal's elements are boxed at
// construction, not lazily at first read).
func (g *Generator) listLitText(l *ast.ListLit, env *types.Env) (string, types.VarType) {
	texts := make([]string, len(l.Elems))
	elemTag := types.VarType{}
	for i, el := range l.Elems {
		t, vt := g.exprText(el, env)
		texts[i] = g.boxPrimitive(el.Position(), vt.Tag, t)
		elemTag = types.Refine(elemTag, vt)
	}
	g.ir.EmitCollectionLiteral(l.Pos, elemTag.Tag, texts)
	call := g.fallible(fmt.Sprintf("rt.list_new(allocator, &.{ %s })", strings.Join(texts, ", ")))
	return call, types.VarType{Tag: types.TagList}
}

func (g *Generator) tupleLitText(t *ast.TupleLit, env *types.Env) (string, types.VarType) {
	texts := make([]string, len(t.Elems))
	for i, el := range t.Elems {
		text, vt := g.exprText(el, env)
		texts[i] = g.boxPrimitive(el.Position(), vt.Tag, text)
	}
	call := g.fallible(fmt.Sprintf("rt.tuple_new(allocator, &.{ %s })", strings.Join(texts, ", ")))
	return call, types.VarType{Tag: types.TagTuple}
}

func (g *Generator) dictLitText(d *ast.DictLit, env *types.Env) (string, types.VarType) {
	parts := make([]string, len(d.Entries))
	for i, entry := range d.Entries {
		vText, vt := g.exprText(entry.Value, env)
		vText = g.boxPrimitive(entry.Value.Position(), vt.Tag, vText)
		parts[i] = fmt.Sprintf(".{ .key = %s, .value = %s }", strconv.Quote(entry.Key), vText)
	}
	call := g.fallible(fmt.Sprintf("rt.dict_new(allocator, &.{ %s })", strings.Join(parts, ", ")))
	return call, types.VarType{Tag: types.TagDict}
}

// subscriptText lowers `x[i]` and `x[lo:hi]`, matching each receiver
// kind's actual runtime signature (spec §4.5). A slice's missing bound
// defaults to 0 (lo) or rt.len(target) (hi) rather than the literal text
// "null", since rt.slice takes two plain i64 bounds, not optionals.
func (g *Generator) subscriptText(s *ast.Subscript, env *types.Env) (string, types.VarType) {
	target, targetTag := g.exprText(s.Target, env)

	if s.IsSlice {
		lo := "0"
		if s.Lo != nil {
			lo, _ = g.exprText(s.Lo, env)
		}
		hi := fmt.Sprintf("rt.len(%s)", target)
		if s.Hi != nil {
			hi, _ = g.exprText(s.Hi, env)
		}
		call := g.fallible(fmt.Sprintf("rt.slice(allocator, %s, %s, %s)", target, lo, hi))
		return call, targetTag
	}

	lo, _ := g.exprText(s.Lo, env)
	elemTag := elemVarType(env.ElemTag(exprIdentName(s.Target)))
	switch targetTag.Tag {
	case types.TagList:
		call := g.fallible(fmt.Sprintf("rt.list_get(%s, %s)", target, lo))
		return call, elemTag
	case types.TagTuple:
		call := g.fallible(fmt.Sprintf("rt.tuple_get(%s, %s)", target, lo))
		return call, elemTag
	case types.TagDict:
		call := g.fallible(fmt.Sprintf("rt.dict_get(%s, %s, null)", target, lo))
		return call, types.VarType{Tag: types.TagPyObject}
	case types.TagString:
		call := g.fallible(fmt.Sprintf("rt.str_index(allocator, %s, %s)", target, lo))
		return call, types.VarType{Tag: types.TagString}
	}
	call := g.fallible(fmt.Sprintf("rt.dynamic_index(allocator, %s, %s)", target, lo))
	return call, types.VarType{Tag: types.TagPyObject}
}

func (g *Generator) attributeText(a *ast.Attribute, env *types.Env) (string, types.VarType) {
	target, targetTag := g.exprText(a.Target, env)
	if targetTag.Tag == types.TagClass {
		vt, _ := types.LookupField(g.analysis.Classes, targetTag.ClassName, a.Name)
		return fmt.Sprintf("%s.%s", target, a.Name), vt
	}
	return fmt.Sprintf("%s.%s", target, a.Name), types.VarType{Tag: types.TagPyObject}
}

// callText lowers a plain function call or a `recv.method(args)` method
// call, consulting internal/registry for the latter (C1).
func (g *Generator) callText(c *ast.Call, env *types.Env) (string, types.VarType) {
	if c.Recv == nil {
		return g.plainCallText(c, env)
	}
	return g.methodCallText(c, env)
}

func (g *Generator) plainCallText(c *ast.Call, env *types.Env) (string, types.VarType) {
	name := exprIdentName(c.Callee)

	switch name {
	case "sum":
		return g.sumCallText(c, env)
	case "min", "max":
		return g.minMaxCallText(c, env, name)
	}

	argTexts := make([]string, len(c.Args))
	argTags := make([]types.VarType, len(c.Args))
	for i, a := range c.Args {
		argTexts[i], argTags[i] = g.exprText(a, env)
	}

	if shape, ok := g.builtinShape(name, argTexts, argTags); ok {
		return shape.text, shape.tag
	}

	sig := g.analysis.Funcs[name]
	callArgs := argTexts
	text := fmt.Sprintf("%s(%s)", name, strings.Join(callArgs, ", "))
	if sig != nil && sig.NeedsAllocator {
		callArgs = append([]string{"allocator"}, callArgs...)
		text = g.fallible(fmt.Sprintf("%s(%s)", name, strings.Join(callArgs, ", ")))
	}
	resultTag := types.VarType{Tag: types.TagPyObject}
	if sig != nil {
		resultTag = types.AnnotationTag(sig.ReturnTypeText)
	}
	return text, resultTag
}

// sumCallText lowers sum(iterable) against rt_list_sum_int: the accepted
// subset only ever sums a native-int list, so no boxing round-trip is
// needed.
func (g *Generator) sumCallText(c *ast.Call, env *types.Env) (string, types.VarType) {
	arg, _ := g.exprText(c.Args[0], env)
	return fmt.Sprintf("rt.rt_list_sum_int(%s)", arg), types.VarType{Tag: types.TagInt}
}

// minMaxCallText lowers the single-iterable form to rt_list_min_int/
// rt_list_max_int, and the multi-argument form to nested native @min/@max
// (spec §4.5: both forms of min/max are accepted, single-iterable and
// varargs).
func (g *Generator) minMaxCallText(c *ast.Call, env *types.Env, name string) (string, types.VarType) {
	if len(c.Args) == 1 {
		arg, argTag := g.exprText(c.Args[0], env)
		if argTag.Tag == types.TagList {
			fn := "rt.rt_list_min_int"
			if name == "max" {
				fn = "rt.rt_list_max_int"
			}
			return fmt.Sprintf("%s(%s)", fn, arg), types.VarType{Tag: types.TagInt}
		}
		return arg, argTag
	}
	texts := make([]string, len(c.Args))
	for i, a := range c.Args {
		texts[i], _ = g.exprText(a, env)
	}
	zigFn := "@min"
	if name == "max" {
		zigFn = "@max"
	}
	expr := texts[0]
	for _, t := range texts[1:] {
		expr = fmt.Sprintf("%s(%s, %s)", zigFn, expr, t)
	}
	return expr, types.VarType{Tag: types.TagInt}
}

// methodCallText dispatches recv.method(args) through internal/registry's
// call-shape table: it boxes any argument WrapPrimitive marks (except the
// positions NativeArgs exempts), threads the allocator only when the
// actual runtime function takes one, renders a bare `try`/catch-dispatch
// via fallible() only when NeedsTry is set, and reports the call's result
// tag from the shape's own ResultTag rather than assuming every method
// call returns a generic dynamic object.
func (g *Generator) methodCallText(c *ast.Call, env *types.Env) (string, types.VarType) {
	recvText, recvTag := g.exprText(c.Recv, env)
	argTexts := make([]string, len(c.Args))
	argTags := make([]types.VarType, len(c.Args))
	for i, a := range c.Args {
		argTexts[i], argTags[i] = g.exprText(a, env)
	}

	// A call on a user-class instance dispatches statically through its
	// class descriptor's method table (walking the base chain), not
	// through internal/registry, which only covers the builtin receiver
	// kinds.
	if recvTag.Tag == types.TagClass {
		return g.classMethodCallText(c, recvText, recvTag, argTexts)
	}

	receiver := tagToReceiverKind(recvTag.Tag)
	shape, ok := registry.Lookup(c.Method, receiver)

	// A receiver whose concrete kind isn't statically known, or whose
	// assumed default tag has no matching registry entry for this
	// method, can't be resolved against the static registry; dispatch it
	// dynamically by runtime tag instead of failing the compile (spec
	// §4.1: the registry covers the statically-known receiver kinds,
	// everything else falls back to a runtime tag switch).
	if !ok {
		boxed := make([]string, len(argTexts))
		for i, t := range argTexts {
			boxed[i] = g.boxPrimitive(c.Args[i].Position(), argTags[i].Tag, t)
		}
		call := g.fallible(fmt.Sprintf("rt.dyn_dispatch(allocator, %s, %s, &.{ %s })", recvText, strconv.Quote(c.Method), strings.Join(boxed, ", ")))
		return call, types.VarType{Tag: types.TagPyObject}
	}

	native := make(map[int]bool, len(shape.NativeArgs))
	for _, i := range shape.NativeArgs {
		native[i] = true
	}
	callArgs := make([]string, len(argTexts))
	for i, t := range argTexts {
		if shape.WrapPrimitive && !native[i] {
			callArgs[i] = g.boxPrimitive(c.Args[i].Position(), argTags[i].Tag, t)
		} else {
			callArgs[i] = t
		}
	}

	// dict.get takes an optional trailing default that the accepted subset
	// lets the caller omit; rt_dict_get's signature always takes the slot,
	// so a missing default is padded with `null` here rather than left for
	// Zig's argument-count check to reject.
	if receiver == registry.ReceiverDict && c.Method == "get" && len(callArgs) < shape.MaxArgs {
		callArgs = append(callArgs, "null")
	}

	if shape.IsStatement {
		g.ir.EmitStatementMethod(c.Pos, recvText, recvTag.Tag, c.Method, callArgs)
	}

	params := []string{recvText}
	if shape.NeedsAllocator {
		params = []string{"allocator", recvText}
	}
	params = append(params, callArgs...)

	call := fmt.Sprintf("rt.%s(%s)", shape.RuntimeFunc, strings.Join(params, ", "))
	if shape.NeedsTry {
		call = g.fallible(fmt.Sprintf("rt.%s(%s)", shape.RuntimeFunc, strings.Join(params, ", ")))
	}
	resultTag := types.VarType{Tag: shape.ResultTag}
	return call, resultTag
}

func (g *Generator) classMethodCallText(c *ast.Call, recvText string, recvTag types.VarType, argTexts []string) (string, types.VarType) {
	if _, _, ok := types.LookupMethod(g.analysis.Classes, recvTag.ClassName, c.Method); !ok {
		g.fail(c.Pos, fmt.Sprintf("method %s on class %s", c.Method, recvTag.ClassName))
		return "undefined", types.VarType{Tag: types.TagPyObject}
	}
	sig := g.analysis.Funcs[c.Method]
	callArgs := append([]string{recvText}, argTexts...)
	text := fmt.Sprintf("%s.%s(%s)", recvTag.ClassName, c.Method, strings.Join(callArgs, ", "))
	if sig != nil && sig.NeedsAllocator {
		callArgs = append([]string{"allocator"}, callArgs...)
		text = g.fallible(fmt.Sprintf("%s.%s(%s)", recvTag.ClassName, c.Method, strings.Join(callArgs, ", ")))
	}
	resultTag := types.VarType{Tag: types.TagPyObject}
	if sig != nil {
		resultTag = types.AnnotationTag(sig.ReturnTypeText)
	}
	return text, resultTag
}

func tagToReceiverKind(tag types.Tag) registry.ReceiverKind {
	switch tag {
	case types.TagList:
		return registry.ReceiverList
	case types.TagDict:
		return registry.ReceiverDict
	case types.TagString:
		return registry.ReceiverString
	case types.TagTuple:
		return registry.ReceiverTuple
	case types.TagPyInt:
		return registry.ReceiverPyInt
	}
	return registry.ReceiverObject
}

// comprehensionText lowers `[result for var in iter if cond]` directly to
// an inline Zig statement sequence at the generator's current output
// position (an empty list, a while loop over rt.items(iter) with an
// optional filter, appending the projected result), returning the
// accumulator's bare identifier as the expression's text. The runtime no
// longer offers a function-pointer-based comprehension helper: Zig `fn`
// values cannot close over codegen-local bindings like the loop variable,
// so the loop has to be emitted as real statements instead.
func (g *Generator) comprehensionText(c *ast.Comprehension, env *types.Env) (string, types.VarType) {
	iterText, _ := g.exprText(c.Iter, env)
	loopEnv := env.Clone()
	loopEnv.Bind(c.Var, elemVarType(env.ElemTag(exprIdentName(c.Iter))))

	g.tmpCount++
	acc := fmt.Sprintf("_comp%d", g.tmpCount)
	idx := fmt.Sprintf("_i%d", g.tmpCount)
	ind := indent(g.curDepth)
	body := indent(g.curDepth + 1)

	g.out.WriteString(fmt.Sprintf("%sconst %s = %s;\n", ind, acc, g.fallible("rt.list_new(allocator, &.{})")))
	g.out.WriteString(fmt.Sprintf("%svar %s: usize = 0;\n", ind, idx))
	g.out.WriteString(fmt.Sprintf("%swhile (%s < rt.items(%s).len) : (%s += 1) {\n", ind, idx, iterText, idx))
	g.out.WriteString(fmt.Sprintf("%sconst %s = rt.items(%s)[%s];\n", body, c.Var, iterText, idx))

	resultText, resultTag := g.exprText(c.Result, loopEnv)
	boxedResult := g.boxPrimitive(c.Result.Position(), resultTag.Tag, resultText)

	condText := ""
	if c.Cond != nil {
		condText, _ = g.exprText(c.Cond, loopEnv)
		g.out.WriteString(fmt.Sprintf("%sif (!(%s)) continue;\n", body, condText))
	}
	g.out.WriteString(fmt.Sprintf("%s%s;\n", body, g.fallible(fmt.Sprintf("rt.rt_list_append(allocator, %s, %s)", acc, boxedResult))))
	g.out.WriteString(fmt.Sprintf("%s}\n", ind))

	g.ir.EmitComprehension(c.Pos, resultText, c.Var, iterText, types.TagList, condText)
	return acc, types.VarType{Tag: types.TagList}
}

// callResult bundles a rendered call's text with its result tag, for
// builtinShape's per-builtin dispatch (each builtin's result tag and
// rendering depend on its own argument tags, unlike the receiver-based
// dispatch internal/registry covers).
type callResult struct {
	text string
	tag  types.VarType
}

// builtinShape renders a free-function builtin (len, str, int, …) that
// has no receiver and so falls outside internal/registry's
// (method,receiver) keying. print is handled separately in genStmt's
// ExprStmt case, since its rendering is tag-gated per argument rather
// than a single call expression.
func (g *Generator) builtinShape(name string, args []string, argTags []types.VarType) (callResult, bool) {
	switch name {
	case "len":
		return callResult{text: fmt.Sprintf("rt.len(%s)", strings.Join(args, ", ")), tag: types.VarType{Tag: types.TagInt}}, true
	case "str":
		call := g.fallible(fmt.Sprintf("rt.to_str(allocator, %s)", strings.Join(args, ", ")))
		return callResult{text: call, tag: types.VarType{Tag: types.TagString}}, true
	case "int":
		call := g.fallible(fmt.Sprintf("rt.to_int(%s)", strings.Join(args, ", ")))
		return callResult{text: call, tag: types.VarType{Tag: types.TagInt}}, true
	}
	return callResult{}, false
}
