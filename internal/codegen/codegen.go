// Package codegen implements the Expression Lowering and Statement
// Lowering components of spec §4 (C5, C6): it walks a types.Analysis-
// annotated module and renders Zig source text directly, recording the
// constructs internal/ir names (boxing, `in`, collection literals,
// comprehensions, concatenating `+`, statement-form method calls) in an
// ir.Builder sequence that backs the `--show-ir` dump.
//
// The switch-on-concrete-AST-type dispatch in exprText/genStmt mirrors
// the teacher's elaborateExpr/normalize dispatch in
// internal/elaborate/expressions.go, generalized from ANF-lowering to
// Zig-text-lowering.
package codegen

import (
	"fmt"
	"strings"

	"github.com/sunholo/boxc/internal/ast"
	"github.com/sunholo/boxc/internal/errors"
	"github.com/sunholo/boxc/internal/ir"
	"github.com/sunholo/boxc/internal/registry"
	"github.com/sunholo/boxc/internal/types"
)

// tryFrame tracks one enclosing try/except block so fallible() can lower
// a `try expr` inside it to the labeled-block catch-dispatch pattern of
// spec §4.6 instead of a plain `try`.
type tryFrame struct {
	label    string
	handlers []ast.ExceptClause
	env      *types.Env
	depth    int
}

// Generator lowers one parsed module to Zig source text.
type Generator struct {
	analysis *types.Analysis
	ir       *ir.Builder
	out      strings.Builder
	errs     []error

	tryStack     []*tryFrame
	tryCount     int
	tmpCount     int
	curDepth     int
	curMutable   map[string]bool
	assignedOnce map[string]bool
}

// NewGenerator returns a Generator for mod, with its Analysis already run.
func NewGenerator(analysis *types.Analysis) *Generator {
	return &Generator{analysis: analysis, ir: ir.NewBuilder()}
}

// Result is the output of lowering one module: the spliced-ready Zig
// source text plus the deferred-expansion IR dump for `--show-ir`.
type Result struct {
	Source string
	IR     ir.Sequence
}

// Generate lowers mod's functions and classes to Zig text (C5+C6).
// Non-fatal per-construct failures ("not implemented") are collected and
// returned together so a single compile attempt reports every offending
// construct rather than stopping at the first.
//
// The `const rt = @import("runtime.zig");` header line is only emitted
// when the generated body actually references it: a pure-numeric program
// must not link the runtime at all (boundary scenario #1).
func (g *Generator) Generate(mod *ast.Module) (*Result, error) {
	for _, cd := range mod.Classes {
		g.genClass(cd)
	}
	for _, fn := range mod.Funcs {
		g.genFunc(fn, nil)
	}
	if len(mod.Body) > 0 {
		g.genMain(mod.Body)
	}

	if len(g.errs) > 0 {
		return nil, joinErrors(g.errs)
	}

	body := g.out.String()
	var header strings.Builder
	header.WriteString("const std = @import(\"std\");\n")
	if strings.Contains(body, "rt.") {
		header.WriteString("const rt = @import(\"runtime.zig\");\n")
	}
	header.WriteString("\n")

	return &Result{Source: header.String() + body, IR: g.ir.Sequence()}, nil
}

func joinErrors(errs []error) error {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return fmt.Errorf("%s", strings.Join(msgs, "\n"))
}

func (g *Generator) fail(pos ast.Pos, construct string) {
	g.errs = append(g.errs, errors.NotImplemented(construct, pos).Wrap())
}

// zigType maps a semantic tag to the Zig type used for native (unboxed)
// values; boxed/dynamic tags render as the opaque runtime object pointer.
func zigType(vt types.VarType) string {
	switch vt.Tag {
	case types.TagInt:
		return "i64"
	case types.TagFloat:
		return "f64"
	case types.TagBool:
		return "bool"
	case types.TagString, types.TagList, types.TagTuple, types.TagDict, types.TagPyObject, types.TagPyInt:
		return "*rt.Object"
	case types.TagClass:
		return "*" + vt.ClassName
	}
	return "*rt.Object"
}

// isNativeTag reports whether vt renders as a plain Zig scalar rather than
// a reference-counted runtime object.
func isNativeTag(t types.Tag) bool {
	return t == types.TagInt || t == types.TagFloat || t == types.TagBool
}

// isDynamicTag reports whether a binding of this tag participates in the
// ownership/refcounting model at all (spec §3, §8): every boxed tag does;
// native scalars and class instances (which carry their own struct-level
// refcount field, not a generator-managed one) do not.
func isDynamicTag(t types.Tag) bool {
	return !isNativeTag(t) && t != types.TagClass
}

func (g *Generator) genClass(cd *ast.ClassDecl) {
	desc := g.analysis.Classes[cd.Name]
	g.out.WriteString(fmt.Sprintf("pub const %s = struct {\n", cd.Name))
	g.out.WriteString("    refcount: usize = 1,\n")
	if desc.BaseName != "" {
		g.out.WriteString(fmt.Sprintf("    base: %s,\n", desc.BaseName))
	}
	for _, name := range desc.FieldOrder {
		g.out.WriteString(fmt.Sprintf("    %s: %s,\n", name, zigType(desc.Fields[name])))
	}
	g.out.WriteString("\n")
	for _, m := range cd.Methods {
		g.genFunc(m, desc)
	}
	g.out.WriteString("};\n\n")
}

func (g *Generator) genFunc(fn *ast.FuncDecl, class *types.ClassDescriptor) {
	sig := g.analysis.Funcs[fn.Name]
	env := types.NewEnv()
	if class != nil {
		env.BindSelf(class.Name)
	}
	g.curMutable = g.analysis.Mutable[fn.Name]
	g.assignedOnce = make(map[string]bool)

	// The parser keeps `self` as an ordinary leading parameter (it has no
	// dedicated receiver syntax); skip it here since it is emitted
	// explicitly below with its class pointer type instead of the
	// type-annotation-driven type every other parameter gets.
	declParams := fn.Params
	if fn.IsMethod && len(declParams) > 0 {
		declParams = declParams[1:]
	}

	params := make([]string, 0, len(declParams)+2)
	if sig.NeedsAllocator {
		params = append(params, "allocator: std.mem.Allocator")
	}
	if fn.IsMethod {
		params = append(params, fmt.Sprintf("self: *%s", class.Name))
	}
	for _, p := range declParams {
		vt := types.AnnotationTag(p.Type)
		env.Bind(p.Name, vt)
		params = append(params, fmt.Sprintf("%s: %s", p.Name, zigType(vt)))
	}

	ret := "void"
	if fn.Name != "__init__" {
		if sig.ReturnTypeText != "" {
			ret = zigType(types.AnnotationTag(sig.ReturnTypeText))
		} else if sig.ReturnsDynamic {
			ret = "*rt.Object"
		}
	}
	if sig.NeedsAllocator {
		ret = "!" + ret
	}

	g.out.WriteString(fmt.Sprintf("pub fn %s(%s) %s {\n", fn.Name, strings.Join(params, ", "), ret))
	g.genDeclarations(fn, env)
	for _, stmt := range fn.Body {
		g.genStmt(stmt, env, 1)
	}
	g.out.WriteString("}\n\n")
}

// genDeclarations emits upfront `var` slots for every name the
// Declared/Mutable passes found reassigned, so later statements can just
// assign rather than redeclare (spec §4.3 passes 2 and 3). Each slot's
// Zig type is inferred from its first assignment's RHS rather than
// hardcoded to the boxed object pointer, so a loop-accumulated native
// total gets a plain `i64` instead of an unnecessary box. A dynamic slot
// also gets its single scope-end decrement here, since it is the
// function body itself — not any one particular assignment — that owns
// whatever ends up in a mutable binding at return time.
func (g *Generator) genDeclarations(fn *ast.FuncDecl, env *types.Env) {
	mutable := g.analysis.Mutable[fn.Name]
	isParam := make(map[string]bool, len(fn.Params))
	for _, p := range fn.Params {
		isParam[p.Name] = true
	}
	for _, name := range g.analysis.Declared[fn.Name] {
		if isParam[name] || !mutable[name] {
			continue
		}
		vt := types.VarType{Tag: types.TagPyObject}
		if expr := firstAssignExprFor(fn.Body, name); expr != nil {
			vt = types.InferLiteralTag(expr)
		}
		env.Bind(name, vt)
		g.out.WriteString(fmt.Sprintf("    var %s: %s = undefined;\n", name, zigType(vt)))
		if isDynamicTag(vt.Tag) {
			g.out.WriteString(fmt.Sprintf("    defer rt.release(allocator, %s);\n", name))
		}
	}
}

// firstAssignExprFor returns the RHS of the first `name = ...` assignment
// found anywhere in stmts (depth-first, in source order), or nil.
func firstAssignExprFor(stmts []ast.Stmt, name string) ast.Expr {
	for _, s := range stmts {
		switch v := s.(type) {
		case *ast.Assign:
			if v.Target.Name == name {
				return v.Value
			}
		case *ast.If:
			if e := firstAssignExprFor(v.Then, name); e != nil {
				return e
			}
			for _, elif := range v.Elif {
				if e := firstAssignExprFor(elif.Body, name); e != nil {
					return e
				}
			}
			if e := firstAssignExprFor(v.Else, name); e != nil {
				return e
			}
		case *ast.While:
			if e := firstAssignExprFor(v.Body, name); e != nil {
				return e
			}
		case *ast.For:
			if e := firstAssignExprFor(v.Body, name); e != nil {
				return e
			}
		case *ast.Try:
			if e := firstAssignExprFor(v.Body, name); e != nil {
				return e
			}
			for _, h := range v.Handlers {
				if e := firstAssignExprFor(h.Body, name); e != nil {
					return e
				}
			}
		}
	}
	return nil
}

func (g *Generator) genMain(body []ast.Stmt) {
	g.out.WriteString("pub fn main() !void {\n")
	env := types.NewEnv()
	g.curMutable = map[string]bool{}
	g.assignedOnce = make(map[string]bool)
	for _, stmt := range body {
		g.genStmt(stmt, env, 1)
	}
	g.out.WriteString("}\n")
}

func indent(depth int) string { return strings.Repeat("    ", depth) }

func (g *Generator) genStmt(stmt ast.Stmt, env *types.Env, depth int) {
	g.curDepth = depth
	ind := indent(depth)
	switch s := stmt.(type) {
	case *ast.Assign:
		g.genAssign(s, env, depth)
	case *ast.AugAssign:
		g.genAugAssign(s, env, depth)
	case *ast.ExprStmt:
		if s.X == nil {
			// the parser's placeholder for a nested function definition
			g.fail(s.Pos, "nested function definition")
			return
		}
		if call, ok := s.X.(*ast.Call); ok && call.Recv == nil && exprIdentName(call.Callee) == "print" {
			g.genPrintStmt(call, env, depth)
			return
		}
		text, _ := g.exprText(s.X, env)
		if g.isVoidStatementCall(s.X, env) {
			g.out.WriteString(fmt.Sprintf("%s%s;\n", ind, text))
		} else {
			g.out.WriteString(fmt.Sprintf("%s_ = %s;\n", ind, text))
		}
	case *ast.Return:
		if s.Value == nil {
			g.out.WriteString(ind + "return;\n")
			return
		}
		text, _ := g.exprText(s.Value, env)
		g.out.WriteString(fmt.Sprintf("%sreturn %s;\n", ind, text))
	case *ast.If:
		g.genIf(s, env, depth)
	case *ast.While:
		cond, _ := g.exprText(s.Cond, env)
		g.out.WriteString(fmt.Sprintf("%swhile (%s) {\n", ind, cond))
		for _, b := range s.Body {
			g.genStmt(b, env, depth+1)
		}
		g.out.WriteString(ind + "}\n")
	case *ast.For:
		g.genFor(s, env, depth)
	case *ast.Try:
		g.genTry(s, env, depth)
	case *ast.Import:
		// module imports are resolved entirely by internal/module before
		// codegen runs; nothing is emitted per import statement.
	default:
		g.fail(stmt.Position(), fmt.Sprintf("statement kind %T", stmt))
	}
}

// isVoidStatementCall reports whether e is a call whose Zig rendering
// returns void (or !void), so genStmt must emit it as a bare statement
// rather than `_ = <call>;` — Zig rejects discarding a void result with
// `_ =`. Registry entries like list.append/sort/clear mark this with
// IsStatement; a call on a receiver the registry doesn't cover (dynamic
// dispatch, user functions) always produces a value-shaped result.
func (g *Generator) isVoidStatementCall(e ast.Expr, env *types.Env) bool {
	c, ok := e.(*ast.Call)
	if !ok || c.Recv == nil {
		return false
	}
	// Re-resolving the receiver's tag must not re-run anything with side
	// effects (g.out writes, g.tmpCount bumps, g.ir emissions); Ident,
	// Attribute and Subscript receivers are pure text lookups, everything
	// else is left as a non-statement call rather than risk duplicating
	// a side-effecting receiver expression.
	switch c.Recv.(type) {
	case *ast.Ident, *ast.Attribute, *ast.Subscript:
	default:
		return false
	}
	_, recvTag := g.exprText(c.Recv, env)
	if recvTag.Tag == types.TagClass {
		return false
	}
	shape, ok := registry.Lookup(c.Method, tagToReceiverKind(recvTag.Tag))
	return ok && shape.IsStatement
}

// ownKind classifies an assignment's RHS for the ownership model of spec
// §3/§8: whether the binding it produces owns a fresh reference outright,
// aliases an existing binding (needing a retain to become its own owner),
// or is a pure borrow that never participates in refcounting at all.
type ownKind int

const (
	ownOwned ownKind = iota
	ownAlias
	ownBorrowed
)

// exprOwnKind implements the borrow-discipline invariant literally: an
// index/dict-key/field read is always a borrow (no retain, no scope-end
// decrement, ever — the runtime functions behind these never retain
// either); a bare name reference aliases whatever binding it names and
// needs its own retain (rule 8, generalized from "parameter" to any
// existing binding, since the new binding is just as distinct an owner);
// everything else (literals, concatenation, slicing, comprehensions,
// method/function calls) already returns a freshly allocated, uniquely
// owned reference.
func exprOwnKind(e ast.Expr) ownKind {
	switch v := e.(type) {
	case *ast.Ident:
		return ownAlias
	case *ast.Subscript:
		if v.IsSlice {
			return ownOwned
		}
		return ownBorrowed
	case *ast.Attribute:
		return ownBorrowed
	}
	return ownOwned
}

func (g *Generator) genAssign(s *ast.Assign, env *types.Env, depth int) {
	ind := indent(depth)

	if s.Target.Attr != nil {
		recvText, _ := g.exprText(s.Target.Attr.Target, env)
		valText, _ := g.exprText(s.Value, env)
		g.out.WriteString(fmt.Sprintf("%s%s.%s = %s;\n", ind, recvText, s.Target.Attr.Name, valText))
		return
	}

	name := s.Target.Name
	prevTag, alreadyBound := env.Lookup(name)
	valText, valTag := g.exprText(s.Value, env)
	refined := env.Bind(name, valTag)
	kind := exprOwnKind(s.Value)

	switch {
	case alreadyBound && g.curMutable[name] && !g.assignedOnce[name]:
		// First real store into a slot genDeclarations pre-declared as
		// `undefined`: there is no stale value to release yet.
		g.assignedOnce[name] = true
		g.out.WriteString(fmt.Sprintf("%s%s = %s;\n", ind, name, valText))
		g.retainForMutableSlot(kind, refined.Tag, name, ind)

	case alreadyBound:
		// Reassignment rule 7: release the old owned value before the
		// new one overwrites it.
		if isDynamicTag(prevTag.Tag) {
			g.out.WriteString(fmt.Sprintf("%srt.release(allocator, %s);\n", ind, name))
		}
		g.out.WriteString(fmt.Sprintf("%s%s = %s;\n", ind, name, valText))
		g.retainForMutableSlot(kind, refined.Tag, name, ind)

	default:
		kw := "const"
		g.out.WriteString(fmt.Sprintf("%s%s %s: %s = %s;\n", ind, kw, name, zigType(refined), valText))
		g.emitConstOwnership(kind, refined.Tag, name, ind)
	}
}

// retainForMutableSlot keeps a mutable dynamic slot's single, function-
// scoped `defer rt.release` sound: since that defer fires unconditionally
// at function exit on whatever the slot currently holds, any store of a
// borrowed or aliased value must first retain it so the slot always owns
// what it holds — a freshly owned value needs no extra retain.
func (g *Generator) retainForMutableSlot(kind ownKind, tag types.Tag, name, ind string) {
	if !isDynamicTag(tag) || kind == ownOwned {
		return
	}
	g.out.WriteString(fmt.Sprintf("%s_ = rt.retain(%s);\n", ind, name))
}

// emitConstOwnership implements the borrow-discipline invariant for a
// first (and only) binding: a pure borrow gets no retain and no
// scope-end decrement at all; an aliased binding retains once and
// decrements once; an owned value just decrements once.
func (g *Generator) emitConstOwnership(kind ownKind, tag types.Tag, name, ind string) {
	if !isDynamicTag(tag) || kind == ownBorrowed {
		return
	}
	if kind == ownAlias {
		g.out.WriteString(fmt.Sprintf("%s_ = rt.retain(%s);\n", ind, name))
	}
	g.out.WriteString(fmt.Sprintf("%sdefer rt.release(allocator, %s);\n", ind, name))
}

func (g *Generator) genAugAssign(s *ast.AugAssign, env *types.Env, depth int) {
	ind := indent(depth)
	name := s.Target.Name
	tag, _ := env.Lookup(name)
	valText, _ := g.exprText(s.Value, env)

	if isDynamicTag(tag.Tag) {
		var call string
		switch tag.Tag {
		case types.TagString:
			call = g.fallible(fmt.Sprintf("rt.str_concat(allocator, %s, %s)", name, valText))
		case types.TagList:
			call = g.fallible(fmt.Sprintf("rt.list_concat(allocator, %s, %s)", name, valText))
		default:
			call = g.fallible(fmt.Sprintf("rt.dynamic_add(allocator, %s, %s)", name, valText))
		}
		g.out.WriteString(fmt.Sprintf("%srt.release(allocator, %s);\n", ind, name))
		g.out.WriteString(fmt.Sprintf("%s%s = %s;\n", ind, name, call))
		return
	}

	g.out.WriteString(fmt.Sprintf("%s%s = %s %s %s;\n", ind, name, name, s.Op, valText))
}

func (g *Generator) genIf(s *ast.If, env *types.Env, depth int) {
	ind := indent(depth)
	cond, _ := g.exprText(s.Cond, env)
	g.out.WriteString(fmt.Sprintf("%sif (%s) {\n", ind, cond))
	for _, b := range s.Then {
		g.genStmt(b, env, depth+1)
	}
	for _, elif := range s.Elif {
		g.out.WriteString(ind + "} else ")
		c, _ := g.exprText(elif.Cond, env)
		g.out.WriteString(fmt.Sprintf("if (%s) {\n", c))
		for _, b := range elif.Body {
			g.genStmt(b, env, depth+1)
		}
	}
	if len(s.Else) > 0 {
		g.out.WriteString(ind + "} else {\n")
		for _, b := range s.Else {
			g.genStmt(b, env, depth+1)
		}
	}
	g.out.WriteString(ind + "}\n")
}

// genFor lowers the three accepted iterables (spec §4.5): range,
// enumerate, zip.
func (g *Generator) genFor(s *ast.For, env *types.Env, depth int) {
	ind := indent(depth)
	switch s.Kind {
	case ast.ForRange:
		argTexts := make([]string, len(s.Args))
		for i, a := range s.Args {
			argTexts[i], _ = g.exprText(a, env)
		}
		v := s.Targets[0]
		env.Bind(v, types.VarType{Tag: types.TagInt})
		switch len(argTexts) {
		case 1:
			g.out.WriteString(fmt.Sprintf("%svar %s: i64 = 0;\n%swhile (%s < %s) : (%s += 1) {\n", ind, v, ind, v, argTexts[0], v))
		case 2:
			g.out.WriteString(fmt.Sprintf("%svar %s: i64 = %s;\n%swhile (%s < %s) : (%s += 1) {\n", ind, v, argTexts[0], ind, v, argTexts[1], v))
		default:
			g.out.WriteString(fmt.Sprintf("%svar %s: i64 = %s;\n%swhile (%s < %s) : (%s += %s) {\n", ind, v, argTexts[0], ind, v, argTexts[1], v, argTexts[2]))
		}
	case ast.ForEnumerate:
		iterText, iterTag := g.exprText(s.Args[0], env)
		idx, elem := s.Targets[0], s.Targets[1]
		env.Bind(idx, types.VarType{Tag: types.TagInt})
		env.Bind(elem, elemVarType(env.ElemTag(exprIdentName(s.Args[0]))))
		g.out.WriteString(fmt.Sprintf("%sfor (rt.items(%s), 0..) |%s, %s| {\n", ind, iterText, elem, idx))
		_ = iterTag
	case ast.ForZip:
		texts := make([]string, len(s.Args))
		for i, a := range s.Args {
			texts[i], _ = g.exprText(a, env)
		}
		for _, t := range s.Targets {
			env.Bind(t, types.VarType{Tag: types.TagPyObject})
		}
		pairs := make([]string, len(texts))
		for i, t := range texts {
			pairs[i] = fmt.Sprintf("rt.items(%s)", t)
		}
		g.out.WriteString(fmt.Sprintf("%sfor (%s) |%s| {\n", ind, strings.Join(pairs, ", "), strings.Join(s.Targets, ", ")))
	}
	for _, b := range s.Body {
		g.genStmt(b, env, depth+1)
	}
	g.out.WriteString(ind + "}\n")
}

func exprIdentName(e ast.Expr) string {
	if id, ok := e.(*ast.Ident); ok {
		return id.Name
	}
	return ""
}

func elemVarType(k types.ElemKind) types.VarType {
	switch k {
	case types.ElemInt:
		return types.VarType{Tag: types.TagInt}
	case types.ElemString:
		return types.VarType{Tag: types.TagString}
	case types.ElemTuple:
		return types.VarType{Tag: types.TagTuple}
	}
	return types.VarType{Tag: types.TagPyObject}
}

// genPrintStmt renders one print(...) call per argument, dispatching on
// the argument's own tag per spec §4.3 pass 1 / §4.4: native int/float/
// bool values format directly through std.debug.print (so a pure-numeric
// program never touches the runtime at all), everything else goes
// through rt.print, binding an owned expression (or a bare name, after a
// retain) to a scoped temporary with a paired decrement first (spec §4.4).
func (g *Generator) genPrintStmt(c *ast.Call, env *types.Env, depth int) {
	ind := indent(depth)
	if len(c.Args) == 0 {
		g.out.WriteString(ind + "std.debug.print(\"\\n\", .{});\n")
		return
	}
	for _, a := range c.Args {
		text, tag := g.exprText(a, env)
		switch tag.Tag {
		case types.TagInt:
			g.out.WriteString(fmt.Sprintf("%sstd.debug.print(\"{d}\\n\", .{%s});\n", ind, text))
		case types.TagFloat:
			g.out.WriteString(fmt.Sprintf("%sstd.debug.print(\"{d}\\n\", .{%s});\n", ind, text))
		case types.TagBool:
			g.out.WriteString(fmt.Sprintf("%sstd.debug.print(\"{s}\\n\", .{if (%s) \"True\" else \"False\"});\n", ind, text))
		default:
			if kind := exprOwnKind(a); kind == ownOwned || kind == ownAlias {
				g.tmpCount++
				tmp := fmt.Sprintf("_print%d", g.tmpCount)
				g.out.WriteString(fmt.Sprintf("%sconst %s = %s;\n", ind, tmp, text))
				if kind == ownAlias {
					g.out.WriteString(fmt.Sprintf("%s_ = rt.retain(%s);\n", ind, tmp))
				}
				g.out.WriteString(fmt.Sprintf("%sdefer rt.release(allocator, %s);\n", ind, tmp))
				g.out.WriteString(fmt.Sprintf("%srt.print(%s);\n", ind, tmp))
			} else {
				g.out.WriteString(fmt.Sprintf("%srt.print(%s);\n", ind, text))
			}
		}
	}
}

// genTry lowers try/except with the labeled-block + inline-catch pattern
// of spec §4.6: the body runs inside a named block, and every fallible
// call inside it (threaded through fallible()) becomes `expr catch |err|
// switch (err) { ...matching tags...; break :label; }` instead of a bare
// `try`, since a raw `try` would unwind the whole function rather than
// just this statement.
func (g *Generator) genTry(s *ast.Try, env *types.Env, depth int) {
	ind := indent(depth)
	g.tryCount++
	label := fmt.Sprintf("try_%d", g.tryCount)
	fr := &tryFrame{label: label, handlers: s.Handlers, env: env, depth: depth}
	g.tryStack = append(g.tryStack, fr)

	g.out.WriteString(fmt.Sprintf("%s%s: {\n", ind, label))
	for _, b := range s.Body {
		g.genStmt(b, env, depth+1)
	}
	g.out.WriteString(ind + "}\n")

	g.tryStack = g.tryStack[:len(g.tryStack)-1]
}

// fallible wraps call with `try` when there is no enclosing try/except,
// or with the labeled-block catch-dispatch of genTry's innermost frame
// otherwise — the single choke point every fallible runtime call in
// internal/codegen goes through (spec §4.6).
func (g *Generator) fallible(call string) string {
	if len(g.tryStack) == 0 {
		return "try " + call
	}
	fr := g.tryStack[len(g.tryStack)-1]
	return call + " catch |err| " + g.catchDispatch(fr)
}

// catchDispatch renders the `switch (err) { error.Tag => { ...; break
// :label; }, ..., else => ... }` expression matching fr's except clauses
// against spec §4.6's error tags (IndexError/ValueError/KeyError/
// TypeError/bare). A bare `except:` becomes the `else` arm and still
// breaks out of the label; with no bare handler, an unmatched error
// re-propagates with `return err`.
func (g *Generator) catchDispatch(fr *tryFrame) string {
	armInd := indent(fr.depth + 1)
	closeInd := indent(fr.depth)
	var b strings.Builder
	b.WriteString("switch (err) {\n")
	var bare *ast.ExceptClause
	for i := range fr.handlers {
		h := &fr.handlers[i]
		if h.Kind == "" {
			bare = h
			continue
		}
		b.WriteString(fmt.Sprintf("%serror.%s => {\n", armInd, h.Kind))
		b.WriteString(g.renderHandlerBody(fr, h.Body))
		b.WriteString(fmt.Sprintf("%s    break :%s;\n", armInd, fr.label))
		b.WriteString(fmt.Sprintf("%s},\n", armInd))
	}
	if bare != nil {
		b.WriteString(fmt.Sprintf("%selse => {\n", armInd))
		b.WriteString(g.renderHandlerBody(fr, bare.Body))
		b.WriteString(fmt.Sprintf("%s    break :%s;\n", armInd, fr.label))
		b.WriteString(fmt.Sprintf("%s},\n", armInd))
	} else {
		b.WriteString(fmt.Sprintf("%selse => return err,\n", armInd))
	}
	b.WriteString(closeInd + "}")
	return b.String()
}

// renderHandlerBody renders a handler's statements to text without
// writing them to g.out directly, since they must be embedded inline
// inside the catch-dispatch switch expression rather than appended at
// the current output position. Handler bodies run outside the try they
// belong to, so fr itself is popped off the try stack while rendering —
// an error raised while handling an exception is not caught by the same
// try/except.
func (g *Generator) renderHandlerBody(fr *tryFrame, stmts []ast.Stmt) string {
	savedStack := g.tryStack
	g.tryStack = savedStack[:len(savedStack)-1]
	savedOut := g.out
	g.out = strings.Builder{}
	for _, st := range stmts {
		g.genStmt(st, fr.env, fr.depth+2)
	}
	text := g.out.String()
	g.out = savedOut
	g.tryStack = savedStack
	return text
}

// boxPrimitive lifts a native int/float/bool value into a boxed object
// via the matching rt.box_* helper, for the sites internal/registry's
// WrapPrimitive (or a collection literal with a native element) marks.
func (g *Generator) boxPrimitive(pos ast.Pos, tag types.Tag, text string) string {
	var fn string
	switch tag {
	case types.TagInt:
		fn = "box_int"
	case types.TagFloat:
		fn = "box_float"
	case types.TagBool:
		fn = "box_bool"
	default:
		return text
	}
	g.ir.EmitPrimitiveWrap(pos, tag, text)
	return g.fallible(fmt.Sprintf("rt.%s(allocator, %s)", fn, text))
}
