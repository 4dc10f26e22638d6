package types

import "github.com/sunholo/boxc/internal/ast"

// Analysis is the combined result of the three C4 passes (spec §4.3) plus
// the class-descriptor and function-signature pre-population spec §4.3's
// closing paragraph asks for.
type Analysis struct {
	Classes map[string]*ClassDescriptor
	Funcs   map[string]*FuncSignature

	// Declared maps a function name to the flat, unscoped set of every
	// name ever assigned within it (pass 2).
	Declared map[string][]string

	// Mutable maps a function name to the set of names reassigned more
	// than once within their own scope (pass 3): these need a `var`
	// declaration in the generated Zig rather than a one-shot `const`.
	Mutable map[string]map[string]bool
}

// Analyze runs the three Analysis Passes over mod and pre-populates class
// descriptors and function signatures, per spec §4.3.
func Analyze(mod *ast.Module) *Analysis {
	a := &Analysis{
		Classes:  make(map[string]*ClassDescriptor),
		Funcs:    make(map[string]*FuncSignature),
		Declared: make(map[string][]string),
		Mutable:  make(map[string]map[string]bool),
	}

	for _, cd := range mod.Classes {
		a.populateClass(cd)
	}

	allFuncs := append([]*ast.FuncDecl{}, mod.Funcs...)
	for _, cd := range mod.Classes {
		allFuncs = append(allFuncs, cd.Methods...)
	}

	// Pass 1: runtime-need detection, with transitive propagation across
	// the module's own call graph (a function that calls an
	// allocator-needing function needs one too).
	needs := detectRuntimeNeed(allFuncs)

	for _, fn := range allFuncs {
		a.Funcs[fn.Name] = &FuncSignature{
			NeedsAllocator: needs[fn.Name],
			ParamCount:     len(fn.Params),
			ReturnsDynamic: fn.ReturnType == "" || fn.ReturnType == "str" || fn.ReturnType == "list" || fn.ReturnType == "dict",
			ReturnTypeText: fn.ReturnType,
		}

		// Pass 2: flat declaration collection.
		declared := make(map[string]bool)
		collectDeclarations(fn.Body, declared)
		for _, p := range fn.Params {
			declared[p.Name] = true
		}
		names := make([]string, 0, len(declared))
		for n := range declared {
			names = append(names, n)
		}
		a.Declared[fn.Name] = names

		// Pass 3: per-scope reassignment detection.
		counts := make(map[string]int)
		collectAssignCounts(fn.Body, counts)
		mutable := make(map[string]bool)
		for n, c := range counts {
			if c > 1 {
				mutable[n] = true
			}
		}
		a.Mutable[fn.Name] = mutable
	}

	return a
}

func (a *Analysis) populateClass(cd *ast.ClassDecl) {
	desc := NewClassDescriptor(cd.Name, cd.Base)
	for _, m := range cd.Methods {
		desc.MethodAST[m.Name] = m
		if m.Name == "__init__" {
			desc.InitParams = m.Params
			collectSelfFields(m.Body, desc)
		}
	}
	a.Classes[cd.Name] = desc
}

// collectSelfFields scans an __init__ body for `self.<name> = <expr>`
// assignments, populating the class descriptor's field table (spec §3:
// "fields are discovered from assignments to self.* inside __init__").
func collectSelfFields(body []ast.Stmt, desc *ClassDescriptor) {
	for _, stmt := range body {
		if as, ok := stmt.(*ast.Assign); ok && as.Target.Attr != nil {
			if ident, ok := as.Target.Attr.Target.(*ast.Ident); ok && ident.Name == "self" {
				desc.AddField(as.Target.Attr.Name, InferLiteralTag(as.Value))
			}
		}
	}
}

// InferLiteralTag gives a best-effort tag for an initializer expression
// without a full environment: used both for a field's declared type
// (during class population) and for a mutable local's declared Zig type
// (internal/codegen's genDeclarations), refined later during codegen
// proper when an Env is available.
func InferLiteralTag(e ast.Expr) VarType {
	switch v := e.(type) {
	case *ast.Literal:
		switch v.Kind {
		case ast.IntLit:
			return VarType{Tag: TagInt}
		case ast.FloatLit:
			return VarType{Tag: TagFloat}
		case ast.StringLit:
			return VarType{Tag: TagString}
		case ast.BoolLit:
			return VarType{Tag: TagBool}
		}
	case *ast.ListLit:
		return VarType{Tag: TagList}
	case *ast.TupleLit:
		return VarType{Tag: TagTuple}
	case *ast.DictLit:
		return VarType{Tag: TagDict}
	}
	return VarType{Tag: TagPyObject}
}

// detectRuntimeNeed decides, for every function in funcs, whether its body
// requires a threaded allocator (spec §4.3 pass 1): directly, via any
// heap-allocating construct, or transitively, via a call to another
// function already known to need one. Propagation runs to a fixed point
// since call order within a module is not guaranteed to be acyclic-sorted.
func detectRuntimeNeed(funcs []*ast.FuncDecl) map[string]bool {
	needs := make(map[string]bool, len(funcs))
	calls := make(map[string][]string, len(funcs))
	for _, fn := range funcs {
		params := make(map[string]Tag, len(fn.Params))
		for _, p := range fn.Params {
			params[p.Name] = AnnotationTag(p.Type).Tag
		}
		needs[fn.Name] = bodyAllocates(fn.Body, params)
		calls[fn.Name] = calledNames(fn.Body)
	}

	for changed := true; changed; {
		changed = false
		for name, callees := range calls {
			if needs[name] {
				continue
			}
			for _, callee := range callees {
				if needs[callee] {
					needs[name] = true
					changed = true
					break
				}
			}
		}
	}
	return needs
}

// bodyAllocates reports whether stmts directly contain a construct that
// needs an allocator: list/tuple/dict literals, comprehensions, method
// calls, or a `+` whose operand tags (known from params, the only type
// information pass 1 has before full Env threading) resolve to something
// other than plain numeric addition, per spec §4.3's allocator-need rule.
func bodyAllocates(stmts []ast.Stmt, params map[string]Tag) bool {
	found := false
	walkStmts(stmts, func(s ast.Stmt) {
		switch v := s.(type) {
		case *ast.Assign:
			if exprAllocates(v.Value, params) {
				found = true
			}
		case *ast.AugAssign:
			if exprAllocates(v.Value, params) {
				found = true
			}
		case *ast.Return:
			if v.Value != nil && exprAllocates(v.Value, params) {
				found = true
			}
		case *ast.ExprStmt:
			if exprAllocates(v.X, params) {
				found = true
			}
		}
	})
	return found
}

func exprAllocates(e ast.Expr, params map[string]Tag) bool {
	switch v := e.(type) {
	case *ast.ListLit, *ast.TupleLit, *ast.DictLit, *ast.Comprehension:
		return true
	case *ast.Subscript:
		// Every subscript form (list/tuple index, dict-key lookup, string
		// index, slice) lowers to a bounds/key-checked runtime call that
		// returns `!T`, so the enclosing function needs a fallible
		// (allocator-threaded) signature even when nothing else allocates.
		return true
	case *ast.BinOp:
		if v.Op == "in" {
			return true // rt.contains needs the allocator parameter
		}
		if v.Op == "+" && (!isNumericOperand(v.Left, params) || !isNumericOperand(v.Right, params)) {
			return true
		}
		return exprAllocates(v.Left, params) || exprAllocates(v.Right, params)
	case *ast.Call:
		if v.Recv != nil {
			return true // method calls route through the dynamic registry, which allocates
		}
		if id, ok := v.Callee.(*ast.Ident); ok && id.Name == "print" {
			// A print of anything other than a known-native int/float/bool
			// argument binds a scoped temporary and calls rt.release, both
			// of which thread the allocator even though nothing about the
			// print call itself looks like an allocation here.
			for _, arg := range v.Args {
				if !isNumericOperand(arg, params) && !isBoolOperand(arg, params) {
					return true
				}
			}
		}
		for _, arg := range v.Args {
			if exprAllocates(arg, params) {
				return true
			}
		}
	case *ast.UnaryOp:
		return exprAllocates(v.Expr, params)
	}
	return false
}

// isNumericOperand reports whether e is known, from a literal or a
// parameter's type annotation, to be an int or float — the only two tags
// native `+` handles without a runtime call.
func isNumericOperand(e ast.Expr, params map[string]Tag) bool {
	switch v := e.(type) {
	case *ast.Literal:
		return v.Kind == ast.IntLit || v.Kind == ast.FloatLit
	case *ast.Ident:
		tag, ok := params[v.Name]
		return ok && (tag == TagInt || tag == TagFloat)
	}
	return false
}

// isBoolOperand mirrors isNumericOperand for the other tag print() renders
// natively (std.debug.print with no allocator involved).
func isBoolOperand(e ast.Expr, params map[string]Tag) bool {
	switch v := e.(type) {
	case *ast.Literal:
		return v.Kind == ast.BoolLit
	case *ast.Ident:
		tag, ok := params[v.Name]
		return ok && tag == TagBool
	}
	return false
}

// calledNames returns the plain (non-method) function names invoked
// anywhere in stmts, used to build the call graph for transitive
// allocator-need propagation.
func calledNames(stmts []ast.Stmt) []string {
	var names []string
	walkStmts(stmts, func(s ast.Stmt) {
		var exprs []ast.Expr
		switch v := s.(type) {
		case *ast.Assign:
			exprs = append(exprs, v.Value)
		case *ast.AugAssign:
			exprs = append(exprs, v.Value)
		case *ast.Return:
			if v.Value != nil {
				exprs = append(exprs, v.Value)
			}
		case *ast.ExprStmt:
			exprs = append(exprs, v.X)
		}
		for _, e := range exprs {
			collectCallNames(e, &names)
		}
	})
	return names
}

func collectCallNames(e ast.Expr, out *[]string) {
	call, ok := e.(*ast.Call)
	if !ok {
		return
	}
	if call.Recv == nil {
		if ident, ok := call.Callee.(*ast.Ident); ok {
			*out = append(*out, ident.Name)
		}
	}
	for _, arg := range call.Args {
		collectCallNames(arg, out)
	}
}

// collectDeclarations performs the flat, unscoped declaration-collection
// pass (spec §4.3 pass 2): every name ever assigned anywhere in the
// function body, regardless of nesting depth, needs a slot declared once
// up front in the generated Zig function.
func collectDeclarations(stmts []ast.Stmt, out map[string]bool) {
	walkStmts(stmts, func(s ast.Stmt) {
		switch v := s.(type) {
		case *ast.Assign:
			if v.Target.Name != "" {
				out[v.Target.Name] = true
			}
		case *ast.AugAssign:
			if v.Target.Name != "" {
				out[v.Target.Name] = true
			}
		case *ast.For:
			for _, t := range v.Targets {
				out[t] = true
			}
		}
	})
}

// collectAssignCounts performs the per-function-scope reassignment pass
// (spec §4.3 pass 3): counts direct-name assignments so the caller can
// mark a variable mutable once it is assigned more than once.
func collectAssignCounts(stmts []ast.Stmt, counts map[string]int) {
	walkStmts(stmts, func(s ast.Stmt) {
		switch v := s.(type) {
		case *ast.Assign:
			if v.Target.Name != "" {
				counts[v.Target.Name]++
			}
		case *ast.AugAssign:
			if v.Target.Name != "" {
				counts[v.Target.Name]++
			}
		case *ast.For:
			for _, t := range v.Targets {
				counts[t]++
			}
		}
	})
}

// walkStmts visits every statement in stmts and its nested bodies
// (if/elif/else, while, for, try/except) depth-first, calling visit once
// per statement including containers themselves.
func walkStmts(stmts []ast.Stmt, visit func(ast.Stmt)) {
	for _, s := range stmts {
		visit(s)
		switch v := s.(type) {
		case *ast.If:
			walkStmts(v.Then, visit)
			for _, elif := range v.Elif {
				walkStmts(elif.Body, visit)
			}
			walkStmts(v.Else, visit)
		case *ast.While:
			walkStmts(v.Body, visit)
		case *ast.For:
			walkStmts(v.Body, visit)
		case *ast.Try:
			walkStmts(v.Body, visit)
			for _, h := range v.Handlers {
				walkStmts(h.Body, visit)
			}
		}
	}
}
