package types

// Env is the scoped variable-tag environment described in spec §3's
// Lifecycle section: a tag table plus an element-tag side-table, cloned
// when entering a method body (with `self` pre-bound to the receiver's
// class) and restored on exit so sibling methods never see each other's
// local refinements.
type Env struct {
	vars  map[string]VarType
	elems map[string]ElemKind
}

// NewEnv returns an empty top-level environment.
func NewEnv() *Env {
	return &Env{vars: make(map[string]VarType), elems: make(map[string]ElemKind)}
}

// Clone copies the environment so a callee (e.g. a method body) can refine
// its own bindings without leaking them back to the caller's scope.
func (e *Env) Clone() *Env {
	c := NewEnv()
	for k, v := range e.vars {
		c.vars[k] = v
	}
	for k, v := range e.elems {
		c.elems[k] = v
	}
	return c
}

// BindSelf seeds a method scope with `self` bound to className, per spec
// §3: "entering a method body clones the environment with self bound to
// the enclosing class".
func (e *Env) BindSelf(className string) {
	e.vars["self"] = VarType{Tag: TagClass, ClassName: className}
}

// Lookup returns the current tag for name, or the zero VarType if unbound.
func (e *Env) Lookup(name string) (VarType, bool) {
	vt, ok := e.vars[name]
	return vt, ok
}

// Bind refines and stores name's tag (spec §3's first-binding/refinement
// rule, via Refine).
func (e *Env) Bind(name string, vt VarType) VarType {
	refined := Refine(e.vars[name], vt)
	e.vars[name] = refined
	return refined
}

// ElemTag returns the element-kind side-table entry for a list/tuple-typed
// variable, defaulting to ElemUnknown.
func (e *Env) ElemTag(name string) ElemKind {
	return e.elems[name]
}

// SetElemTag records the element-kind side-table entry for name.
func (e *Env) SetElemTag(name string, k ElemKind) {
	e.elems[name] = k
}
