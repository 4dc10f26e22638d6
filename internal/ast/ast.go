// Package ast defines the abstract syntax tree for the accepted source
// subset (see spec §6): a typed-enough slice of a dynamic scripting
// language. The parser (internal/parser) is the only producer of these
// nodes; every later phase (internal/types, internal/codegen) treats them
// as read-only.
package ast

import "fmt"

// Pos is a source location, carried on every node for diagnostics.
type Pos struct {
	File   string
	Line   int
	Column int
}

func (p Pos) String() string {
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// Span is a half-open source range.
type Span struct {
	Start Pos
	End   Pos
}

// Node is the base interface implemented by every AST node.
type Node interface {
	Position() Pos
	String() string
}

// Expr is any node that produces a value.
type Expr interface {
	Node
	exprNode()
}

// Stmt is any node that is executed for effect.
type Stmt interface {
	Node
	stmtNode()
}

// Module is a single parsed source file plus the simple-identifier imports
// it declares. It corresponds to spec §3's "Parsed Module".
type Module struct {
	Path    string // absolute or repo-relative filename
	Name    string // module name, derived from the filename
	Imports []string
	Funcs   []*FuncDecl
	Classes []*ClassDecl
	Body    []Stmt // module-level statements (outside any def)
	Pos     Pos
}

func (m *Module) Position() Pos { return m.Pos }
func (m *Module) String() string {
	return fmt.Sprintf("module %s (%d imports, %d funcs, %d classes)", m.Name, len(m.Imports), len(m.Funcs), len(m.Classes))
}

// ---- Expressions --------------------------------------------------------

// Ident is a bare name reference.
type Ident struct {
	Name string
	Pos  Pos
}

func (i *Ident) Position() Pos  { return i.Pos }
func (i *Ident) String() string { return i.Name }
func (*Ident) exprNode()        {}

// LiteralKind distinguishes literal expression forms.
type LiteralKind int

const (
	IntLit LiteralKind = iota
	FloatLit
	StringLit
	BoolLit
)

// Literal is a constant value written directly in source.
type Literal struct {
	Kind  LiteralKind
	Int   int64
	Float float64
	Str   string
	Bool  bool
	Pos   Pos
}

func (l *Literal) Position() Pos { return l.Pos }
func (l *Literal) String() string {
	switch l.Kind {
	case IntLit:
		return fmt.Sprintf("%d", l.Int)
	case FloatLit:
		return fmt.Sprintf("%g", l.Float)
	case StringLit:
		return fmt.Sprintf("%q", l.Str)
	case BoolLit:
		return fmt.Sprintf("%t", l.Bool)
	}
	return "<literal>"
}
func (*Literal) exprNode() {}

// ListLit is `[e1, e2, ...]`.
type ListLit struct {
	Elems []Expr
	Pos   Pos
}

func (l *ListLit) Position() Pos  { return l.Pos }
func (l *ListLit) String() string { return fmt.Sprintf("[...](%d)", len(l.Elems)) }
func (*ListLit) exprNode()        {}

// TupleLit is `(e1, e2, ...)`.
type TupleLit struct {
	Elems []Expr
	Pos   Pos
}

func (t *TupleLit) Position() Pos  { return t.Pos }
func (t *TupleLit) String() string { return fmt.Sprintf("(...)(%d)", len(t.Elems)) }
func (*TupleLit) exprNode()        {}

// DictEntry is one `key: value` pair inside a DictLit. Keys in the accepted
// subset are always string literals (spec §4.5 rejects non-string dict keys).
type DictEntry struct {
	Key   string
	Value Expr
}

// DictLit is `{"k": v, ...}`.
type DictLit struct {
	Entries []DictEntry
	Pos     Pos
}

func (d *DictLit) Position() Pos  { return d.Pos }
func (d *DictLit) String() string { return fmt.Sprintf("{...}(%d)", len(d.Entries)) }
func (*DictLit) exprNode()        {}

// BinOp is a binary arithmetic, comparison, or boolean expression.
type BinOp struct {
	Op    string // "+","-","*","/","%","==","!=","<","<=",">",">=","and","or","in"
	Left  Expr
	Right Expr
	Pos   Pos
}

func (b *BinOp) Position() Pos  { return b.Pos }
func (b *BinOp) String() string { return fmt.Sprintf("(%s %s %s)", b.Left, b.Op, b.Right) }
func (*BinOp) exprNode()        {}

// UnaryOp is `not e` or `-e`.
type UnaryOp struct {
	Op   string
	Expr Expr
	Pos  Pos
}

func (u *UnaryOp) Position() Pos  { return u.Pos }
func (u *UnaryOp) String() string { return fmt.Sprintf("(%s %s)", u.Op, u.Expr) }
func (*UnaryOp) exprNode()        {}

// Subscript is `x[i]` (index) or `x[lo:hi]` (slice, either bound
// optional); IsSlice tells the two apart.
type Subscript struct {
	Target Expr
	Lo     Expr
	Hi     Expr // upper slice bound; nil for a plain index or an omitted bound
	IsSlice bool
	Pos    Pos
}

func (s *Subscript) Position() Pos  { return s.Pos }
func (s *Subscript) String() string { return fmt.Sprintf("%s[...]", s.Target) }
func (*Subscript) exprNode()        {}

// Attribute is `x.name` (module-qualified reference or class field read).
type Attribute struct {
	Target Expr
	Name   string
	Pos    Pos
}

func (a *Attribute) Position() Pos  { return a.Pos }
func (a *Attribute) String() string { return fmt.Sprintf("%s.%s", a.Target, a.Name) }
func (*Attribute) exprNode()        {}

// Call is `f(args...)` or `recv.method(args...)` when Recv != nil.
type Call struct {
	Callee Expr // Ident, or nil when Recv set (module.func(...) parses as Recv/Method)
	Recv   Expr // non-nil for method calls: recv.Method(args)
	Method string
	Args   []Expr
	Pos    Pos
}

func (c *Call) Position() Pos { return c.Pos }
func (c *Call) String() string {
	if c.Recv != nil {
		return fmt.Sprintf("%s.%s(...)", c.Recv, c.Method)
	}
	return fmt.Sprintf("%s(...)", c.Callee)
}
func (*Call) exprNode() {}

// Comprehension is `[expr for name in iter if cond]` (single generator only).
type Comprehension struct {
	Result Expr
	Var    string
	Iter   Expr
	Cond   Expr // may be nil
	Pos    Pos
}

func (c *Comprehension) Position() Pos  { return c.Pos }
func (c *Comprehension) String() string { return fmt.Sprintf("[%s for %s in %s]", c.Result, c.Var, c.Iter) }
func (*Comprehension) exprNode()        {}

// ---- Statements ----------------------------------------------------------

// ExprStmt is a bare expression used for its side effect (e.g. `print(x)`).
type ExprStmt struct {
	X   Expr
	Pos Pos
}

func (e *ExprStmt) Position() Pos  { return e.Pos }
func (e *ExprStmt) String() string { return e.X.String() }
func (*ExprStmt) stmtNode()        {}

// AssignTarget is either a bare name or an attribute (self.field = ...).
type AssignTarget struct {
	Name string // set when this is a plain name target
	Attr *Attribute
}

// Assign is `target = value`.
type Assign struct {
	Target AssignTarget
	Value  Expr
	Pos    Pos
}

func (a *Assign) Position() Pos  { return a.Pos }
func (a *Assign) String() string { return fmt.Sprintf("%v = %s", a.Target, a.Value) }
func (*Assign) stmtNode()        {}

// AugAssign is `target OP= value`.
type AugAssign struct {
	Target AssignTarget
	Op     string // "+","-","*","/","%"
	Value  Expr
	Pos    Pos
}

func (a *AugAssign) Position() Pos  { return a.Pos }
func (a *AugAssign) String() string { return fmt.Sprintf("%v %s= %s", a.Target, a.Op, a.Value) }
func (*AugAssign) stmtNode()        {}

// If is `if cond: ... elif cond: ... else: ...`.
type If struct {
	Cond Expr
	Then []Stmt
	Elif []ElifClause
	Else []Stmt
	Pos  Pos
}

// ElifClause is one `elif` arm.
type ElifClause struct {
	Cond Expr
	Body []Stmt
}

func (i *If) Position() Pos  { return i.Pos }
func (i *If) String() string { return fmt.Sprintf("if %s: ...", i.Cond) }
func (*If) stmtNode()        {}

// While is `while cond: ...`.
type While struct {
	Cond Expr
	Body []Stmt
	Pos  Pos
}

func (w *While) Position() Pos  { return w.Pos }
func (w *While) String() string { return fmt.Sprintf("while %s: ...", w.Cond) }
func (*While) stmtNode()        {}

// ForKind distinguishes the three accepted for-loop iterables (spec §4.5).
type ForKind int

const (
	ForRange ForKind = iota
	ForEnumerate
	ForZip
)

// For is `for <targets> in range(...)|enumerate(...)|zip(...): ...`.
type For struct {
	Kind    ForKind
	Targets []string // 1 name for range/plain, 2 for enumerate, N for zip
	Args    []Expr   // arguments to range/enumerate/zip
	Body    []Stmt
	Pos     Pos
}

func (f *For) Position() Pos  { return f.Pos }
func (f *For) String() string { return fmt.Sprintf("for %v in ...: ...", f.Targets) }
func (*For) stmtNode()        {}

// Return is `return expr` (expr may be nil).
type Return struct {
	Value Expr
	Pos   Pos
}

func (r *Return) Position() Pos  { return r.Pos }
func (r *Return) String() string { return "return ..." }
func (*Return) stmtNode()        {}

// ExceptClause is one `except <Kind>:` handler; Kind == "" is a bare except.
type ExceptClause struct {
	Kind string
	Body []Stmt
}

// Try is `try: ... except K: ... except: ...`.
type Try struct {
	Body    []Stmt
	Handlers []ExceptClause
	Pos     Pos
}

func (t *Try) Position() Pos  { return t.Pos }
func (t *Try) String() string { return "try: ..." }
func (*Try) stmtNode()        {}

// Import is `import name`.
type Import struct {
	Name string
	Pos  Pos
}

func (i *Import) Position() Pos  { return i.Pos }
func (i *Import) String() string { return fmt.Sprintf("import %s", i.Name) }
func (*Import) stmtNode()        {}

// Param is one function/method parameter with its optional type annotation
// (spec §6: "Type annotations accepted for disambiguation").
type Param struct {
	Name    string
	Type    string // "", "int", "float", "bool", "str", "list", "dict"
	Default Expr   // non-nil when the parameter has a default value
}

// FuncDecl is `def name(params) -> ret: ...`, at module scope or as a
// class method (IsMethod is true for a method, whose first parameter is
// by convention "self").
type FuncDecl struct {
	Name       string
	Params     []Param
	ReturnType string
	Body       []Stmt
	IsMethod   bool
	Pos        Pos
}

func (f *FuncDecl) Position() Pos  { return f.Pos }
func (f *FuncDecl) String() string { return fmt.Sprintf("def %s(...)", f.Name) }
func (*FuncDecl) stmtNode()        {}

// ClassDecl is `class Name(Base): def __init__(self, ...): ... def m(self): ...`.
type ClassDecl struct {
	Name    string
	Base    string // "" when no base class
	Methods []*FuncDecl
	Pos     Pos
}

func (c *ClassDecl) Position() Pos  { return c.Pos }
func (c *ClassDecl) String() string { return fmt.Sprintf("class %s", c.Name) }
func (*ClassDecl) stmtNode()        {}
