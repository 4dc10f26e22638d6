// Package types implements the Analysis Passes of spec §4.3 (C4): the
// semantic type-tag side-table, class/function descriptors, and the
// three AST-walking passes that feed the code generator (internal/codegen).
package types

import "github.com/sunholo/boxc/internal/ast"

// Tag is one of the closed set of semantic type tags from spec §3.
type Tag int

const (
	// TagInt is a native machine integer.
	TagInt Tag = iota
	// TagPyInt is a boxed integer: a dynamic object whose payload is an int.
	TagPyInt
	TagFloat
	TagBool
	TagString
	TagList
	TagTuple
	TagDict
	// TagPyObject is dynamic with unknown concrete kind, resolved by
	// runtime tag at the use site.
	TagPyObject
	// TagClass marks a user-class instance; ClassName on VarType names it.
	TagClass
)

func (t Tag) String() string {
	switch t {
	case TagInt:
		return "int"
	case TagPyInt:
		return "pyint"
	case TagFloat:
		return "float"
	case TagBool:
		return "bool"
	case TagString:
		return "string"
	case TagList:
		return "list"
	case TagTuple:
		return "tuple"
	case TagDict:
		return "dict"
	case TagPyObject:
		return "pyobject"
	case TagClass:
		return "class"
	}
	return "unknown"
}

// VarType is the tag carried by a tracked variable or expression result.
type VarType struct {
	Tag       Tag
	ClassName string // set iff Tag == TagClass
}

// ElemKind is the per-variable list/tuple element tag side-table entry
// (spec §3 "List/Tuple Element Tag").
type ElemKind int

const (
	ElemUnknown ElemKind = iota
	ElemInt
	ElemString
	ElemTuple
)

// Refine combines a variable's current tag with a newly observed source
// tag. Spec §3: "a variable's tag is assigned at its first binding and may
// be refined only when an obviously more specific source becomes
// available; conflicting refinements are treated as pyobject."
func Refine(current, observed VarType) VarType {
	if current.Tag == observed.Tag && current.ClassName == observed.ClassName {
		return current
	}
	// current is the zero value (first binding): adopt observed outright.
	if current == (VarType{}) {
		return observed
	}
	return VarType{Tag: TagPyObject}
}

// FuncSignature is spec §3's Function Signature descriptor.
type FuncSignature struct {
	NeedsAllocator bool
	ParamCount     int
	ReturnsDynamic bool
	ReturnTypeText string
}

// ClassDescriptor is spec §3's Class Descriptor.
type ClassDescriptor struct {
	Name       string
	BaseName   string // "" when there is no base class
	Fields     map[string]VarType
	FieldOrder []string // first-seen order, for deterministic codegen
	Methods    map[string]*FuncSignature
	MethodAST  map[string]*ast.FuncDecl
	InitParams []ast.Param
}

// NewClassDescriptor allocates an empty descriptor for name/base.
func NewClassDescriptor(name, base string) *ClassDescriptor {
	return &ClassDescriptor{
		Name:      name,
		BaseName:  base,
		Fields:    make(map[string]VarType),
		Methods:   make(map[string]*FuncSignature),
		MethodAST: make(map[string]*ast.FuncDecl),
	}
}

// AddField records a field discovered from a `self.<name> = …` assignment,
// preserving first-seen order for deterministic struct-field emission.
func (c *ClassDescriptor) AddField(name string, vt VarType) {
	if _, ok := c.Fields[name]; !ok {
		c.FieldOrder = append(c.FieldOrder, name)
	}
	c.Fields[name] = Refine(c.Fields[name], vt)
}

// LookupMethod resolves a method by walking the single linear inheritance
// chain (spec §3: "a method absent in the derived descriptor is fetched
// from the base").
func LookupMethod(classes map[string]*ClassDescriptor, class, method string) (*ast.FuncDecl, *ClassDescriptor, bool) {
	for cur := class; cur != ""; {
		desc, ok := classes[cur]
		if !ok {
			return nil, nil, false
		}
		if fn, ok := desc.MethodAST[method]; ok {
			return fn, desc, true
		}
		cur = desc.BaseName
	}
	return nil, nil, false
}

// LookupField resolves a field the same way, walking the base chain.
func LookupField(classes map[string]*ClassDescriptor, class, field string) (VarType, bool) {
	for cur := class; cur != ""; {
		desc, ok := classes[cur]
		if !ok {
			return VarType{}, false
		}
		if vt, ok := desc.Fields[field]; ok {
			return vt, true
		}
		cur = desc.BaseName
	}
	return VarType{}, false
}

// AnnotationTag maps spec §6's accepted parameter type annotations onto a
// VarType; an absent annotation defaults to native integer, the common
// case for the arithmetic-heavy functions the accepted subset targets.
// Method calls on an untyped receiver still resolve correctly: codegen
// falls back to dynamic dispatch whenever the assumed tag has no matching
// registry entry for the method being called.
func AnnotationTag(annotation string) VarType {
	switch annotation {
	case "int":
		return VarType{Tag: TagInt}
	case "float":
		return VarType{Tag: TagFloat}
	case "bool":
		return VarType{Tag: TagBool}
	case "str":
		return VarType{Tag: TagString}
	case "list":
		return VarType{Tag: TagList}
	case "dict":
		return VarType{Tag: TagDict}
	case "":
		return VarType{Tag: TagInt}
	default:
		return VarType{Tag: TagClass, ClassName: annotation}
	}
}
