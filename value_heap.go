package sketchvm

import (
	"fmt"
)

// StructVal is a named struct instance: ordered field->Value mapping.
// Key order is insertion order, preserved for emission (spec §3).
type StructVal struct {
	TypeName string
	order    []string
	fields   map[string]Value
}

func NewStructVal(typeName string) *StructVal {
	return &StructVal{TypeName: typeName, fields: make(map[string]Value)}
}

func (s *StructVal) Set(name string, v Value) {
	if _, ok := s.fields[name]; !ok {
		s.order = append(s.order, name)
	}
	s.fields[name] = v
}

func (s *StructVal) Get(name string) (Value, bool) {
	v, ok := s.fields[name]
	return v, ok
}

func (s *StructVal) Fields() []string {
	return append([]string{}, s.order...)
}

// PointerTarget describes what a Pointer refers to: either a named
// variable in a specific scope frame, or a (variable, offset) pair for
// a pointer into an array (spec §3).
type PointerTarget struct {
	Frame    *Frame
	Variable string
	Offset   int // element offset when pointing into an array
}

// PointerVal is a first-class pointer/reference value. It must survive
// round-trips through emission and the Value conversion layer as a
// structured object, never as a stringified representation (spec §9:
// "a documented regression — stringifying a pointer ... silently breaks
// arrow-operator chains").
type PointerVal struct {
	Target    PointerTarget
	PointeeTy string
	Level     int // indirection level, >= 1
}

func NewPointerVal(frame *Frame, variable string, pointeeTy string, level int) *PointerVal {
	return &PointerVal{
		Target:    PointerTarget{Frame: frame, Variable: variable},
		PointeeTy: pointeeTy,
		Level:     level,
	}
}

func (p *PointerVal) String() string {
	return fmt.Sprintf("&%s+%d", p.Target.Variable, p.Target.Offset)
}

// Valid reports whether the target variable's frame is still live
// (spec §3 invariant: a pointer whose target has gone out of scope
// becomes null on dereference).
func (p *PointerVal) Valid() bool {
	return p.Target.Frame != nil && p.Target.Frame.alive
}

// Dereference returns the current pointed-to Value: the element at the
// pointer's offset when the target is an array, the target's own value
// otherwise. It returns a NullDereferenceError if the target went out
// of scope, an OutOfBoundsError for an out-of-range array offset, and a
// TypeError for a non-zero offset into a non-array.
func (p *PointerVal) Dereference() (Value, error) {
	if !p.Valid() {
		return Unit, &NullDereferenceError{Message: "dereference of pointer to out-of-scope variable"}
	}
	v, ok := p.Target.Frame.vars[p.Target.Variable]
	if !ok {
		return Unit, &NullDereferenceError{Message: "dereference of pointer to undeclared variable"}
	}
	if v.Value.Kind() == KindArray {
		return v.Value.AsArray().GetFlat(p.Target.Offset)
	}
	if p.Target.Offset != 0 {
		return Unit, &TypeError{Message: "pointer arithmetic target is not an array"}
	}
	return v.Value, nil
}

// AssignThrough writes val through the pointer, as required by
// dereference-assignment (`*p = v`).
func (p *PointerVal) AssignThrough(val Value) error {
	if !p.Valid() {
		return &NullDereferenceError{Message: "assignment through pointer to out-of-scope variable"}
	}
	v, ok := p.Target.Frame.vars[p.Target.Variable]
	if !ok {
		return &NullDereferenceError{Message: "assignment through pointer to undeclared variable"}
	}
	if v.IsConst {
		return &TypeError{Message: fmt.Sprintf("cannot assign through pointer to const %q", p.Target.Variable)}
	}
	if v.Value.Kind() == KindArray {
		return v.Value.AsArray().SetFlat(p.Target.Offset, val)
	}
	if p.Target.Offset != 0 {
		return &TypeError{Message: "pointer arithmetic target is not an array"}
	}
	v.Value = val
	p.Target.Frame.vars[p.Target.Variable] = v
	return nil
}

// Add returns a new pointer advanced by n elements (spec §3/§4.4).
func (p *PointerVal) Add(n int) *PointerVal {
	return &PointerVal{
		Target: PointerTarget{
			Frame:    p.Target.Frame,
			Variable: p.Target.Variable,
			Offset:   p.Target.Offset + n,
		},
		PointeeTy: p.PointeeTy,
		Level:     p.Level,
	}
}

func (p *PointerVal) Sub(n int) *PointerVal { return p.Add(-n) }

func pointerArith(op string, l, r Value) (Value, error) {
	var ptr *PointerVal
	var delta Value
	if l.Kind() == KindPointer {
		ptr, delta = l.AsPointer(), r
	} else {
		ptr, delta = r.AsPointer(), l
	}
	if ptr == nil {
		return Unit, &TypeError{Message: "pointer arithmetic on non-pointer"}
	}
	if !delta.IsNumeric() {
		return Unit, &TypeError{Message: "pointer arithmetic requires an integer operand"}
	}
	n := int(delta.AsI32())
	switch op {
	case "+":
		return PointerValue(ptr.Add(n)), nil
	case "-":
		return PointerValue(ptr.Sub(n)), nil
	default:
		return Unit, &TypeError{Message: fmt.Sprintf("operator %q not valid on pointers", op)}
	}
}

// ArrayVal is a fixed-size, possibly multi-dimensional array. Storage
// is a flat, row-major slice (spec §3).
type ArrayVal struct {
	ElemType string // "int", "double", "string"
	Dims     []int
	elemsI32 []int32
	elemsF64 []float64
	elemsStr []string
}

func NewArrayValI32(dims []int) *ArrayVal {
	return &ArrayVal{ElemType: "int", Dims: dims, elemsI32: make([]int32, total(dims))}
}

func NewArrayValF64(dims []int) *ArrayVal {
	return &ArrayVal{ElemType: "double", Dims: dims, elemsF64: make([]float64, total(dims))}
}

func NewArrayValString(dims []int) *ArrayVal {
	return &ArrayVal{ElemType: "string", Dims: dims, elemsStr: make([]string, total(dims))}
}

func total(dims []int) int {
	n := 1
	for _, d := range dims {
		n *= d
	}
	return n
}

// FlatIndex computes a flat index from per-dimension indices,
// row-major, failing on out-of-bounds (spec §3).
func (a *ArrayVal) FlatIndex(indices []int) (int, error) {
	if len(indices) != len(a.Dims) {
		return 0, &OutOfBoundsError{Message: fmt.Sprintf("expected %d indices, got %d", len(a.Dims), len(indices))}
	}
	flat := 0
	for i, idx := range indices {
		if idx < 0 || idx >= a.Dims[i] {
			return 0, &OutOfBoundsError{Message: fmt.Sprintf("index %d out of bounds for dimension %d (size %d)", idx, i, a.Dims[i])}
		}
		flat = flat*a.Dims[i] + idx
	}
	return flat, nil
}

func (a *ArrayVal) Get(indices []int) (Value, error) {
	flat, err := a.FlatIndex(indices)
	if err != nil {
		return Unit, err
	}
	return a.GetFlat(flat)
}

func (a *ArrayVal) GetFlat(flat int) (Value, error) {
	switch a.ElemType {
	case "int":
		if flat < 0 || flat >= len(a.elemsI32) {
			return Unit, &OutOfBoundsError{Message: "flat index out of bounds"}
		}
		return I32Value(a.elemsI32[flat]), nil
	case "double":
		if flat < 0 || flat >= len(a.elemsF64) {
			return Unit, &OutOfBoundsError{Message: "flat index out of bounds"}
		}
		return F64Value(a.elemsF64[flat]), nil
	case "string":
		if flat < 0 || flat >= len(a.elemsStr) {
			return Unit, &OutOfBoundsError{Message: "flat index out of bounds"}
		}
		return StringValue(a.elemsStr[flat]), nil
	default:
		return Unit, &InternalInvariantError{Message: "unknown array element type"}
	}
}

func (a *ArrayVal) Set(indices []int, v Value) error {
	flat, err := a.FlatIndex(indices)
	if err != nil {
		return err
	}
	return a.SetFlat(flat, v)
}

func (a *ArrayVal) SetFlat(flat int, v Value) error {
	switch a.ElemType {
	case "int":
		if flat < 0 || flat >= len(a.elemsI32) {
			return &OutOfBoundsError{Message: "flat index out of bounds"}
		}
		f, _ := v.numeric()
		a.elemsI32[flat] = int32(f)
	case "double":
		if flat < 0 || flat >= len(a.elemsF64) {
			return &OutOfBoundsError{Message: "flat index out of bounds"}
		}
		f, _ := v.numeric()
		a.elemsF64[flat] = f
	case "string":
		if flat < 0 || flat >= len(a.elemsStr) {
			return &OutOfBoundsError{Message: "flat index out of bounds"}
		}
		a.elemsStr[flat] = v.String()
	default:
		return &InternalInvariantError{Message: "unknown array element type"}
	}
	return nil
}

func (a *ArrayVal) Len() int { return total(a.Dims) }
