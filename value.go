package sketchvm

import (
	"fmt"
	"strconv"
)

// ValueKind is the closed tag set for runtime values (spec §3, C1).
type ValueKind int

const (
	KindUnit ValueKind = iota
	KindBool
	KindI32
	KindU32
	KindF64
	KindString
	KindVecI32
	KindVecF64
	KindVecString
	KindVecVecI32
	KindVecVecF64
	KindStruct
	KindPointer
	KindArray
	KindStringObj
)

func (k ValueKind) String() string {
	switch k {
	case KindUnit:
		return "unit"
	case KindBool:
		return "bool"
	case KindI32:
		return "i32"
	case KindU32:
		return "u32"
	case KindF64:
		return "f64"
	case KindString:
		return "string"
	case KindVecI32:
		return "vec<i32>"
	case KindVecF64:
		return "vec<f64>"
	case KindVecString:
		return "vec<string>"
	case KindVecVecI32:
		return "vec<vec<i32>>"
	case KindVecVecF64:
		return "vec<vec<f64>>"
	case KindStruct:
		return "struct"
	case KindPointer:
		return "pointer"
	case KindArray:
		return "array"
	case KindStringObj:
		return "stringobj"
	default:
		return "unknown"
	}
}

// Value is the tagged-union runtime value. Only one of the typed fields
// is meaningful, selected by Kind. Heap-managed kinds (Struct, Pointer,
// Array, StringObj) hold a shared-ownership handle so that copies of a
// Value alias the same underlying object (spec §5 resource policy).
type Value struct {
	kind ValueKind

	b   bool
	i32 int32
	u32 uint32
	f64 float64
	str string

	vecI32    []int32
	vecF64    []float64
	vecStr    []string
	vecVecI32 [][]int32
	vecVecF64 [][]float64

	structVal *StructVal
	pointer   *PointerVal
	array     *ArrayVal
	stringObj *StringObjVal
}

func (v Value) Kind() ValueKind { return v.kind }

func (v Value) IsUnit() bool { return v.kind == KindUnit }

// Unit is the value for void/absent/null (spec §3 invariants, §4.9).
var Unit = Value{kind: KindUnit}

func BoolValue(b bool) Value       { return Value{kind: KindBool, b: b} }
func I32Value(i int32) Value       { return Value{kind: KindI32, i32: i} }
func U32Value(u uint32) Value      { return Value{kind: KindU32, u32: u} }
func F64Value(f float64) Value     { return Value{kind: KindF64, f64: f} }
func StringValue(s string) Value   { return Value{kind: KindString, str: s} }
func VecI32Value(v []int32) Value  { return Value{kind: KindVecI32, vecI32: v} }
func VecF64Value(v []float64) Value {
	return Value{kind: KindVecF64, vecF64: v}
}
func VecStringValue(v []string) Value {
	return Value{kind: KindVecString, vecStr: v}
}
func VecVecI32Value(v [][]int32) Value {
	return Value{kind: KindVecVecI32, vecVecI32: v}
}
func VecVecF64Value(v [][]float64) Value {
	return Value{kind: KindVecVecF64, vecVecF64: v}
}
func StructValue(s *StructVal) Value       { return Value{kind: KindStruct, structVal: s} }
func PointerValue(p *PointerVal) Value     { return Value{kind: KindPointer, pointer: p} }
func ArrayValue(a *ArrayVal) Value         { return Value{kind: KindArray, array: a} }
func StringObjValue(s *StringObjVal) Value { return Value{kind: KindStringObj, stringObj: s} }

func (v Value) AsBool() bool             { return v.b }
func (v Value) AsI32() int32             { return v.i32 }
func (v Value) AsU32() uint32            { return v.u32 }
func (v Value) AsF64() float64           { return v.f64 }
func (v Value) AsString() string         { return v.str }
func (v Value) AsVecI32() []int32        { return v.vecI32 }
func (v Value) AsVecF64() []float64      { return v.vecF64 }
func (v Value) AsVecString() []string    { return v.vecStr }
func (v Value) AsVecVecI32() [][]int32   { return v.vecVecI32 }
func (v Value) AsVecVecF64() [][]float64 { return v.vecVecF64 }
func (v Value) AsStruct() *StructVal     { return v.structVal }
func (v Value) AsPointer() *PointerVal   { return v.pointer }
func (v Value) AsArray() *ArrayVal       { return v.array }
func (v Value) AsStringObj() *StringObjVal {
	return v.stringObj
}

// IsNumeric reports whether v participates in arithmetic directly.
func (v Value) IsNumeric() bool {
	switch v.kind {
	case KindI32, KindU32, KindF64, KindBool:
		return true
	default:
		return false
	}
}

// numeric returns v's value widened to float64, and whether the widened
// computation should be rendered back as a double (true) or as an
// integer (false). Bool is treated as 0/1 per C promotion rules.
func (v Value) numeric() (f float64, isDouble bool) {
	switch v.kind {
	case KindI32:
		return float64(v.i32), false
	case KindU32:
		return float64(v.u32), false
	case KindF64:
		return v.f64, true
	case KindBool:
		if v.b {
			return 1, false
		}
		return 0, false
	case KindUnit:
		return 0, false
	default:
		return 0, false
	}
}

// String renders v for diagnostics and for Serial.print-style coercion
// to a display string (spec §6: numeric vs quoted tokens is an emitter
// concern, not a Value concern — this is the raw textual form).
func (v Value) String() string {
	switch v.kind {
	case KindUnit:
		return "null"
	case KindBool:
		if v.b {
			return "1"
		}
		return "0"
	case KindI32:
		return strconv.FormatInt(int64(v.i32), 10)
	case KindU32:
		return strconv.FormatUint(uint64(v.u32), 10)
	case KindF64:
		return FormatDouble(v.f64)
	case KindString:
		return v.str
	case KindStringObj:
		if v.stringObj != nil {
			return v.stringObj.data
		}
		return ""
	case KindPointer:
		if v.pointer != nil {
			return v.pointer.String()
		}
		return "<nil pointer>"
	case KindStruct:
		return fmt.Sprintf("<struct %s>", v.structVal.TypeName)
	case KindArray:
		return fmt.Sprintf("<array %s[%v]>", v.array.ElemType, v.array.Dims)
	default:
		return fmt.Sprintf("<%s>", v.kind)
	}
}

// FormatDouble applies the single round-trip precision rule pinned by
// DESIGN.md's Open Question decisions: 15 significant digits.
func FormatDouble(f float64) string {
	return strconv.FormatFloat(f, 'g', 15, 64)
}

// BinaryArith evaluates a numeric binary operator per spec §4.4: unit
// operands yield 0 for arithmetic, pointer+integer yields pointer
// arithmetic, and int/double mixes promote to double.
func BinaryArith(op string, l, r Value) (Value, error) {
	if l.kind == KindPointer || r.kind == KindPointer {
		return pointerArith(op, l, r)
	}
	if l.kind == KindString || r.kind == KindString || l.kind == KindStringObj || r.kind == KindStringObj {
		if op == "+" {
			return StringValue(valueDisplayString(l) + valueDisplayString(r)), nil
		}
	}

	lf, lIsDouble := l.numeric()
	rf, rIsDouble := r.numeric()
	useDouble := lIsDouble || rIsDouble

	var result float64
	switch op {
	case "+":
		result = lf + rf
	case "-":
		result = lf - rf
	case "*":
		result = lf * rf
	case "/":
		if rf == 0 {
			return Unit, &TypeError{Message: "division by zero"}
		}
		result = lf / rf
	case "%":
		if useDouble {
			return Unit, &TypeError{Message: "% requires integer operands"}
		}
		li, ri := int64(lf), int64(rf)
		if ri == 0 {
			return Unit, &TypeError{Message: "modulo by zero"}
		}
		result = float64(li % ri)
	default:
		return Unit, &TypeError{Message: fmt.Sprintf("unsupported arithmetic operator %q", op)}
	}

	if useDouble {
		return F64Value(result), nil
	}
	return I32Value(int32(result)), nil
}

func valueDisplayString(v Value) string {
	if v.kind == KindUnit {
		return ""
	}
	return v.String()
}

// Compare implements C-style comparison semantics, including unit/null
// comparisons (0 == unit) per spec §3/§4.9.
func Compare(op string, l, r Value) (Value, error) {
	if l.kind == KindString || r.kind == KindString || l.kind == KindStringObj || r.kind == KindStringObj {
		ls, rs := valueDisplayString(l), valueDisplayString(r)
		var res bool
		switch op {
		case "==":
			res = ls == rs
		case "!=":
			res = ls != rs
		case "<":
			res = ls < rs
		case "<=":
			res = ls <= rs
		case ">":
			res = ls > rs
		case ">=":
			res = ls >= rs
		default:
			return Unit, &TypeError{Message: fmt.Sprintf("unsupported comparison operator %q", op)}
		}
		return BoolValue(res), nil
	}

	lf, _ := l.numeric()
	rf, _ := r.numeric()
	var res bool
	switch op {
	case "==":
		res = lf == rf
	case "!=":
		res = lf != rf
	case "<":
		res = lf < rf
	case "<=":
		res = lf <= rf
	case ">":
		res = lf > rf
	case ">=":
		res = lf >= rf
	default:
		return Unit, &TypeError{Message: fmt.Sprintf("unsupported comparison operator %q", op)}
	}
	return BoolValue(res), nil
}

// Truthy implements Arduino-style `!x` / condition evaluation: nonzero
// is true, zero/unit is false (spec §4.4).
func Truthy(v Value) bool {
	switch v.kind {
	case KindUnit:
		return false
	case KindBool:
		return v.b
	case KindPointer:
		return v.pointer != nil
	default:
		f, _ := v.numeric()
		return f != 0
	}
}

// LogicalNot implements Arduino-style `!x`.
func LogicalNot(v Value) Value {
	return BoolValue(!Truthy(v))
}
