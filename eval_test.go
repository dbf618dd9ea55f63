package sketchvm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestEngine builds a bare Engine with no program, a CollectingSink,
// and a zero-answering DataProvider, suitable for exercising Eval/exec
// directly against hand-built expression/statement fixtures.
func newTestEngine() (*Engine, *CollectingSink) {
	e := NewEngine(&ProgramNode{}, DefaultOptions())
	sink := NewCollectingSink()
	e.SetCommandSink(sink)
	e.SetDataProvider(NopDataProvider{})
	return e, sink
}

func TestEvalLiteralsAndIdentifier(t *testing.T) {
	e, _ := newTestEngine()
	e.Scopes.Declare("x", "int", I32Value(7), false)

	v, err := e.Eval(&IdentifierNode{Name: "x"})
	require.NoError(t, err)
	assert.Equal(t, int32(7), v.AsI32())

	v, err = e.Eval(&NumericLiteralNode{IsFloat: true, FloatVal: 1.5})
	require.NoError(t, err)
	assert.Equal(t, 1.5, v.AsF64())

	_, err = e.Eval(&IdentifierNode{Name: "undefined"})
	require.Error(t, err)
	assert.Equal(t, KindUndefinedReference, AsEngineError(err).Kind())
}

func TestEvalBinaryOpShortCircuit(t *testing.T) {
	e, _ := newTestEngine()
	e.Scopes.Declare("f", "bool", BoolValue(false), false)

	// && must not evaluate an undefined right operand once the left
	// side is already false.
	v, err := e.Eval(&BinaryOpNode{
		Op:    "&&",
		Left:  &IdentifierNode{Name: "f"},
		Right: &IdentifierNode{Name: "undefined"},
	})
	require.NoError(t, err)
	assert.False(t, v.AsBool())

	// || must not evaluate an undefined right operand once the left
	// side is already true.
	e.Scopes.Declare("t", "bool", BoolValue(true), false)
	v, err = e.Eval(&BinaryOpNode{
		Op:    "||",
		Left:  &IdentifierNode{Name: "t"},
		Right: &IdentifierNode{Name: "undefined"},
	})
	require.NoError(t, err)
	assert.True(t, v.AsBool())
}

func TestEvalUnaryArithmeticAndLogical(t *testing.T) {
	e, _ := newTestEngine()

	neg, err := e.Eval(&UnaryOpNode{Op: "-", Operand: &NumericLiteralNode{IntVal: 5}})
	require.NoError(t, err)
	assert.Equal(t, int32(-5), neg.AsI32())

	not, err := e.Eval(&UnaryOpNode{Op: "!", Operand: &NumericLiteralNode{IntVal: 0}})
	require.NoError(t, err)
	assert.True(t, not.AsBool())
}

func TestEvalAddressOfAndDereference(t *testing.T) {
	e, _ := newTestEngine()
	e.Scopes.Declare("x", "int", I32Value(9), false)

	ptr, err := e.Eval(&UnaryOpNode{Op: "&", Operand: &IdentifierNode{Name: "x"}})
	require.NoError(t, err)
	require.Equal(t, KindPointer, ptr.Kind())

	// *(&x) must read back the current value of x.
	deref, err := ptr.AsPointer().Dereference()
	require.NoError(t, err)
	assert.Equal(t, int32(9), deref.AsI32())
}

func TestEvalIncDecPrefixAndPostfix(t *testing.T) {
	e, _ := newTestEngine()
	e.Scopes.Declare("i", "int", I32Value(5), false)

	prefix, err := e.Eval(&UnaryOpNode{Op: "++", Operand: &IdentifierNode{Name: "i"}})
	require.NoError(t, err)
	assert.Equal(t, int32(6), prefix.AsI32())

	postfix, err := e.Eval(&PostfixNode{Op: "++", Operand: &IdentifierNode{Name: "i"}})
	require.NoError(t, err)
	assert.Equal(t, int32(6), postfix.AsI32()) // postfix yields the pre-increment value

	current, _, _ := e.Scopes.Lookup("i")
	assert.Equal(t, int32(7), current.Value.AsI32())
}

func TestEvalMemberAccessDotAndArrowScenarioS3(t *testing.T) {
	e, sink := newTestEngine()

	s := NewStructVal("P")
	s.Set("x", I32Value(10))
	e.Scopes.Declare("p", "P", StructValue(s), false)
	_, frame, _ := e.Scopes.Lookup("p")
	e.Scopes.Declare("p2", "P*", PointerValue(NewPointerVal(frame, "p", "P", 1)), false)

	dot, err := e.Eval(&MemberAccessNode{Object: &IdentifierNode{Name: "p"}, Field: "x"})
	require.NoError(t, err)
	assert.Equal(t, int32(10), dot.AsI32())

	arrow, err := e.Eval(&MemberAccessNode{Object: &IdentifierNode{Name: "p2"}, Field: "x", Arrow: true})
	require.NoError(t, err)
	assert.Equal(t, int32(10), arrow.AsI32())
	assert.Equal(t, dot.AsI32(), arrow.AsI32())

	require.Len(t, sink.Records, 2)
	f0 := sink.Records[0].Fields.(StructFieldAccessFields)
	assert.Equal(t, "P", f0.Struct)
	assert.Equal(t, "x", f0.Field)
	assert.Equal(t, "10", f0.Value)
}

// A pointer-valued struct field must round-trip through
// STRUCT_FIELD_ACCESS/STRUCT_FIELD_SET as a structured
// PointerDescriptor, never as a string rendering of the pointer (spec
// §9, testable property 6) — a stringified pointer can't be
// dereferenced again by a host replaying the stream.
func TestEvalStructFieldWithPointerValueIsStructured(t *testing.T) {
	e, sink := newTestEngine()

	e.Scopes.Declare("x", "int", I32Value(99), false)
	_, frame, _ := e.Scopes.Lookup("x")
	ptr := NewPointerVal(frame, "x", "int", 1)

	link := NewStructVal("Node")
	e.Scopes.Declare("link", "Node", StructValue(link), false)
	require.NoError(t, e.assignLValue(
		&MemberAccessNode{Object: &IdentifierNode{Name: "link"}, Field: "next"},
		PointerValue(ptr),
	))

	require.Len(t, sink.Records, 1)
	setFields := sink.Records[0].Fields.(StructFieldSetFields)
	assert.Equal(t, "Node", setFields.Struct)
	assert.Equal(t, "next", setFields.Field)
	desc, ok := setFields.Value.(PointerDescriptor)
	require.True(t, ok, "expected a PointerDescriptor, got %T", setFields.Value)
	assert.Equal(t, "x", desc.Variable)
	assert.Equal(t, 1, desc.Level)

	got, err := e.Eval(&MemberAccessNode{Object: &IdentifierNode{Name: "link"}, Field: "next"})
	require.NoError(t, err)
	accessFields := sink.Records[1].Fields.(StructFieldAccessFields)
	accessDesc, ok := accessFields.Value.(PointerDescriptor)
	require.True(t, ok, "expected a PointerDescriptor, got %T", accessFields.Value)
	assert.Equal(t, "x", accessDesc.Variable)
	assert.Equal(t, got.AsPointer().Target.Variable, accessDesc.Variable)
}

// Eval itself does not recover: an out-of-bounds index surfaces as an
// OutOfBoundsError return, the same way a dead-pointer dereference or
// an arrow-on-non-pointer does. Recovery (emit ERROR, yield unit,
// keep running) is implemented once at the exec statement boundary
// (see TestExecRecoversNonFatalErrorsAtStatementBoundary), not inside
// the evaluator (spec §4.9/§7).
func TestEvalArrayAccessOutOfBoundsPropagatesError(t *testing.T) {
	e, sink := newTestEngine()
	arr := NewArrayValI32([]int{2})
	e.Scopes.Declare("arr", "int", ArrayValue(arr), false)

	_, err := e.Eval(&ArrayAccessNode{Array: &IdentifierNode{Name: "arr"}, Index: &NumericLiteralNode{IntVal: 5}})
	require.Error(t, err)
	assert.Equal(t, KindOutOfBounds, AsEngineError(err).Kind())
	assert.False(t, AsEngineError(err).Fatal())
	assert.Empty(t, sink.Records)
}

func TestAssignLValueIdentifier(t *testing.T) {
	e, _ := newTestEngine()
	e.Scopes.Declare("x", "int", I32Value(1), false)
	require.NoError(t, e.assignLValue(&IdentifierNode{Name: "x"}, I32Value(2)))
	v, _, _ := e.Scopes.Lookup("x")
	assert.Equal(t, int32(2), v.Value.AsI32())
}

func TestAssignLValueArray(t *testing.T) {
	e, _ := newTestEngine()
	arr := NewArrayValI32([]int{3})
	e.Scopes.Declare("arr", "int", ArrayValue(arr), false)
	target := &ArrayAccessNode{Array: &IdentifierNode{Name: "arr"}, Index: &NumericLiteralNode{IntVal: 1}}
	require.NoError(t, e.assignLValue(target, I32Value(42)))

	v, err := arr.GetFlat(1)
	require.NoError(t, err)
	assert.Equal(t, int32(42), v.AsI32())
}

func TestAssignLValueStructField(t *testing.T) {
	e, _ := newTestEngine()
	s := NewStructVal("P")
	s.Set("x", I32Value(1))
	e.Scopes.Declare("p", "P", StructValue(s), false)

	target := &MemberAccessNode{Object: &IdentifierNode{Name: "p"}, Field: "x"}
	require.NoError(t, e.assignLValue(target, I32Value(55)))
	v, _ := s.Get("x")
	assert.Equal(t, int32(55), v.AsI32())
}

func TestAssignLValueThroughPointerDeref(t *testing.T) {
	e, _ := newTestEngine()
	e.Scopes.Declare("x", "int", I32Value(1), false)
	_, frame, _ := e.Scopes.Lookup("x")
	e.Scopes.Declare("p", "int*", PointerValue(NewPointerVal(frame, "x", "int", 1)), false)

	target := &UnaryOpNode{Op: "*", Operand: &IdentifierNode{Name: "p"}}
	require.NoError(t, e.assignLValue(target, I32Value(77)))

	v, _, _ := e.Scopes.Lookup("x")
	assert.Equal(t, int32(77), v.Value.AsI32())
}

func TestEvalAssignmentCompoundOperator(t *testing.T) {
	e, _ := newTestEngine()
	e.Scopes.Declare("x", "int", I32Value(10), false)

	v, err := e.Eval(&AssignmentNode{Op: "+=", Target: &IdentifierNode{Name: "x"}, Value: &NumericLiteralNode{IntVal: 5}})
	require.NoError(t, err)
	assert.Equal(t, int32(15), v.AsI32())

	current, _, _ := e.Scopes.Lookup("x")
	assert.Equal(t, int32(15), current.Value.AsI32())
}

func TestEvalSizeofTypeAndExpr(t *testing.T) {
	e, _ := newTestEngine()
	sz, err := e.Eval(&SizeofNode{IsType: true, TypeArg: &TypeNode{Name: "double"}})
	require.NoError(t, err)
	assert.Equal(t, int32(4), sz.AsI32())

	sz2, err := e.Eval(&SizeofNode{ExprArg: &BoolLiteralNode{Value: true}})
	require.NoError(t, err)
	assert.Equal(t, int32(1), sz2.AsI32())
}

func TestEvalCastToFloatAndBool(t *testing.T) {
	e, _ := newTestEngine()
	f, err := e.Eval(&CastNode{TargetType: &TypeNode{Name: "double"}, Operand: &NumericLiteralNode{IntVal: 3}})
	require.NoError(t, err)
	assert.Equal(t, 3.0, f.AsF64())

	b, err := e.Eval(&CastNode{TargetType: &TypeNode{Name: "bool"}, Operand: &NumericLiteralNode{IntVal: 0}})
	require.NoError(t, err)
	assert.False(t, b.AsBool())
}

func TestEvalConstructorCall(t *testing.T) {
	e, _ := newTestEngine()
	v, err := e.Eval(&ConstructorCallNode{TypeName: "String", Args: []Node{&StringLiteralNode{Value: "hi"}}})
	require.NoError(t, err)
	assert.Equal(t, "hi", v.AsString())
}
