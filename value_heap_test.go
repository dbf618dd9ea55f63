package sketchvm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructValSetGetPreservesInsertionOrder(t *testing.T) {
	s := NewStructVal("Point")
	s.Set("x", I32Value(1))
	s.Set("y", I32Value(2))
	s.Set("x", I32Value(9)) // re-set must not duplicate the order slice

	assert.Equal(t, []string{"x", "y"}, s.Fields())
	v, ok := s.Get("x")
	require.True(t, ok)
	assert.Equal(t, int32(9), v.AsI32())

	_, ok = s.Get("z")
	assert.False(t, ok)
}

func TestPointerValDereferenceAndAssignThrough(t *testing.T) {
	stack := NewScopeStack()
	stack.Declare("x", "int", I32Value(10), false)
	_, frame, ok := stack.Lookup("x")
	require.True(t, ok)

	p := NewPointerVal(frame, "x", "int", 1)
	assert.True(t, p.Valid())

	v, err := p.Dereference()
	require.NoError(t, err)
	assert.Equal(t, int32(10), v.AsI32())

	require.NoError(t, p.AssignThrough(I32Value(42)))
	updated, _, _ := stack.Lookup("x")
	assert.Equal(t, int32(42), updated.Value.AsI32())
}

func TestPointerValDanglingAfterScopeExit(t *testing.T) {
	stack := NewScopeStack()
	guard := stack.EnterScope()
	stack.Declare("local", "int", I32Value(5), false)
	_, frame, ok := stack.Lookup("local")
	require.True(t, ok)

	p := NewPointerVal(frame, "local", "int", 1)
	assert.True(t, p.Valid())

	guard.Exit()
	assert.False(t, p.Valid())

	_, err := p.Dereference()
	require.Error(t, err)
	assert.Equal(t, KindNullDereference, AsEngineError(err).Kind())
}

func TestPointerValAssignThroughRejectsConst(t *testing.T) {
	stack := NewScopeStack()
	stack.Declare("c", "int", I32Value(1), true)
	_, frame, _ := stack.Lookup("c")
	p := NewPointerVal(frame, "c", "int", 1)

	err := p.AssignThrough(I32Value(2))
	require.Error(t, err)
	assert.Equal(t, KindTypeError, AsEngineError(err).Kind())
}

func TestPointerValAddSubAndArrayOffset(t *testing.T) {
	stack := NewScopeStack()
	arr := NewArrayValI32([]int{3})
	require.NoError(t, arr.SetFlat(0, I32Value(10)))
	require.NoError(t, arr.SetFlat(1, I32Value(20)))
	require.NoError(t, arr.SetFlat(2, I32Value(30)))
	stack.Declare("arr", "int*", ArrayValue(arr), false)
	_, frame, _ := stack.Lookup("arr")

	p := NewPointerVal(frame, "arr", "int", 1)
	v, err := p.Dereference()
	require.NoError(t, err)
	assert.Equal(t, int32(10), v.AsI32())

	p2 := p.Add(1)
	v2, err := p2.Dereference()
	require.NoError(t, err)
	assert.Equal(t, int32(20), v2.AsI32())

	p3 := p2.Sub(1)
	v3, err := p3.Dereference()
	require.NoError(t, err)
	assert.Equal(t, int32(10), v3.AsI32())
}

func TestPointerArithHelper(t *testing.T) {
	stack := NewScopeStack()
	arr := NewArrayValI32([]int{2})
	stack.Declare("arr", "int*", ArrayValue(arr), false)
	_, frame, _ := stack.Lookup("arr")
	p := PointerValue(NewPointerVal(frame, "arr", "int", 1))

	advanced, err := BinaryArith("+", p, I32Value(1))
	require.NoError(t, err)
	require.Equal(t, KindPointer, advanced.Kind())
	assert.Equal(t, 1, advanced.AsPointer().Target.Offset)
}

func TestArrayValFlatIndexRowMajor(t *testing.T) {
	a := NewArrayValI32([]int{2, 3})
	// row-major: index(1,2) should be 1*3+2 = 5
	idx, err := a.FlatIndex([]int{1, 2})
	require.NoError(t, err)
	assert.Equal(t, 5, idx)

	_, err = a.FlatIndex([]int{0})
	require.Error(t, err)
	assert.Equal(t, KindOutOfBounds, AsEngineError(err).Kind())

	_, err = a.FlatIndex([]int{2, 0})
	require.Error(t, err)
}

func TestArrayValGetSetAndBounds(t *testing.T) {
	a := NewArrayValI32([]int{3})
	require.NoError(t, a.Set([]int{1}, I32Value(99)))
	v, err := a.Get([]int{1})
	require.NoError(t, err)
	assert.Equal(t, int32(99), v.AsI32())

	_, err = a.Get([]int{5})
	require.Error(t, err)

	assert.Equal(t, 3, a.Len())
}

func TestArrayValDoubleAndStringElements(t *testing.T) {
	f := NewArrayValF64([]int{2})
	require.NoError(t, f.SetFlat(0, F64Value(1.5)))
	v, err := f.GetFlat(0)
	require.NoError(t, err)
	assert.Equal(t, 1.5, v.AsF64())

	s := NewArrayValString([]int{2})
	require.NoError(t, s.SetFlat(0, StringValue("hi")))
	sv, err := s.GetFlat(0)
	require.NoError(t, err)
	assert.Equal(t, "hi", sv.AsString())
}
