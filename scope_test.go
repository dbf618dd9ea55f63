package sketchvm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopeStackStartsWithOneFrame(t *testing.T) {
	s := NewScopeStack()
	assert.Equal(t, 1, s.Depth())
}

func TestScopeStackDeclareLookupAssign(t *testing.T) {
	s := NewScopeStack()
	s.Declare("x", "int", I32Value(1), false)

	v, frame, ok := s.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, int32(1), v.Value.AsI32())
	assert.NotNil(t, frame)

	res := s.Assign("x", I32Value(2))
	assert.Equal(t, AssignOK, res)
	v2, _, _ := s.Lookup("x")
	assert.Equal(t, int32(2), v2.Value.AsI32())
}

func TestScopeStackAssignUndeclaredFails(t *testing.T) {
	s := NewScopeStack()
	res := s.Assign("missing", I32Value(1))
	assert.Equal(t, AssignNotFound, res)
}

func TestScopeStackAssignConstFails(t *testing.T) {
	s := NewScopeStack()
	s.Declare("c", "int", I32Value(1), true)
	res := s.Assign("c", I32Value(2))
	assert.Equal(t, AssignConst, res)
}

func TestScopeStackInnerShadowsOuter(t *testing.T) {
	s := NewScopeStack()
	s.Declare("x", "int", I32Value(1), false)

	guard := s.EnterScope()
	s.Declare("x", "int", I32Value(99), false)
	inner, _, _ := s.Lookup("x")
	assert.Equal(t, int32(99), inner.Value.AsI32())
	guard.Exit()

	outer, _, _ := s.Lookup("x")
	assert.Equal(t, int32(1), outer.Value.AsI32())
}

func TestScopeGuardPopsOnExit(t *testing.T) {
	s := NewScopeStack()
	depthBefore := s.Depth()
	guard := s.EnterScope()
	assert.Equal(t, depthBefore+1, s.Depth())
	guard.Exit()
	assert.Equal(t, depthBefore, s.Depth())
}

func TestScopeStackPopScopeMarksFrameDead(t *testing.T) {
	s := NewScopeStack()
	frame := s.PushScope()
	assert.True(t, frame.alive)
	s.PopScope()
	assert.False(t, frame.alive)
}

func TestScopeStackPopScopeOnEmptyIsNoop(t *testing.T) {
	s := &ScopeStack{}
	assert.NotPanics(t, func() { s.PopScope() })
	assert.Equal(t, 0, s.Depth())
}
