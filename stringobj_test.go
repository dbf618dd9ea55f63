package sketchvm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringObjValBasics(t *testing.T) {
	s := NewStringObjVal("Hello")
	assert.Equal(t, int32(5), s.Length())
	assert.Equal(t, "Hello", s.String())

	v, err := s.CharAt(1)
	require.NoError(t, err)
	assert.Equal(t, int32('e'), v.AsI32())

	_, err = s.CharAt(10)
	require.Error(t, err)
	assert.Equal(t, KindOutOfBounds, AsEngineError(err).Kind())
}

func TestStringObjValSetCharAt(t *testing.T) {
	s := NewStringObjVal("Hello")
	require.NoError(t, s.SetCharAt(0, int32('J')))
	assert.Equal(t, "Jello", s.String())

	err := s.SetCharAt(100, int32('x'))
	require.Error(t, err)
}

func TestStringObjValSubstring(t *testing.T) {
	s := NewStringObjVal("Hello, world")
	sub, err := s.Substring(7)
	require.NoError(t, err)
	assert.Equal(t, "world", sub)

	sub2, err := s.Substring(0, 5)
	require.NoError(t, err)
	assert.Equal(t, "Hello", sub2)

	_, err = s.Substring(-1)
	require.Error(t, err)

	_, err = s.Substring(0, 100)
	require.Error(t, err)
}

func TestStringObjValSearchAndCase(t *testing.T) {
	s := NewStringObjVal("Hello World")
	assert.Equal(t, int32(6), s.IndexOf("World"))
	assert.Equal(t, int32(-1), s.IndexOf("xyz"))
	assert.True(t, s.StartsWith("Hello"))
	assert.True(t, s.EndsWith("World"))
	assert.Equal(t, "hello world", s.ToLowerCase())
	assert.Equal(t, "HELLO WORLD", s.ToUpperCase())
}

func TestStringObjValTrimAndReplace(t *testing.T) {
	s := NewStringObjVal("  padded  ")
	assert.Equal(t, "padded", s.Trim())

	r := NewStringObjVal("foo bar foo")
	assert.Equal(t, "baz bar baz", r.Replace("foo", "baz"))
}

func TestStringObjValToIntToFloat(t *testing.T) {
	assert.Equal(t, int32(42), NewStringObjVal("42abc").ToInt())
	assert.Equal(t, int32(-7), NewStringObjVal("-7").ToInt())
	assert.Equal(t, int32(0), NewStringObjVal("abc").ToInt())
	assert.InDelta(t, 3.14, NewStringObjVal("3.14xyz").ToFloat(), 0.0001)
}

func TestStringObjValEquals(t *testing.T) {
	s := NewStringObjVal("Hello")
	assert.True(t, s.Equals("Hello"))
	assert.False(t, s.Equals("hello"))
	assert.True(t, s.EqualsIgnoreCase("hello"))
}
