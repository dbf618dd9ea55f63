package sketchvm

import (
	"strconv"
	"strings"
)

// StringObjVal implements the Arduino String() class method surface
// (spec §3, C1). It is heap-managed so that assignments alias rather
// than copy, matching spec's shared-ownership requirement.
type StringObjVal struct {
	data string
}

func NewStringObjVal(s string) *StringObjVal { return &StringObjVal{data: s} }

func (s *StringObjVal) String() string { return s.data }

func (s *StringObjVal) Length() int32 { return int32(len(s.data)) }

func (s *StringObjVal) CharAt(i int32) (Value, error) {
	if i < 0 || int(i) >= len(s.data) {
		return Unit, &OutOfBoundsError{Message: "String.charAt index out of range"}
	}
	return I32Value(int32(s.data[i])), nil
}

// SetCharAt writes a code point at index i. Per spec §3 invariant,
// integer char literals are converted via code point, not digit text.
func (s *StringObjVal) SetCharAt(i int32, codePoint int32) error {
	if i < 0 || int(i) >= len(s.data) {
		return &OutOfBoundsError{Message: "String.setCharAt index out of range"}
	}
	b := []byte(s.data)
	b[i] = byte(codePoint)
	s.data = string(b)
	return nil
}

func (s *StringObjVal) Substring(from int32, to ...int32) (string, error) {
	if from < 0 || int(from) > len(s.data) {
		return "", &OutOfBoundsError{Message: "String.substring start out of range"}
	}
	end := int32(len(s.data))
	if len(to) > 0 {
		end = to[0]
	}
	if end < from || int(end) > len(s.data) {
		return "", &OutOfBoundsError{Message: "String.substring end out of range"}
	}
	return s.data[from:end], nil
}

func (s *StringObjVal) IndexOf(needle string) int32 {
	idx := strings.Index(s.data, needle)
	return int32(idx)
}

func (s *StringObjVal) StartsWith(prefix string) bool { return strings.HasPrefix(s.data, prefix) }
func (s *StringObjVal) EndsWith(suffix string) bool   { return strings.HasSuffix(s.data, suffix) }
func (s *StringObjVal) ToLowerCase() string            { return strings.ToLower(s.data) }
func (s *StringObjVal) ToUpperCase() string            { return strings.ToUpper(s.data) }
func (s *StringObjVal) Trim() string                   { return strings.TrimSpace(s.data) }

func (s *StringObjVal) Replace(find, repl string) string {
	return strings.ReplaceAll(s.data, find, repl)
}

func (s *StringObjVal) ToInt() int32 {
	n, err := strconv.ParseInt(strings.TrimSpace(leadingNumeric(s.data)), 10, 32)
	if err != nil {
		return 0
	}
	return int32(n)
}

func (s *StringObjVal) ToFloat() float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(leadingNumeric(s.data)), 64)
	if err != nil {
		return 0
	}
	return f
}

// leadingNumeric mimics Arduino's toInt/toFloat: parse as much of a
// leading numeric prefix as possible, ignoring trailing garbage.
func leadingNumeric(s string) string {
	s = strings.TrimLeft(s, " \t")
	end := 0
	seenDigit := false
	seenDot := false
	for i, r := range s {
		switch {
		case r == '-' && i == 0:
		case r == '.' && !seenDot:
			seenDot = true
		case r >= '0' && r <= '9':
			seenDigit = true
		default:
			end = i
			goto done
		}
		end = i + 1
	}
done:
	if !seenDigit {
		return "0"
	}
	return s[:end]
}

// Equals is case-sensitive equality; EqualsIgnoreCase is the
// case-insensitive variant (spec §3).
func (s *StringObjVal) Equals(other string) bool             { return s.data == other }
func (s *StringObjVal) EqualsIgnoreCase(other string) bool    { return strings.EqualFold(s.data, other) }
