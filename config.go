package sketchvm

import "fmt"

// Options are the host-facing, statically-typed engine options of
// spec §6. Unlike the teacher's free-form Config map, the option set
// here is small and fixed, so a concrete struct is the better fit —
// Config (below) remains for the open-ended metadata the spec does not
// enumerate (library registration flags, host annotations).
type Options struct {
	// SyncMode selects the synchronous variant (true, default) vs. the
	// asynchronous variant (spec §5).
	SyncMode bool

	// MaxLoopIterations bounds loop() iterations; 0 means unbounded.
	// SPEC_FULL.md pins the practical default to 1 (single-step per
	// Start/Resume call) when the host leaves this unset.
	MaxLoopIterations uint32

	Verbose bool
	Debug   bool
}

// DefaultOptions returns the engine defaults named in spec §6.
func DefaultOptions() Options {
	return Options{
		SyncMode:          true,
		MaxLoopIterations: 1,
	}
}

// cfgValType mirrors the teacher's config.go typed-value discipline
// (clarete-langlang/go/config.go): assigning a Config key to a
// different type than it was first set as is a programming error and
// panics immediately rather than silently coercing.
type cfgValType int

const (
	cfgValTypeUndefined cfgValType = iota
	cfgValTypeBool
	cfgValTypeInt
	cfgValTypeString
)

func (vt cfgValType) String() string {
	switch vt {
	case cfgValTypeBool:
		return "bool"
	case cfgValTypeInt:
		return "int"
	case cfgValTypeString:
		return "string"
	default:
		return "undefined"
	}
}

type cfgVal struct {
	typ      cfgValType
	asBool   bool
	asInt    int
	asString string
}

func (v *cfgVal) assignType(vt cfgValType) {
	if v.typ != vt && v.typ != cfgValTypeUndefined {
		panic(fmt.Sprintf("sketchvm: can't assign %q to config value of type %q", vt, v.typ))
	}
	v.typ = vt
}

func (v *cfgVal) checkType(vt cfgValType) {
	if v.typ != vt {
		panic(fmt.Sprintf("sketchvm: can't retrieve %q from config value of type %q", vt, v.typ))
	}
}

// Config holds free-form host metadata not covered by Options: which
// Arduino libraries are registered, host-supplied annotations, etc.
type Config map[string]*cfgVal

// NewConfig returns a Config primed with library-availability flags.
// The builtin dispatcher (builtins.go) does not read them: library
// calls are dispatched whatever these flags say.
func NewConfig() Config {
	c := make(Config)
	c.SetBool("library.servo", true)
	c.SetBool("library.neopixel", true)
	c.SetBool("library.liquidcrystal", true)
	c.SetBool("library.wire", true)
	c.SetBool("library.spi", true)
	return c
}

func (c Config) entry(path string) *cfgVal {
	v, ok := c[path]
	if !ok {
		v = &cfgVal{}
		c[path] = v
	}
	return v
}

func (c Config) SetBool(path string, v bool) {
	e := c.entry(path)
	e.assignType(cfgValTypeBool)
	e.asBool = v
}

func (c Config) Bool(path string) bool {
	v, ok := c[path]
	if !ok {
		return false
	}
	v.checkType(cfgValTypeBool)
	return v.asBool
}

func (c Config) SetInt(path string, v int) {
	e := c.entry(path)
	e.assignType(cfgValTypeInt)
	e.asInt = v
}

func (c Config) Int(path string) int {
	v, ok := c[path]
	if !ok {
		return 0
	}
	v.checkType(cfgValTypeInt)
	return v.asInt
}

func (c Config) SetString(path string, v string) {
	e := c.entry(path)
	e.assignType(cfgValTypeString)
	e.asString = v
}

func (c Config) String(path string) string {
	v, ok := c[path]
	if !ok {
		return ""
	}
	v.checkType(cfgValTypeString)
	return v.asString
}
