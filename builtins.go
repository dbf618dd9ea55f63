package sketchvm

import (
	"fmt"
	"strings"
)

// builtinFunc is one entry in the Arduino builtin dispatch table (spec
// §4.4, §9 REDESIGN FLAGS: "do not special-case user-defined function
// names; the FUNCTION_CALL kind is generic" — builtins, by contrast,
// are a fixed, table-driven set, never special-cased in Go control
// flow beyond this single map lookup).
type builtinFunc func(e *Engine, args []Value) (Value, error)

var builtinFuncs = map[string]builtinFunc{
	"pinMode":           biPinMode,
	"digitalWrite":      biDigitalWrite,
	"digitalRead":       biDigitalRead,
	"analogWrite":       biAnalogWrite,
	"analogRead":        biAnalogRead,
	"delay":             biDelay,
	"delayMicroseconds": biDelayMicroseconds,
	"tone":              biTone,
	"noTone":            biNoTone,
	"millis":            biMillis,
	"micros":            biMicros,
	"pulseIn":           biPulseIn,
}

// libraryReadMethods names the fixed library call surface's methods
// that pull a value back from the host rather than only writing to it
// (SPEC_FULL §4.1); every other library method only emits FUNCTION_CALL.
var libraryReadMethods = map[string]bool{
	"read":       true,
	"available":  true,
	"numPixels":  true,
}

func (e *Engine) requireProvider() error {
	if e.Provider == nil {
		return &ConfigurationError{Message: "no data provider installed"}
	}
	return nil
}

func biPinMode(e *Engine, args []Value) (Value, error) {
	if len(args) < 2 {
		return Unit, &ArgumentMismatchError{Message: "pinMode requires 2 arguments"}
	}
	pin := int(args[0].AsI32())
	mode := pinModeName(int(args[1].AsI32()))
	e.Emitter.Emit(KindPinMode, PinModeFields{Pin: pin, Mode: mode})
	return Unit, nil
}

func pinModeName(mode int) string {
	switch mode {
	case 0:
		return "INPUT"
	case 1:
		return "OUTPUT"
	case 2:
		return "INPUT_PULLUP"
	default:
		return fmt.Sprintf("MODE_%d", mode)
	}
}

func biDigitalWrite(e *Engine, args []Value) (Value, error) {
	if len(args) < 2 {
		return Unit, &ArgumentMismatchError{Message: "digitalWrite requires 2 arguments"}
	}
	e.Emitter.Emit(KindDigitalWrite, DigitalWriteFields{Pin: int(args[0].AsI32()), Value: int(args[1].AsI32())})
	return Unit, nil
}

func biAnalogWrite(e *Engine, args []Value) (Value, error) {
	if len(args) < 2 {
		return Unit, &ArgumentMismatchError{Message: "analogWrite requires 2 arguments"}
	}
	e.Emitter.Emit(KindAnalogWrite, AnalogWriteFields{Pin: int(args[0].AsI32()), Value: int(args[1].AsI32())})
	return Unit, nil
}

func biDigitalRead(e *Engine, args []Value) (Value, error) {
	if err := e.requireProvider(); err != nil {
		return Unit, err
	}
	if len(args) < 1 {
		return Unit, &ArgumentMismatchError{Message: "digitalRead requires 1 argument"}
	}
	pin := int(args[0].AsI32())
	result, err := e.Provider.DigitalRead(pin)
	if err != nil {
		return Unit, err
	}
	e.Emitter.Emit(KindDigitalReadRequest, DigitalReadRequestFields{Pin: pin, Result: result})
	return I32Value(int32(result)), nil
}

func biAnalogRead(e *Engine, args []Value) (Value, error) {
	if err := e.requireProvider(); err != nil {
		return Unit, err
	}
	if len(args) < 1 {
		return Unit, &ArgumentMismatchError{Message: "analogRead requires 1 argument"}
	}
	pin := int(args[0].AsI32())
	result, err := e.Provider.AnalogRead(pin)
	if err != nil {
		return Unit, err
	}
	e.Emitter.Emit(KindAnalogReadRequest, AnalogReadRequestFields{Pin: pin, Result: result})
	return I32Value(int32(result)), nil
}

func biDelay(e *Engine, args []Value) (Value, error) {
	if len(args) < 1 {
		return Unit, &ArgumentMismatchError{Message: "delay requires 1 argument"}
	}
	e.Emitter.Emit(KindDelay, DelayFields{Milliseconds: uint32(args[0].AsI32())})
	return Unit, nil
}

func biDelayMicroseconds(e *Engine, args []Value) (Value, error) {
	if len(args) < 1 {
		return Unit, &ArgumentMismatchError{Message: "delayMicroseconds requires 1 argument"}
	}
	e.Emitter.Emit(KindDelayMicroseconds, DelayMicrosecondsFields{Microseconds: uint32(args[0].AsI32())})
	return Unit, nil
}

func biTone(e *Engine, args []Value) (Value, error) {
	if len(args) < 2 {
		return Unit, &ArgumentMismatchError{Message: "tone requires at least 2 arguments"}
	}
	f := ToneFields{Pin: int(args[0].AsI32()), Frequency: int(args[1].AsI32())}
	if len(args) >= 3 {
		f.Duration = int(args[2].AsI32())
	}
	e.Emitter.Emit(KindTone, f)
	return Unit, nil
}

func biNoTone(e *Engine, args []Value) (Value, error) {
	if len(args) < 1 {
		return Unit, &ArgumentMismatchError{Message: "noTone requires 1 argument"}
	}
	e.Emitter.Emit(KindNoTone, NoToneFields{Pin: int(args[0].AsI32())})
	return Unit, nil
}

func biMillis(e *Engine, args []Value) (Value, error) {
	if err := e.requireProvider(); err != nil {
		return Unit, err
	}
	v, err := e.Provider.Millis()
	if err != nil {
		return Unit, err
	}
	return U32Value(v), nil
}

func biMicros(e *Engine, args []Value) (Value, error) {
	if err := e.requireProvider(); err != nil {
		return Unit, err
	}
	v, err := e.Provider.Micros()
	if err != nil {
		return Unit, err
	}
	return U32Value(v), nil
}

func biPulseIn(e *Engine, args []Value) (Value, error) {
	if err := e.requireProvider(); err != nil {
		return Unit, err
	}
	if len(args) < 2 {
		return Unit, &ArgumentMismatchError{Message: "pulseIn requires at least 2 arguments"}
	}
	pin := int(args[0].AsI32())
	state := int(args[1].AsI32())
	timeout := uint32(1000000)
	if len(args) >= 3 {
		timeout = uint32(args[2].AsI32())
	}
	result, err := e.Provider.PulseIn(pin, state, timeout)
	if err != nil {
		return Unit, err
	}
	e.Emitter.Emit(KindPulseInRequest, PulseInRequestFields{Pin: pin, Value: state, Timeout: timeout, Result: result})
	return U32Value(result), nil
}

// evalFuncCall is C7's function-call handling (spec §4.4) and C9's
// step 1-2 (argument evaluation, callee resolution); steps 3-8 are
// Engine.callFunction.
func (e *Engine) evalFuncCall(n *FuncCallNode) (Value, error) {
	args := make([]Value, 0, len(n.Args))
	for _, a := range n.Args {
		v, err := e.Eval(a)
		if err != nil {
			return Unit, err
		}
		args = append(args, v)
	}

	switch callee := n.Callee.(type) {
	case *MemberAccessNode:
		return e.dispatchLibraryCall(callee, args)

	case *IdentifierNode:
		if fn, ok := builtinFuncs[callee.Name]; ok {
			return fn(e, args)
		}
		if fd, ok := e.Functions[callee.Name]; ok {
			return e.dispatchUserCall(callee.Name, fd, args)
		}
		if v, _, ok := e.Scopes.Lookup(callee.Name); ok && v.Value.Kind() == KindPointer {
			target := v.Value.AsPointer().Target.Variable
			if fd, ok := e.Functions[target]; ok {
				return e.dispatchUserCall(target, fd, args)
			}
		}
		return Unit, &UndefinedReferenceError{Message: fmt.Sprintf("undefined function %q", callee.Name)}

	default:
		v, err := e.Eval(n.Callee)
		if err != nil {
			return Unit, err
		}
		if v.Kind() == KindPointer {
			target := v.AsPointer().Target.Variable
			if fd, ok := e.Functions[target]; ok {
				return e.dispatchUserCall(target, fd, args)
			}
		}
		return Unit, &TypeError{Message: "call target is not callable"}
	}
}

func (e *Engine) dispatchUserCall(name string, fd *FuncDefNode, args []Value) (Value, error) {
	result, err := e.callFunction(fd, args)
	if err != nil {
		return Unit, err
	}
	if e.Emitter != nil {
		argStrs := make([]string, len(args))
		for i, a := range args {
			argStrs[i] = a.String()
		}
		e.Emitter.Emit(KindFunctionCall, FunctionCallFields{Name: name, Args: argStrs, Result: result.String()})
	}
	return result, nil
}

// dispatchLibraryCall routes Serial.*, Keyboard.*, and the fixed
// instance-method library surface (SPEC_FULL §4.1: Servo,
// Adafruit_NeoPixel, LiquidCrystal, Wire, SPI) to either a
// FUNCTION_CALL record (write-only calls) or a round-trip through
// DataProvider.LibrarySensor (read calls), resolving the library name
// either from a global singleton identifier (Serial, Keyboard) or from
// the receiver variable's declared type.
func (e *Engine) dispatchLibraryCall(n *MemberAccessNode, args []Value) (Value, error) {
	library, err := e.libraryNameOf(n.Object)
	if err != nil {
		return Unit, err
	}
	method := n.Field

	if !libraryReadMethods[method] {
		var argStrs []string
		if (method == "print" || method == "println") && len(args) >= 1 {
			argStrs = []string{formatPrintArg(args)}
		} else {
			argStrs = make([]string, len(args))
			for i, a := range args {
				argStrs[i] = a.String()
			}
		}
		e.Emitter.Emit(KindFunctionCall, FunctionCallFields{
			Name: library + "." + method, Args: argStrs, Result: "",
		})
		return Unit, nil
	}

	if err := e.requireProvider(); err != nil {
		return Unit, err
	}
	result, err := e.Provider.LibrarySensor(library, method, args)
	if err != nil {
		return Unit, err
	}
	e.Emitter.Emit(KindLibrarySensorReq, LibrarySensorRequestFields{Library: library, Method: method, Result: result.String()})
	return result, nil
}

// formatPrintArg renders the single display string a Serial.print /
// Serial.println call contributes to the command stream (spec's open
// question on bool/width formatting): booleans print as "1"/"0" via
// Value.String already; an optional second numeric argument is a
// minimum field width, right-justified with spaces ahead of the sign.
func formatPrintArg(args []Value) string {
	s := args[0].String()
	if len(args) < 2 || !args[1].IsNumeric() {
		return s
	}
	width := int(args[1].AsI32())
	if pad := width - len(s); pad > 0 {
		s = strings.Repeat(" ", pad) + s
	}
	return s
}

func (e *Engine) libraryNameOf(object Node) (string, error) {
	id, ok := object.(*IdentifierNode)
	if !ok {
		return "", &TypeError{Message: "library call requires a simple receiver"}
	}
	switch id.Name {
	case "Serial", "Keyboard":
		return id.Name, nil
	}
	if v, _, ok := e.Scopes.Lookup(id.Name); ok {
		return v.DeclaredType, nil
	}
	return "", &UndefinedReferenceError{Message: fmt.Sprintf("undefined library receiver %q", id.Name)}
}
