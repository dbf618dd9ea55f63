package sketchvm

// CommandSink receives every Record an Engine emits, in emission
// order. JSONLSink writes each record directly; ChannelSink blocks the
// engine once its buffer is full, until the consumer reads.
type CommandSink interface {
	Emit(rec Record) error
}

// CommandEmitter is C6: a thin, table-driven wrapper over a
// CommandSink that also notifies the package logger (so a host
// watching logs sees the same stream the sink receives), grounded on
// the teacher's layered Logger.SetOnTrace hook (internal/log).
type CommandEmitter struct {
	sink   CommandSink
	logger *Logger
}

func NewCommandEmitter(sink CommandSink, logger *Logger) *CommandEmitter {
	if logger == nil {
		logger = NewNopLogger()
	}
	return &CommandEmitter{sink: sink, logger: logger}
}

// Emit writes rec to the sink and notifies the logger hook, returning
// the sink's error. The engine's own call sites discard that error, so
// a failing sink does not stop a run.
func (e *CommandEmitter) Emit(kind CommandKind, fields any) error {
	rec := Record{Kind: kind, Fields: fields}
	e.logger.notifyEmit(kind, fieldsToMap(fields))
	if e.sink == nil {
		return nil
	}
	return e.sink.Emit(rec)
}

// fieldsToMap renders a typed fields struct into a flat map for the
// logger hook only; the wire-format Record always carries the typed
// struct, not this map, so struct field order still drives JSON output.
func fieldsToMap(fields any) map[string]any {
	out := make(map[string]any)
	switch f := fields.(type) {
	case VarSetFields:
		out["name"], out["type"], out["value"] = f.Name, f.Type, f.Value
	case ErrorFields:
		out["error_kind"], out["message"], out["fatal"] = f.ErrorKind, f.Message, f.Fatal
	case FunctionCallFields:
		out["name"], out["result"] = f.Name, f.Result
	}
	return out
}
