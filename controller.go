package sketchvm

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// EngineState is C9's top-level state machine (spec §4.7).
type EngineState int

const (
	StateIdle EngineState = iota
	StateRunningSetup
	StateRunningLoop
	StateComplete
	StateError
)

func (s EngineState) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateRunningSetup:
		return "RUNNING_SETUP"
	case StateRunningLoop:
		return "RUNNING_LOOP"
	case StateComplete:
		return "COMPLETE"
	case StateError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// CallFrame tracks one user-function invocation's return slot,
// decoupled from the C4 scope stack so a return value survives the
// callee's own scope teardown (spec §4.6 step 7's load-bearing
// ordering requirement).
type CallFrame struct {
	ShouldReturn bool
	ReturnValue  Value
}

// CallStack is the controller's per-invocation stack; it is never
// cleared wholesale across invocations (spec §4.6: "the controller
// MUST NOT clear the global call stack across invocations").
type CallStack struct {
	frames []*CallFrame
}

func (c *CallStack) Push() *CallFrame {
	f := &CallFrame{ReturnValue: Unit}
	c.frames = append(c.frames, f)
	return f
}

func (c *CallStack) Pop() {
	if len(c.frames) == 0 {
		return
	}
	c.frames = c.frames[:len(c.frames)-1]
}

func (c *CallStack) Current() *CallFrame {
	if len(c.frames) == 0 {
		return nil
	}
	return c.frames[len(c.frames)-1]
}

// Engine is the sketch interpreter's execution controller (C9), the
// single type a host embeds: it owns the AST, the scope/control/call
// stacks, the data provider, and the command emitter. Grounded on
// zboralski-galago's cmd/galago top-level driver structure (one
// struct coordinating config, logger, and a run loop) adapted from a
// CPU-emulator driver to a tree-walking interpreter driver.
type Engine struct {
	Options Options
	Config  Config

	Program   *ProgramNode
	Functions map[string]*FuncDefNode

	Scopes   *ScopeStack
	Controls *ControlStack
	Calls    *CallStack

	Provider      DataProvider
	AsyncProvider AsyncDataProvider
	Emitter       *CommandEmitter
	logger        *Logger

	State         EngineState
	LoopIteration uint32

	asyncMu      sync.Mutex
	asyncPending map[uuid.UUID]chan AsyncResponse
}

// NewEngine constructs an Engine from a decoded program. The caller
// must call SetDataProvider and SetCommandSink (or accept the no-op
// defaults) before Start.
func NewEngine(program *ProgramNode, opts Options) *Engine {
	functions := make(map[string]*FuncDefNode)
	for _, fd := range program.Functions() {
		functions[fd.Name()] = fd
	}
	e := &Engine{
		Options:   opts,
		Config:    NewConfig(),
		Program:   program,
		Functions: functions,
		Scopes:    NewScopeStack(),
		Controls:  &ControlStack{},
		Calls:     &CallStack{},
		Provider:  nil,
		logger:    NewNopLogger(),
		State:     StateIdle,
	}
	e.Emitter = NewCommandEmitter(NewCollectingSink(), e.logger)
	return e
}

// setState transitions the controller to s, logging the change (C9
// state machine, spec §4.7) the way DESIGN.md's ambient Logging
// section commits to: one line per state transition.
func (e *Engine) setState(s EngineState) {
	if s == e.State {
		return
	}
	e.logger.StateTransition(e.State, s)
	e.State = s
}

// SetDataProvider installs C5. Passing nil explicitly uninstalls it
// (fail-fast on the next data-provider call, spec §4.2) — callers that
// want zero-answering semantics instead should pass NopDataProvider{}.
func (e *Engine) SetDataProvider(p DataProvider) {
	e.Provider = p
	e.AsyncProvider = nil
}

// SetAsyncDataProvider installs the async variant (spec §5.2): the
// engine's evaluator keeps calling the synchronous DataProvider
// contract, routed through an asyncBridge that suspends on the host's
// request/response correlation instead of returning immediately. A
// background goroutine drains the provider's Responses() channel and
// feeds HandleResponse so a host may equally well call HandleResponse
// directly (e.g. from a UI event handler) without implementing
// Responses() at all.
func (e *Engine) SetAsyncDataProvider(p AsyncDataProvider) {
	e.AsyncProvider = p
	if p == nil {
		e.Provider = nil
		return
	}
	e.Provider = newAsyncBridge(e, p, DefaultAsyncTimeout)
	go e.pumpAsyncResponses(p)
}

func (e *Engine) pumpAsyncResponses(p AsyncDataProvider) {
	for resp := range p.Responses() {
		e.HandleResponse(resp.RequestID, resp.Result, resp.Err)
	}
}

// HandleResponse delivers a previously requested async read's answer
// (spec §6's host-facing `handle_response(request_id, value)`). Callers
// whose AsyncDataProvider implementation pushes through Responses()
// never need to call this directly; it exists for hosts that deliver
// responses out-of-band (e.g. a UI callback) instead.
func (e *Engine) HandleResponse(id uuid.UUID, v Value, err error) {
	e.asyncMu.Lock()
	ch, ok := e.asyncPending[id]
	if ok {
		delete(e.asyncPending, id)
	}
	e.asyncMu.Unlock()
	if ok {
		ch <- AsyncResponse{RequestID: id, Result: v, Err: err}
	}
}

func (e *Engine) registerPending(id uuid.UUID, ch chan AsyncResponse) {
	e.asyncMu.Lock()
	defer e.asyncMu.Unlock()
	if e.asyncPending == nil {
		e.asyncPending = make(map[uuid.UUID]chan AsyncResponse)
	}
	e.asyncPending[id] = ch
}

func (e *Engine) cancelPending(id uuid.UUID) {
	e.asyncMu.Lock()
	defer e.asyncMu.Unlock()
	delete(e.asyncPending, id)
}

func (e *Engine) SetCommandSink(sink CommandSink) {
	e.Emitter = NewCommandEmitter(sink, e.logger)
}

func (e *Engine) SetLogger(l *Logger) {
	if l == nil {
		l = NewNopLogger()
	}
	e.logger = l
	if e.Emitter != nil {
		e.Emitter = NewCommandEmitter(e.sinkOf(), l)
	}
}

func (e *Engine) sinkOf() CommandSink {
	if e.Emitter == nil {
		return nil
	}
	return e.Emitter.sink
}

// Start runs global variable initializers, then setup(), then exactly
// one loop() iteration (spec §5.1). It is a no-op error if called
// outside IDLE.
func (e *Engine) Start() error {
	if e.State != StateIdle {
		return &InternalInvariantError{Message: fmt.Sprintf("Start called in state %s", e.State)}
	}
	e.Emitter.Emit(KindVersionInfo, VersionInfoFields{Version: EngineVersion})
	e.Emitter.Emit(KindProgramStart, ProgramStartFields{})

	if err := e.runGlobals(); err != nil {
		e.fail(err)
		return err
	}

	e.setState(StateRunningSetup)
	e.Emitter.Emit(KindSetupStart, SetupStartFields{})
	if setup := e.Program.Setup(); setup != nil {
		if _, err := e.callFunction(setup, nil); err != nil {
			e.fail(err)
			return err
		}
	}
	e.Emitter.Emit(KindSetupEnd, SetupEndFields{})

	e.setState(StateRunningLoop)
	return e.Resume()
}

// Resume executes the next loop() iteration (spec §5.1). The caller
// is responsible for invoking Resume repeatedly; the engine does not
// free-run loop() itself so synchronous and asynchronous variants
// share one call-by-call contract.
func (e *Engine) Resume() error {
	if e.State != StateRunningLoop {
		return &InternalInvariantError{Message: fmt.Sprintf("Resume called in state %s", e.State)}
	}
	if e.Options.MaxLoopIterations > 0 && e.LoopIteration >= e.Options.MaxLoopIterations {
		e.Emitter.Emit(KindLoopLimitReached, LoopLimitReachedFields{MaxIterations: e.Options.MaxLoopIterations})
		e.setState(StateComplete)
		e.Emitter.Emit(KindProgramEnd, ProgramEndFields{})
		return nil
	}

	e.Emitter.Emit(KindLoopStart, LoopStartFields{Iteration: e.LoopIteration})
	loop := e.Program.Loop()
	if loop != nil {
		if _, err := e.callFunction(loop, nil); err != nil {
			e.fail(err)
			return err
		}
	}
	e.Emitter.Emit(KindLoopEnd, LoopEndFields{Iteration: e.LoopIteration})
	e.LoopIteration++

	if e.Options.MaxLoopIterations > 0 && e.LoopIteration >= e.Options.MaxLoopIterations {
		e.Emitter.Emit(KindLoopLimitReached, LoopLimitReachedFields{MaxIterations: e.Options.MaxLoopIterations})
		e.setState(StateComplete)
		e.Emitter.Emit(KindProgramEnd, ProgramEndFields{})
	}
	return nil
}

// Destroy releases the engine's scope stack; heap Values retain shared
// ownership over their Struct/Pointer/Array/StringObj handles per
// spec §5's resource policy, so nothing beyond the frame stack needs
// explicit teardown.
func (e *Engine) Destroy() {
	for e.Scopes.Depth() > 0 {
		e.Scopes.PopScope()
	}
}

func (e *Engine) fail(err error) {
	ee := AsEngineError(err)
	e.logger.FatalError(ee.Kind(), ee.Error())
	e.setState(StateError)
	e.Emitter.Emit(KindError, errorFields(err))
}

func (e *Engine) runGlobals() error {
	for _, vd := range e.Program.Globals() {
		if _, err := e.execVarDecl(vd); err != nil {
			return err
		}
	}
	return nil
}

// callFunction implements C9's user-function call mechanism (spec
// §4.6), steps 3-8 (argument evaluation and callee resolution are the
// caller's responsibility, done in evalFuncCall).
func (e *Engine) callFunction(fn *FuncDefNode, args []Value) (Value, error) {
	guard := e.Scopes.EnterScope()
	defer guard.Exit()

	for i, p := range fn.Params {
		if i >= len(args) {
			break
		}
		if p.IsFuncPtr {
			e.Scopes.Declare(p.FuncPtr.Name, "function-pointer", args[i], false)
		} else {
			e.Scopes.Declare(p.Name, typeName(p.TypeNode), args[i], false)
		}
	}

	frame := e.Calls.Push()
	defer e.Calls.Pop()

	if _, err := e.execBlock(fn.Body); err != nil {
		return Unit, err
	}

	ret := frame.ReturnValue
	return ret, nil
}

func typeName(t *TypeNode) string {
	if t == nil {
		return ""
	}
	name := t.Name
	for i := 0; i < t.PointerLevel; i++ {
		name += "*"
	}
	return name
}
