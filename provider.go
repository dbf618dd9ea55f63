package sketchvm

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DataProvider is the synchronous host callback contract of spec §4.4
// (C5): whenever a sketch reads from the outside world, the evaluator
// calls straight through to the embedding host and gets an answer
// back on the same goroutine, no suspension involved.
type DataProvider interface {
	AnalogRead(pin int) (int, error)
	DigitalRead(pin int) (int, error)
	Millis() (uint32, error)
	Micros() (uint32, error)
	PulseIn(pin int, value int, timeoutMicros uint32) (uint32, error)
	LibrarySensor(library, method string, args []Value) (Value, error)
}

// NopDataProvider answers every request with a zero value, used by
// tests and by hosts that only exercise pure-compute sketches.
type NopDataProvider struct{}

func (NopDataProvider) AnalogRead(int) (int, error)    { return 0, nil }
func (NopDataProvider) DigitalRead(int) (int, error)   { return 0, nil }
func (NopDataProvider) Millis() (uint32, error)        { return 0, nil }
func (NopDataProvider) Micros() (uint32, error)        { return 0, nil }
func (NopDataProvider) PulseIn(int, int, uint32) (uint32, error) { return 0, nil }
func (NopDataProvider) LibrarySensor(string, string, []Value) (Value, error) {
	return Unit, nil
}

// AsyncRequestKind enumerates the request shapes the async variant can
// suspend on (spec §5).
type AsyncRequestKind int

const (
	AsyncAnalogRead AsyncRequestKind = iota
	AsyncDigitalRead
	AsyncMillis
	AsyncMicros
	AsyncPulseIn
	AsyncLibrarySensor
)

// AsyncRequest is emitted by the engine when a sketch blocks on a data
// read under the async variant. RequestID correlates the eventual
// HandleResponse call back to the suspended evaluator continuation
// (spec §5.1), generated with github.com/google/uuid for the same
// reason the teacher's query subsystem keys long-lived requests by
// UUID rather than an incrementing counter (collision-free across
// restarts and safe to log).
type AsyncRequest struct {
	RequestID uuid.UUID
	Kind      AsyncRequestKind
	Pin       int
	Value     int
	Timeout   uint32
	Library   string
	Method    string
	Args      []Value
}

// AsyncResponse answers a previously issued AsyncRequest.
type AsyncResponse struct {
	RequestID uuid.UUID
	Result    Value
	Err       error
}

// AsyncDataProvider is the non-blocking counterpart to DataProvider:
// issuing a request returns immediately, and the answer arrives later
// through the channel returned by Responses. The engine correlates by
// RequestID rather than call order, so responses may arrive out of
// order (spec §5.2).
type AsyncDataProvider interface {
	Request(ctx context.Context, req AsyncRequest) error
	Responses() <-chan AsyncResponse
}

// DefaultAsyncTimeout bounds how long the engine waits for a single
// outstanding async request before treating it as a ConfigurationError
// (spec §5.2's "a provider that never responds must not hang the
// engine forever").
const DefaultAsyncTimeout = 5 * time.Second

// asyncBridge adapts an AsyncDataProvider into the synchronous
// DataProvider contract the evaluator calls (spec §4.4). The evaluator
// itself never learns it is running the async variant: it calls
// AnalogRead/DigitalRead/etc. exactly as it would on a sync provider,
// and the bridge is the single suspension point (spec §5.2) — the
// bridge blocks the calling goroutine on a per-request channel until
// the matching AsyncResponse is delivered by Engine.HandleResponse, or
// the deadline elapses.
type asyncBridge struct {
	engine  *Engine
	inner   AsyncDataProvider
	timeout time.Duration
}

func newAsyncBridge(e *Engine, inner AsyncDataProvider, timeout time.Duration) *asyncBridge {
	if timeout <= 0 {
		timeout = DefaultAsyncTimeout
	}
	return &asyncBridge{engine: e, inner: inner, timeout: timeout}
}

func (b *asyncBridge) await(req AsyncRequest) (AsyncResponse, error) {
	ch := make(chan AsyncResponse, 1)
	b.engine.registerPending(req.RequestID, ch)

	if err := b.inner.Request(context.Background(), req); err != nil {
		b.engine.cancelPending(req.RequestID)
		return AsyncResponse{}, err
	}

	select {
	case resp := <-ch:
		return resp, nil
	case <-time.After(b.timeout):
		b.engine.cancelPending(req.RequestID)
		return AsyncResponse{}, &ConfigurationError{Message: "async data provider timed out awaiting response"}
	}
}

func (b *asyncBridge) AnalogRead(pin int) (int, error) {
	resp, err := b.await(AsyncRequest{RequestID: uuid.New(), Kind: AsyncAnalogRead, Pin: pin})
	if err != nil {
		return 0, err
	}
	if resp.Err != nil {
		return 0, resp.Err
	}
	return int(resp.Result.AsI32()), nil
}

func (b *asyncBridge) DigitalRead(pin int) (int, error) {
	resp, err := b.await(AsyncRequest{RequestID: uuid.New(), Kind: AsyncDigitalRead, Pin: pin})
	if err != nil {
		return 0, err
	}
	if resp.Err != nil {
		return 0, resp.Err
	}
	return int(resp.Result.AsI32()), nil
}

func (b *asyncBridge) Millis() (uint32, error) {
	resp, err := b.await(AsyncRequest{RequestID: uuid.New(), Kind: AsyncMillis})
	if err != nil {
		return 0, err
	}
	if resp.Err != nil {
		return 0, resp.Err
	}
	return uint32(resp.Result.AsI32()), nil
}

func (b *asyncBridge) Micros() (uint32, error) {
	resp, err := b.await(AsyncRequest{RequestID: uuid.New(), Kind: AsyncMicros})
	if err != nil {
		return 0, err
	}
	if resp.Err != nil {
		return 0, resp.Err
	}
	return uint32(resp.Result.AsI32()), nil
}

func (b *asyncBridge) PulseIn(pin, value int, timeoutMicros uint32) (uint32, error) {
	resp, err := b.await(AsyncRequest{RequestID: uuid.New(), Kind: AsyncPulseIn, Pin: pin, Value: value, Timeout: timeoutMicros})
	if err != nil {
		return 0, err
	}
	if resp.Err != nil {
		return 0, resp.Err
	}
	return uint32(resp.Result.AsI32()), nil
}

func (b *asyncBridge) LibrarySensor(library, method string, args []Value) (Value, error) {
	resp, err := b.await(AsyncRequest{RequestID: uuid.New(), Kind: AsyncLibrarySensor, Library: library, Method: method, Args: args})
	if err != nil {
		return Unit, err
	}
	if resp.Err != nil {
		return Unit, resp.Err
	}
	return resp.Result, nil
}
