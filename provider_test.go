package sketchvm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAsyncProvider answers every Request by immediately queuing a
// response on its Responses() channel, standing in for a host that
// replies on a later event-loop tick (spec §5.2).
type fakeAsyncProvider struct {
	resp chan AsyncResponse
}

func newFakeAsyncProvider() *fakeAsyncProvider {
	return &fakeAsyncProvider{resp: make(chan AsyncResponse, 8)}
}

func (p *fakeAsyncProvider) Request(_ context.Context, req AsyncRequest) error {
	go func() {
		p.resp <- AsyncResponse{RequestID: req.RequestID, Result: I32Value(int32(req.Pin) * 2)}
	}()
	return nil
}

func (p *fakeAsyncProvider) Responses() <-chan AsyncResponse { return p.resp }

func TestAsyncDataProviderRoundTrip(t *testing.T) {
	prog := &ProgramNode{}
	e := NewEngine(prog, DefaultOptions())
	fake := newFakeAsyncProvider()
	e.SetAsyncDataProvider(fake)
	require.NotNil(t, e.Provider)

	v, err := e.Provider.AnalogRead(21)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestAsyncDataProviderHandleResponseDirect(t *testing.T) {
	prog := &ProgramNode{}
	e := NewEngine(prog, DefaultOptions())

	// A provider whose Responses() channel never fires; the host
	// instead calls HandleResponse directly, the out-of-band delivery
	// path documented on Engine.HandleResponse.
	blocked := &blockingAsyncProvider{}
	e.SetAsyncDataProvider(blocked)
	blocked.onRequest = func(req AsyncRequest) {
		go e.HandleResponse(req.RequestID, I32Value(7), nil)
	}

	v, err := e.Provider.DigitalRead(1)
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

type blockingAsyncProvider struct {
	onRequest func(AsyncRequest)
}

func (p *blockingAsyncProvider) Request(_ context.Context, req AsyncRequest) error {
	if p.onRequest != nil {
		p.onRequest(req)
	}
	return nil
}

func (p *blockingAsyncProvider) Responses() <-chan AsyncResponse {
	return make(chan AsyncResponse) // never fires
}

func TestAsyncDataProviderTimeout(t *testing.T) {
	prog := &ProgramNode{}
	e := NewEngine(prog, DefaultOptions())
	e.Provider = newAsyncBridge(e, &blockingAsyncProvider{}, 20*time.Millisecond)

	_, err := e.Provider.Millis()
	require.Error(t, err)
	assert.Equal(t, KindConfigurationError, AsEngineError(err).Kind())
}
