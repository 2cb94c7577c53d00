package store

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/roach88/gridstore/internal/grid"
	"github.com/roach88/gridstore/internal/model"
	"github.com/roach88/gridstore/internal/schema"
)

// Connector authenticates and returns a transport ready for use.
type Connector func(ctx context.Context) (grid.Transport, error)

// GateState is the lifecycle position of a Gate.
type GateState int32

const (
	GatePending GateState = iota
	GateReady
	GateFailed
)

func (s GateState) String() string {
	switch s {
	case GateReady:
		return "ready"
	case GateFailed:
		return "failed"
	default:
		return "pending"
	}
}

// Gate is a one-shot readiness barrier. It runs connect-then-bind exactly
// once in the background and then stays in its terminal state. A transport
// that connected but failed to bind is closed before the gate fails.
//
// Thread-safety: Wait and State may be called from any goroutine.
type Gate struct {
	done  chan struct{}
	state atomic.Int32

	// Written once before done is closed, read only after.
	transport grid.Transport
	binding   *schema.Binding
	err       error
}

// StartGate begins initialization in a new goroutine. ctx bounds the
// initialization itself; cancelling it fails the gate.
func StartGate(ctx context.Context, connect Connector, t grid.Table, declared model.Schema, logger *slog.Logger) *Gate {
	g := &Gate{done: make(chan struct{})}
	go g.run(ctx, connect, t, declared, logger)
	return g
}

func (g *Gate) run(ctx context.Context, connect Connector, t grid.Table, declared model.Schema, logger *slog.Logger) {
	defer close(g.done)

	tr, err := connect(ctx)
	if err == nil && tr == nil {
		err = errors.New("connector returned no transport")
	}
	if err != nil {
		g.fail(model.NewInitializationError("connect", err), t, logger)
		return
	}
	b, err := schema.Bind(ctx, tr, t, declared, logger)
	if err != nil {
		if c, ok := tr.(grid.Closer); ok {
			if cerr := c.Close(); cerr != nil {
				logger.Warn("closing transport after failed bind", "table", t.String(), "error", cerr)
			}
		}
		g.fail(err, t, logger)
		return
	}

	g.transport = tr
	g.binding = b
	g.state.Store(int32(GateReady))
	logger.Info("store ready", "table", t.String(), "columns", b.Width())
}

func (g *Gate) fail(err error, t grid.Table, logger *slog.Logger) {
	if !model.IsInitialization(err) {
		err = model.NewInitializationError("bind", err)
	}
	g.err = err
	g.state.Store(int32(GateFailed))
	logger.Error("store initialization failed", "table", t.String(), "error", err)
}

// Wait blocks until the gate resolves or ctx is done. A failed gate returns
// its INITIALIZATION_FAILED error on every call.
func (g *Gate) Wait(ctx context.Context) (grid.Transport, *schema.Binding, error) {
	select {
	case <-g.done:
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}
	if g.err != nil {
		return nil, nil, g.err
	}
	return g.transport, g.binding, nil
}

// State reports the gate's current state without blocking.
func (g *Gate) State() GateState {
	return GateState(g.state.Load())
}

// Done is closed once the gate has resolved.
func (g *Gate) Done() <-chan struct{} {
	return g.done
}
