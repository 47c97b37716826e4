package registry

import (
	"encoding/json"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/lsp-sdk-go/pkg/errors"
	"github.com/ajitpratap0/lsp-sdk-go/pkg/protocol"
)

func TestRegisterAndResolve(t *testing.T) {
	r := New(nil)

	pending, err := r.RegisterOutgoing(protocol.NewIntID(1), "initialize")
	require.NoError(t, err)
	assert.Equal(t, 1, r.OutgoingCount())

	r.Resolve(protocol.NewIntID(1), Outcome{Result: json.RawMessage(`{"ok":true}`)})

	select {
	case outcome := <-pending.Done():
		require.NoError(t, outcome.Err)
		assert.JSONEq(t, `{"ok":true}`, string(outcome.Result))
	case <-time.After(time.Second):
		t.Fatal("completion handle never resolved")
	}
	assert.Equal(t, 0, r.OutgoingCount())
}

func TestDuplicateOutgoingID(t *testing.T) {
	r := New(nil)

	_, err := r.RegisterOutgoing(protocol.NewIntID(1), "a")
	require.NoError(t, err)

	_, err = r.RegisterOutgoing(protocol.NewIntID(1), "b")
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrDuplicateID))

	// A string id that renders the same is a different id.
	_, err = r.RegisterOutgoing(protocol.NewStringID("1"), "c")
	assert.NoError(t, err)
}

func TestResolveUnknownIDIsSilent(t *testing.T) {
	r := New(nil)
	// Unsolicited response: logged, not fatal, no panic.
	r.Resolve(protocol.NewIntID(99), Outcome{Result: json.RawMessage(`{}`)})
}

func TestAtMostOneResolution(t *testing.T) {
	r := New(nil)
	pending, err := r.RegisterOutgoing(protocol.NewIntID(2), "m")
	require.NoError(t, err)

	r.Resolve(protocol.NewIntID(2), Outcome{Result: json.RawMessage(`"first"`)})
	// Second response with the same id is dropped.
	r.Resolve(protocol.NewIntID(2), Outcome{Result: json.RawMessage(`"second"`)})

	outcome := <-pending.Done()
	assert.Equal(t, `"first"`, string(outcome.Result))

	select {
	case extra := <-pending.Done():
		t.Fatalf("completion handle resolved twice: %v", extra)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestIncomingCancellation(t *testing.T) {
	r := New(nil)

	handle := r.RegisterIncoming(protocol.NewIntID(5))
	assert.False(t, handle.Cancelled())
	assert.False(t, r.IsCancelled(protocol.NewIntID(5)))

	r.RequestCancel(protocol.NewIntID(5))
	assert.True(t, handle.Cancelled())
	assert.True(t, r.IsCancelled(protocol.NewIntID(5)))

	// Idempotent.
	r.RequestCancel(protocol.NewIntID(5))
	assert.True(t, handle.Cancelled())

	r.CompleteIncoming(protocol.NewIntID(5))
	assert.Equal(t, 0, r.IncomingCount())
	// After completion the id is unknown; cancellation is a no-op.
	r.RequestCancel(protocol.NewIntID(5))
	assert.False(t, r.IsCancelled(protocol.NewIntID(5)))
}

func TestCancelUnknownIDDoesNotAffectOthers(t *testing.T) {
	r := New(nil)
	victim := r.RegisterIncoming(protocol.NewIntID(1))

	r.RequestCancel(protocol.NewIntID(2))

	assert.False(t, victim.Cancelled())
}

func TestIndependentIDSpaces(t *testing.T) {
	r := New(nil)

	// The same id may be pending outgoing and in flight incoming at once.
	_, err := r.RegisterOutgoing(protocol.NewIntID(7), "out")
	require.NoError(t, err)
	handle := r.RegisterIncoming(protocol.NewIntID(7))

	r.RequestCancel(protocol.NewIntID(7))
	assert.True(t, handle.Cancelled())
	assert.Equal(t, 1, r.OutgoingCount(), "cancel must not touch the outgoing entry")
}

func TestDrainResolvesEverything(t *testing.T) {
	r := New(nil)

	var handles []*Pending
	for i := 0; i < 10; i++ {
		pending, err := r.RegisterOutgoing(protocol.NewIntID(int64(i)), "m")
		require.NoError(t, err)
		handles = append(handles, pending)
	}

	drained := r.Drain()
	assert.Len(t, drained, 10)

	for _, pending := range handles {
		select {
		case outcome := <-pending.Done():
			require.Error(t, outcome.Err)
			assert.True(t, stderrors.Is(outcome.Err, errors.ErrConnectionClosed))
		case <-time.After(time.Second):
			t.Fatal("handle left unresolved after drain")
		}
	}

	// Registrations after drain fail fast.
	_, err := r.RegisterOutgoing(protocol.NewIntID(100), "m")
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrConnectionClosed))

	// Drain is idempotent.
	assert.Empty(t, r.Drain())
}

func TestConcurrentRegistryAccess(t *testing.T) {
	r := New(nil)

	const n = 100
	var wg sync.WaitGroup

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := protocol.NewIntID(int64(i))
			pending, err := r.RegisterOutgoing(id, "m")
			assert.NoError(t, err)
			r.Resolve(id, Outcome{Result: json.RawMessage(`null`)})
			outcome := <-pending.Done()
			assert.NoError(t, outcome.Err)
		}(i)
	}

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := protocol.NewIntID(int64(i))
			r.RegisterIncoming(id)
			r.RequestCancel(id)
			assert.True(t, r.IsCancelled(id))
			r.CompleteIncoming(id)
		}(i)
	}

	wg.Wait()
	assert.Equal(t, 0, r.OutgoingCount())
	assert.Equal(t, 0, r.IncomingCount())
}
