package session

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingOutbound struct {
	mu     sync.Mutex
	frames [][]byte
	err    error
}

func (o *recordingOutbound) Send(frame []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return o.err
	}
	o.frames = append(o.frames, frame)
	return nil
}

func TestClientRegistry_RegisterConflict(t *testing.T) {
	registry := NewClientRegistry()
	first := &recordingOutbound{}

	require.NoError(t, registry.Register("alice", first))
	assert.ErrorIs(t, registry.Register("alice", &recordingOutbound{}), ErrIdentityConflict)
	assert.True(t, registry.IsConnected("alice"))
	assert.Equal(t, 1, registry.Count())
}

func TestClientRegistry_UnregisterOnlyOwnBinding(t *testing.T) {
	registry := NewClientRegistry()
	first := &recordingOutbound{}
	require.NoError(t, registry.Register("alice", first))
	registry.SetSession("alice", "ABCDE")

	_, ok := registry.Unregister("alice", &recordingOutbound{})
	assert.False(t, ok, "a stale connection must not remove the live one")

	sessionID, ok := registry.Unregister("alice", first)
	assert.True(t, ok)
	assert.Equal(t, "ABCDE", sessionID)
	assert.False(t, registry.IsConnected("alice"))

	require.NoError(t, registry.Register("alice", &recordingOutbound{}))
}

func TestClientRegistry_Sessions(t *testing.T) {
	registry := NewClientRegistry()
	registry.Register("alice", &recordingOutbound{})

	_, ok := registry.SessionOf("alice")
	assert.False(t, ok)

	assert.True(t, registry.SetSession("alice", "ABCDE"))
	id, ok := registry.SessionOf("alice")
	assert.True(t, ok)
	assert.Equal(t, "ABCDE", id)

	registry.SetSession("alice", "")
	_, ok = registry.SessionOf("alice")
	assert.False(t, ok)

	assert.False(t, registry.SetSession("ghost", "ABCDE"))
}

func TestClientRegistry_Send(t *testing.T) {
	registry := NewClientRegistry()
	out := &recordingOutbound{}
	registry.Register("alice", out)

	require.NoError(t, registry.Send("alice", []byte("hello")))
	assert.Equal(t, [][]byte{[]byte("hello")}, out.frames)

	assert.ErrorIs(t, registry.Send("ghost", []byte("x")), ErrClientNotFound)

	broken := &recordingOutbound{err: errors.New("closed")}
	registry.Register("bob", broken)
	assert.EqualError(t, registry.Send("bob", []byte("x")), "closed")
}

func TestClientRegistry_IDs(t *testing.T) {
	registry := NewClientRegistry()
	registry.Register("carol", &recordingOutbound{})
	registry.Register("alice", &recordingOutbound{})

	assert.Equal(t, []string{"alice", "carol"}, registry.IDs())
}
