package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectAndSend(t *testing.T) {
	s := NewSignal("test")

	var got []string
	disconnect := s.Connect(func(table string, instance any) {
		got = append(got, table)
	})

	s.Send("users", &struct{}{})
	s.Send("books", &struct{}{})
	assert.Equal(t, []string{"users", "books"}, got)

	disconnect()
	s.Send("users", &struct{}{})
	assert.Len(t, got, 2)

	// Disconnecting twice is harmless.
	disconnect()
}

func TestSend_ReceiversInConnectionOrder(t *testing.T) {
	s := NewSignal("test")

	var order []int
	s.Connect(func(string, any) { order = append(order, 1) })
	s.Connect(func(string, any) { order = append(order, 2) })

	s.Send("users", nil)
	assert.Equal(t, []int{1, 2}, order)
}

func TestMute_SuppressesAndRestores(t *testing.T) {
	s := NewSignal("test")

	calls := 0
	s.Connect(func(string, any) { calls++ })

	restore := Mute(s)
	s.Send("users", nil)
	assert.Equal(t, 0, calls)
	assert.False(t, s.HasReceivers())

	restore()
	s.Send("users", nil)
	assert.Equal(t, 1, calls)

	// Restore is idempotent: no duplicated receivers.
	restore()
	s.Send("users", nil)
	assert.Equal(t, 2, calls)
}

func TestMute_KeepsReceiversConnectedWhileMuted(t *testing.T) {
	s := NewSignal("test")

	muted := 0
	late := 0
	s.Connect(func(string, any) { muted++ })

	restore := Mute(s)
	s.Connect(func(string, any) { late++ })
	s.Send("users", nil)
	assert.Equal(t, 0, muted)
	assert.Equal(t, 1, late, "receivers connected during mute still fire")

	restore()
	s.Send("users", nil)
	assert.Equal(t, 1, muted)
	assert.Equal(t, 2, late)
}

func TestMuted_RestoresOnPanic(t *testing.T) {
	s := NewSignal("test")

	calls := 0
	s.Connect(func(string, any) { calls++ })

	require.Panics(t, func() {
		Muted(func() {
			s.Send("users", nil)
			panic("boom")
		}, s)
	})

	assert.Equal(t, 0, calls)
	s.Send("users", nil)
	assert.Equal(t, 1, calls, "receivers restored after panic")
}

func TestMute_MultipleSignals(t *testing.T) {
	pre := NewSignal("pre")
	post := NewSignal("post")

	calls := 0
	pre.Connect(func(string, any) { calls++ })
	post.Connect(func(string, any) { calls++ })

	Muted(func() {
		pre.Send("users", nil)
		post.Send("users", nil)
	}, pre, post)
	assert.Equal(t, 0, calls)

	pre.Send("users", nil)
	post.Send("users", nil)
	assert.Equal(t, 2, calls)
}
