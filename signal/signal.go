// Package signal provides the save-lifecycle events factories publish
// around bulk inserts, and a scoped way to mute them in tests.
package signal

import (
	"sync"

	"go.uber.org/zap"
)

// Lifecycle signals published by factory persistence. PreSave fires before
// a record is written, PostSave after its persistent identity is assigned.
var (
	PreSave  = NewSignal("pre_save")
	PostSave = NewSignal("post_save")
)

// Receiver observes a signal for one record of one table.
type Receiver func(table string, instance any)

type receiverEntry struct {
	id int
	fn Receiver
}

// Signal is a named observable event with a dynamic receiver list.
// All methods are safe for concurrent use.
type Signal struct {
	name string
	log  *zap.SugaredLogger

	mu        sync.Mutex
	nextID    int
	receivers []receiverEntry
}

// NewSignal creates a signal with no receivers.
func NewSignal(name string) *Signal {
	return &Signal{
		name: name,
		log:  zap.NewNop().Sugar(),
	}
}

// Name returns the signal's name.
func (s *Signal) Name() string {
	return s.name
}

// SetLogger attaches a logger used for mute/restore debug messages.
func (s *Signal) SetLogger(log *zap.SugaredLogger) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	s.mu.Lock()
	s.log = log
	s.mu.Unlock()
}

// Connect registers a receiver and returns a function that disconnects it.
// Disconnecting twice is harmless.
func (s *Signal) Connect(r Receiver) (disconnect func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.receivers = append(s.receivers, receiverEntry{id: id, fn: r})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, entry := range s.receivers {
			if entry.id == id {
				s.receivers = append(s.receivers[:i], s.receivers[i+1:]...)
				return
			}
		}
	}
}

// Send notifies every connected receiver. Receivers run synchronously on
// the calling goroutine, outside the signal's lock.
func (s *Signal) Send(table string, instance any) {
	s.mu.Lock()
	snapshot := make([]receiverEntry, len(s.receivers))
	copy(snapshot, s.receivers)
	s.mu.Unlock()

	for _, entry := range snapshot {
		entry.fn(table, instance)
	}
}

// HasReceivers reports whether anyone is currently listening.
func (s *Signal) HasReceivers() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.receivers) > 0
}

// Mute detaches every receiver from the given signals and returns a
// restore function. While muted, Send reaches nobody; receivers connected
// during the muted window survive restoration. Callers must invoke restore
// on every exit path, typically via defer, and restore is safe to call
// more than once.
func Mute(signals ...*Signal) (restore func()) {
	paused := make(map[*Signal][]receiverEntry, len(signals))
	for _, s := range signals {
		s.mu.Lock()
		s.log.Debugw("muting signal", "signal", s.name, "receivers", len(s.receivers))
		paused[s] = s.receivers
		s.receivers = nil
		s.mu.Unlock()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			for s, receivers := range paused {
				s.mu.Lock()
				s.log.Debugw("restoring signal", "signal", s.name, "receivers", len(receivers))
				s.receivers = append(s.receivers, receivers...)
				s.mu.Unlock()
			}
		})
	}
}

// Muted runs fn with the given signals muted, restoring receivers even
// when fn panics.
func Muted(fn func(), signals ...*Signal) {
	restore := Mute(signals...)
	defer restore()
	fn()
}
