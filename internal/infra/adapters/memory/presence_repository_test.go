package memory_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/voicebridge/voicebridge/internal/domain/events"
	"github.com/voicebridge/voicebridge/internal/infra/adapters/memory"
)

// recordingConn is an in-memory runtime.Conn for tests.
type recordingConn struct {
	mu     sync.Mutex
	frames []events.Message
	err    error
}

func (c *recordingConn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil {
		return c.err
	}

	if frame, ok := v.(events.Message); ok {
		c.frames = append(c.frames, frame)
	}

	return nil
}

func (c *recordingConn) Close() error { return nil }

func (c *recordingConn) count(messageType string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, frame := range c.frames {
		if frame.Type == messageType {
			n++
		}
	}

	return n
}

func (c *recordingConn) total() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.frames)
}

func TestPresenceFanOut(t *testing.T) {
	r := memory.NewPresenceRepository()

	userID := uuid.New()
	phone, laptop := &recordingConn{}, &recordingConn{}

	r.Register(userID, uuid.New(), phone)
	r.Register(userID, uuid.New(), laptop)

	frame, _ := events.New(events.TypeSystem, events.SystemEvent{Message: "hello"})
	r.WriteTo(userID, frame)

	if phone.total() != 1 || laptop.total() != 1 {
		t.Fatalf("fan-out: phone=%d laptop=%d frames, want 1 each", phone.total(), laptop.total())
	}
}

func TestPresenceWriteSingleConnection(t *testing.T) {
	r := memory.NewPresenceRepository()

	userID := uuid.New()
	firstID, secondID := uuid.New(), uuid.New()
	first, second := &recordingConn{}, &recordingConn{}

	r.Register(userID, firstID, first)
	r.Register(userID, secondID, second)

	frame, _ := events.New(events.TypeSystem, events.SystemEvent{Message: "only you"})
	r.Write(userID, firstID, frame)

	if first.total() != 1 {
		t.Errorf("first conn got %d frames, want 1", first.total())
	}
	if second.total() != 0 {
		t.Errorf("second conn got %d frames, want 0", second.total())
	}
}

func TestPresenceUnregisterLast(t *testing.T) {
	r := memory.NewPresenceRepository()

	userID := uuid.New()
	firstID, secondID := uuid.New(), uuid.New()

	r.Register(userID, firstID, &recordingConn{})
	r.Register(userID, secondID, &recordingConn{})

	if last := r.Unregister(userID, firstID); last {
		t.Error("Unregister reported last while another connection remains")
	}
	if !r.IsOnline(userID) {
		t.Error("IsOnline = false while one connection remains")
	}

	if last := r.Unregister(userID, secondID); !last {
		t.Error("Unregister did not report last for the final connection")
	}
	if r.IsOnline(userID) {
		t.Error("IsOnline = true after all connections removed")
	}
}

func TestPresenceBrokenConnectionDoesNotBlockOthers(t *testing.T) {
	r := memory.NewPresenceRepository()

	userID := uuid.New()
	broken := &recordingConn{err: errWrite}
	healthy := &recordingConn{}

	r.Register(userID, uuid.New(), broken)
	r.Register(userID, uuid.New(), healthy)

	frame, _ := events.New(events.TypeSystem, events.SystemEvent{Message: "still delivered"})
	r.WriteTo(userID, frame)

	if healthy.total() != 1 {
		t.Fatalf("healthy conn got %d frames, want 1", healthy.total())
	}
}

var errWrite = errors.New("write failed")
