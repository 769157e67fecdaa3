package memory_test

import (
	"testing"

	"github.com/google/uuid"

	"github.com/voicebridge/voicebridge/internal/domain/runtime"
	"github.com/voicebridge/voicebridge/internal/infra/adapters/memory"
)

func TestPeerLinkCreateIsIdempotent(t *testing.T) {
	r := memory.NewPeerLinkRepository()

	presenter, viewer := uuid.New(), uuid.New()

	r.Create("ROOM01", presenter, viewer)
	r.Advance("ROOM01", viewer, runtime.LinkOfferSent)

	// A second Create for the same pair must not reset progress.
	link := r.Create("ROOM01", presenter, viewer)
	if link.State != runtime.LinkOfferSent {
		t.Fatalf("State = %v after repeat Create, want LinkOfferSent", link.State)
	}

	if links := r.InRoom("ROOM01"); len(links) != 1 {
		t.Fatalf("InRoom = %d links, want 1", len(links))
	}
}

func TestPeerLinkAdvanceForwardOnly(t *testing.T) {
	r := memory.NewPeerLinkRepository()

	presenter, viewer := uuid.New(), uuid.New()
	r.Create("ROOM01", presenter, viewer)

	r.Advance("ROOM01", viewer, runtime.LinkAnswerReceived)
	r.Advance("ROOM01", viewer, runtime.LinkOfferSent)

	link, ok := r.Get("ROOM01", viewer)
	if !ok {
		t.Fatal("Get: link not found")
	}
	if link.State != runtime.LinkAnswerReceived {
		t.Fatalf("State = %v, want LinkAnswerReceived (backwards transition must be ignored)", link.State)
	}
}

func TestPeerLinkCloseViewer(t *testing.T) {
	r := memory.NewPeerLinkRepository()

	presenter := uuid.New()
	leaving, staying := uuid.New(), uuid.New()

	r.Create("ROOM01", presenter, leaving)
	r.Create("ROOM01", presenter, staying)

	r.CloseViewer("ROOM01", leaving)

	if _, ok := r.Get("ROOM01", leaving); ok {
		t.Error("closed viewer link still present")
	}
	if _, ok := r.Get("ROOM01", staying); !ok {
		t.Error("unrelated viewer link removed")
	}
}

func TestPeerLinkCloseRoom(t *testing.T) {
	r := memory.NewPeerLinkRepository()

	presenter := uuid.New()
	r.Create("ROOM01", presenter, uuid.New())
	r.Create("ROOM01", presenter, uuid.New())
	r.Create("ROOM02", presenter, uuid.New())

	closed := r.CloseRoom("ROOM01")
	if len(closed) != 2 {
		t.Fatalf("CloseRoom returned %d links, want 2", len(closed))
	}
	for _, link := range closed {
		if link.State != runtime.LinkClosed {
			t.Errorf("closed link state = %v, want LinkClosed", link.State)
		}
	}

	if links := r.InRoom("ROOM01"); len(links) != 0 {
		t.Errorf("InRoom(ROOM01) = %d links after close, want 0", len(links))
	}
	if links := r.InRoom("ROOM02"); len(links) != 1 {
		t.Errorf("InRoom(ROOM02) = %d links, want 1", len(links))
	}
}
