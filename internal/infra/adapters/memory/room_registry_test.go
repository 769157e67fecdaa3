package memory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/voicebridge/voicebridge/internal/domain/input"
	"github.com/voicebridge/voicebridge/internal/domain/runtime"
	"github.com/voicebridge/voicebridge/internal/infra/adapters/memory"
	"github.com/voicebridge/voicebridge/internal/infra/adapters/store"
)

func newRegistry(grace time.Duration) memory.RoomRegistry {
	return memory.NewRoomRegistry(store.NewNopStore(), grace)
}

func newParticipant(name string) *runtime.Participant {
	return &runtime.Participant{
		ConnectionID: uuid.New(),
		UserID:       uuid.New(),
		Name:         name,
		Language:     "en-US",
		Role:         "speaker",
	}
}

func TestCreateAndJoin(t *testing.T) {
	ctx := context.Background()
	r := newRegistry(time.Minute)

	created, err := r.Create(ctx, input.CreateRoomInput{Name: "Standup", IsPublic: true, CreatedBy: uuid.New()})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == "" {
		t.Fatal("Create returned empty room ID")
	}

	p := newParticipant("alice")
	info, err := r.Join(ctx, created.ID, "", p)
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if info.UserCount != 1 {
		t.Errorf("UserCount = %d, want 1", info.UserCount)
	}
	if p.RoomID != created.ID {
		t.Errorf("participant RoomID = %q, want %q", p.RoomID, created.ID)
	}
	if !r.UserInRoom(created.ID, p.UserID) {
		t.Error("UserInRoom = false after join")
	}
}

func TestJoinUnknownRoom(t *testing.T) {
	r := newRegistry(time.Minute)

	_, err := r.Join(context.Background(), "NOPE99", "", newParticipant("alice"))
	if err != runtime.ErrRoomNotFound {
		t.Fatalf("Join unknown room: err = %v, want ErrRoomNotFound", err)
	}
}

func TestJoinWrongPassword(t *testing.T) {
	ctx := context.Background()
	r := newRegistry(time.Minute)

	created, err := r.Create(ctx, input.CreateRoomInput{Name: "Secret", Password: "hunter2", CreatedBy: uuid.New()})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := r.Join(ctx, created.ID, "wrong", newParticipant("eve")); err != runtime.ErrWrongPassword {
		t.Fatalf("Join with wrong password: err = %v, want ErrWrongPassword", err)
	}

	if _, err := r.Join(ctx, created.ID, "hunter2", newParticipant("alice")); err != nil {
		t.Fatalf("Join with correct password failed: %v", err)
	}
}

func TestCreateDuplicateID(t *testing.T) {
	ctx := context.Background()
	r := newRegistry(time.Minute)

	if _, err := r.Create(ctx, input.CreateRoomInput{ID: "ROOM01", CreatedBy: uuid.New()}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := r.Create(ctx, input.CreateRoomInput{ID: "ROOM01", CreatedBy: uuid.New()}); err != runtime.ErrRoomExists {
		t.Fatalf("second Create: err = %v, want ErrRoomExists", err)
	}
}

func TestRemoveConnectionMultiDevice(t *testing.T) {
	ctx := context.Background()
	r := newRegistry(time.Minute)

	created, _ := r.Create(ctx, input.CreateRoomInput{CreatedBy: uuid.New()})

	userID := uuid.New()
	first := &runtime.Participant{ConnectionID: uuid.New(), UserID: userID, Name: "alice"}
	second := &runtime.Participant{ConnectionID: uuid.New(), UserID: userID, Name: "alice"}

	if _, err := r.Join(ctx, created.ID, "", first); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if _, err := r.Join(ctx, created.ID, "", second); err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	removed, stillInRoom, found := r.RemoveConnection(ctx, created.ID, first.ConnectionID)
	if !found {
		t.Fatal("RemoveConnection did not find the connection")
	}
	if removed.UserID != userID {
		t.Errorf("removed.UserID = %v, want %v", removed.UserID, userID)
	}
	if !stillInRoom {
		t.Error("stillInRoom = false, user has another connection")
	}

	_, stillInRoom, found = r.RemoveConnection(ctx, created.ID, second.ConnectionID)
	if !found {
		t.Fatal("RemoveConnection did not find the second connection")
	}
	if stillInRoom {
		t.Error("stillInRoom = true after last connection removed")
	}
}

func TestPresenterCheckAndSet(t *testing.T) {
	ctx := context.Background()
	r := newRegistry(time.Minute)

	created, _ := r.Create(ctx, input.CreateRoomInput{CreatedBy: uuid.New()})

	const contenders = 32

	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0

	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			if err := r.SetPresenter(ctx, created.ID, uuid.New(), "contender"); err == nil {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if winners != 1 {
		t.Fatalf("winners = %d, want exactly 1", winners)
	}
}

func TestPresenterRoundTrip(t *testing.T) {
	ctx := context.Background()
	r := newRegistry(time.Minute)

	created, _ := r.Create(ctx, input.CreateRoomInput{CreatedBy: uuid.New()})

	alice, bob := uuid.New(), uuid.New()

	if err := r.SetPresenter(ctx, created.ID, alice, "alice"); err != nil {
		t.Fatalf("SetPresenter(alice) failed: %v", err)
	}

	if err := r.SetPresenter(ctx, created.ID, bob, "bob"); err != runtime.ErrAlreadyPresenting {
		t.Fatalf("SetPresenter(bob) while alice presents: err = %v, want ErrAlreadyPresenting", err)
	}

	if err := r.ClearPresenter(ctx, created.ID, bob); err != runtime.ErrNotPresenting {
		t.Fatalf("ClearPresenter(bob): err = %v, want ErrNotPresenting", err)
	}

	if err := r.ClearPresenter(ctx, created.ID, alice); err != nil {
		t.Fatalf("ClearPresenter(alice) failed: %v", err)
	}

	if err := r.SetPresenter(ctx, created.ID, bob, "bob"); err != nil {
		t.Fatalf("SetPresenter(bob) after clear failed: %v", err)
	}

	info, ok := r.Info(created.ID)
	if !ok {
		t.Fatal("Info: room not found")
	}
	if info.Presenter != bob {
		t.Errorf("Presenter = %v, want %v", info.Presenter, bob)
	}
}

func TestEmptyRoomCollected(t *testing.T) {
	ctx := context.Background()
	r := newRegistry(0)

	created, _ := r.Create(ctx, input.CreateRoomInput{CreatedBy: uuid.New()})

	p := newParticipant("alice")
	if _, err := r.Join(ctx, created.ID, "", p); err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	r.RemoveConnection(ctx, created.ID, p.ConnectionID)

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, ok := r.Info(created.ID); !ok {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("empty room was not collected")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRejoinRevivesRoomWithinGrace(t *testing.T) {
	ctx := context.Background()
	r := newRegistry(50 * time.Millisecond)

	created, _ := r.Create(ctx, input.CreateRoomInput{CreatedBy: uuid.New()})

	p := newParticipant("alice")
	if _, err := r.Join(ctx, created.ID, "", p); err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	r.RemoveConnection(ctx, created.ID, p.ConnectionID)

	// Rejoin before the grace elapses.
	rejoined := newParticipant("alice")
	rejoined.UserID = p.UserID
	if _, err := r.Join(ctx, created.ID, "", rejoined); err != nil {
		t.Fatalf("rejoin failed: %v", err)
	}

	time.Sleep(120 * time.Millisecond)

	if _, ok := r.Info(created.ID); !ok {
		t.Fatal("room was collected despite the rejoin")
	}
}

func TestListPublicRooms(t *testing.T) {
	ctx := context.Background()
	r := newRegistry(time.Minute)

	if _, err := r.Create(ctx, input.CreateRoomInput{ID: "PUB001", Name: "Open", IsPublic: true, CreatedBy: uuid.New()}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := r.Create(ctx, input.CreateRoomInput{ID: "PRIV01", Name: "Hidden", CreatedBy: uuid.New()}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	summaries := r.ListPublicRooms(ctx)
	if len(summaries) != 1 {
		t.Fatalf("len(summaries) = %d, want 1", len(summaries))
	}
	if summaries[0].ID != "PUB001" {
		t.Errorf("summary ID = %q, want PUB001", summaries[0].ID)
	}
}
