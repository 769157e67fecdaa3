package store

import (
	"context"

	"github.com/voicebridge/voicebridge/internal/domain/output"
)

// NopStore is used when no Redis URL is configured. The lobby then
// only sees rooms held by this instance.
type NopStore struct{}

func NewNopStore() *NopStore {
	return &NopStore{}
}

func (*NopStore) SaveRoom(context.Context, RoomRecord) error            { return nil }
func (*NopStore) SetUserCount(context.Context, string, int) error       { return nil }
func (*NopStore) DeleteRoom(context.Context, string) error              { return nil }
func (*NopStore) PublishMembership(context.Context, MembershipEvent) error { return nil }
func (*NopStore) Close() error                                          { return nil }

func (*NopStore) ListPublicRooms(context.Context) ([]output.RoomSummary, error) {
	return nil, nil
}

func (*NopStore) SubscribeMembership(ctx context.Context) (<-chan MembershipEvent, error) {
	events := make(chan MembershipEvent)

	go func() {
		<-ctx.Done()
		close(events)
	}()

	return events, nil
}
