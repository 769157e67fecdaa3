package memory

import (
	"sync"

	"github.com/google/uuid"

	"github.com/voicebridge/voicebridge/internal/domain/runtime"
)

// PeerLinkRepository tracks one negotiation pairing per
// (presenter, viewer) while a presentation is active. The exchange
// itself is client-driven; the server only records that a link should
// exist and how far it has progressed.
type PeerLinkRepository interface {
	// Create registers a link, or returns the existing one for the pair.
	Create(roomID string, presenter, viewer uuid.UUID) runtime.PeerLink

	Get(roomID string, viewer uuid.UUID) (runtime.PeerLink, bool)

	// Advance moves a link forward; backwards transitions are ignored.
	Advance(roomID string, viewer uuid.UUID, state runtime.LinkState)

	// CloseViewer closes the viewer's link, when a viewer leaves.
	CloseViewer(roomID string, viewer uuid.UUID)

	// CloseRoom closes every link of a room and returns them.
	CloseRoom(roomID string) []runtime.PeerLink

	InRoom(roomID string) []runtime.PeerLink
}

var linkOrder = map[runtime.LinkState]int{
	runtime.LinkNone:           0,
	runtime.LinkOfferSent:      1,
	runtime.LinkAnswerReceived: 2,
	runtime.LinkICEExchanging:  3,
	runtime.LinkConnected:      4,
	runtime.LinkClosed:         5,
}

type peerLinkRepository struct {
	// links holds map[room_id]map[viewer_id]*link.
	links map[string]map[uuid.UUID]*runtime.PeerLink

	mu sync.RWMutex
}

func NewPeerLinkRepository() PeerLinkRepository {
	return &peerLinkRepository{
		links: make(map[string]map[uuid.UUID]*runtime.PeerLink),
	}
}

func (r *peerLinkRepository) Create(roomID string, presenter, viewer uuid.UUID) runtime.PeerLink {
	r.mu.Lock()
	defer r.mu.Unlock()

	roomLinks, ok := r.links[roomID]
	if !ok {
		roomLinks = make(map[uuid.UUID]*runtime.PeerLink)
		r.links[roomID] = roomLinks
	}

	if link, exists := roomLinks[viewer]; exists && link.Presenter == presenter && link.State != runtime.LinkClosed {
		return *link
	}

	link := &runtime.PeerLink{
		RoomID:    roomID,
		Presenter: presenter,
		Viewer:    viewer,
		State:     runtime.LinkNone,
	}
	roomLinks[viewer] = link

	return *link
}

func (r *peerLinkRepository) Get(roomID string, viewer uuid.UUID) (runtime.PeerLink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	link, ok := r.links[roomID][viewer]
	if !ok {
		return runtime.PeerLink{}, false
	}

	return *link, true
}

func (r *peerLinkRepository) Advance(roomID string, viewer uuid.UUID, state runtime.LinkState) {
	r.mu.Lock()
	defer r.mu.Unlock()

	link, ok := r.links[roomID][viewer]
	if !ok || link.State == runtime.LinkClosed {
		return
	}

	if linkOrder[state] > linkOrder[link.State] {
		link.State = state
	}
}

func (r *peerLinkRepository) CloseViewer(roomID string, viewer uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if link, ok := r.links[roomID][viewer]; ok {
		link.State = runtime.LinkClosed
		delete(r.links[roomID], viewer)

		if len(r.links[roomID]) == 0 {
			delete(r.links, roomID)
		}
	}
}

func (r *peerLinkRepository) CloseRoom(roomID string) []runtime.PeerLink {
	r.mu.Lock()
	defer r.mu.Unlock()

	roomLinks := r.links[roomID]
	closed := make([]runtime.PeerLink, 0, len(roomLinks))

	for _, link := range roomLinks {
		link.State = runtime.LinkClosed
		closed = append(closed, *link)
	}

	delete(r.links, roomID)

	return closed
}

func (r *peerLinkRepository) InRoom(roomID string) []runtime.PeerLink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	roomLinks := r.links[roomID]
	links := make([]runtime.PeerLink, 0, len(roomLinks))

	for _, link := range roomLinks {
		links = append(links, *link)
	}

	return links
}
