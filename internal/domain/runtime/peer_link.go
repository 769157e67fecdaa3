package runtime

import "github.com/google/uuid"

// LinkState tracks how far the client-driven offer/answer exchange for
// one presenter-viewer pair has progressed. The server never inspects
// SDP; it only records that a link should exist and where it stands.
type LinkState string

const (
	LinkNone           LinkState = "none"
	LinkOfferSent      LinkState = "offer_sent"
	LinkAnswerReceived LinkState = "answer_received"
	LinkICEExchanging  LinkState = "ice_exchanging"
	LinkConnected      LinkState = "connected"
	LinkClosed         LinkState = "closed"
)

// PeerLink is the tracked negotiation pairing between the active
// presenter of a room and one viewer.
type PeerLink struct {
	RoomID    string
	Presenter uuid.UUID
	Viewer    uuid.UUID
	State     LinkState
}
