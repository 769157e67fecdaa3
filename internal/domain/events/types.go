package events

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Message is the common websocket frame envelope.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// New builds an outgoing frame with a marshaled payload.
func New(messageType string, payload any) (Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("marshal %s payload: %w", messageType, err)
	}

	return Message{Type: messageType, Data: data}, nil
}

// Inbound message types.
const (
	TypeJoin              = "join"
	TypeChat              = "chat"
	TypeSpeech            = "speech"
	TypeSignalOffer       = "signal_offer"
	TypeSignalAnswer      = "signal_answer"
	TypeSignalICE         = "signal_ice"
	TypeStartPresentation = "start_presentation"
	TypeStopPresentation  = "stop_presentation"
	TypePing              = "ping"
)

// Outbound message types.
const (
	TypeRoomJoined          = "room_joined"
	TypeParticipants        = "participants"
	TypeSystem              = "system"
	TypeChatMessage         = "chat_message"
	TypeTranslatedMessage   = "message"
	TypePresentationStarted = "presentation_started"
	TypePresentationStopped = "presentation_stopped"
	TypeNewViewer           = "new_viewer"
	TypeError               = "error"
	TypePong                = "pong"
)

// Error codes carried by ErrorEvent.
const (
	CodeRoomNotFound      = "room_not_found"
	CodeWrongPassword     = "wrong_password"
	CodeAlreadyPresenting = "already_presenting"
	CodeNotPresenting     = "not_presenting"
	CodeBadRequest        = "bad_request"
)

// JoinEvent is the first frame a client sends after connecting. An
// empty or "CREATE" RoomID requests creation of a new room.
type JoinEvent struct {
	RoomID   string `json:"room_id"`
	RoomName string `json:"room_name"`
	Password string `json:"password"`
	IsPublic bool   `json:"is_public"`
	Language string `json:"language"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

type ChatEvent struct {
	Text string `json:"text"`
}

type SpeechEvent struct {
	Text string `json:"text"`
}

// SignalEvent carries one leg of a WebRTC negotiation. Payload is an
// opaque blob (SDP or ICE candidate) the server never inspects.
type SignalEvent struct {
	Target  uuid.UUID       `json:"target"`
	Payload json.RawMessage `json:"payload"`
}

// SignalForward is the unicast frame delivered to the target.
type SignalForward struct {
	Sender     uuid.UUID       `json:"sender"`
	SenderName string          `json:"sender_name"`
	Payload    json.RawMessage `json:"payload"`
}

type RoomJoinedEvent struct {
	RoomID   string    `json:"room_id"`
	RoomName string    `json:"room_name"`
	UserID   uuid.UUID `json:"user_id"`
	UserName string    `json:"user_name"`
}

type ParticipantInfo struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Language  string    `json:"language"`
	Role      string    `json:"role"`
	AvatarURL string    `json:"avatar_url,omitempty"`
}

type ParticipantListEvent struct {
	Participants []ParticipantInfo `json:"participants"`
}

type SystemEvent struct {
	Message string `json:"message"`
}

type ChatMessageEvent struct {
	SenderID   uuid.UUID `json:"sender_id"`
	SenderName string    `json:"sender_name"`
	Text       string    `json:"text"`
	RoomID     string    `json:"room_id"`
}

// TranslatedMessageEvent is the per-recipient result of a speech
// broadcast. TranslationFailed marks delivery of the untranslated
// original after a translator error.
type TranslatedMessageEvent struct {
	SenderID          uuid.UUID `json:"sender_id"`
	SenderName        string    `json:"sender_name"`
	SenderLang        string    `json:"sender_lang"`
	OriginalText      string    `json:"original_text"`
	TranslatedText    string    `json:"translated_text"`
	TargetLang        string    `json:"target_lang"`
	AudioURL          string    `json:"audio_url,omitempty"`
	IsSelf            bool      `json:"is_self"`
	RoomID            string    `json:"room_id"`
	TranslationFailed bool      `json:"translation_failed,omitempty"`
}

type PresentationStartedEvent struct {
	PresenterID   uuid.UUID `json:"presenter_id"`
	PresenterName string    `json:"presenter_name"`
}

type PresentationStoppedEvent struct {
	PresenterID uuid.UUID `json:"presenter_id"`
}

type NewViewerEvent struct {
	ViewerID   uuid.UUID `json:"viewer_id"`
	ViewerName string    `json:"viewer_name"`
}

type ErrorEvent struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
