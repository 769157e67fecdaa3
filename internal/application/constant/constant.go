package constant

const (
	Error        = "error"
	UserID       = "user_id"
	UserName     = "user_name"
	RoomID       = "room_id"
	ConnectionID = "connection_id"
	MessageType  = "message_type"
	TargetID     = "target_id"
)
