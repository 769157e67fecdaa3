package output

// RoomSummary is the lobby view of a public room.
type RoomSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	UsersCount  int    `json:"users_count"`
	HasPassword bool   `json:"has_password"`
}
