package runtime

// Conn is a single transport handle to one client device. The concrete
// implementation wraps a websocket connection; tests substitute fakes.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}
