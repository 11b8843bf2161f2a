package constant

// Ключи атрибутов для slog
const (
	Error       = "error"
	SessionID   = "session_id"
	ConnID      = "conn_id"
	UserName    = "user_name"
	RoomID      = "room_id"
	RoomName    = "room_name"
	TargetID    = "target_id"
	EventType   = "event_type"
	ActionClass = "action_class"
	State       = "state"
)
