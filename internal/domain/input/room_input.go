package input

type CreateRoomInput struct {
	Name     string `json:"name"`
	Password string `json:"password,omitempty"`
	MaxUsers int    `json:"maxUsers,omitempty"`

	// OwnerID пустой у постоянных комнат
	OwnerID   string `json:"-"`
	Permanent bool   `json:"-"`
}

type JoinRoomInput struct {
	RoomID   string `json:"roomId,omitempty"`
	Code     string `json:"code,omitempty"`
	Password string `json:"password,omitempty"`
}
