package models

import "time"

// Session - анонимная личность, живет пока живо соединение
type Session struct {
	ID          string    `json:"id"`
	ConnID      string    `json:"-"`
	Name        string    `json:"name"`
	Fingerprint string    `json:"-"`
	Muted       bool      `json:"muted"`
	Deafened    bool      `json:"deafened"`
	Speaking    bool      `json:"-"`
	RoomID      string    `json:"roomId,omitempty"`
	ConnectedAt time.Time `json:"connectedAt"`
}

func NewSession(id, connID, name, fingerprint string, now time.Time) *Session {
	return &Session{
		ID:          id,
		ConnID:      connID,
		Name:        name,
		Fingerprint: fingerprint,
		ConnectedAt: now,
	}
}

// OnlineUser - элемент глобального списка online-users
type OnlineUser struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Muted    bool   `json:"muted"`
	Deafened bool   `json:"deafened"`
	RoomID   string `json:"roomId,omitempty"`
}

func (s *Session) Online() OnlineUser {
	return OnlineUser{
		ID:       s.ID,
		Name:     s.Name,
		Muted:    s.Muted,
		Deafened: s.Deafened,
		RoomID:   s.RoomID,
	}
}
