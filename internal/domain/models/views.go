package models

import "time"

// RoomInfo - метаданные комнаты для участников. Без хеша пароля и банов.
type RoomInfo struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Code        string    `json:"code"`
	HasPassword bool      `json:"hasPassword"`
	OwnerID     string    `json:"ownerId,omitempty"`
	Permanent   bool      `json:"permanent"`
	MaxUsers    int       `json:"maxUsers"`
	UserCount   int       `json:"userCount"`
	CreatedAt   time.Time `json:"createdAt"`
}

// RoomSummary - элемент публичного списка rooms-update
type RoomSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	UserCount   int    `json:"userCount"`
	MaxUsers    int    `json:"maxUsers"`
	HasPassword bool   `json:"hasPassword"`
	Permanent   bool   `json:"permanent"`
}

// MemberView - участник комнаты с ролями на момент снимка
type MemberView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Muted       bool   `json:"muted"`
	Deafened    bool   `json:"deafened"`
	IsOwner     bool   `json:"isOwner"`
	IsModerator bool   `json:"isModerator"`

	ConnID string `json:"-"`
}

// RoomState - снимок комнаты, снятый в той же критической секции что и мутация
type RoomState struct {
	Room    RoomInfo
	Members []MemberView

	// Deleted комната удалена этой мутацией
	Deleted bool

	// Revision порядковый номер снимка. Клиент отбрасывает users-update с меньшим номером.
	Revision uint64
}

func (s RoomState) ConnIDs(exclude ...string) []string {
	ids := make([]string, 0, len(s.Members))

outer:
	for _, m := range s.Members {
		for _, ex := range exclude {
			if m.ID == ex {
				continue outer
			}
		}
		ids = append(ids, m.ConnID)
	}

	return ids
}

func (s RoomState) Member(sessionID string) (MemberView, bool) {
	for _, m := range s.Members {
		if m.ID == sessionID {
			return m, true
		}
	}

	return MemberView{}, false
}

// JoinInfo - результат входа в комнату
type JoinInfo struct {
	Room        RoomInfo
	Members     []MemberView
	IsOwner     bool
	IsModerator bool
	Revision    uint64

	// Previous комната, из которой сессия вышла при переходе, если была
	Previous *RoomState
}

func (j JoinInfo) State() RoomState {
	return RoomState{Room: j.Room, Members: j.Members, Revision: j.Revision}
}

// Departure - результат выхода, кика, бана или отключения
type Departure struct {
	Session MemberView
	Room    RoomState
}

type Stats struct {
	CurrentUsers int     `json:"currentUsers"`
	TotalRooms   int     `json:"totalRooms"`
	RoomMembers  int     `json:"roomMembers"`
	AvgRoomSize  float64 `json:"avgRoomSize"`
}
