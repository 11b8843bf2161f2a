package models

import (
	"slices"
	"time"
)

const (
	DefaultMaxUsers = 10
	MinMaxUsers     = 2
	MaxMaxUsers     = 100

	MaxRoomNameLength = 50
	DefaultRoomName   = "Private Room"
)

// Room - комната. Живет только в памяти реестра, наружу отдаются снимки.
type Room struct {
	ID           string
	Code         string
	Name         string
	PasswordHash string
	MaxUsers     int
	OwnerID      string
	Permanent    bool
	CreatedAt    time.Time

	// Members в порядке входа
	Members            []string
	BannedFingerprints map[string]struct{}
	Moderators         map[string]struct{}
}

func NewRoom(id, code, name, passwordHash string, maxUsers int, ownerID string, permanent bool, now time.Time) *Room {
	return &Room{
		ID:                 id,
		Code:               code,
		Name:               name,
		PasswordHash:       passwordHash,
		MaxUsers:           ClampMaxUsers(maxUsers),
		OwnerID:            ownerID,
		Permanent:          permanent,
		CreatedAt:          now,
		BannedFingerprints: make(map[string]struct{}),
		Moderators:         make(map[string]struct{}),
	}
}

// ClampMaxUsers 0 и меньше - значение по умолчанию, остальное в [2,100]
func ClampMaxUsers(n int) int {
	if n <= 0 {
		n = DefaultMaxUsers
	}

	return min(max(n, MinMaxUsers), MaxMaxUsers)
}

func (r *Room) HasPassword() bool {
	return r.PasswordHash != ""
}

func (r *Room) IsFull() bool {
	return len(r.Members) >= r.MaxUsers
}

func (r *Room) IsEmpty() bool {
	return len(r.Members) == 0
}

func (r *Room) HasMember(sessionID string) bool {
	return slices.Contains(r.Members, sessionID)
}

func (r *Room) AddMember(sessionID string) {
	r.Members = append(r.Members, sessionID)
}

func (r *Room) RemoveMember(sessionID string) bool {
	before := len(r.Members)
	r.Members = slices.DeleteFunc(r.Members, func(id string) bool { return id == sessionID })

	return len(r.Members) != before
}

func (r *Room) IsOwner(sessionID string) bool {
	return sessionID != "" && r.OwnerID == sessionID
}

// IsModerator владелец всегда модератор
func (r *Room) IsModerator(sessionID string) bool {
	if r.IsOwner(sessionID) {
		return true
	}

	_, ok := r.Moderators[sessionID]
	return ok
}

func (r *Room) IsBanned(fingerprint string) bool {
	_, ok := r.BannedFingerprints[fingerprint]
	return ok
}

func (r *Room) Ban(fingerprint string) {
	r.BannedFingerprints[fingerprint] = struct{}{}
}

func (r *Room) Info() RoomInfo {
	return RoomInfo{
		ID:          r.ID,
		Name:        r.Name,
		Code:        r.Code,
		HasPassword: r.HasPassword(),
		OwnerID:     r.OwnerID,
		Permanent:   r.Permanent,
		MaxUsers:    r.MaxUsers,
		UserCount:   len(r.Members),
		CreatedAt:   r.CreatedAt,
	}
}

func (r *Room) Summary() RoomSummary {
	return RoomSummary{
		ID:          r.ID,
		Name:        r.Name,
		UserCount:   len(r.Members),
		MaxUsers:    r.MaxUsers,
		HasPassword: r.HasPassword(),
		Permanent:   r.Permanent,
	}
}
