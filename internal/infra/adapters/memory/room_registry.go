package memory

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/qrave1/anonspeak/internal/application/constant"
	"github.com/qrave1/anonspeak/internal/application/metric"
	"github.com/qrave1/anonspeak/internal/domain/errs"
	"github.com/qrave1/anonspeak/internal/domain/identity"
	"github.com/qrave1/anonspeak/internal/domain/input"
	"github.com/qrave1/anonspeak/internal/domain/models"
)

// joinAttempts сколько раз вход перепроверяет пароль, если его сменили во время bcrypt
const joinAttempts = 3

// RoomRegistry единственный владелец комнат и сессий
type RoomRegistry interface {
	Register(connID, name string) (models.Session, bool)
	SessionByConn(connID string) (models.Session, bool)
	GetUserByID(sessionID string) (models.Session, bool)
	RemoveSession(sessionID string) (models.Departure, bool)
	SetAudioStatus(sessionID string, muted, deafened bool) (models.Session, error)
	SetSpeaking(sessionID string, speaking bool) (models.Session, error)
	OnlineUsers() []models.OnlineUser

	CreateRoom(in input.CreateRoomInput) (models.RoomInfo, error)
	SeedPermanentRooms(rooms []input.CreateRoomInput) error
	JoinRoom(roomID, sessionID, password string) (models.JoinInfo, error)
	LeaveRoom(roomID, sessionID string) (models.Departure, error)

	Kick(roomID, actorID, targetID string) (models.Departure, error)
	Ban(roomID, actorID, targetID string) (models.Departure, error)
	PromoteModerator(roomID, actorID, targetID string) (models.RoomState, error)
	DemoteModerator(roomID, actorID, targetID string) (models.RoomState, error)
	TransferOwnership(roomID, actorID, targetID string) (models.RoomState, error)

	ChangePassword(roomID, actorID, password string) (models.RoomInfo, error)
	ChangeRoomName(roomID, actorID, name string) (models.RoomState, error)
	RegenerateCode(roomID, actorID string) (string, error)
	DeleteRoom(roomID, actorID string) (models.RoomState, error)
	EvictRoom(roomID string) (models.RoomState, error)

	GetRoom(roomID string) (models.RoomInfo, error)
	GetRoomByCode(code string) (models.RoomInfo, error)
	RoomState(roomID string) (models.RoomState, error)
	PublicRooms() []models.RoomSummary
	IsOwner(roomID, sessionID string) bool
	IsModerator(roomID, sessionID string) bool
	Stats() models.Stats

	// Close останавливает таймеры отложенной очистки
	Close()
}

type RegistryOptions struct {
	// CleanupDelay через сколько удалить созданную, но так и не заполненную комнату
	CleanupDelay time.Duration

	// AllowTransferToNonMember разрешает передать владение сессии вне комнаты
	AllowTransferToNonMember bool

	// StrictDemote запрещает снимать модератора с того, кто им не является или не в комнате
	StrictDemote bool

	Now func() time.Time
}

type roomRegistry struct {
	opts RegistryOptions

	rooms     map[string]*models.Room
	roomOrder []string
	sessions  map[string]*models.Session
	byConn    map[string]string
	timers    map[string]*time.Timer

	// revision растет на каждом снимке, порядок снимков совпадает с порядком под mu
	revision uint64

	mu sync.Mutex
}

func NewRoomRegistry(opts RegistryOptions) RoomRegistry {
	if opts.CleanupDelay <= 0 {
		opts.CleanupDelay = time.Hour
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &roomRegistry{
		opts:     opts,
		rooms:    make(map[string]*models.Room, 16),
		sessions: make(map[string]*models.Session, 64),
		byConn:   make(map[string]string, 64),
		timers:   make(map[string]*time.Timer, 16),
	}
}

// Register создает сессию для соединения. Повторный вызов переименовывает существующую.
func (r *roomRegistry) Register(connID, name string) (models.Session, bool) {
	name = identity.ValidateName(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.byConn[connID]; ok {
		s := r.sessions[id]
		s.Name = name
		return *s, false
	}

	s := models.NewSession(identity.GenerateID(), connID, name, identity.GenerateFingerprint(), r.opts.Now())

	r.sessions[s.ID] = s
	r.byConn[connID] = s.ID

	r.updateGauges()

	return *s, true
}

func (r *roomRegistry) SessionByConn(connID string) (models.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byConn[connID]
	if !ok {
		return models.Session{}, false
	}

	return *r.sessions[id], true
}

func (r *roomRegistry) GetUserByID(sessionID string) (models.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return models.Session{}, false
	}

	return *s, true
}

// RemoveSession выводит сессию из комнаты и удаляет ее. Комнаты, которыми она владела, остаются без владельца.
func (r *roomRegistry) RemoveSession(sessionID string) (models.Departure, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return models.Departure{}, false
	}

	current, inRoom := r.rooms[s.RoomID]

	var dep models.Departure
	if inRoom {
		dep.Session = r.memberView(current, s)
	} else {
		dep.Session = r.memberView(nil, s)
	}

	for _, room := range r.rooms {
		if room.OwnerID == sessionID {
			room.OwnerID = ""
		}
		delete(room.Moderators, sessionID)
	}

	if inRoom {
		dep.Room = r.detach(current, s)
	}

	delete(r.sessions, sessionID)
	delete(r.byConn, s.ConnID)

	r.updateGauges()

	return dep, true
}

func (r *roomRegistry) SetAudioStatus(sessionID string, muted, deafened bool) (models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return models.Session{}, errs.ErrNotAuthenticated
	}

	s.Muted = muted
	s.Deafened = deafened

	return *s, nil
}

func (r *roomRegistry) SetSpeaking(sessionID string, speaking bool) (models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return models.Session{}, errs.ErrNotAuthenticated
	}

	s.Speaking = speaking

	return *s, nil
}

func (r *roomRegistry) OnlineUsers() []models.OnlineUser {
	r.mu.Lock()
	defer r.mu.Unlock()

	sessions := make([]*models.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}

	slices.SortFunc(sessions, func(a, b *models.Session) int {
		if c := a.ConnectedAt.Compare(b.ConnectedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})

	users := make([]models.OnlineUser, 0, len(sessions))
	for _, s := range sessions {
		users = append(users, s.Online())
	}

	return users
}

func (r *roomRegistry) CreateRoom(in input.CreateRoomInput) (models.RoomInfo, error) {
	var hash string
	if in.Password != "" {
		var err error

		hash, err = identity.HashPassword(in.Password)
		if err != nil {
			return models.RoomInfo{}, fmt.Errorf("create room: %w: %w", errs.ErrInvalidOperation, err)
		}
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = models.DefaultRoomName
	}
	name = identity.SanitizeText(name, models.MaxRoomNameLength)

	r.mu.Lock()
	defer r.mu.Unlock()

	if in.OwnerID != "" {
		if _, ok := r.sessions[in.OwnerID]; !ok {
			return models.RoomInfo{}, errs.ErrNotAuthenticated
		}
	}

	room := models.NewRoom(
		identity.GenerateID(),
		identity.GenerateRoomCode(),
		name,
		hash,
		in.MaxUsers,
		in.OwnerID,
		in.Permanent,
		r.opts.Now(),
	)

	r.rooms[room.ID] = room
	r.roomOrder = append(r.roomOrder, room.ID)

	if !room.Permanent {
		r.scheduleCleanup(room.ID)
	}

	r.updateGauges()

	return room.Info(), nil
}

// SeedPermanentRooms постоянные комнаты без владельца, создаются при старте
func (r *roomRegistry) SeedPermanentRooms(rooms []input.CreateRoomInput) error {
	for _, in := range rooms {
		in.OwnerID = ""
		in.Permanent = true

		if _, err := r.CreateRoom(in); err != nil {
			return fmt.Errorf("seed room %q: %w", in.Name, err)
		}
	}

	return nil
}

// JoinRoom проверки по порядку: комната есть, нет бана, пароль, место, еще не участник.
// При успехе сессия атомарно переходит из предыдущей комнаты.
func (r *roomRegistry) JoinRoom(roomID, sessionID, password string) (models.JoinInfo, error) {
	for range joinAttempts {
		hash, err := r.joinPrecheck(roomID, sessionID)
		if err != nil {
			return models.JoinInfo{}, err
		}

		verified := hash == "" || identity.VerifyPassword(password, hash)

		info, retry, err := r.join(roomID, sessionID, hash, verified)
		if !retry {
			return info, err
		}
	}

	return models.JoinInfo{}, fmt.Errorf("join room %s: password changed concurrently: %w", roomID, errs.ErrInvalidPassword)
}

// joinPrecheck ранние проверки и текущий хеш пароля для проверки вне блокировки
func (r *roomRegistry) joinPrecheck(roomID, sessionID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return "", errs.ErrNotAuthenticated
	}

	room, ok := r.rooms[roomID]
	if !ok {
		return "", errs.ErrRoomNotFound
	}

	if room.IsBanned(s.Fingerprint) {
		return "", fmt.Errorf("join room %s: banned: %w", roomID, errs.ErrForbidden)
	}

	return room.PasswordHash, nil
}

func (r *roomRegistry) join(roomID, sessionID, checkedHash string, verified bool) (models.JoinInfo, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return models.JoinInfo{}, false, errs.ErrNotAuthenticated
	}

	room, ok := r.rooms[roomID]
	if !ok {
		return models.JoinInfo{}, false, errs.ErrRoomNotFound
	}

	if room.IsBanned(s.Fingerprint) {
		return models.JoinInfo{}, false, fmt.Errorf("join room %s: banned: %w", roomID, errs.ErrForbidden)
	}

	if room.PasswordHash != checkedHash {
		return models.JoinInfo{}, true, nil
	}

	if !verified {
		return models.JoinInfo{}, false, errs.ErrInvalidPassword
	}

	if room.IsFull() {
		return models.JoinInfo{}, false, errs.ErrRoomFull
	}

	if room.HasMember(sessionID) {
		return models.JoinInfo{}, false, errs.ErrAlreadyMember
	}

	var info models.JoinInfo

	if prev, ok := r.rooms[s.RoomID]; ok && prev.ID != room.ID {
		state := r.detach(prev, s)
		info.Previous = &state
	}

	room.AddMember(sessionID)
	s.RoomID = room.ID

	state := r.snapshot(room)
	info.Room = state.Room
	info.Members = state.Members
	info.Revision = state.Revision
	info.IsOwner = room.IsOwner(sessionID)
	info.IsModerator = room.IsModerator(sessionID)

	r.updateGauges()

	return info, false, nil
}

func (r *roomRegistry) LeaveRoom(roomID, sessionID string) (models.Departure, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return models.Departure{}, errs.ErrNotAuthenticated
	}

	room, ok := r.rooms[roomID]
	if !ok {
		return models.Departure{}, errs.ErrRoomNotFound
	}

	if !room.HasMember(sessionID) {
		return models.Departure{}, fmt.Errorf("leave room %s: not a member: %w", roomID, errs.ErrInvalidOperation)
	}

	view := r.memberView(room, s)
	state := r.detach(room, s)

	r.updateGauges()

	return models.Departure{Session: view, Room: state}, nil
}

func (r *roomRegistry) Kick(roomID, actorID, targetID string) (models.Departure, error) {
	return r.removeTarget(roomID, actorID, targetID, false)
}

// Ban как Kick, но отпечаток цели остается в бан-листе до удаления комнаты
func (r *roomRegistry) Ban(roomID, actorID, targetID string) (models.Departure, error) {
	return r.removeTarget(roomID, actorID, targetID, true)
}

func (r *roomRegistry) removeTarget(roomID, actorID, targetID string, ban bool) (models.Departure, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, err := r.moderatedRoom(roomID, actorID)
	if err != nil {
		return models.Departure{}, err
	}

	if targetID == actorID {
		return models.Departure{}, fmt.Errorf("cannot remove yourself: %w", errs.ErrInvalidOperation)
	}

	if room.IsOwner(targetID) {
		return models.Departure{}, fmt.Errorf("cannot remove the owner: %w", errs.ErrInvalidOperation)
	}

	target, ok := r.sessions[targetID]
	if !ok || !room.HasMember(targetID) {
		return models.Departure{}, fmt.Errorf("target is not in the room: %w", errs.ErrInvalidOperation)
	}

	if ban {
		room.Ban(target.Fingerprint)
	}

	view := r.memberView(room, target)
	state := r.detach(room, target)

	r.updateGauges()

	return models.Departure{Session: view, Room: state}, nil
}

func (r *roomRegistry) PromoteModerator(roomID, actorID, targetID string) (models.RoomState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, err := r.ownedRoom(roomID, actorID)
	if err != nil {
		return models.RoomState{}, err
	}

	if room.IsOwner(targetID) {
		return models.RoomState{}, fmt.Errorf("owner is already a moderator: %w", errs.ErrInvalidOperation)
	}

	room.Moderators[targetID] = struct{}{}

	return r.snapshot(room), nil
}

func (r *roomRegistry) DemoteModerator(roomID, actorID, targetID string) (models.RoomState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, err := r.ownedRoom(roomID, actorID)
	if err != nil {
		return models.RoomState{}, err
	}

	if r.opts.StrictDemote {
		if _, ok := room.Moderators[targetID]; !ok || !room.HasMember(targetID) {
			return models.RoomState{}, fmt.Errorf("target is not a moderator in the room: %w", errs.ErrInvalidOperation)
		}
	}

	delete(room.Moderators, targetID)

	return r.snapshot(room), nil
}

// TransferOwnership новый владелец становится и модератором. Явная модерация старого владельца сохраняется.
func (r *roomRegistry) TransferOwnership(roomID, actorID, targetID string) (models.RoomState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, err := r.ownedRoom(roomID, actorID)
	if err != nil {
		return models.RoomState{}, err
	}

	if targetID == "" || targetID == actorID {
		return models.RoomState{}, fmt.Errorf("invalid transfer target: %w", errs.ErrInvalidOperation)
	}

	if !r.opts.AllowTransferToNonMember && !room.HasMember(targetID) {
		return models.RoomState{}, fmt.Errorf("transfer target is not in the room: %w", errs.ErrInvalidOperation)
	}

	room.OwnerID = targetID
	room.Moderators[targetID] = struct{}{}

	return r.snapshot(room), nil
}

// ChangePassword пустой пароль снимает защиту. Хеширование вне блокировки.
func (r *roomRegistry) ChangePassword(roomID, actorID, password string) (models.RoomInfo, error) {
	if err := r.checkOwner(roomID, actorID); err != nil {
		return models.RoomInfo{}, err
	}

	var hash string
	if password != "" {
		var err error

		hash, err = identity.HashPassword(password)
		if err != nil {
			return models.RoomInfo{}, fmt.Errorf("change password: %w: %w", errs.ErrInvalidOperation, err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	room, err := r.ownedRoom(roomID, actorID)
	if err != nil {
		return models.RoomInfo{}, err
	}

	room.PasswordHash = hash

	return room.Info(), nil
}

func (r *roomRegistry) ChangeRoomName(roomID, actorID, name string) (models.RoomState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, err := r.ownedRoom(roomID, actorID)
	if err != nil {
		return models.RoomState{}, err
	}

	if room.Permanent {
		return models.RoomState{}, fmt.Errorf("rename permanent room: %w", errs.ErrInvalidOperation)
	}

	room.Name = identity.SanitizeText(name, models.MaxRoomNameLength)

	return r.snapshot(room), nil
}

func (r *roomRegistry) RegenerateCode(roomID, actorID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, err := r.ownedRoom(roomID, actorID)
	if err != nil {
		return "", err
	}

	room.Code = identity.GenerateRoomCode()

	return room.Code, nil
}

// DeleteRoom возвращает снимок участников до удаления, чтобы их уведомить
func (r *roomRegistry) DeleteRoom(roomID, actorID string) (models.RoomState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, err := r.ownedRoom(roomID, actorID)
	if err != nil {
		return models.RoomState{}, err
	}

	return r.deleteLocked(room)
}

// EvictRoom удаление оператором, без проверки владельца
func (r *roomRegistry) EvictRoom(roomID string) (models.RoomState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return models.RoomState{}, errs.ErrRoomNotFound
	}

	return r.deleteLocked(room)
}

func (r *roomRegistry) deleteLocked(room *models.Room) (models.RoomState, error) {
	if room.Permanent {
		return models.RoomState{}, fmt.Errorf("delete permanent room: %w", errs.ErrInvalidOperation)
	}

	state := r.snapshot(room)
	state.Deleted = true

	for _, id := range room.Members {
		if s, ok := r.sessions[id]; ok {
			s.RoomID = ""
		}
	}

	r.removeRoom(room.ID)
	r.updateGauges()

	return state, nil
}

func (r *roomRegistry) GetRoom(roomID string) (models.RoomInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return models.RoomInfo{}, errs.ErrRoomNotFound
	}

	return room.Info(), nil
}

// GetRoomByCode без учета регистра, первая по времени создания
func (r *roomRegistry) GetRoomByCode(code string) (models.RoomInfo, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return models.RoomInfo{}, errs.ErrRoomNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range r.roomOrder {
		if room := r.rooms[id]; room.Code == code {
			return room.Info(), nil
		}
	}

	return models.RoomInfo{}, errs.ErrRoomNotFound
}

func (r *roomRegistry) RoomState(roomID string) (models.RoomState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return models.RoomState{}, errs.ErrRoomNotFound
	}

	return r.snapshot(room), nil
}

func (r *roomRegistry) PublicRooms() []models.RoomSummary {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := make([]models.RoomSummary, 0, len(r.roomOrder))
	for _, id := range r.roomOrder {
		list = append(list, r.rooms[id].Summary())
	}

	return list
}

func (r *roomRegistry) IsOwner(roomID, sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	return ok && room.IsOwner(sessionID)
}

func (r *roomRegistry) IsModerator(roomID, sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	return ok && room.IsModerator(sessionID)
}

func (r *roomRegistry) Stats() models.Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := models.Stats{
		CurrentUsers: len(r.sessions),
		TotalRooms:   len(r.rooms),
	}

	for _, room := range r.rooms {
		stats.RoomMembers += len(room.Members)
	}

	if stats.TotalRooms > 0 {
		stats.AvgRoomSize = float64(stats.RoomMembers) / float64(stats.TotalRooms)
	}

	return stats
}

func (r *roomRegistry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, t := range r.timers {
		t.Stop()
		delete(r.timers, id)
	}
}

// checkOwner быстрая проверка прав до дорогой операции вне блокировки
func (r *roomRegistry) checkOwner(roomID, actorID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.ownedRoom(roomID, actorID)
	return err
}

// ownedRoom комната, где actor - участник и владелец. Требует r.mu.
func (r *roomRegistry) ownedRoom(roomID, actorID string) (*models.Room, error) {
	room, err := r.memberRoom(roomID, actorID)
	if err != nil {
		return nil, err
	}

	if !room.IsOwner(actorID) {
		return nil, fmt.Errorf("owner only: %w", errs.ErrForbidden)
	}

	return room, nil
}

// moderatedRoom комната, где actor - участник и модератор. Требует r.mu.
func (r *roomRegistry) moderatedRoom(roomID, actorID string) (*models.Room, error) {
	room, err := r.memberRoom(roomID, actorID)
	if err != nil {
		return nil, err
	}

	if !room.IsModerator(actorID) {
		return nil, fmt.Errorf("moderator only: %w", errs.ErrForbidden)
	}

	return room, nil
}

func (r *roomRegistry) memberRoom(roomID, actorID string) (*models.Room, error) {
	if _, ok := r.sessions[actorID]; !ok {
		return nil, errs.ErrNotAuthenticated
	}

	room, ok := r.rooms[roomID]
	if !ok {
		return nil, errs.ErrRoomNotFound
	}

	if !room.HasMember(actorID) {
		return nil, fmt.Errorf("not in the room: %w", errs.ErrForbidden)
	}

	return room, nil
}

// detach убирает сессию из комнаты и удаляет пустую временную комнату. Требует r.mu.
func (r *roomRegistry) detach(room *models.Room, s *models.Session) models.RoomState {
	room.RemoveMember(s.ID)
	if s.RoomID == room.ID {
		s.RoomID = ""
	}

	state := r.snapshot(room)

	if room.IsEmpty() && !room.Permanent {
		r.removeRoom(room.ID)
		state.Deleted = true
	}

	return state
}

func (r *roomRegistry) removeRoom(roomID string) {
	delete(r.rooms, roomID)
	r.roomOrder = slices.DeleteFunc(r.roomOrder, func(id string) bool { return id == roomID })

	if t, ok := r.timers[roomID]; ok {
		t.Stop()
		delete(r.timers, roomID)
	}
}

func (r *roomRegistry) scheduleCleanup(roomID string) {
	r.timers[roomID] = time.AfterFunc(r.opts.CleanupDelay, func() {
		r.cleanupIfEmpty(roomID)
	})
}

// cleanupIfEmpty комната могла быть уже удалена или заполнена
func (r *roomRegistry) cleanupIfEmpty(roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.timers, roomID)

	room, ok := r.rooms[roomID]
	if !ok || room.Permanent || !room.IsEmpty() {
		return
	}

	r.removeRoom(roomID)
	r.updateGauges()

	slog.Info(
		"empty room removed by deferred cleanup",
		slog.String(constant.RoomID, roomID),
		slog.String(constant.RoomName, room.Name),
	)
}

func (r *roomRegistry) snapshot(room *models.Room) models.RoomState {
	members := make([]models.MemberView, 0, len(room.Members))

	for _, id := range room.Members {
		if s, ok := r.sessions[id]; ok {
			members = append(members, r.memberView(room, s))
		}
	}

	r.revision++

	return models.RoomState{Room: room.Info(), Members: members, Revision: r.revision}
}

// memberView роли считаются от комнаты, room может быть nil
func (r *roomRegistry) memberView(room *models.Room, s *models.Session) models.MemberView {
	view := models.MemberView{
		ID:       s.ID,
		Name:     s.Name,
		Muted:    s.Muted,
		Deafened: s.Deafened,
		ConnID:   s.ConnID,
	}

	if room != nil {
		view.IsOwner = room.IsOwner(s.ID)
		view.IsModerator = room.IsModerator(s.ID)
	}

	return view
}

func (r *roomRegistry) updateGauges() {
	metric.SetActiveRooms(len(r.rooms))
	metric.SetActiveSessions(len(r.sessions))
}
