package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/qrave1/anonspeak/internal/application/constant"
	"github.com/qrave1/anonspeak/internal/application/metric"
	"github.com/qrave1/anonspeak/internal/domain/errs"
	"github.com/qrave1/anonspeak/internal/domain/events"
	"github.com/qrave1/anonspeak/internal/domain/identity"
	"github.com/qrave1/anonspeak/internal/domain/input"
	"github.com/qrave1/anonspeak/internal/domain/models"
	"github.com/qrave1/anonspeak/internal/infra/adapters/memory"
)

// MaxMessageLength лимит текста чата и личных сообщений
const MaxMessageLength = 500

// SignalingUsecase обрабатывает события одного соединения.
// Ошибки возвращаются только инициатору, все рассылки делает usecase.
type SignalingUsecase interface {
	Register(ctx context.Context, connID string, ev events.RegisterEvent) (events.RegisterResult, error)
	CreateRoom(ctx context.Context, connID string, in input.CreateRoomInput) (events.CreateRoomResult, error)
	JoinRoom(ctx context.Context, connID string, in input.JoinRoomInput) (events.JoinRoomResult, error)
	LeaveRoom(ctx context.Context, connID string) error

	Kick(ctx context.Context, connID, targetID string) error
	Ban(ctx context.Context, connID, targetID string) error
	PromoteModerator(ctx context.Context, connID, targetID string) error
	DemoteModerator(ctx context.Context, connID, targetID string) error
	TransferOwnership(ctx context.Context, connID, targetID string) error

	ChangePassword(ctx context.Context, connID, password string) error
	ChangeRoomName(ctx context.Context, connID, name string) error
	RegenerateCode(ctx context.Context, connID string) (string, error)
	DeleteRoom(ctx context.Context, connID string) error

	ChatMessage(ctx context.Context, connID, message string) error
	PrivateMessage(ctx context.Context, connID string, ev events.PrivateMessageEvent) error
	Speaking(ctx context.Context, connID string, isSpeaking bool) error
	AudioStatus(ctx context.Context, connID string, ev events.AudioStatusEvent) error
	Signal(ctx context.Context, connID, eventType string, ev events.SignalEvent) error
	SharePublicKey(ctx context.Context, connID string, publicKey json.RawMessage) error
	ServerStats(ctx context.Context, connID string) (events.StatsResult, error)

	Ping(ctx context.Context, connID string)
	Disconnect(ctx context.Context, connID string)
}

type signalingUsecase struct {
	broadcaster

	limiter memory.RateLimiter

	now       func() time.Time
	startedAt time.Time
}

func NewSignalingUsecase(
	registry memory.RoomRegistry,
	limiter memory.RateLimiter,
	wsRepo memory.WebsocketConnectionRepository,
) SignalingUsecase {
	return &signalingUsecase{
		broadcaster: broadcaster{registry: registry, wsRepo: wsRepo},
		limiter:     limiter,
		now:         time.Now,
		startedAt:   time.Now(),
	}
}

// Register повторная регистрация переименовывает сессию и тратит токен command
func (u *signalingUsecase) Register(ctx context.Context, connID string, ev events.RegisterEvent) (events.RegisterResult, error) {
	if _, ok := u.registry.SessionByConn(connID); ok {
		if _, err := u.session(connID, models.ActionCommand); err != nil {
			return events.RegisterResult{}, err
		}
	}

	s, created := u.registry.Register(connID, ev.Name)

	if created {
		slog.InfoContext(ctx, "session registered", slog.String(constant.SessionID, s.ID), slog.String(constant.UserName, s.Name))
	}

	u.wsRepo.Write(connID, events.New(events.TypeRoomsUpdate, u.registry.PublicRooms()))
	u.broadcastOnlineUsers()

	if !created && s.RoomID != "" {
		if state, err := u.registry.RoomState(s.RoomID); err == nil {
			u.sendUsersUpdate(state)
		}
	}

	return events.RegisterResult{
		Result: events.OK,
		User:   events.UserRef{ID: s.ID, Name: s.Name},
	}, nil
}

func (u *signalingUsecase) CreateRoom(ctx context.Context, connID string, in input.CreateRoomInput) (events.CreateRoomResult, error) {
	s, err := u.session(connID, models.ActionCommand)
	if err != nil {
		return events.CreateRoomResult{}, err
	}

	in.OwnerID = s.ID
	in.Permanent = false

	room, err := u.registry.CreateRoom(in)
	if err != nil {
		return events.CreateRoomResult{}, fmt.Errorf("create room: %w", err)
	}

	slog.InfoContext(ctx, "room created", slog.String(constant.RoomID, room.ID), slog.String(constant.SessionID, s.ID))

	u.broadcastRooms()

	return events.CreateRoomResult{
		Result: events.OK,
		Room:   events.RoomRef{ID: room.ID, Name: room.Name, Code: room.Code},
	}, nil
}

// JoinRoom код приоритетнее id. Вход тратит и command, и один токен call
// на все последующие offer к участникам комнаты.
func (u *signalingUsecase) JoinRoom(ctx context.Context, connID string, in input.JoinRoomInput) (events.JoinRoomResult, error) {
	s, err := u.session(connID, models.ActionCommand)
	if err != nil {
		return events.JoinRoomResult{}, err
	}

	roomID := in.RoomID
	if strings.TrimSpace(in.Code) != "" {
		room, err := u.registry.GetRoomByCode(in.Code)
		if err != nil {
			return events.JoinRoomResult{}, err
		}
		roomID = room.ID
	}

	if !u.limiter.Allow(s.ID, models.ActionCall) {
		metric.IncrementRateLimited(string(models.ActionCall))
		return events.JoinRoomResult{}, fmt.Errorf("%s actions: %w", models.ActionCall, errs.ErrRateLimited)
	}

	info, err := u.registry.JoinRoom(roomID, s.ID, in.Password)
	if err != nil {
		return events.JoinRoomResult{}, err
	}

	slog.InfoContext(ctx, "joined room", slog.String(constant.RoomID, roomID), slog.String(constant.SessionID, s.ID))

	if info.Previous != nil {
		u.notifyDeparture(models.Departure{Session: models.MemberView{ID: s.ID, Name: s.Name}, Room: *info.Previous})
	}

	state := info.State()
	me, _ := state.Member(s.ID)

	u.wsRepo.WriteMany(state.ConnIDs(s.ID), events.New(events.TypeUserJoined, events.UserJoinedEvent{User: me}))
	u.broadcastRooms()
	u.sendUsersUpdate(state)
	u.broadcastOnlineUsers()

	return events.JoinRoomResult{
		Result:      events.OK,
		Room:        info.Room,
		Users:       info.Members,
		IsOwner:     info.IsOwner,
		IsModerator: info.IsModerator,
		Revision:    info.Revision,
	}, nil
}

// LeaveRoom вне комнаты ничего не делает
func (u *signalingUsecase) LeaveRoom(ctx context.Context, connID string) error {
	s, err := u.session(connID, models.ActionCommand)
	if err != nil {
		return err
	}

	if s.RoomID == "" {
		return nil
	}

	dep, err := u.registry.LeaveRoom(s.RoomID, s.ID)
	if err != nil {
		return fmt.Errorf("leave room: %w", err)
	}

	slog.InfoContext(ctx, "left room", slog.String(constant.RoomID, dep.Room.Room.ID), slog.String(constant.SessionID, s.ID))

	u.notifyDeparture(dep)
	u.broadcastRooms()
	u.broadcastOnlineUsers()

	return nil
}

func (u *signalingUsecase) Kick(ctx context.Context, connID, targetID string) error {
	return u.removeFromRoom(ctx, connID, targetID, false)
}

func (u *signalingUsecase) Ban(ctx context.Context, connID, targetID string) error {
	return u.removeFromRoom(ctx, connID, targetID, true)
}

func (u *signalingUsecase) removeFromRoom(ctx context.Context, connID, targetID string, ban bool) error {
	s, err := u.roomSession(connID)
	if err != nil {
		return err
	}

	var (
		dep         models.Departure
		targetEvent = events.TypeKicked
		roomEvent   = events.TypeUserKicked
	)

	if ban {
		targetEvent, roomEvent = events.TypeBanned, events.TypeUserBanned
		dep, err = u.registry.Ban(s.RoomID, s.ID, targetID)
	} else {
		dep, err = u.registry.Kick(s.RoomID, s.ID, targetID)
	}
	if err != nil {
		return err
	}

	slog.InfoContext(
		ctx,
		roomEvent,
		slog.String(constant.RoomID, s.RoomID),
		slog.String(constant.SessionID, s.ID),
		slog.String(constant.TargetID, targetID),
	)

	u.wsRepo.Write(dep.Session.ConnID, events.New(targetEvent, events.RemovedFromRoomEvent{RoomName: dep.Room.Room.Name}))
	u.wsRepo.WriteMany(dep.Room.ConnIDs(s.ID), events.New(roomEvent, events.UserRemovedEvent{UserID: targetID}))
	u.sendUsersUpdate(dep.Room)
	u.broadcastRooms()
	u.broadcastOnlineUsers()

	return nil
}

func (u *signalingUsecase) PromoteModerator(_ context.Context, connID, targetID string) error {
	return u.changeRoles(connID, targetID, u.registry.PromoteModerator)
}

func (u *signalingUsecase) DemoteModerator(_ context.Context, connID, targetID string) error {
	return u.changeRoles(connID, targetID, u.registry.DemoteModerator)
}

func (u *signalingUsecase) TransferOwnership(ctx context.Context, connID, targetID string) error {
	err := u.changeRoles(connID, targetID, u.registry.TransferOwnership)
	if err == nil {
		slog.InfoContext(ctx, "ownership transferred", slog.String(constant.TargetID, targetID))
	}

	return err
}

func (u *signalingUsecase) changeRoles(
	connID, targetID string,
	change func(roomID, actorID, targetID string) (models.RoomState, error),
) error {
	s, err := u.roomSession(connID)
	if err != nil {
		return err
	}

	state, err := change(s.RoomID, s.ID, targetID)
	if err != nil {
		return err
	}

	u.sendUsersUpdate(state)

	return nil
}

func (u *signalingUsecase) ChangePassword(_ context.Context, connID, password string) error {
	s, err := u.roomSession(connID)
	if err != nil {
		return err
	}

	if _, err = u.registry.ChangePassword(s.RoomID, s.ID, password); err != nil {
		return err
	}

	u.broadcastRooms()

	return nil
}

func (u *signalingUsecase) ChangeRoomName(_ context.Context, connID, name string) error {
	s, err := u.roomSession(connID)
	if err != nil {
		return err
	}

	state, err := u.registry.ChangeRoomName(s.RoomID, s.ID, name)
	if err != nil {
		return err
	}

	u.wsRepo.WriteMany(state.ConnIDs(), events.New(events.TypeRoomNameChanged, events.RoomNameChangedEvent{Name: state.Room.Name}))
	u.broadcastRooms()

	return nil
}

func (u *signalingUsecase) RegenerateCode(_ context.Context, connID string) (string, error) {
	s, err := u.roomSession(connID)
	if err != nil {
		return "", err
	}

	return u.registry.RegenerateCode(s.RoomID, s.ID)
}

func (u *signalingUsecase) DeleteRoom(ctx context.Context, connID string) error {
	s, err := u.roomSession(connID)
	if err != nil {
		return err
	}

	state, err := u.registry.DeleteRoom(s.RoomID, s.ID)
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "room deleted", slog.String(constant.RoomID, state.Room.ID), slog.String(constant.SessionID, s.ID))

	u.notifyRoomDeleted(state)

	return nil
}

func (u *signalingUsecase) ChatMessage(_ context.Context, connID, message string) error {
	s, err := u.session(connID, models.ActionMessage)
	if err != nil {
		return err
	}

	if s.RoomID == "" {
		return fmt.Errorf("chat outside of a room: %w", errs.ErrInvalidOperation)
	}

	state, err := u.registry.RoomState(s.RoomID)
	if err != nil {
		return err
	}

	me, ok := state.Member(s.ID)
	if !ok {
		return fmt.Errorf("chat: %w", errs.ErrForbidden)
	}

	u.wsRepo.WriteMany(state.ConnIDs(), events.New(events.TypeChatMessage, events.ChatMessageOut{
		UserID:      s.ID,
		Name:        s.Name,
		Message:     identity.SanitizeText(message, MaxMessageLength),
		IsOwner:     me.IsOwner,
		IsModerator: me.IsModerator,
	}))

	return nil
}

// PrivateMessage адресат не найден - сообщение молча отбрасывается
func (u *signalingUsecase) PrivateMessage(ctx context.Context, connID string, ev events.PrivateMessageEvent) error {
	s, err := u.session(connID, models.ActionMessage)
	if err != nil {
		return err
	}

	message := ev.Message

	if !ev.Encrypted {
		var text string
		if err = json.Unmarshal(ev.Message, &text); err == nil {
			message, err = json.Marshal(identity.SanitizeText(text, MaxMessageLength))
			if err != nil {
				return fmt.Errorf("marshal private message: %w", err)
			}
		}
	}

	if len(message) == 0 {
		message = json.RawMessage("null")
	}

	recipient, ok := u.registry.GetUserByID(ev.RecipientID)
	if !ok {
		slog.DebugContext(ctx, "private message recipient is gone", slog.String(constant.TargetID, ev.RecipientID))
		return nil
	}

	u.wsRepo.Write(recipient.ConnID, events.New(events.TypePrivateMessage, events.PrivateMessageOut{
		SenderID:   s.ID,
		SenderName: s.Name,
		Message:    message,
		Encrypted:  ev.Encrypted,
		Timestamp:  u.now().UnixMilli(),
	}))

	return nil
}

// Speaking повтор текущего состояния не рассылается и не тратит токены
func (u *signalingUsecase) Speaking(_ context.Context, connID string, isSpeaking bool) error {
	s, err := u.session(connID, "")
	if err != nil {
		return err
	}

	if s.Speaking == isSpeaking {
		return nil
	}

	if s, err = u.session(connID, models.ActionSpeaking); err != nil {
		return err
	}

	if s, err = u.registry.SetSpeaking(s.ID, isSpeaking); err != nil {
		return err
	}

	u.sendToRoomOthers(s, events.New(events.TypeUserSpeaking, events.UserSpeakingEvent{UserID: s.ID, IsSpeaking: isSpeaking}))

	return nil
}

func (u *signalingUsecase) AudioStatus(_ context.Context, connID string, ev events.AudioStatusEvent) error {
	s, err := u.session(connID, models.ActionMedia)
	if err != nil {
		return err
	}

	s, err = u.registry.SetAudioStatus(s.ID, ev.Muted, ev.Deafened)
	if err != nil {
		return err
	}

	u.sendToRoomOthers(s, events.New(events.TypeUserAudioStatus, events.UserAudioStatusEvent{
		UserID:   s.ID,
		Muted:    s.Muted,
		Deafened: s.Deafened,
	}))

	return nil
}

// Signal пересылает offer/answer/candidate любой сессии, комната не проверяется.
// Лимит звонков списывается при входе в комнату, сами offer не лимитируются.
func (u *signalingUsecase) Signal(ctx context.Context, connID, eventType string, ev events.SignalEvent) error {
	s, err := u.session(connID, "")
	if err != nil {
		return err
	}

	if ev.TargetID == "" {
		return fmt.Errorf("%s without target: %w", eventType, errs.ErrInvalidOperation)
	}

	target, ok := u.registry.GetUserByID(ev.TargetID)
	if !ok {
		slog.DebugContext(ctx, "signal target is gone", slog.String(constant.EventType, eventType), slog.String(constant.TargetID, ev.TargetID))
		return nil
	}

	u.wsRepo.Write(target.ConnID, events.New(eventType, events.SignalOut{SenderID: s.ID, Payload: ev.Payload}))

	return nil
}

func (u *signalingUsecase) SharePublicKey(_ context.Context, connID string, publicKey json.RawMessage) error {
	s, err := u.session(connID, models.ActionMedia)
	if err != nil {
		return err
	}

	u.wsRepo.Broadcast(events.New(events.TypePublicKeyShared, events.PublicKeySharedEvent{
		UserID:    s.ID,
		UserName:  s.Name,
		PublicKey: publicKey,
	}), connID)

	return nil
}

func (u *signalingUsecase) ServerStats(_ context.Context, connID string) (events.StatsResult, error) {
	if _, err := u.session(connID, models.ActionCommand); err != nil {
		return events.StatsResult{}, err
	}

	return u.stats(u.now().Sub(u.startedAt)), nil
}

func (u *signalingUsecase) Ping(_ context.Context, connID string) {
	u.wsRepo.Write(connID, events.New(events.TypePong, nil))
}

// Disconnect соединение без сессии ничего не меняет
func (u *signalingUsecase) Disconnect(ctx context.Context, connID string) {
	s, ok := u.registry.SessionByConn(connID)
	if !ok {
		return
	}

	dep, ok := u.registry.RemoveSession(s.ID)
	if !ok {
		return
	}

	u.limiter.Reset(s.ID)

	slog.InfoContext(ctx, "session disconnected", slog.String(constant.SessionID, s.ID), slog.String(constant.UserName, s.Name))

	if dep.Room.Room.ID != "" {
		u.notifyDeparture(dep)
	}

	u.broadcastRooms()
	u.broadcastOnlineUsers()
}

// session сессия соединения с проверкой rate limit. Пустой class не лимитируется.
func (u *signalingUsecase) session(connID string, class models.ActionClass) (models.Session, error) {
	s, ok := u.registry.SessionByConn(connID)
	if !ok {
		return models.Session{}, errs.ErrNotAuthenticated
	}

	if class != "" && !u.limiter.Allow(s.ID, class) {
		metric.IncrementRateLimited(string(class))
		return models.Session{}, fmt.Errorf("%s actions: %w", class, errs.ErrRateLimited)
	}

	return s, nil
}

// roomSession для команд комнаты: сессия обязана быть в комнате
func (u *signalingUsecase) roomSession(connID string) (models.Session, error) {
	s, err := u.session(connID, models.ActionCommand)
	if err != nil {
		return models.Session{}, err
	}

	if s.RoomID == "" {
		return models.Session{}, fmt.Errorf("not in a room: %w", errs.ErrForbidden)
	}

	return s, nil
}

func (u *signalingUsecase) sendToRoomOthers(s models.Session, payload events.Outbound) {
	if s.RoomID == "" {
		return
	}

	state, err := u.registry.RoomState(s.RoomID)
	if err != nil {
		return
	}

	u.wsRepo.WriteMany(state.ConnIDs(s.ID), payload)
}
