package events

import (
	"bytes"
	"encoding/json"

	"github.com/qrave1/anonspeak/internal/domain/models"
)

// Входящие события
const (
	TypeRegister          = "register"
	TypeCreateRoom        = "create-room"
	TypeJoinRoom          = "join-room"
	TypeLeaveRoom         = "leave-room"
	TypeKickUser          = "kick-user"
	TypeBanUser           = "ban-user"
	TypePromoteModerator  = "promote-moderator"
	TypeDemoteModerator   = "demote-moderator"
	TypeTransferOwnership = "transfer-ownership"
	TypeChangePassword    = "change-password"
	TypeChangeRoomName    = "change-room-name"
	TypeRegenerateCode    = "regenerate-code"
	TypeDeleteRoom        = "delete-room"
	TypeChatMessage       = "chat-message"
	TypePrivateMessage    = "private-message"
	TypeSpeaking          = "speaking"
	TypeAudioStatus       = "audio-status"
	TypeWebRTCOffer       = "webrtc-offer"
	TypeWebRTCAnswer      = "webrtc-answer"
	TypeWebRTCCandidate   = "webrtc-ice-candidate"
	TypeSharePublicKey    = "share-public-key"
	TypeGetServerStats    = "get-server-stats"
	TypePing              = "ping"
)

// Исходящие события
const (
	TypeAck             = "ack"
	TypeError           = "error"
	TypePong            = "pong"
	TypeRoomsUpdate     = "rooms-update"
	TypeUsersUpdate     = "users-update"
	TypeOnlineUsers     = "online-users"
	TypeUserJoined      = "user-joined"
	TypeUserLeft        = "user-left"
	TypeUserKicked      = "user-kicked"
	TypeUserBanned      = "user-banned"
	TypeKicked          = "kicked"
	TypeBanned          = "banned"
	TypeRoomNameChanged = "room-name-changed"
	TypeRoomDeleted     = "room-deleted"
	TypeUserSpeaking    = "user-speaking"
	TypeUserAudioStatus = "user-audio-status"
	TypePublicKeyShared = "public-key-shared"
)

// Message - входящее событие. Ack - необязательный id запроса для ответа.
type Message struct {
	Type string          `json:"type"`
	Ack  string          `json:"ack,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Outbound - исходящее событие. Rev есть только у снимков комнаты.
type Outbound struct {
	Type string `json:"type"`
	Ack  string `json:"ack,omitempty"`
	Rev  uint64 `json:"rev,omitempty"`
	Data any    `json:"data,omitempty"`
}

func New(eventType string, data any) Outbound {
	return Outbound{Type: eventType, Data: data}
}

// Result - общая часть ответа на запрос
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

var OK = Result{Success: true}

func Failure(code, message string) Result {
	return Result{Error: code, Message: message}
}

type UserRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type RoomRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

type RegisterResult struct {
	Result
	User UserRef `json:"user"`
}

type CreateRoomResult struct {
	Result
	Room RoomRef `json:"room"`
}

type JoinRoomResult struct {
	Result
	Room        models.RoomInfo     `json:"room"`
	Users       []models.MemberView `json:"users"`
	IsOwner     bool                `json:"isOwner"`
	IsModerator bool                `json:"isModerator"`
	Revision    uint64              `json:"revision"`
}

type CodeResult struct {
	Result
	Code string `json:"code"`
}

type StatsResult struct {
	Result
	CurrentUsers     int     `json:"currentUsers"`
	TotalRooms       int     `json:"totalRooms"`
	TotalConnections int     `json:"totalConnections"`
	AvgRoomSize      float64 `json:"avgRoomSize"`
	UptimeMs         int64   `json:"uptimeMs"`
}

// RegisterEvent принимает {"name": "..."} или просто строку
type RegisterEvent struct {
	Name string `json:"name"`
}

func (e *RegisterEvent) UnmarshalJSON(data []byte) error {
	type plain RegisterEvent
	return decodeStringOr(data, &e.Name, (*plain)(e))
}

// TargetEvent для модерации: {"targetId": "..."} или строка
type TargetEvent struct {
	TargetID string `json:"targetId"`
}

func (e *TargetEvent) UnmarshalJSON(data []byte) error {
	type plain TargetEvent
	return decodeStringOr(data, &e.TargetID, (*plain)(e))
}

type PasswordEvent struct {
	Password string `json:"password"`
}

func (e *PasswordEvent) UnmarshalJSON(data []byte) error {
	type plain PasswordEvent
	return decodeStringOr(data, &e.Password, (*plain)(e))
}

type NameEvent struct {
	Name string `json:"name"`
}

func (e *NameEvent) UnmarshalJSON(data []byte) error {
	type plain NameEvent
	return decodeStringOr(data, &e.Name, (*plain)(e))
}

type ChatMessageEvent struct {
	Message string `json:"message"`
}

func (e *ChatMessageEvent) UnmarshalJSON(data []byte) error {
	type plain ChatMessageEvent
	return decodeStringOr(data, &e.Message, (*plain)(e))
}

// PrivateMessageEvent зашифрованное сообщение передается как есть
type PrivateMessageEvent struct {
	RecipientID string          `json:"recipientId"`
	Message     json.RawMessage `json:"message"`
	Encrypted   bool            `json:"encrypted"`
}

// SpeakingEvent принимает true/false или {"isSpeaking": bool}
type SpeakingEvent struct {
	IsSpeaking bool `json:"isSpeaking"`
}

func (e *SpeakingEvent) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] != '{' {
		return json.Unmarshal(data, &e.IsSpeaking)
	}

	type plain SpeakingEvent
	return json.Unmarshal(data, (*plain)(e))
}

type AudioStatusEvent struct {
	Muted    bool `json:"muted"`
	Deafened bool `json:"deafened"`
}

// SignalEvent - offer, answer или ICE кандидат. Payload сервер не разбирает.
type SignalEvent struct {
	TargetID string          `json:"targetId"`
	Payload  json.RawMessage `json:"payload"`
}

type PublicKeyEvent struct {
	PublicKey json.RawMessage `json:"publicKey"`
}

// Исходящие payload

type UserJoinedEvent struct {
	User models.MemberView `json:"user"`
}

type UserLeftEvent struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
}

type UserRemovedEvent struct {
	UserID string `json:"userId"`
}

type RemovedFromRoomEvent struct {
	RoomName string `json:"roomName"`
}

type RoomNameChangedEvent struct {
	Name string `json:"name"`
}

type ChatMessageOut struct {
	UserID      string `json:"userId"`
	Name        string `json:"name"`
	Message     string `json:"message"`
	IsOwner     bool   `json:"isOwner"`
	IsModerator bool   `json:"isModerator"`
}

type PrivateMessageOut struct {
	SenderID   string          `json:"senderId"`
	SenderName string          `json:"senderName"`
	Message    json.RawMessage `json:"message"`
	Encrypted  bool            `json:"encrypted"`
	Timestamp  int64           `json:"timestamp"`
}

type UserSpeakingEvent struct {
	UserID     string `json:"userId"`
	IsSpeaking bool   `json:"isSpeaking"`
}

type UserAudioStatusEvent struct {
	UserID   string `json:"userId"`
	Muted    bool   `json:"muted"`
	Deafened bool   `json:"deafened"`
}

type SignalOut struct {
	SenderID string          `json:"senderId"`
	Payload  json.RawMessage `json:"payload"`
}

type PublicKeySharedEvent struct {
	UserID    string          `json:"userId"`
	UserName  string          `json:"userName"`
	PublicKey json.RawMessage `json:"publicKey"`
}

// Decode разбирает data события. Пустые data дают нулевое значение.
func Decode(data json.RawMessage, v any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	return json.Unmarshal(data, v)
}

func decodeStringOr(data []byte, s *string, obj any) error {
	data = bytes.TrimSpace(data)

	switch {
	case len(data) == 0:
		return nil
	case data[0] == '"':
		return json.Unmarshal(data, s)
	default:
		return json.Unmarshal(data, obj)
	}
}
