package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/qrave1/anonspeak/internal/application/config"
	"github.com/qrave1/anonspeak/internal/application/constant"
	"github.com/qrave1/anonspeak/internal/application/metric"
	"github.com/qrave1/anonspeak/internal/domain/errs"
	"github.com/qrave1/anonspeak/internal/domain/events"
	"github.com/qrave1/anonspeak/internal/domain/input"
	"github.com/qrave1/anonspeak/internal/infra/adapters/memory"
	"github.com/qrave1/anonspeak/internal/infra/appctx"
	"github.com/qrave1/anonspeak/internal/usecase"
)

var errUnknownEvent = fmt.Errorf("unknown event: %w", errs.ErrInvalidOperation)

type WebSocketHandler struct {
	upgrader *websocket.Upgrader

	readLimit    int64
	pingInterval time.Duration
	pongTimeout  time.Duration

	signalingUsecase usecase.SignalingUsecase

	wsConnRepo memory.WebsocketConnectionRepository
}

func NewWebSocketHandler(cfg *config.Config, signalingUsecase usecase.SignalingUsecase, wsConnRepo memory.WebsocketConnectionRepository) *WebSocketHandler {
	return &WebSocketHandler{
		upgrader: &websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if cfg.Debug {
					return true
				}

				return r.Header.Get("Origin") == cfg.Domain
			},
		},
		readLimit:        cfg.WebSocket.ReadLimit,
		pingInterval:     cfg.WebSocket.PingInterval,
		pongTimeout:      cfg.WebSocket.PongTimeout,
		signalingUsecase: signalingUsecase,
		wsConnRepo:       wsConnRepo,
	}
}

func (h *WebSocketHandler) Handle(c echo.Context) error {
	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// upgrader уже ответил клиенту
		slog.Warn(
			"WebSocket upgrade error",
			slog.Any(constant.Error, err),
		)
		return nil
	}
	defer ws.Close()

	connID := uuid.NewString()
	ctx := appctx.WithConnID(c.Request().Context(), connID)

	h.wsConnRepo.Add(connID, ws)
	defer func() {
		// сначала убираем сокет, чтобы рассылки об уходе не шли в закрытое соединение
		h.wsConnRepo.Remove(connID)
		h.signalingUsecase.Disconnect(ctx, connID)
	}()

	ws.SetReadLimit(h.readLimit)

	if err = ws.SetReadDeadline(time.Now().Add(h.pongTimeout)); err != nil {
		return nil
	}
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(h.pongTimeout))
	})

	done := make(chan struct{})
	defer close(done)

	go h.keepAlive(ctx, ws, done)

	slog.DebugContext(ctx, "websocket connected", slog.String(constant.ConnID, connID))

	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			h.handleWebsocketError(ctx, err)
			return nil
		}

		msg := new(events.Message)

		if err = json.Unmarshal(raw, msg); err != nil {
			slog.DebugContext(ctx, "unmarshal websocket message", slog.Any(constant.Error, err), slog.String(constant.ConnID, connID))

			h.wsConnRepo.Write(connID, events.New(events.TypeError, events.Failure(errs.CodeInvalidOperation, "malformed message")))
			metric.RecordSignalingEvent("unknown", errs.CodeInvalidOperation)

			continue
		}

		h.dispatch(ctx, connID, msg)
	}
}

// keepAlive WriteControl можно вызывать параллельно с остальными записями
func (h *WebSocketHandler) keepAlive(ctx context.Context, ws *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(h.pongTimeout)); err != nil {
				slog.DebugContext(ctx, "ping failed", slog.Any(constant.Error, err))
				return
			}
		case <-done:
			return
		}
	}
}

// dispatch выполняет событие и отвечает инициатору: ack при наличии id, иначе error только при ошибке
func (h *WebSocketHandler) dispatch(ctx context.Context, connID string, msg *events.Message) {
	result, err := h.handleMessage(ctx, connID, msg)

	label := msg.Type
	if errors.Is(err, errUnknownEvent) {
		label = "unknown"
	}

	if err != nil {
		code := errs.Code(err)
		metric.RecordSignalingEvent(label, code)

		attrs := []any{
			slog.Any(constant.Error, err),
			slog.String(constant.ConnID, connID),
			slog.String(constant.EventType, msg.Type),
		}
		if code == errs.CodeInternal {
			slog.ErrorContext(ctx, "handle message", attrs...)
		} else {
			slog.DebugContext(ctx, "handle message", attrs...)
		}

		failure := events.Failure(code, errs.Message(err))
		if msg.Ack != "" {
			h.wsConnRepo.Write(connID, events.Outbound{Type: events.TypeAck, Ack: msg.Ack, Data: failure})
		} else {
			h.wsConnRepo.Write(connID, events.New(events.TypeError, failure))
		}

		return
	}

	metric.RecordSignalingEvent(label, "ok")

	if msg.Ack == "" {
		return
	}

	if result == nil {
		result = events.OK
	}

	h.wsConnRepo.Write(connID, events.Outbound{Type: events.TypeAck, Ack: msg.Ack, Data: result})
}

func (h *WebSocketHandler) handleMessage(
	ctx context.Context,
	connID string,
	msg *events.Message,
) (any, error) {
	switch msg.Type {
	case events.TypeRegister:
		var ev events.RegisterEvent
		if err := decode(msg, &ev); err != nil {
			return nil, err
		}

		return h.signalingUsecase.Register(ctx, connID, ev)

	case events.TypeCreateRoom:
		var in input.CreateRoomInput
		if err := decode(msg, &in); err != nil {
			return nil, err
		}

		return h.signalingUsecase.CreateRoom(ctx, connID, in)

	case events.TypeJoinRoom:
		var in input.JoinRoomInput
		if err := decode(msg, &in); err != nil {
			return nil, err
		}

		return h.signalingUsecase.JoinRoom(ctx, connID, in)

	case events.TypeLeaveRoom:
		return nil, h.signalingUsecase.LeaveRoom(ctx, connID)

	case events.TypeKickUser, events.TypeBanUser, events.TypePromoteModerator, events.TypeDemoteModerator, events.TypeTransferOwnership:
		var ev events.TargetEvent
		if err := decode(msg, &ev); err != nil {
			return nil, err
		}

		return nil, h.moderate(ctx, connID, msg.Type, ev.TargetID)

	case events.TypeChangePassword:
		var ev events.PasswordEvent
		if err := decode(msg, &ev); err != nil {
			return nil, err
		}

		return nil, h.signalingUsecase.ChangePassword(ctx, connID, ev.Password)

	case events.TypeChangeRoomName:
		var ev events.NameEvent
		if err := decode(msg, &ev); err != nil {
			return nil, err
		}

		return nil, h.signalingUsecase.ChangeRoomName(ctx, connID, ev.Name)

	case events.TypeRegenerateCode:
		code, err := h.signalingUsecase.RegenerateCode(ctx, connID)
		if err != nil {
			return nil, err
		}

		return events.CodeResult{Result: events.OK, Code: code}, nil

	case events.TypeDeleteRoom:
		return nil, h.signalingUsecase.DeleteRoom(ctx, connID)

	case events.TypeChatMessage:
		var ev events.ChatMessageEvent
		if err := decode(msg, &ev); err != nil {
			return nil, err
		}

		return nil, h.signalingUsecase.ChatMessage(ctx, connID, ev.Message)

	case events.TypePrivateMessage:
		var ev events.PrivateMessageEvent
		if err := decode(msg, &ev); err != nil {
			return nil, err
		}

		return nil, h.signalingUsecase.PrivateMessage(ctx, connID, ev)

	case events.TypeSpeaking:
		var ev events.SpeakingEvent
		if err := decode(msg, &ev); err != nil {
			return nil, err
		}

		return nil, h.signalingUsecase.Speaking(ctx, connID, ev.IsSpeaking)

	case events.TypeAudioStatus:
		var ev events.AudioStatusEvent
		if err := decode(msg, &ev); err != nil {
			return nil, err
		}

		return nil, h.signalingUsecase.AudioStatus(ctx, connID, ev)

	case events.TypeWebRTCOffer, events.TypeWebRTCAnswer, events.TypeWebRTCCandidate:
		var ev events.SignalEvent
		if err := decode(msg, &ev); err != nil {
			return nil, err
		}

		return nil, h.signalingUsecase.Signal(ctx, connID, msg.Type, ev)

	case events.TypeSharePublicKey:
		var ev events.PublicKeyEvent
		if err := decode(msg, &ev); err != nil {
			return nil, err
		}

		return nil, h.signalingUsecase.SharePublicKey(ctx, connID, ev.PublicKey)

	case events.TypeGetServerStats:
		return h.signalingUsecase.ServerStats(ctx, connID)

	case events.TypePing:
		h.signalingUsecase.Ping(ctx, connID)
		return nil, nil

	default:
		return nil, fmt.Errorf("%q: %w", msg.Type, errUnknownEvent)
	}
}

func (h *WebSocketHandler) moderate(ctx context.Context, connID, eventType, targetID string) error {
	switch eventType {
	case events.TypeKickUser:
		return h.signalingUsecase.Kick(ctx, connID, targetID)
	case events.TypeBanUser:
		return h.signalingUsecase.Ban(ctx, connID, targetID)
	case events.TypePromoteModerator:
		return h.signalingUsecase.PromoteModerator(ctx, connID, targetID)
	case events.TypeDemoteModerator:
		return h.signalingUsecase.DemoteModerator(ctx, connID, targetID)
	default:
		return h.signalingUsecase.TransferOwnership(ctx, connID, targetID)
	}
}

// decode битый payload - ошибка клиента, а не сервера
func decode(msg *events.Message, v any) error {
	if err := events.Decode(msg.Data, v); err != nil {
		return fmt.Errorf("malformed %s payload: %w", msg.Type, errs.ErrInvalidOperation)
	}

	return nil
}

func (h *WebSocketHandler) handleWebsocketError(ctx context.Context, err error) {
	connID, _ := appctx.ConnID(ctx)

	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		switch closeErr.Code {
		case websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived:
			slog.Info("user disconnected from websocket", slog.String(constant.ConnID, connID))
		default:
			slog.Warn("websocket close error", slog.Int("code", closeErr.Code), slog.String(constant.ConnID, connID))
		}
	} else {
		slog.Info(
			"websocket read",
			slog.Any(constant.Error, err),
			slog.String(constant.ConnID, connID),
		)
	}
}
