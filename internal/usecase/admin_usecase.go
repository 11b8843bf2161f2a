package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/qrave1/anonspeak/internal/application/constant"
	"github.com/qrave1/anonspeak/internal/domain/events"
	"github.com/qrave1/anonspeak/internal/domain/models"
	"github.com/qrave1/anonspeak/internal/infra/adapters/memory"
)

// AdminUsecase операции оператора сервера
type AdminUsecase interface {
	Stats(ctx context.Context) events.StatsResult
	Rooms(ctx context.Context) []models.RoomSummary
	EvictRoom(ctx context.Context, roomID string) error
}

type adminUsecase struct {
	broadcaster

	startedAt time.Time
}

func NewAdminUsecase(registry memory.RoomRegistry, wsRepo memory.WebsocketConnectionRepository) AdminUsecase {
	return &adminUsecase{
		broadcaster: broadcaster{registry: registry, wsRepo: wsRepo},
		startedAt:   time.Now(),
	}
}

func (a *adminUsecase) Stats(_ context.Context) events.StatsResult {
	return a.stats(time.Since(a.startedAt))
}

func (a *adminUsecase) Rooms(_ context.Context) []models.RoomSummary {
	return a.registry.PublicRooms()
}

func (a *adminUsecase) EvictRoom(ctx context.Context, roomID string) error {
	state, err := a.registry.EvictRoom(roomID)
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "room evicted by operator", slog.String(constant.RoomID, roomID), slog.Int("members", len(state.Members)))

	a.notifyRoomDeleted(state)

	return nil
}
