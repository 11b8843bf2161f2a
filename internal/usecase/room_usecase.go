package usecase

import (
	"context"
	"fmt"

	"github.com/qrave1/anonspeak/internal/domain/models"
	"github.com/qrave1/anonspeak/internal/infra/adapters/memory"
)

// RoomUsecase чтение комнат для HTTP, без сессии
type RoomUsecase interface {
	PublicRooms(ctx context.Context) []models.RoomSummary
	RoomByCode(ctx context.Context, code string) (models.RoomSummary, error)
}

type roomUsecase struct {
	registry memory.RoomRegistry
}

func NewRoomUsecase(registry memory.RoomRegistry) RoomUsecase {
	return &roomUsecase{registry: registry}
}

func (uc *roomUsecase) PublicRooms(_ context.Context) []models.RoomSummary {
	return uc.registry.PublicRooms()
}

func (uc *roomUsecase) RoomByCode(_ context.Context, code string) (models.RoomSummary, error) {
	info, err := uc.registry.GetRoomByCode(code)
	if err != nil {
		return models.RoomSummary{}, fmt.Errorf("get room by code: %w", err)
	}

	return models.RoomSummary{
		ID:          info.ID,
		Name:        info.Name,
		UserCount:   info.UserCount,
		MaxUsers:    info.MaxUsers,
		HasPassword: info.HasPassword,
		Permanent:   info.Permanent,
	}, nil
}
