package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/qrave1/anonspeak/internal/application/constant"
	"github.com/qrave1/anonspeak/internal/domain/errs"
	"github.com/qrave1/anonspeak/internal/infra/appctx"
	"github.com/qrave1/anonspeak/internal/infra/ports/http/dto"
	"github.com/qrave1/anonspeak/internal/usecase"
)

type AdminHandler struct {
	adminUsecase usecase.AdminUsecase
}

func NewAdminHandler(adminUsecase usecase.AdminUsecase) *AdminHandler {
	return &AdminHandler{adminUsecase: adminUsecase}
}

func (h *AdminHandler) Stats(c echo.Context) error {
	stats := h.adminUsecase.Stats(c.Request().Context())

	return c.JSON(http.StatusOK, dto.NewStatsResponse(stats))
}

func (h *AdminHandler) ListRooms(c echo.Context) error {
	rooms := h.adminUsecase.Rooms(c.Request().Context())

	return c.JSON(http.StatusOK, dto.NewListRoomsResponse(rooms))
}

// EvictRoom удаляет комнату и выкидывает участников, постоянные не трогает
func (h *AdminHandler) EvictRoom(c echo.Context) error {
	ctx := c.Request().Context()
	roomID := c.Param("id")

	if err := h.adminUsecase.EvictRoom(ctx, roomID); err != nil {
		if errs.Code(err) == errs.CodeInternal {
			slog.Error("evict room", slog.Any(constant.Error, err), slog.String(constant.RoomID, roomID))
		}

		return errorJSON(c, err)
	}

	subject, _ := appctx.AdminSubject(ctx)
	slog.Info("admin action", slog.String("subject", subject), slog.String(constant.RoomID, roomID))

	return c.NoContent(http.StatusNoContent)
}
