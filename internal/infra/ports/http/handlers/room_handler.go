package handlers

import (
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/labstack/echo/v4"

	"github.com/qrave1/anonspeak/internal/application/constant"
	"github.com/qrave1/anonspeak/internal/domain/errs"
	"github.com/qrave1/anonspeak/internal/infra/ports/http/dto"
	"github.com/qrave1/anonspeak/internal/usecase"
)

type RoomHandler struct {
	staticDir string

	roomUsecase usecase.RoomUsecase
}

func NewRoomHandler(staticDir string, roomUsecase usecase.RoomUsecase) *RoomHandler {
	return &RoomHandler{staticDir: staticDir, roomUsecase: roomUsecase}
}

func (h *RoomHandler) ListRooms(c echo.Context) error {
	rooms := h.roomUsecase.PublicRooms(c.Request().Context())

	return c.JSON(http.StatusOK, dto.NewListRoomsResponse(rooms))
}

// RoomByCode разрешает инвайт-код в публичные сведения о комнате
func (h *RoomHandler) RoomByCode(c echo.Context) error {
	room, err := h.roomUsecase.RoomByCode(c.Request().Context(), c.Param("code"))
	if err != nil {
		if errs.Code(err) == errs.CodeInternal {
			slog.Error("get room by code", slog.Any(constant.Error, err))
		}

		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, dto.RoomResponse{Room: room})
}

// JoinPage инвайт-ссылка /join/:code открывает SPA, код клиент берет из пути
func (h *RoomHandler) JoinPage(c echo.Context) error {
	return c.File(filepath.Join(h.staticDir, "index.html"))
}
