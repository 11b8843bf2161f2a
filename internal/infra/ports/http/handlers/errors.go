package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/qrave1/anonspeak/internal/domain/errs"
	"github.com/qrave1/anonspeak/internal/infra/ports/http/dto"
)

func httpStatus(err error) int {
	switch {
	case errors.Is(err, errs.ErrRoomNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrInvalidOperation):
		return http.StatusConflict
	case errors.Is(err, errs.ErrForbidden), errors.Is(err, errs.ErrNotAuthenticated):
		return http.StatusForbidden
	case errors.Is(err, errs.ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func errorJSON(c echo.Context, err error) error {
	return c.JSON(httpStatus(err), dto.ErrorResponse{
		Error:   errs.Code(err),
		Message: errs.Message(err),
	})
}
