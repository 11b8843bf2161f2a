// Package errs содержит доменные ошибки и их коды для клиента
package errs

import "errors"

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrRoomNotFound     = errors.New("room not found")
	ErrForbidden        = errors.New("forbidden")
	ErrInvalidPassword  = errors.New("invalid password")
	ErrRoomFull         = errors.New("room is full")
	ErrAlreadyMember    = errors.New("already a member")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrRateLimited      = errors.New("rate limited")
)

const (
	CodeNotAuthenticated = "not_authenticated"
	CodeRoomNotFound     = "room_not_found"
	CodeForbidden        = "forbidden"
	CodeInvalidPassword  = "invalid_password"
	CodeRoomFull         = "room_full"
	CodeAlreadyMember    = "already_member"
	CodeInvalidOperation = "invalid_operation"
	CodeRateLimited      = "rate_limited"
	CodeInternal         = "internal"
)

var codes = []struct {
	err  error
	code string
}{
	{ErrNotAuthenticated, CodeNotAuthenticated},
	{ErrRoomNotFound, CodeRoomNotFound},
	{ErrForbidden, CodeForbidden},
	{ErrInvalidPassword, CodeInvalidPassword},
	{ErrRoomFull, CodeRoomFull},
	{ErrAlreadyMember, CodeAlreadyMember},
	{ErrInvalidOperation, CodeInvalidOperation},
	{ErrRateLimited, CodeRateLimited},
}

// Code возвращает код ошибки для отправки клиенту
func Code(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}

	return CodeInternal
}

// Message текст для пользователя, внутренние ошибки не раскрываются
func Message(err error) string {
	if Code(err) == CodeInternal {
		return "internal error"
	}

	return err.Error()
}
