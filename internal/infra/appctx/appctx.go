package appctx

import (
	"context"
)

type ctxKey string

const (
	connIDKey       ctxKey = "connID"
	adminSubjectKey ctxKey = "adminSubject"
)

// WithConnID добавляет id websocket соединения в контекст
func WithConnID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, connIDKey, id)
}

// ConnID извлекает id соединения из контекста
func ConnID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(connIDKey).(string)
	return id, ok
}

// WithAdminSubject subject проверенного админского токена
func WithAdminSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, adminSubjectKey, subject)
}

func AdminSubject(ctx context.Context) (string, bool) {
	sub, ok := ctx.Value(adminSubjectKey).(string)
	return sub, ok
}
