package service

import (
	"context"
	"log/slog"

	"showcase/internal/middleware"
	"showcase/internal/notifications"
)

// Publisher receives activity events. *notifications.Notifier satisfies it.
type Publisher interface {
	Notify(ctx context.Context, recipientID uint, ev notifications.Event) error
}

func notify(ctx context.Context, p Publisher, recipientID uint, ev notifications.Event) {
	if p == nil {
		return
	}
	if err := p.Notify(ctx, recipientID, ev); err != nil {
		middleware.Logger.WarnContext(ctx, "notification publish failed",
			slog.String("type", ev.Type), slog.String("error", err.Error()))
	}
}
