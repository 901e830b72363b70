package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/wardline-health/staff-access-service/internal/domain"
	"github.com/wardline-health/staff-access-service/internal/events"
	apperrors "github.com/wardline-health/staff-access-service/pkg/util/errorutil"
)

func parseEmail(raw string) (domain.Email, error) {
	email, err := domain.NormalizeEmail(raw)
	if err != nil {
		return "", apperrors.NewValidationError("invalid email", map[string]any{"email": raw})
	}
	return email, nil
}

func parseModule(raw string) (domain.Module, error) {
	module, ok := domain.ParseModule(raw)
	if !ok {
		return "", apperrors.NewValidationError("unknown module", map[string]any{"module": raw})
	}
	return module, nil
}

func parseFeature(raw string) (domain.Feature, error) {
	feature, ok := domain.ParseFeature(raw)
	if !ok {
		return "", apperrors.NewValidationError("unknown feature", map[string]any{"feature": raw})
	}
	return feature, nil
}

// publishEvent dispatches event; handler failures are logged and never fail the write.
func publishEvent(ctx context.Context, dispatcher events.Dispatcher, logger *zap.Logger, event events.Event) {
	if dispatcher == nil {
		return
	}
	if err := dispatcher.Publish(ctx, event); err != nil {
		logger.Warn("event handler failed",
			zap.String("event_type", string(event.Type)),
			zap.String("subject", event.Subject),
			zap.Error(err))
	}
}
