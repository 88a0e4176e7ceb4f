package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/rl1809/storefront/internal/core/domain"
)

var tracer = otel.Tracer("github.com/rl1809/storefront/internal/core/service")

func utcNow() time.Time { return time.Now().UTC() }

func newID() string { return uuid.NewString() }

// endSpan records err on span unless it is nil, then ends it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(domain.KindOf(err)))
	}
	span.End()
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, domain.OrderEvent) {}
