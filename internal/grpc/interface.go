package grpc

import (
	"context"
	"time"

	"github.com/godilite/perception-server/internal/privacy"
	"github.com/godilite/perception-server/internal/service"
)

// Cacher defines the interface for cache operations.
type Cacher interface {
	Close() error
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
	Version(ctx context.Context, key string) (int64, error)
}

type PerceptionService interface {
	Submit(ctx context.Context, submitterUserID string, req service.SubmissionRequest) (string, error)
	Moderate(ctx context.Context, req service.ModerationRequest) (service.ModerationResult, error)
	BuildReport(ctx context.Context, subject service.Subject) (service.ReportOutcome, error)
	Excerpts(ctx context.Context, subject service.Subject) (privacy.Released[[]string], error)
}
