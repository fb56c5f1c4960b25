package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"kafe/backend/internal/cache"
	"kafe/backend/internal/domain"
	"kafe/backend/internal/logger"
	"kafe/backend/internal/metrics"
	"kafe/backend/internal/report"
	"kafe/backend/internal/store"
	"kafe/backend/internal/xid"
)

var ErrForbidden = errors.New("admin role required")

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

// Options carries the collaborators of a Service. Zero values are replaced
// with no-op implementations.
type Options struct {
	Cache    cache.ReportCache
	CacheTTL time.Duration
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
	Location *time.Location
	Now      func() time.Time
}

type Service struct {
	repo     store.Repository
	cache    cache.ReportCache
	cacheTTL time.Duration
	metrics  *metrics.Metrics
	log      *zap.Logger
	loc      *time.Location
	now      func() time.Time
}

func New(repo store.Repository, opts Options) *Service {
	if opts.Cache == nil {
		opts.Cache = cache.NoopReportCache{}
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Service{
		repo:     repo,
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
		metrics:  opts.Metrics,
		log:      opts.Logger,
		loc:      opts.Location,
		now:      opts.Now,
	}
}

func (s *Service) logger(ctx context.Context) *zap.Logger {
	return logger.FromContext(ctx, s.log)
}

func requireAdmin(ctx context.Context) (domain.Actor, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.Actor{}, ErrForbidden
	}
	return actor, nil
}

func (s *Service) logAudit(ctx context.Context, action string, entityType string, entityID string, detail string) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		actor = domain.Actor{Username: "system", Role: "system"}
	}

	if err := s.repo.CreateAuditLog(ctx, domain.AuditLog{
		ID:            xid.New("audit"),
		ActorUsername: actor.Username,
		ActorRole:     actor.Role,
		Action:        action,
		EntityType:    entityType,
		EntityID:      entityID,
		Detail:        detail,
		CreatedAt:     s.now().UTC(),
	}); err != nil {
		s.logger(ctx).Warn("audit log write failed",
			zap.String("action", action),
			zap.String("entity_type", entityType),
			zap.String("entity_id", entityID),
			zap.Error(err),
		)
	}
}

// ListAuditLogs returns the entries of one local day, or of the last 24 hours
// when date is empty.
func (s *Service) ListAuditLogs(ctx context.Context, date string, limit int) ([]domain.AuditLog, error) {
	if limit < 1 {
		limit = 100
	}

	if strings.TrimSpace(date) == "" {
		to := s.now().UTC().Add(time.Nanosecond)
		return s.repo.ListAuditLogs(ctx, to.Add(-24*time.Hour), to, limit)
	}
	from, err := report.ParseDate(date, s.loc)
	if err != nil {
		return nil, err
	}
	to := from.AddDate(0, 0, 1)

	return s.repo.ListAuditLogs(ctx, from, to, limit)
}
