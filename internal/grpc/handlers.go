package grpc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/godilite/perception-server/internal/metrics"
	"github.com/godilite/perception-server/internal/privacy"
	"github.com/godilite/perception-server/internal/repository/models"
	"github.com/godilite/perception-server/internal/service"
)

const (
	defaultCacheDuration = 1 * time.Minute
	defaultGRPCTimeout   = 10 * time.Second

	// UserIDMetadataKey carries the authenticated caller, set by the edge proxy.
	UserIDMetadataKey = "x-user-id"

	statusOK               = "OK"
	statusInsufficientData = "INSUFFICIENT_DATA"
)

type CacheKeyType string

const (
	cacheKeyReport   CacheKeyType = "grpc:subject_report"
	cacheKeyExcerpts CacheKeyType = "grpc:subject_excerpts"
	cacheKeyVersion  CacheKeyType = "grpc:subject_version"
)

type GRPCHandlers struct {
	perception PerceptionService
	cache      Cacher
	logger     *zap.Logger
	sfGroup    singleflight.Group
	cacheTTL   time.Duration
}

var _ MarketPerceptionServer = (*GRPCHandlers)(nil)

// NewGRPCHandlers initializes the gRPC handlers. A nil cache disables report caching.
func NewGRPCHandlers(perception PerceptionService, cache Cacher, logger *zap.Logger, ttl time.Duration) *GRPCHandlers {
	if perception == nil {
		panic("nil PerceptionService provided to NewGRPCHandlers")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = defaultCacheDuration
	}
	return &GRPCHandlers{
		perception: perception,
		cache:      cache,
		logger:     logger.Named("grpc-handler"),
		cacheTTL:   ttl,
	}
}

type subjectRequest struct {
	SubjectType string `json:"subjectType"`
	SubjectID   string `json:"subjectId"`
}

type moderationRequest struct {
	FeedbackID string `json:"feedbackId"`
	Method     string `json:"method"`
	Status     string `json:"status"`
}

func (s *GRPCHandlers) parseSubject(req *structpb.Struct) (service.Subject, error) {
	var in subjectRequest
	if err := decodeStruct(req, &in); err != nil {
		return service.Subject{}, status.Error(codes.InvalidArgument, err.Error())
	}

	kind := models.SubjectType(strings.ToUpper(strings.TrimSpace(in.SubjectType)))
	id := strings.TrimSpace(in.SubjectID)

	if kind != models.SubjectContractHouse && kind != models.SubjectClientCompany {
		return service.Subject{}, status.Error(codes.InvalidArgument, "subjectType must be CONTRACT_HOUSE or CLIENT_COMPANY")
	}
	if id == "" {
		return service.Subject{}, status.Error(codes.InvalidArgument, "subjectId is required")
	}
	return service.Subject{Kind: kind, ID: id}, nil
}

func callerID(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if ok {
		for _, v := range md.Get(UserIDMetadataKey) {
			if v = strings.TrimSpace(v); v != "" {
				return v, nil
			}
		}
	}
	return "", status.Error(codes.Unauthenticated, "missing "+UserIDMetadataKey+" metadata")
}

func versionKey(subject service.Subject) string {
	return fmt.Sprintf("%s:%s:%s", cacheKeyVersion, subject.Kind, subject.ID)
}

func normalizeKey(prefix CacheKeyType, subject service.Subject, version int64) string {
	return fmt.Sprintf("%s:%s:%s:v%d", prefix, subject.Kind, subject.ID, version)
}

// cachedFetch reads through the cache under the subject's current version. When the version
// cannot be read the cache is bypassed.
func cachedFetch[T any](ctx context.Context, s *GRPCHandlers, prefix CacheKeyType, subject service.Subject, fn FetchFunc[T]) (T, error) {
	if s.cache == nil {
		return fn(ctx)
	}

	version, err := s.cache.Version(ctx, versionKey(subject))
	if err != nil {
		metrics.CacheOperations.WithLabelValues("error").Inc()
		s.logger.Warn("cache version lookup failed (bypassing cache)", zap.Stringer("subject", subject), zap.Error(err))
		return fn(ctx)
	}

	return FindAndCache(ctx, s.cache, &s.sfGroup, normalizeKey(prefix, subject, version), s.cacheTTL, s.logger, fn)
}

// invalidate bumps the version of every subject so cached outcomes are no longer read.
func (s *GRPCHandlers) invalidate(ctx context.Context, subjects []service.Subject) {
	if s.cache == nil {
		return
	}
	for _, subject := range subjects {
		if _, err := s.cache.Incr(ctx, versionKey(subject)); err != nil {
			s.logger.Error("failed to invalidate cached subject",
				zap.Stringer("subject", subject),
				zap.Error(err))
		}
	}
}

func (s *GRPCHandlers) handleError(ctx context.Context, op string, err error) error {
	switch ctx.Err() {
	case context.Canceled:
		s.logger.Warn("request canceled", zap.String("op", op))
		return status.Error(codes.Canceled, "request canceled")
	case context.DeadlineExceeded:
		s.logger.Warn("request timeout", zap.String("op", op))
		return status.Error(codes.DeadlineExceeded, "request timed out")
	}

	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		s.logger.Info("invalid request", zap.String("op", op), zap.Error(err))
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, service.ErrFeedbackNotFound):
		return status.Error(codes.NotFound, "feedback not found")
	case errors.Is(err, service.ErrAlreadyModerated):
		return status.Error(codes.FailedPrecondition, "feedback already moderated")
	case errors.Is(err, service.ErrStorageFailure):
		s.logger.Error("storage failure", zap.String("op", op), zap.Error(err))
		return status.Error(codes.Internal, "database error")
	default:
		s.logger.Error("unexpected error", zap.String("op", op), zap.Error(err))
		return status.Errorf(codes.Internal, "%s failed", op)
	}
}

func (s *GRPCHandlers) SubmitFeedback(ctx context.Context, req *structpb.Struct) (*wrapperspb.StringValue, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	var in service.SubmissionRequest
	if err := decodeStruct(req, &in); err != nil {
		metrics.SubmissionsTotal.WithLabelValues("invalid").Inc()
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	id, err := s.perception.Submit(ctx, userID, in)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRequest) {
			metrics.SubmissionsTotal.WithLabelValues("invalid").Inc()
		} else {
			metrics.SubmissionsTotal.WithLabelValues("error").Inc()
		}
		return nil, s.handleError(ctx, "SubmitFeedback", err)
	}

	metrics.SubmissionsTotal.WithLabelValues("accepted").Inc()
	return wrapperspb.String(id), nil
}

func (s *GRPCHandlers) ModerateFeedback(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	moderatorID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	var in moderationRequest
	if err := decodeStruct(req, &in); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	result, err := s.perception.Moderate(ctx, service.ModerationRequest{
		FeedbackID: in.FeedbackID,
		Method:     in.Method,
		Status:     in.Status,
		VerifiedBy: moderatorID,
	})
	if err != nil {
		return nil, s.handleError(ctx, "ModerateFeedback", err)
	}

	metrics.ModerationsTotal.WithLabelValues(string(result.Status)).Inc()
	s.invalidate(ctx, result.Subjects)

	return &emptypb.Empty{}, nil
}

func (s *GRPCHandlers) GetSubjectReport(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	subject, err := s.parseSubject(req)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	outcome, err := cachedFetch(ctx, s, cacheKeyReport, subject, func(fetchCtx context.Context) (service.ReportOutcome, error) {
		return s.perception.BuildReport(fetchCtx, subject)
	})
	if err != nil {
		metrics.ReportsTotal.WithLabelValues(string(subject.Kind), "error").Inc()
		return nil, s.handleError(ctx, "GetSubjectReport", err)
	}

	var body map[string]any
	switch {
	case outcome.Report != nil:
		metrics.ReportsTotal.WithLabelValues(string(subject.Kind), "released").Inc()
		body = map[string]any{"status": statusOK, "report": outcome.Report}
	case outcome.Insufficient != nil:
		metrics.ReportsTotal.WithLabelValues(string(subject.Kind), "insufficient").Inc()
		body = map[string]any{
			"status":            statusInsufficientData,
			"requiredThreshold": outcome.Insufficient.RequiredThreshold,
			"currentCount":      outcome.Insufficient.CurrentCount,
		}
	default:
		return nil, s.handleError(ctx, "GetSubjectReport", errors.New("empty report outcome"))
	}

	resp, err := encodeStruct(body)
	if err != nil {
		return nil, s.handleError(ctx, "GetSubjectReport", err)
	}
	return resp, nil
}

func (s *GRPCHandlers) GetSubjectExcerpts(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	subject, err := s.parseSubject(req)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	released, err := cachedFetch(ctx, s, cacheKeyExcerpts, subject, func(fetchCtx context.Context) (privacy.Released[[]string], error) {
		return s.perception.Excerpts(fetchCtx, subject)
	})
	if err != nil {
		metrics.ExcerptsTotal.WithLabelValues("error").Inc()
		return nil, s.handleError(ctx, "GetSubjectExcerpts", err)
	}

	var body map[string]any
	if excerpts, ok := released.Value(); ok {
		metrics.ExcerptsTotal.WithLabelValues("released").Inc()
		if excerpts == nil {
			excerpts = []string{}
		}
		body = map[string]any{
			"status":     statusOK,
			"sampleSize": released.SampleSize,
			"excerpts":   excerpts,
		}
	} else {
		metrics.ExcerptsTotal.WithLabelValues("withheld").Inc()
		body = map[string]any{
			"status":            statusInsufficientData,
			"requiredThreshold": privacy.FreeTextThreshold,
			"currentCount":      released.SampleSize,
		}
	}

	resp, err := encodeStruct(body)
	if err != nil {
		return nil, s.handleError(ctx, "GetSubjectExcerpts", err)
	}
	return resp, nil
}
