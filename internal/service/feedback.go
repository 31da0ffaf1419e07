package service

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/godilite/perception-server/internal/privacy"
	"github.com/godilite/perception-server/pkg/events"
)

const (
	dbTimeout = 1 * time.Second

	defaultCountry = "South Africa"
)

var (
	ErrStorageFailure   = errors.New("storage failure")
	ErrInvalidRequest   = errors.New("invalid request")
	ErrFeedbackNotFound = errors.New("feedback not found")
	ErrAlreadyModerated = errors.New("feedback already moderated")
)

// FeedbackService runs submission intake, moderation and anonymized reporting.
type FeedbackService struct {
	storage   FeedbackRepository
	publisher EventPublisher
	logger    *zap.Logger
	validate  *validator.Validate
	scrubber  *privacy.Scrubber
	now       func() time.Time
	newID     func() string
}

type Option func(*FeedbackService)

// WithClock overrides the time source used for timestamps and recency.
func WithClock(now func() time.Time) Option {
	return func(s *FeedbackService) {
		s.now = now
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(s *FeedbackService) {
		s.newID = newID
	}
}

func WithScrubber(scrubber *privacy.Scrubber) Option {
	return func(s *FeedbackService) {
		s.scrubber = scrubber
	}
}

// NewFeedbackService creates a new FeedbackService instance.
func NewFeedbackService(storage FeedbackRepository, publisher EventPublisher, logger *zap.Logger, opts ...Option) *FeedbackService {
	if storage == nil {
		panic("storage must not be nil")
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if logger == nil {
		l, _ := zap.NewProduction()
		logger = l
	}

	s := &FeedbackService{
		storage:   storage,
		publisher: publisher,
		logger:    logger,
		validate:  newValidator(),
		scrubber:  privacy.NewScrubber(),
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
