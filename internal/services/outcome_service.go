package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"voicebox/internal/session"
)

// CompletionScore is the fixed grade sent back after a successful submission:
// the assignment is graded on completion, not quality.
const CompletionScore = 1.0

const outcomeTimeout = 30 * time.Second

// OutcomeClient is implemented by lti.OutcomeClient.
type OutcomeClient interface {
	ReplaceResult(ctx context.Context, serviceURL, consumerKey, sourcedID string, score float64) error
}

// OutcomeService reports grades back to the consumer. Reporting is
// fire-and-forget: the upload response never waits on the LMS, and a failed
// report is only logged.
type OutcomeService struct {
	client OutcomeClient
	logger *zap.Logger
}

func NewOutcomeService(client OutcomeClient, logger *zap.Logger) *OutcomeService {
	return &OutcomeService{client: client, logger: logger}
}

// ReportCompletion sends the completion grade for the session in the
// background. The needed fields are copied out before the goroutine starts so
// the caller may keep mutating the session.
func (s *OutcomeService) ReportCompletion(sess *session.Session) {
	serviceURL := sess.OutcomeServiceURL
	sourcedID := sess.ResultSourcedID
	consumerKey := sess.ConsumerKey
	userID := sess.UserID

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), outcomeTimeout)
		defer cancel()

		if err := s.client.ReplaceResult(ctx, serviceURL, consumerKey, sourcedID, CompletionScore); err != nil {
			s.logger.Warn("outcome report failed",
				zap.String("user_id", userID),
				zap.String("service_url", serviceURL),
				zap.Error(err))
			return
		}
		s.logger.Info("outcome reported",
			zap.String("user_id", userID),
			zap.Float64("score", CompletionScore))
	}()
}
