// internal/feedback/feedback.go

// Package feedback forwards user feedback utterances to an external
// sink for expert review. Delivery is fire-and-forget: a failed post
// is logged and dropped, never surfaced to the user.
package feedback

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"analytics-workers/internal/common/logger"
	"analytics-workers/internal/models"
)

// Sink receives feedback records.
type Sink interface {
	Post(ctx context.Context, record models.FeedbackRecord) error
}

// snsAPI is the slice of the SNS client the publisher needs.
type snsAPI interface {
	Publish(ctx context.Context, input *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSSink publishes feedback records to an SNS topic as JSON.
type SNSSink struct {
	client   snsAPI
	topicARN string
	logger   logger.Logger
}

func NewSNSSink(client snsAPI, topicARN string, log logger.Logger) *SNSSink {
	return &SNSSink{
		client:   client,
		topicARN: topicARN,
		logger:   log.WithFields(map[string]interface{}{"component": "feedback"}),
	}
}

func (s *SNSSink) Post(ctx context.Context, record models.FeedbackRecord) error {
	if record.SubmittedAt.IsZero() {
		record.SubmittedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode feedback: %w", err)
	}

	_, err = s.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(s.topicARN),
		Subject:  aws.String("analytics-bot feedback"),
		Message:  aws.String(string(payload)),
	})
	if err != nil {
		return fmt.Errorf("publish feedback: %w", err)
	}

	s.logger.Info("feedback forwarded", map[string]interface{}{
		"userId": record.UserID,
	})
	return nil
}

// NoopSink discards feedback. Used when no topic is configured.
type NoopSink struct{}

func (NoopSink) Post(context.Context, models.FeedbackRecord) error { return nil }
