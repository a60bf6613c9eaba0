// Package queue listens for data change events and triggers reloads.
package queue

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"parking_finder/internal/logger"
)

// SQSAPI is the subset of the SQS client the consumer needs.
type SQSAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// Handler processes one message body. A nil error deletes the message; otherwise it becomes
// visible again after the visibility timeout.
type Handler func(ctx context.Context, body string) error

type SQSConsumer struct {
	client     SQSAPI
	queueURL   string
	handle     Handler
	retryDelay time.Duration
}

func NewSQSConsumer(client SQSAPI, queueURL string, handle Handler) *SQSConsumer {
	return &SQSConsumer{
		client:     client,
		queueURL:   queueURL,
		handle:     handle,
		retryDelay: 5 * time.Second,
	}
}

func (c *SQSConsumer) Start(ctx context.Context) {
	logger.L().Info("sqs_consumer_start", "queue", c.queueURL)
	for {
		select {
		case <-ctx.Done():
			logger.L().Info("sqs_consumer_stop")
			return
		default:
		}

		result, err := c.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            &c.queueURL,
			MaxNumberOfMessages: 10,
			WaitTimeSeconds:     20,
			VisibilityTimeout:   60,
		})
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.L().Error("sqs_receive_failed", "err", err)
			select {
			case <-time.After(c.retryDelay):
			case <-ctx.Done():
				return
			}
			continue
		}
		if len(result.Messages) == 0 {
			continue
		}
		logger.L().Debug("sqs_received", "count", len(result.Messages))

		for _, message := range result.Messages {
			if message.Body == nil {
				c.deleteMessage(ctx, message.ReceiptHandle)
				continue
			}
			if err := c.handle(ctx, *message.Body); err != nil {
				id := ""
				if message.MessageId != nil {
					id = *message.MessageId
				}
				logger.L().Warn("sqs_message_failed", "message_id", id, "err", err)
				continue
			}
			c.deleteMessage(ctx, message.ReceiptHandle)
		}
	}
}

func (c *SQSConsumer) deleteMessage(ctx context.Context, receiptHandle *string) {
	if receiptHandle == nil {
		logger.L().Warn("sqs_delete_skipped", "reason", "empty receipt handle")
		return
	}
	_, err := c.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      &c.queueURL,
		ReceiptHandle: receiptHandle,
	})
	if err != nil {
		logger.L().Error("sqs_delete_failed", "err", err)
	}
}
