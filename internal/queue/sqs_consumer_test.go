package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSQS struct {
	mu       sync.Mutex
	batches  [][]types.Message
	deleted  []string
	drained  chan struct{}
	received int
}

func (f *fakeSQS) ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.received++
	if f.received == 1 {
		return nil, errors.New("throttled")
	}
	if len(f.batches) == 0 {
		select {
		case <-f.drained:
		default:
			close(f.drained)
		}
		return &sqs.ReceiveMessageOutput{}, nil
	}
	batch := f.batches[0]
	f.batches = f.batches[1:]
	return &sqs.ReceiveMessageOutput{Messages: batch}, nil
}

func (f *fakeSQS) DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, aws.ToString(params.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

func TestConsumerDeletesHandledMessagesOnly(t *testing.T) {
	client := &fakeSQS{
		drained: make(chan struct{}),
		batches: [][]types.Message{{
			{MessageId: aws.String("1"), ReceiptHandle: aws.String("r1"), Body: aws.String("ok")},
			{MessageId: aws.String("2"), ReceiptHandle: aws.String("r2"), Body: aws.String("fail")},
			{MessageId: aws.String("3"), ReceiptHandle: aws.String("r3")},
		}},
	}
	var handled []string
	c := NewSQSConsumer(client, "https://sqs.local/reload", func(ctx context.Context, body string) error {
		handled = append(handled, body)
		if body == "fail" {
			return errors.New("boom")
		}
		return nil
	})
	c.retryDelay = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Start(ctx)
		close(done)
	}()

	select {
	case <-client.drained:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer never drained the queue")
	}
	cancel()
	<-done

	assert.Equal(t, []string{"ok", "fail"}, handled)
	client.mu.Lock()
	defer client.mu.Unlock()
	require.Len(t, client.deleted, 2)
	assert.Equal(t, []string{"r1", "r3"}, client.deleted)
}
