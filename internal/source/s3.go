package source

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"parking_finder/internal/domain"
)

// S3GetObjectAPI is the subset of *s3.Client the source needs.
type S3GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source reads the fixture object from a bucket.
type S3Source struct {
	client S3GetObjectAPI
	bucket string
	key    string
}

func NewS3Source(client S3GetObjectAPI, bucket, key string) *S3Source {
	return &S3Source{client: client, bucket: bucket, key: key}
}

func (s *S3Source) Name() string { return "s3://" + s.bucket + "/" + s.key }

func (s *S3Source) Fetch(ctx context.Context) ([]domain.ParkingSpot, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return nil, fmt.Errorf("S3Source.Fetch: %w", err)
	}
	defer out.Body.Close()
	data, err := readPayload(out.Body)
	if err != nil {
		return nil, fmt.Errorf("S3Source.Fetch (reading object): %w", err)
	}
	return Decode(data)
}
