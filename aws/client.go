package aws

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/rs/zerolog/log"
)

// Client reads fixture objects from S3.
type Client struct {
	region   string
	s3Client s3iface.S3API
}

func NewClient(region string) (*Client, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	log.Info().
		Str("region", region).
		Msg("AWS session created successfully")

	return NewClientWithAPI(region, s3.New(sess)), nil
}

// NewClientWithAPI wraps an existing S3 API implementation.
func NewClientWithAPI(region string, api s3iface.S3API) *Client {
	return &Client{
		region:   region,
		s3Client: api,
	}
}

// GetObject downloads an object and returns its body.
func (c *Client) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	log.Info().
		Str("bucket", bucket).
		Str("region", c.region).
		Str("key", key).
		Msg("Fetching object from S3")

	out, err := c.s3Client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		log.Error().
			Err(err).
			Str("bucket", bucket).
			Str("key", key).
			Msg("S3 download failed")
		return nil, fmt.Errorf("failed to get s3 object: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read s3 object: %w", err)
	}

	log.Info().
		Str("bucket", bucket).
		Str("key", key).
		Int("content_size", len(data)).
		Msg("Object fetched from S3")

	return data, nil
}
