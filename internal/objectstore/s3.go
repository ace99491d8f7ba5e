package objectstore

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/rs/zerolog"
)

// S3Store lists and downloads objects from a single S3 bucket.
type S3Store struct {
	api    s3iface.S3API
	bucket string
	log    zerolog.Logger
}

// NewS3Store creates a session for region (and an optional custom endpoint, for
// S3-compatible stores) and returns a store bound to bucket.
func NewS3Store(region, endpoint, bucket string, log zerolog.Logger) (*S3Store, error) {
	cfg := &aws.Config{Region: aws.String(region)}
	if endpoint != "" {
		cfg.Endpoint = aws.String(endpoint)
		cfg.S3ForcePathStyle = aws.Bool(true)
	}
	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create aws session: %w", err)
	}
	return NewS3StoreWithAPI(s3.New(sess), bucket, log), nil
}

// NewS3StoreWithAPI wraps an existing S3 client.
func NewS3StoreWithAPI(api s3iface.S3API, bucket string, log zerolog.Logger) *S3Store {
	return &S3Store{
		api:    api,
		bucket: bucket,
		log:    log.With().Str("store", "s3").Str("bucket", bucket).Logger(),
	}
}

func (s *S3Store) Bucket() string { return s.bucket }

// ListAll pages through the whole bucket, following NextContinuationToken for as
// long as the response is truncated.
func (s *S3Store) ListAll(ctx context.Context) ([]Object, error) {
	var (
		objects []Object
		token   *string
		pages   int
	)
	for {
		out, err := s.api.ListObjectsV2WithContext(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: list s3://%s: %v", ErrStoreUnavailable, s.bucket, err)
		}
		pages++
		for _, obj := range out.Contents {
			objects = append(objects, Object{
				Key:          aws.StringValue(obj.Key),
				Size:         aws.Int64Value(obj.Size),
				LastModified: aws.TimeValue(obj.LastModified),
			})
		}
		if !aws.BoolValue(out.IsTruncated) {
			break
		}
		token = out.NextContinuationToken
	}

	s.log.Debug().
		Int("pages", pages).
		Int("objects", len(objects)).
		Msg("Listed bucket")
	return objects, nil
}

// Fetch downloads the full body of key.
func (s *S3Store) Fetch(ctx context.Context, key string) ([]byte, error) {
	out, err := s.api.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: get s3://%s/%s: %v", ErrFetch, s.bucket, key, err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read s3://%s/%s: %v", ErrFetch, s.bucket, key, err)
	}
	s.log.Debug().Str("key", key).Int("bytes", len(body)).Msg("Downloaded object")
	return body, nil
}
