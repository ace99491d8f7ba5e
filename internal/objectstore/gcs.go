package objectstore

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/api/option"
	"google.golang.org/api/storage/v1"
)

// GCSStore lists and downloads objects from a Google Cloud Storage bucket using
// the JSON API.
type GCSStore struct {
	service *storage.Service
	bucket  string
	log     zerolog.Logger
}

// NewGCSStore creates a storage service authenticated with credentialsFile.
// Extra client options (endpoint, auth) are appended after the credentials.
func NewGCSStore(ctx context.Context, credentialsFile, bucket string, log zerolog.Logger, opts ...option.ClientOption) (*GCSStore, error) {
	if credentialsFile != "" {
		opts = append([]option.ClientOption{option.WithCredentialsFile(credentialsFile)}, opts...)
	}
	service, err := storage.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage service: %w", err)
	}

	return &GCSStore{
		service: service,
		bucket:  bucket,
		log:     log.With().Str("store", "gcs").Str("bucket", bucket).Logger(),
	}, nil
}

func (g *GCSStore) Bucket() string { return g.bucket }

// ListAll pages through the bucket until the response carries no NextPageToken.
func (g *GCSStore) ListAll(ctx context.Context) ([]Object, error) {
	var (
		objects []Object
		token   string
		pages   int
	)
	for {
		call := g.service.Objects.List(g.bucket).Context(ctx)
		if token != "" {
			call = call.PageToken(token)
		}
		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("%w: list gs://%s: %v", ErrStoreUnavailable, g.bucket, err)
		}
		pages++
		for _, item := range resp.Items {
			updated, _ := time.Parse(time.RFC3339, item.Updated)
			objects = append(objects, Object{
				Key:          item.Name,
				Size:         int64(item.Size),
				LastModified: updated,
			})
		}
		if resp.NextPageToken == "" {
			break
		}
		token = resp.NextPageToken
	}

	g.log.Debug().
		Int("pages", pages).
		Int("objects", len(objects)).
		Msg("Listed bucket")
	return objects, nil
}

// Fetch downloads the media of the named object.
func (g *GCSStore) Fetch(ctx context.Context, key string) ([]byte, error) {
	resp, err := g.service.Objects.Get(g.bucket, key).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("%w: get gs://%s/%s: %v", ErrFetch, g.bucket, key, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read gs://%s/%s: %v", ErrFetch, g.bucket, key, err)
	}
	g.log.Debug().Str("key", key).Int("bytes", len(body)).Msg("Downloaded object")
	return body, nil
}
