package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/MrJamesThe3rd/reclaim/internal/apperr"
)

// GCS stores objects in a single Google Cloud Storage bucket.
type GCS struct {
	client *storage.Client
	bucket string
}

// NewGCSClient prefers explicit credentials JSON and falls back to
// application default credentials.
func NewGCSClient(ctx context.Context, credentialsJSON string) (*storage.Client, error) {
	if strings.TrimSpace(credentialsJSON) != "" {
		client, err := storage.NewClient(ctx, option.WithCredentialsJSON([]byte(credentialsJSON)))
		if err != nil {
			return nil, fmt.Errorf("creating gcs client: %w", err)
		}

		return client, nil
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating gcs client: %w", err)
	}

	return client, nil
}

func NewGCS(client *storage.Client, bucket string) *GCS {
	return &GCS{client: client, bucket: bucket}
}

func (g *GCS) Put(ctx context.Context, path string, data []byte, contentType string, metadata map[string]string) error {
	wc := g.client.Bucket(g.bucket).Object(path).NewWriter(ctx)
	wc.ContentType = contentType
	wc.Metadata = metadata

	if _, err := wc.Write(data); err != nil {
		wc.Close()
		return fmt.Errorf("writing gcs object %s: %w", path, err)
	}

	if err := wc.Close(); err != nil {
		return fmt.Errorf("closing gcs object %s: %w", path, err)
	}

	return nil
}

func (g *GCS) Get(ctx context.Context, path string) ([]byte, error) {
	reader, err := g.client.Bucket(g.bucket).Object(path).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, apperr.NotFound("object %s not found", path)
		}

		return nil, fmt.Errorf("opening gcs object %s: %w", path, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading gcs object %s: %w", path, err)
	}

	return data, nil
}

func (g *GCS) Close() error {
	return g.client.Close()
}
