package storage

import (
	"context"
	"io"
	"time"

	gcs "cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/ajitpratap0/tabula/pkg/errors"
	"github.com/ajitpratap0/tabula/pkg/logger"
)

type gcsBackend struct {
	client *gcs.Client
}

func newGCSBackend(ctx context.Context, opts Options) (*gcsBackend, error) {
	var clientOpts []option.ClientOption
	if opts.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}

	client, err := gcs.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to create GCS client")
	}
	logger.Debug("GCS client initialized", zap.Bool("credentials_file", opts.CredentialsFile != ""))
	return &gcsBackend{client: client}, nil
}

func (b *gcsBackend) open(ctx context.Context, loc Location) (io.ReadCloser, error) {
	return b.client.Bucket(loc.Bucket).Object(loc.Key).NewReader(ctx)
}

func (b *gcsBackend) create(ctx context.Context, loc Location, _ bool) (io.WriteCloser, error) {
	w := b.client.Bucket(loc.Bucket).Object(loc.Key).NewWriter(ctx)
	w.ContentType = "text/plain"
	return w, nil
}

func (b *gcsBackend) modTime(ctx context.Context, loc Location) (time.Time, error) {
	attrs, err := b.client.Bucket(loc.Bucket).Object(loc.Key).Attrs(ctx)
	if err != nil {
		return time.Time{}, err
	}
	return attrs.Updated, nil
}
