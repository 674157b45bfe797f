// Package storage resolves data and structure file paths to local files or
// object store objects and applies transparent compression by suffix.
package storage

import (
	"net/url"
	"strings"

	"github.com/ajitpratap0/tabula/pkg/errors"
)

// Scheme identifies the backend serving a location.
type Scheme string

const (
	// Local is the local filesystem
	Local Scheme = "file"
	// S3 is Amazon S3 or an S3 compatible store
	S3 Scheme = "s3"
	// GCS is Google Cloud Storage
	GCS Scheme = "gs"
)

// Location is a parsed path.
type Location struct {
	Scheme Scheme
	// Bucket is empty for local paths
	Bucket string
	// Key is the object key, or the filesystem path for local locations
	Key string
}

// ParseLocation parses plain paths, file://, s3://bucket/key and
// gs://bucket/object.
func ParseLocation(raw string) (Location, error) {
	if raw == "" {
		return Location{}, errors.New(errors.ErrorTypeFile, "empty path")
	}
	idx := strings.Index(raw, "://")
	if idx < 0 {
		return Location{Scheme: Local, Key: raw}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Location{}, errors.Wrap(err, errors.ErrorTypeFile, "invalid path").WithDetail("path", raw)
	}
	switch Scheme(strings.ToLower(u.Scheme)) {
	case Local:
		return Location{Scheme: Local, Key: u.Path}, nil
	case S3:
		return objectLocation(S3, u, raw)
	case GCS:
		return objectLocation(GCS, u, raw)
	default:
		return Location{}, errors.Newf(errors.ErrorTypeCapability, "unsupported scheme %q", u.Scheme).WithDetail("path", raw)
	}
}

func objectLocation(scheme Scheme, u *url.URL, raw string) (Location, error) {
	key := strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return Location{}, errors.New(errors.ErrorTypeFile, "object path needs a bucket and a key").WithDetail("path", raw)
	}
	return Location{Scheme: scheme, Bucket: u.Host, Key: key}, nil
}

// String renders the location back to its path form.
func (l Location) String() string {
	if l.Scheme == Local {
		return l.Key
	}
	return string(l.Scheme) + "://" + l.Bucket + "/" + l.Key
}

// Remote reports whether the location lives in an object store.
func (l Location) Remote() bool {
	return l.Scheme != Local
}
