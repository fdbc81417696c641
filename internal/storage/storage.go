package storage

import (
	"context"
	"io"
)

// Uploader archives exported session artifacts (CSV logs).
type Uploader interface {
	Upload(ctx context.Context, objectName string, contentType string, r io.Reader) (storedPath string, err error)
}
