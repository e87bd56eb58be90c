package source

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Disk reads <Root>/<bucket>/<key>.
type Disk struct {
	Root string
}

// NewDisk returns a source under root.
func NewDisk(root string) *Disk {
	return &Disk{Root: root}
}

// Read implements Source.
func (d *Disk) Read(ctx context.Context, bucket, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bucket = strings.ReplaceAll(bucket, "../", "")
	key = strings.ReplaceAll(key, "../", "")

	if bucket == "" || bucket == ".." || strings.ContainsRune(bucket, '/') {
		return nil, NotFound(bucket, key)
	}

	filename := filepath.Join(d.Root, bucket, filepath.FromSlash(key))
	if rel, err := filepath.Rel(d.Root, filename); err != nil || strings.HasPrefix(rel, "..") {
		return nil, NotFound(bucket, key)
	}

	body, err := os.ReadFile(filename)
	if errors.Is(err, fs.ErrPermission) {
		return nil, &Error{StatusCode: http.StatusForbidden, Err: err}
	}
	if err != nil {
		return nil, &Error{StatusCode: http.StatusNotFound, Err: err}
	}

	return body, nil
}
