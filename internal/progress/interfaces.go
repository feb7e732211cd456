package progress

import (
	"context"
	"errors"
)

// ErrNotFound is returned by a Medium when nothing is stored under a key.
var ErrNotFound = errors.New("progress: not found")

// Medium is the key/value persistence the Store writes snapshots to.
type Medium interface {
	Load(ctx context.Context, key string) (string, error)
	Save(ctx context.Context, key string, value string) error
	Remove(ctx context.Context, key string) error
	Close() error
}
