package services

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"time"

	"farmfresh/internal/domain"
)

// Clock lets tests pin "now".
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// ImageStore holds uploaded product images.
type ImageStore interface {
	Save(name string, r io.Reader) error
	Remove(name string) error
}

// IdempotencyStore remembers request keys for a while.
type IdempotencyStore interface {
	Claim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

// notFoundOr turns a missing row into a NotFound naming what, and anything
// else into an internal error.
func notFoundOr(op string, err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFound(op, "%s not found", what)
	}
	return domain.Internal(op, err)
}
