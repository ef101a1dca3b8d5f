package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"hivelens/internal/domain"
)

type PostSource interface {
	FetchPosts(ctx context.Context, from, to time.Time) ([]domain.RawPost, error)
}

type ImageStore interface {
	InsertBatch(ctx context.Context, records []domain.ImageRecord) (int, error)
	CurrentSizeBytes(ctx context.Context) (int64, error)
	CountInRange(ctx context.Context, from, to time.Time) (int, error)
}

type Prober interface {
	FilterReachable(ctx context.Context, urls []string) (live, dead []string)
}

type Publisher interface {
	PublishBatch(ctx context.Context, records []domain.ImageRecord) error
	Close() error
}
