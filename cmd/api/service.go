package main

import (
	"context"

	"github.com/UnendingLoop/ArtShare/internal/model"
)

type ImageAPIService interface {
	Upload(ctx context.Context, ownerID string, data *model.ImageUploadData) (*model.Image, error)
	Delete(ctx context.Context, id string, requesterID string) (*model.DeleteResult, error)
	Like(ctx context.Context, id string, userID string) (int64, error)
	Unlike(ctx context.Context, id string, userID string) (int64, error)
	IsLiked(ctx context.Context, id string, userID string) (bool, error)
	RecordView(ctx context.Context, id string) (*model.Image, error)
	SweepOrphans(ctx context.Context, limit int)
}
