package transport

import (
	"context"

	"github.com/UnendingLoop/ArtShare/internal/model"
	"github.com/gin-gonic/gin"
)

type mockImageService struct {
	uploadFn     func(ctx context.Context, ownerID string, data *model.ImageUploadData) (*model.Image, error)
	deleteFn     func(ctx context.Context, id string, requesterID string) (*model.DeleteResult, error)
	likeFn       func(ctx context.Context, id string, userID string) (int64, error)
	unlikeFn     func(ctx context.Context, id string, userID string) (int64, error)
	isLikedFn    func(ctx context.Context, id string, userID string) (bool, error)
	recordViewFn func(ctx context.Context, id string) (*model.Image, error)
}

func (m *mockImageService) Upload(ctx context.Context, ownerID string, data *model.ImageUploadData) (*model.Image, error) {
	return m.uploadFn(ctx, ownerID, data)
}

func (m *mockImageService) Delete(ctx context.Context, id string, requesterID string) (*model.DeleteResult, error) {
	return m.deleteFn(ctx, id, requesterID)
}

func (m *mockImageService) Like(ctx context.Context, id string, userID string) (int64, error) {
	return m.likeFn(ctx, id, userID)
}

func (m *mockImageService) Unlike(ctx context.Context, id string, userID string) (int64, error) {
	return m.unlikeFn(ctx, id, userID)
}

func (m *mockImageService) IsLiked(ctx context.Context, id string, userID string) (bool, error) {
	return m.isLikedFn(ctx, id, userID)
}

func (m *mockImageService) RecordView(ctx context.Context, id string) (*model.Image, error) {
	return m.recordViewFn(ctx, id)
}

type mockFeedAssembler struct {
	randomFeedFn func(ctx context.Context, count int) ([]model.ImageView, error)
	pageFn       func(ctx context.Context, req *model.ListRequest) (*model.FeedPage, error)
	userFeedFn   func(ctx context.Context, username string) ([]model.ImageView, error)
	detailFn     func(ctx context.Context, img *model.Image) model.ImageView
}

func (m *mockFeedAssembler) RandomFeed(ctx context.Context, count int) ([]model.ImageView, error) {
	return m.randomFeedFn(ctx, count)
}

func (m *mockFeedAssembler) Page(ctx context.Context, req *model.ListRequest) (*model.FeedPage, error) {
	return m.pageFn(ctx, req)
}

func (m *mockFeedAssembler) UserFeed(ctx context.Context, username string) ([]model.ImageView, error) {
	return m.userFeedFn(ctx, username)
}

func (m *mockFeedAssembler) Detail(ctx context.Context, img *model.Image) model.ImageView {
	return m.detailFn(ctx, img)
}

func init() {
	gin.SetMode(gin.TestMode)
}
