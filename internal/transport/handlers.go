// Package transport provides methods for processing requests from endpoints
package transport

import (
	"context"
	"strconv"
	"strings"

	"github.com/UnendingLoop/ArtShare/internal/model"
	"github.com/UnendingLoop/ArtShare/internal/mwauth"
	"github.com/wb-go/wbf/ginext"
)

type ImageHandler struct {
	service ImageService
	feed    FeedAssembler
}

type ImageService interface {
	Upload(ctx context.Context, ownerID string, data *model.ImageUploadData) (*model.Image, error)
	Delete(ctx context.Context, id string, requesterID string) (*model.DeleteResult, error) // удалить как в базе, так и в хранилище
	Like(ctx context.Context, id string, userID string) (int64, error)
	Unlike(ctx context.Context, id string, userID string) (int64, error)
	IsLiked(ctx context.Context, id string, userID string) (bool, error)
	RecordView(ctx context.Context, id string) (*model.Image, error) // детальная выдача с инкрементом просмотров
}

type FeedAssembler interface {
	RandomFeed(ctx context.Context, count int) ([]model.ImageView, error)
	Page(ctx context.Context, req *model.ListRequest) (*model.FeedPage, error)
	UserFeed(ctx context.Context, username string) ([]model.ImageView, error)
	Detail(ctx context.Context, img *model.Image) model.ImageView
}

func NewImageHandler(svc ImageService, feed FeedAssembler) *ImageHandler {
	return &ImageHandler{
		service: svc,
		feed:    feed,
	}
}

func (h ImageHandler) SimplePinger(ctx *ginext.Context) {
	ctx.JSON(200, map[string]string{"message": "pong"})
}

func (h ImageHandler) Upload(ctx *ginext.Context) {
	user, ok := mwauth.UserFromContext(ctx)
	if !ok {
		ctx.JSON(401, map[string]string{"error": model.ErrUnauthorized.Error()})
		return
	}

	// парсинг файла
	imageFile, imageHeader, err := ctx.Request.FormFile("image")
	if err != nil {
		ctx.JSON(400, map[string]string{"error": "image is required"})
		return
	}
	defer closeFileFlow(imageFile)

	// собираем все в структуру
	data := model.ImageUploadData{
		Title:       ctx.PostForm("title"),
		Description: ctx.PostForm("description"),
		Category:    ctx.PostForm("category"),
		Tags:        splitTags(ctx.PostForm("tags")),
		File:        imageFile,
		FileName:    imageHeader.Filename,
		ContentType: imageHeader.Header.Get("Content-Type"),
		FileSize:    imageHeader.Size,
	}

	// передаем в сервис
	res, err := h.service.Upload(ctx.Request.Context(), user.UID.String(), &data)
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.JSON(201, h.feed.Detail(ctx.Request.Context(), res))
}

func (h ImageHandler) RandomFeed(ctx *ginext.Context) {
	count, _ := strconv.Atoi(ctx.Query("count")) // пустое/кривое значение заменит дефолт в сервисе

	res, err := h.feed.RandomFeed(ctx.Request.Context(), count)
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.JSON(200, res)
}

func (h ImageHandler) GetAllImages(ctx *ginext.Context) {
	var req model.ListRequest

	if err := ctx.ShouldBindQuery(&req); err != nil {
		ctx.JSON(400, map[string]string{"error": "failed to parse query-params"})
		return
	}

	res, err := h.feed.Page(ctx.Request.Context(), &req)
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.JSON(200, res)
}

func (h ImageHandler) UserFeed(ctx *ginext.Context) {
	username := ctx.Param("username")

	res, err := h.feed.UserFeed(ctx.Request.Context(), username)
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.JSON(200, res)
}

// GetImage - детальная выдача, каждый запрос засчитывается как просмотр
func (h ImageHandler) GetImage(ctx *ginext.Context) {
	id := ctx.Param("id")

	img, err := h.service.RecordView(ctx.Request.Context(), id)
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.JSON(200, h.feed.Detail(ctx.Request.Context(), img))
}

func (h ImageHandler) Delete(ctx *ginext.Context) {
	user, ok := mwauth.UserFromContext(ctx)
	if !ok {
		ctx.JSON(401, map[string]string{"error": model.ErrUnauthorized.Error()})
		return
	}

	id := ctx.Param("id")
	res, err := h.service.Delete(ctx.Request.Context(), id, user.UID.String())
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.JSON(200, map[string]any{"success": res.RecordDeleted, "message": "image deleted"})
}

func (h ImageHandler) Like(ctx *ginext.Context) {
	user, ok := mwauth.UserFromContext(ctx)
	if !ok {
		ctx.JSON(401, map[string]string{"error": model.ErrUnauthorized.Error()})
		return
	}

	id := ctx.Param("id")
	count, err := h.service.Like(ctx.Request.Context(), id, user.UID.String())
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.JSON(200, map[string]any{"message": "image liked", "likesCount": count})
}

func (h ImageHandler) Unlike(ctx *ginext.Context) {
	user, ok := mwauth.UserFromContext(ctx)
	if !ok {
		ctx.JSON(401, map[string]string{"error": model.ErrUnauthorized.Error()})
		return
	}

	id := ctx.Param("id")
	count, err := h.service.Unlike(ctx.Request.Context(), id, user.UID.String())
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.JSON(200, map[string]any{"message": "like removed", "likesCount": count})
}

func (h ImageHandler) IsLiked(ctx *ginext.Context) {
	user, ok := mwauth.UserFromContext(ctx)
	if !ok {
		ctx.JSON(401, map[string]string{"error": model.ErrUnauthorized.Error()})
		return
	}

	id := ctx.Param("id")
	liked, err := h.service.IsLiked(ctx.Request.Context(), id, user.UID.String())
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.JSON(200, map[string]bool{"liked": liked})
}

// splitTags - теги приходят одной строкой через запятую
func splitTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return strings.Split(raw, ",")
}
