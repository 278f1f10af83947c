package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/UnendingLoop/ArtShare/internal/model"
	"github.com/UnendingLoop/ArtShare/internal/mwlogger"
	"github.com/UnendingLoop/ArtShare/internal/repository"
	"github.com/wb-go/wbf/config"
)

// FeedAssembler joins image records with the minimal artist projection and
// shapes them into public views for list/random/detail responses
type FeedAssembler struct {
	repo    repository.ImageRepo
	artists ArtistDirectory
	baseURL string
}

// ArtistDirectory - контракт для джойна артиста в детальной выдаче
type ArtistDirectory interface {
	ByUsername(ctx context.Context, username string) (*model.User, error)
}

func NewFeedAssembler(cfg *config.Config, imageRep repository.ImageRepo, artists ArtistDirectory) *FeedAssembler {
	return &FeedAssembler{
		repo:    imageRep,
		artists: artists,
		baseURL: strings.TrimRight(cfg.GetString("BASE_URL"), "/"),
	}
}

func (f *FeedAssembler) RandomFeed(ctx context.Context, count int) ([]model.ImageView, error) {
	logger := mwlogger.LoggerFromContext(ctx)
	count = validateRandomCount(count)

	// count больше популяции - не ошибка, вернется все что есть
	images, err := f.repo.SampleRandom(ctx, count)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to fetch random feed from DB")
		return nil, model.ErrCommon500
	}

	return f.toViews(images), nil
}

func (f *FeedAssembler) Page(ctx context.Context, req *model.ListRequest) (*model.FeedPage, error) {
	logger := mwlogger.LoggerFromContext(ctx)
	validateQueryParams(req)

	images, total, err := f.repo.ListPage(ctx, req)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to fetch images page from DB")
		return nil, model.ErrCommon500
	}

	totalPages := int((total + int64(req.Limit) - 1) / int64(req.Limit))

	return &model.FeedPage{
		Images:     f.toViews(images),
		Total:      total,
		Page:       req.Page,
		TotalPages: totalPages,
	}, nil
}

func (f *FeedAssembler) UserFeed(ctx context.Context, username string) ([]model.ImageView, error) {
	logger := mwlogger.LoggerFromContext(ctx)
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, model.ErrEmptyUsername
	}

	if _, err := f.artists.ByUsername(ctx, username); err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, err
		}
		logger.Error().Err(err).Msg(fmt.Sprintf("Failed to resolve artist %q", username))
		return nil, model.ErrCommon500
	}

	images, err := f.repo.GetByArtist(ctx, username)
	if err != nil {
		logger.Error().Err(err).Msg(fmt.Sprintf("Failed to fetch feed of artist %q from DB", username))
		return nil, model.ErrCommon500
	}

	return f.toViews(images), nil
}

// Detail shapes a single already-fetched record, joining the artist avatar live
func (f *FeedAssembler) Detail(ctx context.Context, img *model.Image) model.ImageView {
	view := f.toView(img)

	// аватар не хранится в снимке на картинке - добираем из каталога,
	// неудача не роняет выдачу детали
	artist, err := f.artists.ByUsername(ctx, img.ArtistUsername)
	if err == nil {
		view.ArtistProfileImage = f.resolveURL(artist.ProfileImage)
	}

	return view
}

//--------------------

func (f *FeedAssembler) toViews(images []model.Image) []model.ImageView {
	views := make([]model.ImageView, 0, len(images))
	for i := range images {
		view := f.toView(&images[i])
		view.ArtistProfileImage = f.resolveURL(images[i].ArtistAvatar)
		views = append(views, view)
	}
	return views
}

func (f *FeedAssembler) toView(img *model.Image) model.ImageView {
	return model.ImageView{
		UID:            img.UID,
		Title:          img.Title,
		Description:    img.Description,
		ImageURL:       f.resolveURL(img.URL),
		Category:       img.Category,
		Tags:           img.Tags,
		ArtistUsername: img.ArtistUsername,
		LikesCount:     img.LikesCount,
		Views:          img.Views,
		CreatedAt:      img.CreatedAt,
	}
}

// resolveURL - относительные локаторы дискового бекенда превращаются
// в абсолютные только на выдаче, данные в базе не трогаем
func (f *FeedAssembler) resolveURL(url string) string {
	if url == "" || !strings.HasPrefix(url, "/") {
		return url
	}
	return f.baseURL + url
}
