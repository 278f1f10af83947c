package service

import (
	"context"
	"testing"

	"github.com/UnendingLoop/ArtShare/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// RANDOMFEED - population smaller than requested count is not an error
func TestFeedAssembler_RandomFeed_SmallPopulation(t *testing.T) {
	repo := &mockRepo{
		sampleRandomFn: func(ctx context.Context, count int) ([]model.Image, error) {
			require.Equal(t, 20, count)
			return []model.Image{{UID: uuid.New()}, {UID: uuid.New()}}, nil
		},
	}

	feed := FeedAssembler{repo: repo}

	res, err := feed.RandomFeed(context.Background(), 20)
	require.NoError(t, err)
	require.Len(t, res, 2)
}

// RANDOMFEED - zero/negative count falls back to the default
func TestFeedAssembler_RandomFeed_DefaultCount(t *testing.T) {
	repo := &mockRepo{
		sampleRandomFn: func(ctx context.Context, count int) ([]model.Image, error) {
			require.Equal(t, defaultRandomCount, count)
			return nil, nil
		},
	}

	feed := FeedAssembler{repo: repo}

	_, err := feed.RandomFeed(context.Background(), -5)
	require.NoError(t, err)
}

// PAGE - totalPages math: 50 items, page 3 of size 20 -> 10 items, 3 pages
func TestFeedAssembler_Page_TotalPages(t *testing.T) {
	repo := &mockRepo{
		listPageFn: func(ctx context.Context, req *model.ListRequest) ([]model.Image, int64, error) {
			require.Equal(t, 3, req.Page)
			require.Equal(t, 20, req.Limit)

			images := make([]model.Image, 10)
			return images, 50, nil
		},
	}

	feed := FeedAssembler{repo: repo}

	res, err := feed.Page(context.Background(), &model.ListRequest{Page: 3, Limit: 20})
	require.NoError(t, err)
	require.Len(t, res.Images, 10)
	require.Equal(t, int64(50), res.Total)
	require.Equal(t, 3, res.Page)
	require.Equal(t, 3, res.TotalPages)
}

// PAGE - out-of-range page returns an empty sequence, not an error
func TestFeedAssembler_Page_OutOfRange(t *testing.T) {
	repo := &mockRepo{
		listPageFn: func(ctx context.Context, req *model.ListRequest) ([]model.Image, int64, error) {
			return []model.Image{}, 50, nil
		},
	}

	feed := FeedAssembler{repo: repo}

	res, err := feed.Page(context.Background(), &model.ListRequest{Page: 100, Limit: 20})
	require.NoError(t, err)
	require.Empty(t, res.Images)
}

// USERFEED - unknown artist
func TestFeedAssembler_UserFeed_UnknownArtist(t *testing.T) {
	artists := &mockUsers{
		byUsernameFn: func(ctx context.Context, username string) (*model.User, error) {
			return nil, model.ErrUserNotFound
		},
	}

	feed := FeedAssembler{artists: artists}

	_, err := feed.UserFeed(context.Background(), "ghost")
	require.ErrorIs(t, err, model.ErrUserNotFound)
}

// USERFEED - SUCCESS
func TestFeedAssembler_UserFeed_OK(t *testing.T) {
	artists := &mockUsers{
		byUsernameFn: func(ctx context.Context, username string) (*model.User, error) {
			return &model.User{UID: uuid.New(), Username: username}, nil
		},
	}
	repo := &mockRepo{
		getByArtistFn: func(ctx context.Context, username string) ([]model.Image, error) {
			require.Equal(t, "painter", username)
			return []model.Image{{UID: uuid.New(), ArtistUsername: username}}, nil
		},
	}

	feed := FeedAssembler{repo: repo, artists: artists}

	res, err := feed.UserFeed(context.Background(), "painter")
	require.NoError(t, err)
	require.Len(t, res, 1)
	require.Equal(t, "painter", res[0].ArtistUsername)
}

// VIEW PROJECTION - relative disk locators get the base-URL prefix,
// absolute minio locators stay untouched
func TestFeedAssembler_ResolveURL(t *testing.T) {
	feed := FeedAssembler{baseURL: "https://art.example.com"}

	require.Equal(t, "https://art.example.com/media/a.jpg", feed.resolveURL("/media/a.jpg"))
	require.Equal(t, "http://minio:9000/artworks/a.jpg", feed.resolveURL("http://minio:9000/artworks/a.jpg"))
	require.Equal(t, "", feed.resolveURL(""))
}

// VIEW PROJECTION - internal fields never leak into the public view
func TestFeedAssembler_ViewExcludesInternals(t *testing.T) {
	img := &model.Image{
		UID:            uuid.New(),
		Title:          "Sunset",
		URL:            "/media/a.jpg",
		StorageKey:     "a.jpg",
		ArtistUsername: "painter",
		LikesCount:     5,
		Views:          10,
	}

	feed := FeedAssembler{baseURL: "https://art.example.com"}
	view := feed.toView(img)

	require.Equal(t, "Sunset", view.Title)
	require.Equal(t, "https://art.example.com/media/a.jpg", view.ImageURL)
	require.Equal(t, int64(5), view.LikesCount)
	require.Equal(t, int64(10), view.Views)
}
