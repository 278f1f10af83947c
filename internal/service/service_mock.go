package service

import (
	"bytes"
	"context"
	"io"

	"github.com/UnendingLoop/ArtShare/internal/model"
	"github.com/wb-go/wbf/retry"
)

// MOCK REPOSITORY

type mockRepo struct {
	insertFn         func(ctx context.Context, img *model.Image) error
	getFn            func(ctx context.Context, id string) (*model.Image, error)
	getByArtistFn    func(ctx context.Context, username string) ([]model.Image, error)
	sampleRandomFn   func(ctx context.Context, count int) ([]model.Image, error)
	listPageFn       func(ctx context.Context, req *model.ListRequest) ([]model.Image, int64, error)
	addLikeFn        func(ctx context.Context, id, userID string) (int64, error)
	removeLikeFn     func(ctx context.Context, id, userID string) (int64, error)
	isLikedFn        func(ctx context.Context, id, userID string) (bool, error)
	incrementViewsFn func(ctx context.Context, id string) (*model.Image, error)
	deleteFn         func(ctx context.Context, id string) error
	addOrphanFn      func(ctx context.Context, key string) error
	fetchOrphansFn   func(ctx context.Context, limit int) ([]string, error)
	removeOrphanFn   func(ctx context.Context, key string) error
}

func (m *mockRepo) Insert(ctx context.Context, img *model.Image) error {
	return m.insertFn(ctx, img)
}

func (m *mockRepo) Get(ctx context.Context, id string) (*model.Image, error) {
	return m.getFn(ctx, id)
}

func (m *mockRepo) GetByArtist(ctx context.Context, username string) ([]model.Image, error) {
	return m.getByArtistFn(ctx, username)
}

func (m *mockRepo) SampleRandom(ctx context.Context, count int) ([]model.Image, error) {
	return m.sampleRandomFn(ctx, count)
}

func (m *mockRepo) ListPage(ctx context.Context, req *model.ListRequest) ([]model.Image, int64, error) {
	return m.listPageFn(ctx, req)
}

func (m *mockRepo) AddLike(ctx context.Context, id string, userID string) (int64, error) {
	return m.addLikeFn(ctx, id, userID)
}

func (m *mockRepo) RemoveLike(ctx context.Context, id string, userID string) (int64, error) {
	return m.removeLikeFn(ctx, id, userID)
}

func (m *mockRepo) IsLiked(ctx context.Context, id string, userID string) (bool, error) {
	return m.isLikedFn(ctx, id, userID)
}

func (m *mockRepo) IncrementViews(ctx context.Context, id string) (*model.Image, error) {
	return m.incrementViewsFn(ctx, id)
}

func (m *mockRepo) Delete(ctx context.Context, id string) error {
	return m.deleteFn(ctx, id)
}

func (m *mockRepo) AddOrphan(ctx context.Context, key string) error {
	return m.addOrphanFn(ctx, key)
}

func (m *mockRepo) FetchOrphans(ctx context.Context, limit int) ([]string, error) {
	return m.fetchOrphansFn(ctx, limit)
}

func (m *mockRepo) RemoveOrphan(ctx context.Context, key string) error {
	return m.removeOrphanFn(ctx, key)
}

// MOCK STORAGE

type mockStorage struct {
	putFn    func(ctx context.Context, key string, size int64, ct string, r io.Reader) (string, error)
	deleteFn func(ctx context.Context, key string) error
}

func (m *mockStorage) Put(ctx context.Context, key string, size int64, ct string, r io.Reader) (string, error) {
	return m.putFn(ctx, key, size, ct, r)
}

func (m *mockStorage) Delete(ctx context.Context, key string) error {
	return m.deleteFn(ctx, key)
}

// MOCK USER DIRECTORY

type mockUsers struct {
	byIDFn       func(ctx context.Context, id string) (*model.User, error)
	byUsernameFn func(ctx context.Context, username string) (*model.User, error)
}

func (m *mockUsers) ByID(ctx context.Context, id string) (*model.User, error) {
	return m.byIDFn(ctx, id)
}

func (m *mockUsers) ByUsername(ctx context.Context, username string) (*model.User, error) {
	return m.byUsernameFn(ctx, username)
}

// MOCK PUBLISHER

type mockPublisher struct {
	sendFn func(ctx context.Context, s retry.Strategy, key []byte, v []byte) error
}

func (m *mockPublisher) SendWithRetry(ctx context.Context, s retry.Strategy, key []byte, v []byte) error {
	return m.sendFn(ctx, s, key, v)
}

// MOCK для multipart.File
type fakeMultipartFile struct {
	*bytes.Reader
}

func (f *fakeMultipartFile) Close() error {
	return nil
}
