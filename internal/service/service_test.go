package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"testing"
	"time"

	"github.com/UnendingLoop/ArtShare/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/retry"
)

// UPLOAD - SUCCESS
func TestImageService_Upload_OK(t *testing.T) {
	ctx := context.Background()
	artistID := uuid.New()

	users := &mockUsers{
		byIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{UID: artistID, Username: "painter"}, nil
		},
	}

	storage := &mockStorage{
		putFn: func(ctx context.Context, key string, size int64, ct string, r io.Reader) (string, error) {
			require.Equal(t, model.JPEG, ct)
			return "http://minio:9000/artworks/" + key, nil
		},
	}

	repo := &mockRepo{
		insertFn: func(ctx context.Context, img *model.Image) error {
			require.NotEmpty(t, img.UID)
			require.Equal(t, "painter", img.ArtistUsername)
			require.Equal(t, artistID, img.ArtistID)
			require.Equal(t, model.CategoryPainting, img.Category)
			require.NotEmpty(t, img.URL)
			require.NotNil(t, img.CreatedAt)
			return nil
		},
	}

	published := 0
	pub := &mockPublisher{
		sendFn: func(ctx context.Context, s retry.Strategy, key []byte, v []byte) error {
			published++
			return nil
		},
	}

	svc := ImageService{
		repo:           repo,
		users:          users,
		storage:        storage,
		publisher:      pub,
		maxFileSize:    10 << 20,
		storageTimeout: time.Second,
	}

	img, err := svc.Upload(ctx, artistID.String(), validUploadData())
	require.NoError(t, err)
	require.NotNil(t, img)
	require.Equal(t, 1, published)
}

// UPLOAD - VALIDATION FAIL
func TestImageService_Upload_InvalidInput(t *testing.T) {
	svc := ImageService{maxFileSize: 10 << 20, storageTimeout: time.Second}
	ownerID := uuid.New().String()

	tests := []struct {
		name    string
		mutate  func(d *model.ImageUploadData)
		wantErr error
	}{
		{
			name:    "empty title",
			mutate:  func(d *model.ImageUploadData) { d.Title = "   " },
			wantErr: model.ErrEmptyTitle,
		},
		{
			name:    "empty file",
			mutate:  func(d *model.ImageUploadData) { d.File = nil },
			wantErr: model.ErrEmptyFile,
		},
		{
			name:    "oversized file",
			mutate:  func(d *model.ImageUploadData) { d.FileSize = 11 << 20 },
			wantErr: model.ErrFileTooLarge,
		},
		{
			name:    "disallowed extension",
			mutate:  func(d *model.ImageUploadData) { d.FileName = "malware.exe" },
			wantErr: model.ErrUnsupportedFormat,
		},
		{
			name: "mime mismatch with extension",
			mutate: func(d *model.ImageUploadData) {
				d.FileName = "cat.jpg"
				d.ContentType = "application/octet-stream"
			},
			wantErr: model.ErrUnsupportedFormat,
		},
		{
			name: "png extension with jpeg mime",
			mutate: func(d *model.ImageUploadData) {
				d.FileName = "cat.png"
				d.ContentType = model.JPEG
			},
			wantErr: model.ErrUnsupportedFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := validUploadData()
			tt.mutate(data)

			_, err := svc.Upload(context.Background(), ownerID, data)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

// UPLOAD - STORAGE PUT FAIL
func TestImageService_Upload_StorageError(t *testing.T) {
	users := &mockUsers{
		byIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{UID: uuid.New(), Username: "painter"}, nil
		},
	}
	storage := &mockStorage{
		putFn: func(ctx context.Context, key string, size int64, ct string, r io.Reader) (string, error) {
			return "", errors.New("storage is down")
		},
	}

	svc := ImageService{
		users:          users,
		storage:        storage,
		maxFileSize:    10 << 20,
		storageTimeout: time.Second,
	}

	_, err := svc.Upload(context.Background(), uuid.New().String(), validUploadData())
	require.ErrorIs(t, err, model.ErrStorageFailure)
}

// UPLOAD - DB INSERT FAIL: the stored blob must be cleaned up
func TestImageService_Upload_InsertFailCleansBlob(t *testing.T) {
	var storedKey, deletedKey string

	users := &mockUsers{
		byIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{UID: uuid.New(), Username: "painter"}, nil
		},
	}
	storage := &mockStorage{
		putFn: func(ctx context.Context, key string, size int64, ct string, r io.Reader) (string, error) {
			storedKey = key
			return "/media/" + key, nil
		},
		deleteFn: func(ctx context.Context, key string) error {
			deletedKey = key
			return nil
		},
	}
	repo := &mockRepo{
		insertFn: func(ctx context.Context, img *model.Image) error {
			return errors.New("db is down")
		},
	}

	svc := ImageService{
		repo:           repo,
		users:          users,
		storage:        storage,
		maxFileSize:    10 << 20,
		storageTimeout: time.Second,
	}

	_, err := svc.Upload(context.Background(), uuid.New().String(), validUploadData())
	require.ErrorIs(t, err, model.ErrCommon500)
	require.NotEmpty(t, storedKey)
	require.Equal(t, storedKey, deletedKey)
}

// UPLOAD - DB INSERT FAIL + CLEANUP FAIL: blob is registered as orphan
func TestImageService_Upload_CleanupFailRegistersOrphan(t *testing.T) {
	orphaned := ""

	users := &mockUsers{
		byIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{UID: uuid.New(), Username: "painter"}, nil
		},
	}
	storage := &mockStorage{
		putFn: func(ctx context.Context, key string, size int64, ct string, r io.Reader) (string, error) {
			return "/media/" + key, nil
		},
		deleteFn: func(ctx context.Context, key string) error {
			return errors.New("storage is down")
		},
	}
	repo := &mockRepo{
		insertFn: func(ctx context.Context, img *model.Image) error {
			return errors.New("db is down")
		},
		addOrphanFn: func(ctx context.Context, key string) error {
			orphaned = key
			return nil
		},
	}

	svc := ImageService{
		repo:           repo,
		users:          users,
		storage:        storage,
		maxFileSize:    10 << 20,
		storageTimeout: time.Second,
	}

	_, err := svc.Upload(context.Background(), uuid.New().String(), validUploadData())
	require.ErrorIs(t, err, model.ErrCommon500)
	require.NotEmpty(t, orphaned)
}

// DELETE - FAIL - NOT OWNER
func TestImageService_Delete_Forbidden(t *testing.T) {
	owner := uuid.New()
	deleteCalled := false

	repo := &mockRepo{
		getFn: func(ctx context.Context, id string) (*model.Image, error) {
			return &model.Image{UID: uuid.MustParse(id), ArtistID: owner}, nil
		},
		deleteFn: func(ctx context.Context, id string) error {
			deleteCalled = true
			return nil
		},
	}

	svc := ImageService{repo: repo, storageTimeout: time.Second}

	_, err := svc.Delete(context.Background(), uuid.New().String(), uuid.New().String())
	require.ErrorIs(t, err, model.ErrNotOwner)
	require.False(t, deleteCalled)
}

// DELETE - FAIL - NOT FOUND
func TestImageService_Delete_NotFound(t *testing.T) {
	repo := &mockRepo{
		getFn: func(ctx context.Context, id string) (*model.Image, error) {
			return nil, model.ErrImageNotFound
		},
	}

	svc := ImageService{repo: repo, storageTimeout: time.Second}

	_, err := svc.Delete(context.Background(), uuid.New().String(), uuid.New().String())
	require.ErrorIs(t, err, model.ErrImageNotFound)
}

// DELETE - SUCCESS
func TestImageService_Delete_OK(t *testing.T) {
	owner := uuid.New()
	deletedBlob := ""

	repo := &mockRepo{
		getFn: func(ctx context.Context, id string) (*model.Image, error) {
			return &model.Image{UID: uuid.MustParse(id), ArtistID: owner, StorageKey: "img.jpg"}, nil
		},
		deleteFn: func(ctx context.Context, id string) error {
			return nil
		},
	}
	storage := &mockStorage{
		deleteFn: func(ctx context.Context, key string) error {
			deletedBlob = key
			return nil
		},
	}

	svc := ImageService{repo: repo, storage: storage, storageTimeout: time.Second}

	res, err := svc.Delete(context.Background(), uuid.New().String(), owner.String())
	require.NoError(t, err)
	require.True(t, res.RecordDeleted)
	require.True(t, res.BlobDeleted)
	require.Equal(t, "img.jpg", deletedBlob)
}

// DELETE - BLOB FAIL IS BEST-EFFORT: record still goes away
func TestImageService_Delete_BlobFailStillDeletesRecord(t *testing.T) {
	owner := uuid.New()
	orphaned := ""

	repo := &mockRepo{
		getFn: func(ctx context.Context, id string) (*model.Image, error) {
			return &model.Image{UID: uuid.MustParse(id), ArtistID: owner, StorageKey: "img.jpg"}, nil
		},
		deleteFn: func(ctx context.Context, id string) error {
			return nil
		},
		addOrphanFn: func(ctx context.Context, key string) error {
			orphaned = key
			return nil
		},
	}
	storage := &mockStorage{
		deleteFn: func(ctx context.Context, key string) error {
			return errors.New("storage is down")
		},
	}

	svc := ImageService{repo: repo, storage: storage, storageTimeout: time.Second}

	res, err := svc.Delete(context.Background(), uuid.New().String(), owner.String())
	require.NoError(t, err)
	require.True(t, res.RecordDeleted)
	require.False(t, res.BlobDeleted)
	require.Equal(t, "img.jpg", orphaned)
}

// LIKE - SUCCESS
func TestImageService_Like_OK(t *testing.T) {
	repo := &mockRepo{
		addLikeFn: func(ctx context.Context, id, userID string) (int64, error) {
			return 7, nil
		},
	}

	svc := ImageService{repo: repo}

	count, err := svc.Like(context.Background(), uuid.New().String(), uuid.New().String())
	require.NoError(t, err)
	require.Equal(t, int64(7), count)
}

// LIKE - FAIL - ALREADY LIKED
func TestImageService_Like_AlreadyLiked(t *testing.T) {
	repo := &mockRepo{
		addLikeFn: func(ctx context.Context, id, userID string) (int64, error) {
			return 7, model.ErrAlreadyLiked
		},
	}

	svc := ImageService{repo: repo}

	_, err := svc.Like(context.Background(), uuid.New().String(), uuid.New().String())
	require.ErrorIs(t, err, model.ErrAlreadyLiked)
}

// UNLIKE - NON-MEMBER IS A NO-OP
func TestImageService_Unlike_NonMemberNoop(t *testing.T) {
	repo := &mockRepo{
		removeLikeFn: func(ctx context.Context, id, userID string) (int64, error) {
			return 3, nil // счетчик не изменился
		},
	}

	svc := ImageService{repo: repo}

	count, err := svc.Unlike(context.Background(), uuid.New().String(), uuid.New().String())
	require.NoError(t, err)
	require.Equal(t, int64(3), count)
}

// RECORDVIEW - SUCCESS
func TestImageService_RecordView_OK(t *testing.T) {
	repo := &mockRepo{
		incrementViewsFn: func(ctx context.Context, id string) (*model.Image, error) {
			return &model.Image{UID: uuid.MustParse(id), Views: 42}, nil
		},
	}

	svc := ImageService{repo: repo}

	img, err := svc.RecordView(context.Background(), uuid.New().String())
	require.NoError(t, err)
	require.Equal(t, int64(42), img.Views)
}

// RECORDVIEW - FAIL - BAD ID
func TestImageService_RecordView_InvalidID(t *testing.T) {
	svc := ImageService{}
	_, err := svc.RecordView(context.Background(), "bad-id")
	require.ErrorIs(t, err, model.ErrIncorrectID)
}

// ISLIKED - FAIL - NOT FOUND
func TestImageService_IsLiked_NotFound(t *testing.T) {
	repo := &mockRepo{
		isLikedFn: func(ctx context.Context, id, userID string) (bool, error) {
			return false, model.ErrImageNotFound
		},
	}

	svc := ImageService{repo: repo}

	_, err := svc.IsLiked(context.Background(), uuid.New().String(), uuid.New().String())
	require.ErrorIs(t, err, model.ErrImageNotFound)
}

// SWEEPORPHANS - failed delete stays registered for the next pass
func TestImageService_SweepOrphans(t *testing.T) {
	removed := []string{}

	repo := &mockRepo{
		fetchOrphansFn: func(ctx context.Context, limit int) ([]string, error) {
			return []string{"a.jpg", "b.jpg"}, nil
		},
		removeOrphanFn: func(ctx context.Context, key string) error {
			removed = append(removed, key)
			return nil
		},
	}
	storage := &mockStorage{
		deleteFn: func(ctx context.Context, key string) error {
			if key == "b.jpg" {
				return errors.New("storage is down")
			}
			return nil
		},
	}

	svc := ImageService{repo: repo, storage: storage, storageTimeout: time.Second}
	svc.SweepOrphans(context.Background(), 10)

	require.Equal(t, []string{"a.jpg"}, removed)
}

// хелпер для создания файла
func newFakeFile(content string) multipart.File {
	return &fakeMultipartFile{
		Reader: bytes.NewReader([]byte(content)),
	}
}

// хелпер для генерации корректного ImageUploadData
func validUploadData() *model.ImageUploadData {
	content := "image-bytes"

	return &model.ImageUploadData{
		Title:       "Sunset over the bay",
		Description: "oil on canvas",
		Category:    "painting",
		Tags:        []string{"sunset", " sea "},
		File:        newFakeFile(content),
		FileName:    "sunset.jpg",
		ContentType: model.JPEG,
		FileSize:    int64(len(content)),
	}
}
