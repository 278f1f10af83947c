// Package service provides business-logic for the app
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/UnendingLoop/ArtShare/internal/model"
	"github.com/UnendingLoop/ArtShare/internal/mwlogger"
	"github.com/UnendingLoop/ArtShare/internal/repository"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/retry"
)

type ImageService struct {
	repo           repository.ImageRepo
	users          UserDirectory
	publisher      EventPublisher
	storage        ImageStorage
	maxFileSize    int64
	storageTimeout time.Duration
}

// ImageStorage - контракт для работы с блоб-хранилищем (минио или диск)
type ImageStorage interface {
	Put(ctx context.Context, key string, size int64, contentType string, r io.Reader) (url string, err error)
	Delete(ctx context.Context, key string) error
}

// UserDirectory - контракт для read-only каталога пользователей
type UserDirectory interface {
	ByID(ctx context.Context, id string) (*model.User, error)
}

// EventPublisher - контракт для работы с очередью событий
type EventPublisher interface {
	SendWithRetry(ctx context.Context, strategy retry.Strategy, key []byte, v []byte) error
}

// Стратегия ретрая отправки в очередь - можно потом вынести значения в конфиг/env
var retryStrategy = retry.Strategy{
	Attempts: 5,
	Delay:    3 * time.Second,
	Backoff:  1.5,
}

const (
	defaultMaxFileSizeMB  = 10
	defaultStorageTimeout = 15 * time.Second
)

func NewImageService(cfg *config.Config, imageRep repository.ImageRepo, users UserDirectory, pub EventPublisher, strg ImageStorage) *ImageService {
	maxMB, err := strconv.ParseInt(cfg.GetString("MAX_UPLOAD_SIZE_MB"), 10, 64)
	if err != nil || maxMB <= 0 {
		maxMB = defaultMaxFileSizeMB
	}

	timeout := defaultStorageTimeout
	if sec, err := strconv.Atoi(cfg.GetString("STORAGE_TIMEOUT_SEC")); err == nil && sec > 0 {
		timeout = time.Duration(sec) * time.Second
	}

	return &ImageService{
		repo:           imageRep,
		users:          users,
		publisher:      pub,
		storage:        strg,
		maxFileSize:    maxMB << 20,
		storageTimeout: timeout,
	}
}

func (c *ImageService) Upload(ctx context.Context, ownerID string, data *model.ImageUploadData) (*model.Image, error) {
	logger := mwlogger.LoggerFromContext(ctx)

	if err := uuid.Validate(ownerID); err != nil {
		return nil, model.ErrIncorrectID
	}
	if err := validateNormalizeUpload(data, c.maxFileSize); err != nil {
		return nil, err
	}

	// снимок имени артиста берется в момент загрузки и дальше не обновляется
	artist, err := c.users.ByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, err
		}
		logger.Error().Err(err).Msg("Failed to fetch uploader from user-directory")
		return nil, model.ErrCommon500
	}

	newImage := &model.Image{
		UID:            uuid.New(),
		Title:          data.Title,
		Description:    data.Description,
		Category:       model.NormalizeCategory(data.Category),
		Tags:           normalizeTags(data.Tags),
		ArtistID:       artist.UID,
		ArtistUsername: artist.Username,
		FileSize:       data.FileSize,
		ContentType:    data.ContentType,
	}
	newImage.StorageKey = newImage.UID.String() + model.GetImageFileExt[data.ContentType]

	// кладем блоб в хранилище - только после этого появляется запись в базе
	sctx, cancel := context.WithTimeout(ctx, c.storageTimeout)
	url, err := c.storage.Put(sctx, newImage.StorageKey, data.FileSize, data.ContentType, data.File)
	cancel()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to save image in Storage")
		return nil, model.ErrStorageFailure
	}
	newImage.URL = url

	now := time.Now().UTC()
	newImage.CreatedAt = &now

	if err := c.repo.Insert(ctx, newImage); err != nil {
		logger.Error().Err(err).Msg("Failed to create image in DB")
		// блоб уже лежит в хранилище - подчищаем чтобы не оставить сироту
		c.cleanupBlob(ctx, newImage.StorageKey)
		if errors.Is(err, model.ErrValidation) {
			return nil, err
		}
		return nil, model.ErrCommon500
	}

	c.publishEvent(ctx, EventImageUploaded, newImage.UID.String(), ownerID)
	return newImage, nil
}

// Delete - блоб удаляется best-effort, запись в базе удаляется безусловно:
// зависший в индексе мертвый блоб хуже, чем сирота в хранилище
func (c *ImageService) Delete(ctx context.Context, id string, requesterID string) (*model.DeleteResult, error) {
	logger := mwlogger.LoggerFromContext(ctx)
	if err := uuid.Validate(id); err != nil {
		return nil, model.ErrIncorrectID
	}

	img, err := c.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrImageNotFound) {
			return nil, err
		}
		logger.Error().Err(err).Msg(fmt.Sprintf("Failed to fetch image %q from DB", id))
		return nil, model.ErrCommon500
	}

	if img.ArtistID.String() != requesterID {
		return nil, model.ErrNotOwner
	}

	res := &model.DeleteResult{}

	sctx, cancel := context.WithTimeout(ctx, c.storageTimeout)
	err = c.storage.Delete(sctx, img.StorageKey)
	cancel()
	if err != nil {
		logger.Error().Err(err).Msg(fmt.Sprintf("Failed to delete blob %q from Storage, keeping it for the sweeper", img.StorageKey))
		if orphErr := c.repo.AddOrphan(ctx, img.StorageKey); orphErr != nil {
			logger.Error().Err(orphErr).Msg("Failed to register orphaned blob")
		}
	} else {
		res.BlobDeleted = true
	}

	if err := c.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, model.ErrImageNotFound) {
			// параллельное удаление успело раньше
			return nil, err
		}
		logger.Error().Err(err).Msg("Failed to delete image from DB")
		return nil, model.ErrCommon500
	}
	res.RecordDeleted = true

	c.publishEvent(ctx, EventImageDeleted, id, requesterID)
	return res, nil
}

func (c *ImageService) Like(ctx context.Context, id string, userID string) (int64, error) {
	logger := mwlogger.LoggerFromContext(ctx)
	if err := uuid.Validate(id); err != nil {
		return 0, model.ErrIncorrectID
	}

	count, err := c.repo.AddLike(ctx, id, userID)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrImageNotFound), errors.Is(err, model.ErrAlreadyLiked):
			return count, err
		default:
			logger.Error().Err(err).Msg("Failed to add like in DB")
			return 0, model.ErrCommon500
		}
	}

	c.publishEvent(ctx, EventImageLiked, id, userID)
	return count, nil
}

func (c *ImageService) Unlike(ctx context.Context, id string, userID string) (int64, error) {
	logger := mwlogger.LoggerFromContext(ctx)
	if err := uuid.Validate(id); err != nil {
		return 0, model.ErrIncorrectID
	}

	count, err := c.repo.RemoveLike(ctx, id, userID)
	if err != nil {
		if errors.Is(err, model.ErrImageNotFound) {
			return 0, err
		}
		logger.Error().Err(err).Msg("Failed to remove like in DB")
		return 0, model.ErrCommon500
	}

	return count, nil
}

func (c *ImageService) IsLiked(ctx context.Context, id string, userID string) (bool, error) {
	logger := mwlogger.LoggerFromContext(ctx)
	if err := uuid.Validate(id); err != nil {
		return false, model.ErrIncorrectID
	}

	liked, err := c.repo.IsLiked(ctx, id, userID)
	if err != nil {
		if errors.Is(err, model.ErrImageNotFound) {
			return false, err
		}
		logger.Error().Err(err).Msg("Failed to check like in DB")
		return false, model.ErrCommon500
	}

	return liked, nil
}

// RecordView - каждое открытие детальной страницы инкрементит счетчик ровно на 1
func (c *ImageService) RecordView(ctx context.Context, id string) (*model.Image, error) {
	logger := mwlogger.LoggerFromContext(ctx)
	if err := uuid.Validate(id); err != nil {
		return nil, model.ErrIncorrectID
	}

	img, err := c.repo.IncrementViews(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrImageNotFound) {
			return nil, err
		}
		logger.Error().Err(err).Msg(fmt.Sprintf("Failed to record view for image %q", id))
		return nil, model.ErrCommon500
	}

	return img, nil
}

// SweepOrphans retries deletion of blobs whose best-effort cleanup failed earlier
func (c *ImageService) SweepOrphans(ctx context.Context, limit int) {
	logger := mwlogger.LoggerFromContext(ctx)

	orphans, err := c.repo.FetchOrphans(ctx, limit)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load orphaned blobs from DB")
		return
	}

	for _, key := range orphans {
		sctx, cancel := context.WithTimeout(ctx, c.storageTimeout)
		err := c.storage.Delete(sctx, key)
		cancel()
		if err != nil {
			logger.Error().Err(err).Msg(fmt.Sprintf("Failed to sweep orphaned blob %q", key))
			continue
		}
		if err := c.repo.RemoveOrphan(ctx, key); err != nil {
			logger.Error().Err(err).Msg(fmt.Sprintf("Failed to unregister swept blob %q", key))
		}
	}
}

// cleanupBlob - best-effort удаление блоба после неудачной вставки записи
func (c *ImageService) cleanupBlob(ctx context.Context, key string) {
	logger := mwlogger.LoggerFromContext(ctx)

	sctx, cancel := context.WithTimeout(ctx, c.storageTimeout)
	defer cancel()

	if err := c.storage.Delete(sctx, key); err != nil {
		logger.Error().Err(err).Msg(fmt.Sprintf("Failed to cleanup blob %q after DB error", key))
		if orphErr := c.repo.AddOrphan(ctx, key); orphErr != nil {
			logger.Error().Err(orphErr).Msg("Failed to register orphaned blob")
		}
	}
}

//--------------------

const (
	EventImageUploaded = "image.uploaded"
	EventImageDeleted  = "image.deleted"
	EventImageLiked    = "image.liked"
)

type Event struct {
	Type     string    `json:"type"`
	ImageUID string    `json:"image_uid"`
	Actor    string    `json:"actor,omitempty"`
	At       time.Time `json:"at"`
}

// publishEvent - события движка публикуются best-effort:
// недоступная очередь не должна ронять пользовательскую операцию
func (c *ImageService) publishEvent(ctx context.Context, eventType string, imageUID string, actor string) {
	if c.publisher == nil {
		return
	}
	logger := mwlogger.LoggerFromContext(ctx)

	payload, err := json.Marshal(Event{
		Type:     eventType,
		ImageUID: imageUID,
		Actor:    actor,
		At:       time.Now().UTC(),
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to marshal event payload")
		return
	}

	if err := c.publisher.SendWithRetry(ctx, retryStrategy, []byte(imageUID), payload); err != nil {
		logger.Error().Err(err).Msg(fmt.Sprintf("Failed to publish %q event for image %q", eventType, imageUID))
	}
}
