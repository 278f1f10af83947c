package imgpostgres

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/UnendingLoop/ArtShare/internal/model"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/wb-go/wbf/dbpg"
)

type PostgresRepo struct {
	DB *dbpg.DB
}

const imageColumns = `uid, title, description, category, tags, url, storage_key,
	artist_id, artist_username, likes_count, views, file_size, content_type, created_at, updated_at`

// fkViolation - код ошибки постгреса для нарушения внешнего ключа:
// лайк несуществующей картинки упирается в FK раньше, чем в UPDATE
const fkViolation = pq.ErrorCode("23503")

func (p PostgresRepo) Insert(ctx context.Context, n *model.Image) error {
	if n.Title == "" || n.URL == "" || n.StorageKey == "" ||
		n.ArtistUsername == "" || n.ArtistID == uuid.Nil {
		return model.ErrValidation
	}

	query := `INSERT INTO images (uid, title, description, category, tags, url, storage_key,
	artist_id, artist_username, likes_count, views, file_size, content_type, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 0, 0, $10, $11, $12, $12)`
	return p.DB.QueryRowContext(ctx, query,
		n.UID, n.Title, n.Description, n.Category, n.Tags, n.URL, n.StorageKey,
		n.ArtistID, n.ArtistUsername, n.FileSize, n.ContentType, n.CreatedAt).Err()
}

func (p PostgresRepo) Get(ctx context.Context, id string) (*model.Image, error) {
	query := `SELECT ` + imageColumns + `
	FROM images
	WHERE uid = $1`

	return p.scanOne(p.DB.QueryRowContext(ctx, query, id))
}

func (p PostgresRepo) GetByArtist(ctx context.Context, username string) ([]model.Image, error) {
	query := `SELECT i.uid, i.title, i.description, i.category, i.tags, i.url, i.storage_key,
	i.artist_id, i.artist_username, i.likes_count, i.views, i.file_size, i.content_type,
	i.created_at, i.updated_at, u.profile_image
	FROM images i
	JOIN users u ON u.uid = i.artist_id
	WHERE i.artist_username = $1
	ORDER BY i.created_at DESC`

	rows, err := p.DB.QueryContext(ctx, query, username)
	if err != nil {
		return nil, err
	}

	return scanJoined(rows, 0)
}

func (p PostgresRepo) SampleRandom(ctx context.Context, count int) ([]model.Image, error) {
	query := `SELECT i.uid, i.title, i.description, i.category, i.tags, i.url, i.storage_key,
	i.artist_id, i.artist_username, i.likes_count, i.views, i.file_size, i.content_type,
	i.created_at, i.updated_at, u.profile_image
	FROM images i
	JOIN users u ON u.uid = i.artist_id
	ORDER BY random()
	LIMIT $1`

	rows, err := p.DB.QueryContext(ctx, query, count)
	if err != nil {
		return nil, err
	}

	return scanJoined(rows, count)
}

func (p PostgresRepo) ListPage(ctx context.Context, req *model.ListRequest) ([]model.Image, int64, error) {
	var total int64
	if err := p.DB.QueryRowContext(ctx, `SELECT count(*) FROM images`).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT i.uid, i.title, i.description, i.category, i.tags, i.url, i.storage_key,
	i.artist_id, i.artist_username, i.likes_count, i.views, i.file_size, i.content_type,
	i.created_at, i.updated_at, u.profile_image
	FROM images i
	JOIN users u ON u.uid = i.artist_id
	ORDER BY i.created_at DESC
	LIMIT $1
	OFFSET $2`

	offset := (req.Page - 1) * req.Limit

	rows, err := p.DB.QueryContext(ctx, query, req.Limit, offset)
	if err != nil {
		return nil, 0, err
	}

	images, err := scanJoined(rows, req.Limit)
	if err != nil {
		return nil, 0, err
	}

	return images, total, nil
}

// AddLike - одним стейтментом: членство в image_likes и счетчик в images,
// чтобы конкурентные лайки не теряли друг друга
func (p PostgresRepo) AddLike(ctx context.Context, id string, userID string) (int64, error) {
	query := `WITH ins AS (
		INSERT INTO image_likes (image_uid, user_uid)
		VALUES ($1, $2)
		ON CONFLICT (image_uid, user_uid) DO NOTHING
		RETURNING 1
	)
	UPDATE images
	SET likes_count = likes_count + (SELECT count(*) FROM ins), updated_at = now()
	WHERE uid = $1
	RETURNING likes_count, (SELECT count(*) FROM ins)`

	var count, inserted int64
	err := p.DB.QueryRowContext(ctx, query, id, userID).Scan(&count, &inserted)
	if err != nil {
		return 0, mapLikeErr(err)
	}
	if inserted == 0 {
		return count, model.ErrAlreadyLiked
	}
	return count, nil
}

// RemoveLike - анлайк не-лайкавшего юзера не ошибка, счетчик просто не меняется
func (p PostgresRepo) RemoveLike(ctx context.Context, id string, userID string) (int64, error) {
	query := `WITH del AS (
		DELETE FROM image_likes
		WHERE image_uid = $1 AND user_uid = $2
		RETURNING 1
	)
	UPDATE images
	SET likes_count = likes_count - (SELECT count(*) FROM del), updated_at = now()
	WHERE uid = $1
	RETURNING likes_count`

	var count int64
	if err := p.DB.QueryRowContext(ctx, query, id, userID).Scan(&count); err != nil {
		return 0, mapLikeErr(err)
	}
	return count, nil
}

func (p PostgresRepo) IsLiked(ctx context.Context, id string, userID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM images WHERE uid = $1),
	EXISTS(SELECT 1 FROM image_likes WHERE image_uid = $1 AND user_uid = $2)`

	var found, liked bool
	if err := p.DB.QueryRowContext(ctx, query, id, userID).Scan(&found, &liked); err != nil {
		return false, err
	}
	if !found {
		return false, model.ErrImageNotFound
	}
	return liked, nil
}

func (p PostgresRepo) IncrementViews(ctx context.Context, id string) (*model.Image, error) {
	query := `UPDATE images
	SET views = views + 1, updated_at = now()
	WHERE uid = $1
	RETURNING ` + imageColumns

	return p.scanOne(p.DB.QueryRowContext(ctx, query, id))
}

func (p PostgresRepo) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM images
	WHERE uid = $1`

	res, err := p.DB.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return model.ErrImageNotFound // гонка двух удалений: второму достается 404
	}
	return nil
}

func (p PostgresRepo) AddOrphan(ctx context.Context, key string) error {
	query := `INSERT INTO blob_orphans (storage_key)
	VALUES ($1)
	ON CONFLICT (storage_key) DO NOTHING`
	_, err := p.DB.ExecContext(ctx, query, key)
	return err
}

func (p PostgresRepo) FetchOrphans(ctx context.Context, limit int) ([]string, error) {
	query := `SELECT storage_key
	FROM blob_orphans
	ORDER BY created_at
	LIMIT $1`

	rows, err := p.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("Error while closing *sql.Rows after scanning: %v", err)
		}
	}()

	orphans := make([]string, 0, limit)
	for rows.Next() {
		key := ""
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		orphans = append(orphans, key)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return orphans, nil
}

func (p PostgresRepo) RemoveOrphan(ctx context.Context, key string) error {
	query := `DELETE FROM blob_orphans
	WHERE storage_key = $1`
	_, err := p.DB.ExecContext(ctx, query, key)
	return err
}

//--------------------

func (p PostgresRepo) scanOne(row *sql.Row) (*model.Image, error) {
	var image model.Image
	err := row.Scan(&image.UID,
		&image.Title,
		&image.Description,
		&image.Category,
		&image.Tags,
		&image.URL,
		&image.StorageKey,
		&image.ArtistID,
		&image.ArtistUsername,
		&image.LikesCount,
		&image.Views,
		&image.FileSize,
		&image.ContentType,
		&image.CreatedAt,
		&image.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, model.ErrImageNotFound
		default:
			return nil, err // 500
		}
	}
	return &image, nil
}

func scanJoined(rows *sql.Rows, capHint int) ([]model.Image, error) {
	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("Error while closing *sql.Rows after scanning: %v", err)
		}
	}()

	if capHint <= 0 {
		capHint = 10
	}

	images := make([]model.Image, 0, capHint)
	for rows.Next() {
		var image model.Image
		if err := rows.Scan(&image.UID,
			&image.Title,
			&image.Description,
			&image.Category,
			&image.Tags,
			&image.URL,
			&image.StorageKey,
			&image.ArtistID,
			&image.ArtistUsername,
			&image.LikesCount,
			&image.Views,
			&image.FileSize,
			&image.ContentType,
			&image.CreatedAt,
			&image.UpdatedAt,
			&image.ArtistAvatar); err != nil {
			return nil, err
		}
		images = append(images, image)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return images, nil
}

func mapLikeErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return model.ErrImageNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == fkViolation {
		return model.ErrImageNotFound
	}

	return err
}
