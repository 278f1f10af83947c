// Package userdir provides read-only lookups in the user catalogue.
// The gallery core only consumes {uid, username, profile_image, bio};
// profile editing and auth mechanics live outside this service.
package userdir

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/UnendingLoop/ArtShare/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/dbpg"
)

const (
	keyUserByID   = "user:id:%s"
	keyUserByName = "user:name:%s"
	cacheTTL      = 10 * time.Minute
)

type Directory struct {
	db    *dbpg.DB
	cache *redis.Client
}

func New(db *dbpg.DB, cache *redis.Client) *Directory {
	return &Directory{db: db, cache: cache}
}

// NewRedisCache - кеш опционален: без REDIS_ADDR ходим сразу в базу
func NewRedisCache(cfg *config.Config) *redis.Client {
	addr := cfg.GetString("REDIS_ADDR")
	if addr == "" {
		log.Println("REDIS_ADDR is empty, user-directory cache disabled")
		return nil
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Printf("Failed to ping redis at %q, user-directory cache disabled: %v", addr, err)
		return nil
	}

	return client
}

func (d *Directory) ByID(ctx context.Context, id string) (*model.User, error) {
	if user := d.fromCache(ctx, fmt.Sprintf(keyUserByID, id)); user != nil {
		return user, nil
	}

	query := `SELECT uid, username, profile_image, bio
	FROM users
	WHERE uid = $1`

	user, err := d.scanUser(d.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}

	d.toCache(ctx, user)
	return user, nil
}

func (d *Directory) ByUsername(ctx context.Context, username string) (*model.User, error) {
	if user := d.fromCache(ctx, fmt.Sprintf(keyUserByName, username)); user != nil {
		return user, nil
	}

	query := `SELECT uid, username, profile_image, bio
	FROM users
	WHERE username = $1`

	user, err := d.scanUser(d.db.QueryRowContext(ctx, query, username))
	if err != nil {
		return nil, err
	}

	d.toCache(ctx, user)
	return user, nil
}

func (d *Directory) scanUser(row *sql.Row) (*model.User, error) {
	var user model.User
	err := row.Scan(&user.UID, &user.Username, &user.ProfileImage, &user.Bio)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, model.ErrUserNotFound
		default:
			return nil, err // 500
		}
	}
	return &user, nil
}

// fromCache - любая ошибка кеша деградирует в поход в базу
func (d *Directory) fromCache(ctx context.Context, key string) *model.User {
	if d.cache == nil {
		return nil
	}

	raw, err := d.cache.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("Get user-cache error: %v", err)
		}
		return nil
	}

	var user model.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		log.Printf("User-cache unmarshal error: %v", err)
		return nil
	}
	return &user
}

func (d *Directory) toCache(ctx context.Context, user *model.User) {
	if d.cache == nil {
		return
	}

	raw, err := json.Marshal(user)
	if err != nil {
		log.Printf("User-cache marshal error: %v", err)
		return
	}

	pipe := d.cache.TxPipeline()
	pipe.Set(ctx, fmt.Sprintf(keyUserByID, user.UID.String()), raw, cacheTTL)
	pipe.Set(ctx, fmt.Sprintf(keyUserByName, user.Username), raw, cacheTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("Set user-cache error: %v", err)
	}
}
