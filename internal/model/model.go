// Package model provides data-structs for internal app-usage
package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Category string

const (
	CategoryDigitalArt   Category = "digital-art"
	CategoryPhotography  Category = "photography"
	CategoryPainting     Category = "painting"
	CategoryIllustration Category = "illustration"
	Category3D           Category = "3d"
	CategoryOther        Category = "other"
)

var CategoryMap = map[Category]bool{
	CategoryDigitalArt:   true,
	CategoryPhotography:  true,
	CategoryPainting:     true,
	CategoryIllustration: true,
	Category3D:           true,
	CategoryOther:        true,
}

// NormalizeCategory - нераспознанная или пустая категория превращается в "other"
func NormalizeCategory(raw string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	if CategoryMap[c] {
		return c
	}
	return CategoryOther
}

//---------------------

type Image struct {
	UID            uuid.UUID   `json:"uid"`
	Title          string      `json:"title"`
	Description    string      `json:"description"`
	Category       Category    `json:"category"`
	Tags           StringSlice `json:"tags"`
	URL            string      `json:"image_url"`
	StorageKey     string      `json:"-"`
	ArtistID       uuid.UUID   `json:"artist_id"`
	ArtistUsername string      `json:"artist_username"`
	ArtistAvatar   string      `json:"-"` // заполняется только в выборках с джойном users
	LikesCount     int64       `json:"likes_count"`
	Views          int64       `json:"views"`
	FileSize       int64       `json:"file_size"`
	ContentType    string      `json:"content_type"`
	CreatedAt      *time.Time  `json:"created_at,omitempty"`
	UpdatedAt      *time.Time  `json:"updated_at,omitempty"`
}

// User - read-only проекция из внешнего каталога пользователей
type User struct {
	UID          uuid.UUID `json:"uid"`
	Username     string    `json:"username"`
	ProfileImage string    `json:"profile_image"`
	Bio          string    `json:"bio"`
}

// ImageView - публичное представление картинки для фидов:
// без ключа хранилища и без сырого списка лайкнувших
type ImageView struct {
	UID                uuid.UUID  `json:"uid"`
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	ImageURL           string     `json:"imageUrl"`
	Category           Category   `json:"category"`
	Tags               []string   `json:"tags"`
	ArtistUsername     string     `json:"artistUsername"`
	ArtistProfileImage string     `json:"artistProfileImage"`
	LikesCount         int64      `json:"likesCount"`
	Views              int64      `json:"views"`
	CreatedAt          *time.Time `json:"createdAt,omitempty"`
}

type FeedPage struct {
	Images     []ImageView `json:"images"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	TotalPages int         `json:"totalPages"`
}

// DeleteResult - явный результат двухшагового удаления:
// запись в базе и блоб в хранилище удаляются независимо
type DeleteResult struct {
	RecordDeleted bool `json:"success"`
	BlobDeleted   bool `json:"-"`
}

//-------------------

type ListRequest struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}

type ImageUploadData struct {
	Title       string
	Description string
	Category    string
	Tags        []string
	File        multipart.File
	FileName    string
	ContentType string
	FileSize    int64
}

// ------------------

var (
	ErrCommon500         error = errors.New("something went wrong. Try again later") // 500
	ErrStorageFailure    error = errors.New("image storage is unavailable")          // 500
	ErrIncorrectQuery    error = errors.New("incorrect query parameters")            // 400
	ErrIncorrectID       error = errors.New("incorrect image UUID")                  // 400
	ErrImageNotFound     error = errors.New("specified image doesn't exist")         // 404
	ErrUserNotFound      error = errors.New("specified user doesn't exist")          // 404
	ErrAlreadyLiked      error = errors.New("image is already liked by this user")   // 400
	ErrNotOwner          error = errors.New("only the owner can delete an image")    // 403
	ErrUnauthorized      error = errors.New("authentication required")               // 401
	ErrEmptyTitle        error = errors.New("image title must not be empty")         // 400
	ErrEmptyFile         error = errors.New("empty/incorrect image file provided")   // 400
	ErrFileTooLarge      error = errors.New("image file exceeds the maximum size")   // 400
	ErrUnsupportedFormat error = errors.New("unsupported image format or extension") // 400
	ErrEmptyUsername     error = errors.New("username must not be empty")            // 400
	ErrValidation        error = errors.New("image record misses required fields")   // 400
)

//--------------------

const (
	JPEG = "image/jpeg"
	PNG  = "image/png"
	GIF  = "image/gif"
	WEBP = "image/webp"
)

var InImageTypeMap = map[string]bool{
	JPEG: true,
	PNG:  true,
	GIF:  true,
	WEBP: true,
}

// ExtToCType - разрешенные расширения и ожидаемый для каждого content-type;
// при загрузке расширение и заявленный тип должны сойтись оба
var ExtToCType = map[string]string{
	".jpg":  JPEG,
	".jpeg": JPEG,
	".png":  PNG,
	".gif":  GIF,
	".webp": WEBP,
}

var GetImageFileExt = map[string]string{
	JPEG: ".jpg",
	PNG:  ".png",
	GIF:  ".gif",
	WEBP: ".webp",
}

//--------------------

type StringSlice []string

func (s *StringSlice) Scan(value any) error {
	if value == nil {
		*s = []string{}
		return nil
	}

	b, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("invalid type for StringSlice")
	}

	if err := json.Unmarshal(b, s); err != nil {
		return fmt.Errorf("failed to unmarshal JSONB to []StringSlice: %w", err)
	}
	return nil
}

func (s StringSlice) Value() (driver.Value, error) {
	if len(s) == 0 || s == nil {
		return []byte(`[]`), nil
	}
	res, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal []StringSlice to JSONB: %w", err)
	}

	return res, nil
}
