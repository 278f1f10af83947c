package service

import (
	"path/filepath"
	"strings"

	"github.com/UnendingLoop/ArtShare/internal/model"
)

func validateQueryParams(req *model.ListRequest) {
	// Обрабатываем пустые значения, присваиваем дефолты если надо
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 20
	}
}

const (
	defaultRandomCount = 12
	maxRandomCount     = 50
)

func validateRandomCount(count int) int {
	if count <= 0 {
		return defaultRandomCount
	}
	if count > maxRandomCount {
		return maxRandomCount
	}
	return count
}

func validateNormalizeUpload(raw *model.ImageUploadData, maxSize int64) error {
	// тайтл обязателен
	raw.Title = strings.TrimSpace(raw.Title)
	if raw.Title == "" {
		return model.ErrEmptyTitle
	}
	raw.Description = strings.TrimSpace(raw.Description)

	// корректен ли сам файл
	if raw.File == nil || raw.FileSize <= 0 {
		return model.ErrEmptyFile
	}
	if raw.FileSize > maxSize {
		return model.ErrFileTooLarge
	}

	// расширение и заявленный content-type должны оба попасть в allow-list
	// и соответствовать друг другу: .exe переименованный в .jpg не пройдет
	ext := strings.ToLower(filepath.Ext(raw.FileName))
	wantCType, ok := model.ExtToCType[ext]
	if !ok {
		return model.ErrUnsupportedFormat
	}
	if !model.InImageTypeMap[raw.ContentType] || raw.ContentType != wantCType {
		return model.ErrUnsupportedFormat
	}

	return nil
}

func normalizeTags(raw []string) model.StringSlice {
	tags := make(model.StringSlice, 0, len(raw))
	for _, t := range raw {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		tags = append(tags, t)
	}
	return tags
}
