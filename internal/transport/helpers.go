package transport

import (
	"errors"
	"io"
	"log"

	"github.com/UnendingLoop/ArtShare/internal/model"
)

func errorCodeDefiner(err error) int {
	switch {
	case errors.Is(err, model.ErrCommon500),
		errors.Is(err, model.ErrStorageFailure):
		return 500
	case errors.Is(err, model.ErrUnauthorized):
		return 401
	case errors.Is(err, model.ErrNotOwner):
		return 403
	case errors.Is(err, model.ErrImageNotFound),
		errors.Is(err, model.ErrUserNotFound):
		return 404
	case errors.Is(err, model.ErrIncorrectQuery),
		errors.Is(err, model.ErrIncorrectID),
		errors.Is(err, model.ErrAlreadyLiked),
		errors.Is(err, model.ErrEmptyTitle),
		errors.Is(err, model.ErrEmptyFile),
		errors.Is(err, model.ErrFileTooLarge),
		errors.Is(err, model.ErrUnsupportedFormat),
		errors.Is(err, model.ErrEmptyUsername),
		errors.Is(err, model.ErrValidation):
		return 400
	default:
		return 500
	}
}

func closeFileFlow(res io.ReadCloser) {
	if res == nil {
		return
	}
	if err := res.Close(); err != nil {
		log.Println("Handler failed to close fileflow:", err)
	}
}
