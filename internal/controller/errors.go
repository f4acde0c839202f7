package controller

import (
	"errors"

	"github.com/kartoza/embedding-theatre/internal/embedding"
)

// Validation errors. Neither results in a network call.
var (
	ErrEmptyInput        = errors.New("empty input")
	ErrInsufficientWords = errors.New("fewer than 3 comma-separated words")
)

// UserMessage turns an error into the text shown on the error banner
func UserMessage(err error) string {
	var malformed *embedding.MalformedResponseError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyInput):
		return "Please enter some text"
	case errors.Is(err, ErrInsufficientWords):
		return "Please enter at least 3 words separated by commas"
	case errors.Is(err, embedding.ErrRequestFailed):
		return "Failed to generate embedding"
	case errors.As(err, &malformed):
		return "The embedding service returned data that cannot be plotted (" + malformed.Reason + ")"
	default:
		return err.Error()
	}
}
