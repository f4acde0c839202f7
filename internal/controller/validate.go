package controller

import "strings"

// MinWords is the smallest number of comma-separated segments accepted
const MinWords = 3

// Validate checks raw input before anything is sent. Segments are counted
// without trimming, so "a,,b" has three. The text is returned unchanged.
func Validate(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyInput
	}
	if len(strings.Split(text, ",")) < MinWords {
		return "", ErrInsufficientWords
	}
	return text, nil
}
