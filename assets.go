package mdview

import (
	"errors"

	"github.com/alnah/go-mdview/internal/assets"
	"github.com/alnah/go-mdview/internal/pipeline"
)

// DefaultStyle is the name of the built-in page style.
const DefaultStyle = assets.DefaultStyleName

// StyleNames lists the built-in page styles.
func StyleNames() []string {
	return assets.StyleNames()
}

// HighlightStyles lists the syntax highlighting styles accepted by
// WithHighlightStyle.
func HighlightStyles() []string {
	return pipeline.HighlightStyles()
}

// convertAssetError maps internal asset errors to public errors.
func convertAssetError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, assets.ErrStyleNotFound),
		errors.Is(err, assets.ErrInvalidAssetName):
		return wrapError(ErrStyleNotFound, err)
	case errors.Is(err, assets.ErrInvalidBasePath),
		errors.Is(err, assets.ErrPathTraversal):
		return wrapError(ErrInvalidAssetPath, err)
	default:
		return err
	}
}

// wrapError returns an error whose message is original's and which matches
// sentinel with errors.Is.
func wrapError(sentinel, original error) error {
	return &wrappedAssetError{sentinel: sentinel, original: original}
}

type wrappedAssetError struct {
	sentinel error
	original error
}

func (e *wrappedAssetError) Error() string {
	return e.original.Error()
}

// Unwrap returns the public sentinel; internal errors stay hidden.
func (e *wrappedAssetError) Unwrap() error {
	return e.sentinel
}
