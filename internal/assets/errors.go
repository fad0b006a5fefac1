package assets

import "errors"

// Sentinel errors for asset operations.
var (
	ErrStyleNotFound    = errors.New("style not found")
	ErrTemplateNotFound = errors.New("template not found")
	ErrScriptNotFound   = errors.New("script not found")

	// ErrInvalidAssetName indicates the asset name contains path separators,
	// dots or is empty.
	ErrInvalidAssetName = errors.New("invalid asset name")

	// ErrInvalidBasePath indicates the configured base path is not a readable
	// directory.
	ErrInvalidBasePath = errors.New("invalid base path")

	ErrAssetRead     = errors.New("failed to read asset")
	ErrPathTraversal = errors.New("path traversal detected")
)
