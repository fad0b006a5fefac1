package main

import (
	"errors"
	"os"

	mdview "github.com/alnah/go-mdview"
	"github.com/alnah/go-mdview/internal/config"
)

// Exit codes for the mdview CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Command completed
	ExitGeneral = 1 // General/unexpected error, unreached probe target
	ExitUsage   = 2 // Invalid flags, config, or validation
	ExitIO      = 3 // File not found, permission denied
	ExitBrowser = 4 // Browser/Chrome errors
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	if errors.Is(err, mdview.ErrBrowserConnect) ||
		errors.Is(err, mdview.ErrPageCreate) ||
		errors.Is(err, mdview.ErrPageLoad) ||
		errors.Is(err, mdview.ErrSurfaceEval) {
		return ExitBrowser
	}

	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrReadMarkdown) ||
		errors.Is(err, ErrWriteOutput) {
		return ExitIO
	}

	if errors.Is(err, ErrUsage) ||
		errors.Is(err, ErrNoInput) ||
		errors.Is(err, ErrInvalidExtension) ||
		errors.Is(err, ErrInvalidWorkerCount) ||
		errors.Is(err, ErrInvalidTimeout) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, mdview.ErrEmptyMarkdown) ||
		errors.Is(err, mdview.ErrStyleNotFound) ||
		errors.Is(err, mdview.ErrInvalidAssetPath) {
		return ExitUsage
	}

	return ExitGeneral
}
