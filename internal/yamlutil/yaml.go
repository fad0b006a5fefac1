// Package yamlutil wraps goccy/go-yaml for config files and front matter.
package yamlutil

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/goccy/go-yaml"
)

// MaxInputSize limits YAML input to prevent memory exhaustion (default 1MB).
var MaxInputSize = 1 << 20

var (
	ErrNilData        = errors.New("yamlutil: nil or empty data")
	ErrNilDestination = errors.New("yamlutil: nil destination pointer")
	ErrInputTooLarge  = errors.New("yamlutil: input exceeds maximum size")
)

func validateInput(data []byte, v any) error {
	if len(data) == 0 {
		return ErrNilData
	}
	if len(data) > MaxInputSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrInputTooLarge, len(data), MaxInputSize)
	}
	if v == nil {
		return ErrNilDestination
	}
	return nil
}

// Unmarshal decodes data into v, ignoring unknown fields.
func Unmarshal(data []byte, v any) error {
	if err := validateInput(data, v); err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return decodeError(err)
	}
	return nil
}

// UnmarshalOptional is Unmarshal for inputs that may legitimately be empty,
// such as a front matter block with nothing between its delimiters. Blank
// input leaves v unchanged.
func UnmarshalOptional(data []byte, v any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		if v == nil {
			return ErrNilDestination
		}
		return nil
	}
	return Unmarshal(data, v)
}

// UnmarshalStrict rejects unknown fields in the input.
func UnmarshalStrict(data []byte, v any) error {
	if err := validateInput(data, v); err != nil {
		return err
	}
	if err := yaml.UnmarshalWithOptions(data, v, yaml.Strict()); err != nil {
		return decodeError(err)
	}
	return nil
}

// sourceError is a decode error rendered with the offending source line.
type sourceError struct {
	err error
	msg string
}

func (e *sourceError) Error() string { return "yamlutil: " + e.msg }
func (e *sourceError) Unwrap() error { return e.err }

func decodeError(err error) error {
	return &sourceError{err: err, msg: yaml.FormatError(err, false, true)}
}
