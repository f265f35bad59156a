package services

import (
	"errors"
	"fmt"
	"maps"
	"strings"
)

var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrPermission    = errors.New("permission denied")
	ErrFileRejected  = errors.New("file rejected")
	ErrTimeout       = errors.New("timeout")
	ErrDependency    = errors.New("dependency missing")
	ErrProcessing    = errors.New("processing failure")
	ErrFatal         = errors.New("fatal error")
)

// Code is the machine-readable error identifier reported to callers.
type Code string

const (
	CodeValidation       Code = "VALIDATION_ERROR"
	CodeInvalidParameter Code = "INVALID_PARAMETER"
	CodeInvalidFormat    Code = "INVALID_FORMAT"
	CodeInvalidAudio     Code = "INVALID_AUDIO_FILE"
	CodeInvalidOperation Code = "INVALID_OPERATION"
	CodeNoInput          Code = "NO_INPUT"
	CodeJSON             Code = "JSON_ERROR"
	CodeConfig           Code = "CONFIG_ERROR"
	CodeFileNotFound     Code = "FILE_NOT_FOUND"
	CodeFileAccess       Code = "FILE_ACCESS_DENIED"
	CodeFileTooLarge     Code = "FILE_TOO_LARGE"
	CodeProcessing       Code = "PROCESSING_ERROR"
	CodeFFmpeg           Code = "FFMPEG_ERROR"
	CodeFFmpegMissing    Code = "FFMPEG_MISSING"
	CodeTimeout          Code = "TIMEOUT_ERROR"
	CodeNoOutput         Code = "NO_OUTPUT"
	CodeFatal            Code = "FATAL_ERROR"
)

// Process exit codes shared by every entry point.
const (
	ExitSuccess           = 0
	ExitGeneral           = 1
	ExitInvalidArgs       = 2
	ExitNotFound          = 3
	ExitPermissionDenied  = 4
	ExitTimeout           = 5
	ExitDependencyMissing = 6
)

// Error is a classified failure carrying a marker for errors.Is checks, a
// machine code, a human message, and structured details for the caller.
type Error struct {
	Marker  error
	Code    Code
	Message string
	Details map[string]any
	Err     error
}

// New builds a classified error. When code is empty the marker's default code
// is used.
func New(marker error, code Code, message string, err error) *Error {
	if marker == nil {
		marker = ErrProcessing
	}
	if code == "" {
		code = defaultCode(marker)
	}
	return &Error{Marker: marker, Code: code, Message: strings.TrimSpace(message), Err: err}
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.Message
	if msg == "" {
		msg = e.Marker.Error()
	} else {
		msg = fmt.Sprintf("%s: %s", e.Marker, msg)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the classification marker and the underlying cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Marker}
	}
	return []error{e.Marker, e.Err}
}

// With returns a copy of e carrying an additional detail entry.
func (e *Error) With(key string, value any) *Error {
	clone := *e
	clone.Details = make(map[string]any, len(e.Details)+1)
	maps.Copy(clone.Details, e.Details)
	clone.Details[key] = value
	return &clone
}

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	return New(marker, "", buildDetail(stage, operation, message), err)
}

// CodeOf reports the machine code for err, falling back to the marker default.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Code
	}
	return defaultCode(markerOf(err))
}

// MessageOf returns the human-readable message for err.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var classified *Error
	if errors.As(err, &classified) && classified.Message != "" {
		return classified.Message
	}
	return err.Error()
}

// DetailsOf merges the details of every classified error in the chain. Outer
// errors win on key conflicts.
func DetailsOf(err error) map[string]any {
	details := map[string]any{}
	collectDetails(err, details)
	if len(details) == 0 {
		return nil
	}
	return details
}

func collectDetails(err error, into map[string]any) {
	if err == nil {
		return
	}
	if classified, ok := err.(*Error); ok {
		for k, v := range classified.Details {
			if _, exists := into[k]; !exists {
				into[k] = v
			}
		}
		collectDetails(classified.Err, into)
		return
	}
	switch wrapped := err.(type) {
	case interface{ Unwrap() []error }:
		for _, inner := range wrapped.Unwrap() {
			collectDetails(inner, into)
		}
	case interface{ Unwrap() error }:
		collectDetails(wrapped.Unwrap(), into)
	}
}

// ExitCode maps err to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	switch markerOf(err) {
	case ErrValidation, ErrConfiguration:
		return ExitInvalidArgs
	case ErrNotFound:
		return ExitNotFound
	case ErrPermission:
		return ExitPermissionDenied
	case ErrTimeout:
		return ExitTimeout
	case ErrDependency:
		return ExitDependencyMissing
	default:
		return ExitGeneral
	}
}

func markerOf(err error) error {
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Marker
	}
	for _, marker := range []error{
		ErrValidation, ErrConfiguration, ErrNotFound, ErrPermission, ErrFileRejected,
		ErrTimeout, ErrDependency, ErrExternalTool, ErrFatal,
	} {
		if errors.Is(err, marker) {
			return marker
		}
	}
	return ErrProcessing
}

func defaultCode(marker error) Code {
	switch marker {
	case ErrValidation:
		return CodeValidation
	case ErrConfiguration:
		return CodeConfig
	case ErrNotFound:
		return CodeFileNotFound
	case ErrPermission:
		return CodeFileAccess
	case ErrFileRejected:
		return CodeFileTooLarge
	case ErrTimeout:
		return CodeTimeout
	case ErrDependency:
		return CodeFFmpegMissing
	case ErrExternalTool:
		return CodeFFmpeg
	case ErrFatal:
		return CodeFatal
	default:
		return CodeProcessing
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}

// Annotate attaches a detail entry to err, preserving its classification.
func Annotate(err error, key string, value any) error {
	if err == nil {
		return nil
	}
	var classified *Error
	if errors.As(err, &classified) {
		return classified.With(key, value)
	}
	return New(markerOf(err), "", "", err).With(key, value)
}

// Prefix prepends prefix to the human message of err, preserving its
// classification and details.
func Prefix(err error, prefix string) error {
	if err == nil || prefix == "" {
		return err
	}
	var classified *Error
	if errors.As(err, &classified) {
		clone := *classified
		clone.Message = prefix + MessageOf(classified)
		return &clone
	}
	return New(markerOf(err), "", prefix+err.Error(), nil)
}
