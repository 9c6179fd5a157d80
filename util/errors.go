package util

import (
	"errors"

	"github.com/zalando/go-keyring"
)

var (
	ErrFilesystem           = errors.New("filesystem operation failed")
	ErrHttpFailed           = errors.New("http request failed")
	ErrChecksumMismatch     = errors.New("the checksum does not match hash of file")
	ErrUnknownVersion       = errors.New("version is invalid")
	ErrLibraryNameFormat    = errors.New("the provided name for a library is invalid")
	ErrExtractFailed        = errors.New("failed to extract archive entry")
	ErrParseFailed          = errors.New("failed to parse document")
	ErrAuthExpired          = errors.New("token expired")
	ErrAuthNotAuthenticated = errors.New("not authenticated")
	ErrAuthProtocol         = errors.New("authentication protocol failure")
	ErrNotEntitled          = errors.New("account does not own the game")
	ErrForkFailed           = errors.New("failed to fork new process")
	ErrSpawnFailed          = errors.New("failed to spawn new process")
	ErrCancelled            = errors.New("cancelled")
)

var kinds = []error{
	ErrFilesystem,
	ErrHttpFailed,
	ErrChecksumMismatch,
	ErrUnknownVersion,
	ErrLibraryNameFormat,
	ErrExtractFailed,
	ErrParseFailed,
	ErrAuthExpired,
	ErrAuthNotAuthenticated,
	ErrAuthProtocol,
	ErrNotEntitled,
	ErrForkFailed,
	ErrSpawnFailed,
	ErrCancelled,
}

// Error attaches a subject (url, version, token kind, archive entry) and an
// optional cause to one of the error kinds above.
type Error struct {
	Kind    error
	Subject string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Subject != "" {
		msg += " '" + e.Subject + "'"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func Wrap(kind error, subject string, err error) error {
	return &Error{Kind: kind, Subject: subject, Err: err}
}

// KindOf returns the first known kind found in err's chain, or nil.
func KindOf(err error) error {
	if err == nil {
		return nil
	}
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// Hint suggests what the user can do about err, or returns "".
func Hint(err error) string {
	if errors.Is(err, keyring.ErrNotFound) {
		return "Run 'blockman init' first"
	}

	switch KindOf(err) {
	case ErrAuthExpired, ErrAuthNotAuthenticated:
		return "Run 'blockman refresh' or sign in again with 'blockman login'"
	case ErrNotEntitled:
		return "This account does not own Minecraft, 'blockman launch --offline' still works"
	case ErrHttpFailed:
		return "Check your internet connection and try again"
	case ErrChecksumMismatch, ErrExtractFailed:
		return "Run 'blockman install' again to repair the instance"
	case ErrUnknownVersion:
		return "Run 'blockman versions' to see what can be installed"
	case ErrForkFailed, ErrSpawnFailed:
		return "Check the java executable with 'blockman settings' or 'blockman edit --java'"
	}
	return ""
}
