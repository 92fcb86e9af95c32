package service

import (
	"Vitrin/internal/editor"
	"errors"
)

const (
	BadRequest          = 400
	Unauthorized        = 401
	Forbidden           = 403
	NotFound            = 404
	Conflict            = 409
	InternalServerError = 500
)

var (
	ErrParamInvalid      = errors.New("invalid parameters")
	ErrListingNotFound   = errors.New("listing not found")
	ErrDraftNotFound     = errors.New("draft not found or expired")
	ErrDraftBusy         = errors.New("draft is being modified by another request")
	ErrFileNotSupported  = errors.New("unsupported file type")
	ErrFileTooLarge      = errors.New("file too large")
	ErrPasswordIncorrect = errors.New("username or password incorrect")
	ErrAdminExist        = errors.New("admin already exists")
	ErrContactNotFound   = errors.New("contact message not found")
	UnauthorizedError    = errors.New("permission denied")
	UnExpectedError      = errors.New("unexpected error, please try again later")
)

var ErrorMap = map[error]int{
	ErrParamInvalid:      BadRequest,
	ErrListingNotFound:   NotFound,
	ErrDraftNotFound:     NotFound,
	ErrDraftBusy:         Conflict,
	ErrFileNotSupported:  BadRequest,
	ErrFileTooLarge:      BadRequest,
	ErrPasswordIncorrect: Unauthorized,
	ErrAdminExist:        BadRequest,
	ErrContactNotFound:   NotFound,
	UnauthorizedError:    Unauthorized,
	UnExpectedError:      InternalServerError,

	editor.ErrValidation:       BadRequest,
	editor.ErrCapacity:         BadRequest,
	editor.ErrIndexOutOfRange:  BadRequest,
	editor.ErrVideoCover:       BadRequest,
	editor.ErrUnknownAttribute: BadRequest,
	editor.ErrUnsupportedMedia: BadRequest,
	editor.ErrSubmitting:       Conflict,
	editor.ErrNotLoaded:        Conflict,
	editor.ErrClosed:           NotFound,
	editor.ErrUpload:           InternalServerError,
	editor.ErrPersist:          InternalServerError,
}

// CodeOf 查找错误对应的业务码，支持被包装的错误
func CodeOf(err error) (int, bool) {
	if code, ok := ErrorMap[err]; ok {
		return code, true
	}
	for target, code := range ErrorMap {
		if errors.Is(err, target) {
			return code, true
		}
	}
	return 0, false
}
