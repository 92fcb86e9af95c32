package editor

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation       = errors.New("editor: validation failed")
	ErrCapacity         = errors.New("editor: media capacity exceeded")
	ErrUpload           = errors.New("editor: upload failed")
	ErrPersist          = errors.New("editor: persist failed")
	ErrIndexOutOfRange  = errors.New("editor: media index out of range")
	ErrVideoCover       = errors.New("editor: a video cannot be the cover while images exist")
	ErrUnknownAttribute = errors.New("editor: attribute not declared for category")
	ErrUnsupportedMedia = errors.New("editor: only images and videos can be staged")
	ErrSubmitting       = errors.New("editor: submit in progress")
	ErrNotLoaded        = errors.New("editor: session not loaded")
	ErrClosed           = errors.New("editor: session closed")
)

// ValidationError 缺失或非法的字段
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "editor: missing or invalid fields: " + strings.Join(e.Fields, ", ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// CapacityError 追加后超出媒体数量上限
type CapacityError struct {
	Kind   MediaKind
	Limit  int
	Have   int
	Adding int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("editor: at most %d %ss allowed, have %d, adding %d", e.Limit, e.Kind, e.Have, e.Adding)
}

func (e *CapacityError) Is(target error) bool {
	return target == ErrCapacity
}

// UploadError 单个文件上传失败，原因原样透出
type UploadError struct {
	Name string
	Err  error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s: %v", e.Name, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

func (e *UploadError) Is(target error) bool {
	return target == ErrUpload
}

// PersistError 后端拒绝保存
type PersistError struct {
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist listing: %v", e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

func (e *PersistError) Is(target error) bool {
	return target == ErrPersist
}
