package pages

import (
	"errors"
	"fmt"
	"io/fs"
)

// Kind 对页面操作的失败进行分类，HTTP 层据此映射状态码。
type Kind int

const (
	KindNotFound Kind = iota + 1
	KindInvalidValue
	KindPreconditionFailed
	KindFilesystem
)

// String 返回适合放入 JSON 响应的错误码。
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalidValue:
		return "invalid_value"
	case KindPreconditionFailed:
		return "precondition_failed"
	case KindFilesystem:
		return "filesystem_error"
	default:
		return "unknown"
	}
}

// Error 描述一次失败的页面操作。
type Error struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

// 哨兵错误，用于 errors.Is 判断分类。
var (
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrInvalidValue       = &Error{Kind: KindInvalidValue}
	ErrPreconditionFailed = &Error{Kind: KindPreconditionFailed}
	ErrFilesystem         = &Error{Kind: KindFilesystem}
)

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Path != "" {
		msg += " (" + e.Path + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is 只比较分类，使 errors.Is(err, ErrInvalidValue) 对任意 InvalidValue 错误成立。
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf 返回错误链中第一个 *Error 的分类，非页面错误返回 0。
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return 0
}

func invalidValue(op, path, format string, args ...interface{}) error {
	return &Error{Kind: KindInvalidValue, Op: op, Path: path, Err: fmt.Errorf(format, args...)}
}

func preconditionFailed(op, path, format string, args ...interface{}) error {
	return &Error{Kind: KindPreconditionFailed, Op: op, Path: path, Err: fmt.Errorf(format, args...)}
}

func fsError(op, path string, err error) error {
	if err == nil {
		return nil
	}
	var pe *Error
	if errors.As(err, &pe) {
		return err
	}
	return &Error{Kind: KindFilesystem, Op: op, Path: path, Err: err}
}

// readError 区分目录读取失败：不存在视为"没有页面"，权限错误才向上传播。
func readError(op, path string, err error) error {
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if errors.Is(err, fs.ErrPermission) {
		return fsError(op, path, err)
	}
	return nil
}
