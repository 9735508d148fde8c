package uia

import (
	"errors"
	"fmt"
)

// Kind 错误类别
// 调用方通过类别分支处理，而不是解析错误文本
type Kind int

const (
	// KindParse 选择器语法错误（不重试）
	KindParse Kind = iota + 1
	// KindNoMatch 超时后仍无匹配元素
	KindNoMatch
	// KindStale 元素句柄已失效（底层 UI 元素被销毁）
	KindStale
	// KindInvalidOperation 操作与元素角色/能力不兼容
	KindInvalidOperation
	// KindPlatform 平台原生调用失败（携带平台错误码）
	KindPlatform
	// KindPermissionDenied 系统未授予无障碍访问权限
	KindPermissionDenied
	// KindAppNotRunning 应用句柄生命周期违例（应用已退出或未就绪）
	KindAppNotRunning
)

func (k Kind) String() string {
	switch k {
	case KindParse:
		return "ParseError"
	case KindNoMatch:
		return "ElementNotFound"
	case KindStale:
		return "StaleElementError"
	case KindInvalidOperation:
		return "InvalidOperation"
	case KindPlatform:
		return "PlatformApiError"
	case KindPermissionDenied:
		return "PermissionDenied"
	case KindAppNotRunning:
		return "ApplicationNotRunning"
	default:
		return "UnknownError"
	}
}

// Error 结构化错误
// 除类别外携带定位上下文：选择器文本、阶段序号、元素角色/名称、平台错误码
type Error struct {
	Kind     Kind
	Selector string // 触发错误的选择器文本（如适用）
	Stage    int    // 选择器阶段序号，0-based，-1 表示不适用
	Role     Role   // 相关元素角色（如适用）
	Name     string // 相关元素名称（如适用）
	Code     int64  // 平台错误码（仅 KindPlatform）
	Msg      string
	Err      error
}

func (e *Error) Error() string {
	s := fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	if e.Selector != "" {
		s += fmt.Sprintf(" (selector=%q", e.Selector)
		if e.Stage >= 0 {
			s += fmt.Sprintf(", stage=%d", e.Stage)
		}
		s += ")"
	}
	if e.Kind == KindPlatform && e.Code != 0 {
		s += fmt.Sprintf(" [code=0x%X]", e.Code)
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError 创建指定类别的错误
func NewError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Stage: -1, Msg: fmt.Sprintf(format, args...)}
}

// WrapPlatform 包装平台原生错误，保留错误码
func WrapPlatform(code int64, err error, format string, args ...interface{}) *Error {
	return &Error{
		Kind:  KindPlatform,
		Stage: -1,
		Code:  code,
		Msg:   fmt.Sprintf(format, args...),
		Err:   err,
	}
}

// ErrorKind 提取错误类别，非本包错误返回 0
func ErrorKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsKind 判断错误是否属于指定类别
func IsKind(err error, kind Kind) bool {
	return ErrorKind(err) == kind
}

// IsNoMatch 判断是否为元素未找到错误
func IsNoMatch(err error) bool { return IsKind(err, KindNoMatch) }

// IsStale 判断是否为失效句柄错误
func IsStale(err error) bool { return IsKind(err, KindStale) }
