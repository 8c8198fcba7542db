package fault

import (
	"errors"
	"fmt"
)

// Kind 区分核心层可能返回的错误类别。
type Kind int

const (
	Unknown            Kind = iota
	AssetLoadFailure        // 字体或符号矢量资源缺失/损坏
	UnknownSymbol           // 符号名在矢量资源中找不到
	MalformedParagraph      // 段落中出现无法处理的 run
)

func (k Kind) String() string {
	switch k {
	case AssetLoadFailure:
		return "asset load failure"
	case UnknownSymbol:
		return "unknown symbol"
	case MalformedParagraph:
		return "malformed paragraph"
	default:
		return "unknown"
	}
}

// Error carries the kind, the offending asset or symbol name and an optional cause.
type Error struct {
	Kind    Kind
	Subject string
	Err     error
}

// Sentinels for errors.Is.
var (
	ErrAssetLoad          = &Error{Kind: AssetLoadFailure}
	ErrUnknownSymbol      = &Error{Kind: UnknownSymbol}
	ErrMalformedParagraph = &Error{Kind: MalformedParagraph}
)

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Subject != "" {
		msg = fmt.Sprintf("%s %q", msg, e.Subject)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so sentinels compare by kind only.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// AssetLoad wraps err as an AssetLoadFailure for the named asset.
func AssetLoad(name string, err error) error {
	return &Error{Kind: AssetLoadFailure, Subject: name, Err: err}
}

// Symbol reports a symbol name with no matching vector asset.
func Symbol(name string) error {
	return &Error{Kind: UnknownSymbol, Subject: name}
}

// Malformed reports a structurally impossible run.
func Malformed(format string, args ...any) error {
	return &Error{Kind: MalformedParagraph, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of the first *Error in err's chain, or Unknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}
