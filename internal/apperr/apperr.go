// Package apperr is the single error taxonomy shared by the whole pipeline.
// Business-rule violations carry a stable machine-readable code so clients can
// translate them; anything that is not an *Error is treated as fatal by the
// transport layer and surfaced without a business code.
package apperr

// Validation codes.
const (
	CodeDuplicateServerName  = "DUPLICATE_SERVER_NAME"
	CodeDuplicateChannelName = "DUPLICATE_CHANNEL_NAME"
	CodeDuplicateUsername    = "DUPLICATE_USERNAME"
	CodeAlreadyMember        = "ALREADY_MEMBER"
	CodeNotAMember           = "NOT_A_MEMBER"
	CodeUserIsOwner          = "USER_IS_OWNER"
	CodeAlreadyAdmin         = "ALREADY_ADMIN"
	CodeNotAdmin             = "NOT_ADMIN"
	CodeEmptyMessage         = "EMPTY_MESSAGE"
	CodeMessageTooLong       = "MESSAGE_TOO_LONG"
	CodeFileTooLarge         = "FILE_TOO_LARGE"
	CodeInvalidImage         = "INVALID_IMAGE"
)

// Not-found codes.
const (
	CodeServerNotFound  = "SERVER_NOT_FOUND"
	CodeChannelNotFound = "CHANNEL_NOT_FOUND"
	CodeMessageNotFound = "MESSAGE_NOT_FOUND"
	CodeUserNotFound    = "USER_NOT_FOUND"
)

// CodeForbidden is the single code for capability failures. The attachment
// retrieval boundary deliberately answers with this even when the file does
// not exist, so callers cannot tell the two apart.
const CodeForbidden = "FORBIDDEN"

type Kind int

const (
	KindValidation Kind = iota
	KindNotFound
	KindUnauthorized
)

type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

// Is matches by kind and code so sentinel errors compare with errors.Is
// regardless of message wording.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind && t.Code == e.Code
}

func Validation(code, message string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message}
}

func NotFound(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Code: CodeForbidden, Message: message}
}
