package signup

// Коды ошибок, возвращаемые клиенту.
const (
	CodeCaptchaRejected           = "CAPTCHA_REJECTED"
	CodeEmailUnavailable          = "EMAIL_UNAVAILABLE"
	CodeRegistrationClosed        = "REGISTRATION_CLOSED"
	CodeRegistrationLimitExceeded = "REGISTRATION_LIMIT_EXCEEDED"
	CodeDuplicatedUsername        = "DUPLICATED_USERNAME"
	CodeUsedUsername              = "USED_USERNAME"
	CodeDeniedUsername            = "DENIED_USERNAME"
	CodeNoSuchUserList            = "NO_SUCH_USER_LIST"
	CodeAccountCreationFailed     = "ACCOUNT_CREATION_FAILED"
	CodeExpired                   = "EXPIRED"
	CodePendingNotFound           = "PENDING_NOT_FOUND"
)

// Error отказ в регистрации с машиночитаемым кодом.
//
// Ошибки сравниваются по коду, поэтому errors.Is(err, ErrDuplicatedUsername)
// срабатывает и для экземпляров, обёрнутых вокруг исходной причины.
//
// Клиенту отдаётся ClientMessage: причина попадает в ответ, только если
// отказ создан через reveal или describe.
type Error struct {
	Code    string
	Message string
	cause   error
	detail  string
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.cause.Error()
	}
	return e.Message
}

// ClientMessage возвращает текст отказа для ответа клиенту.
func (e *Error) ClientMessage() string {
	if e.detail != "" {
		return e.detail
	}
	return e.Message
}

// Unwrap возвращает исходную причину отказа.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is сравнивает ошибки по коду.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// wrap возвращает копию отказа с сохранённой причиной.
func (e *Error) wrap(cause error) *Error {
	return &Error{Code: e.Code, Message: e.Message, cause: cause}
}

// reveal как wrap, но текст причины отдаётся клиенту.
func (e *Error) reveal(cause error) *Error {
	return e.describe(cause, cause.Error())
}

// describe как wrap, но клиенту отдаётся detail.
func (e *Error) describe(cause error, detail string) *Error {
	return &Error{Code: e.Code, Message: e.Message, cause: cause, detail: detail}
}

var (
	ErrCaptchaRejected           = &Error{Code: CodeCaptchaRejected, Message: "captcha verification failed"}
	ErrEmailUnavailable          = &Error{Code: CodeEmailUnavailable, Message: "email address is not available"}
	ErrRegistrationClosed        = &Error{Code: CodeRegistrationClosed, Message: "registration is closed"}
	ErrRegistrationLimitExceeded = &Error{Code: CodeRegistrationLimitExceeded, Message: "registration limit exceeded"}
	ErrDuplicatedUsername        = &Error{Code: CodeDuplicatedUsername, Message: "username is already taken"}
	ErrUsedUsername              = &Error{Code: CodeUsedUsername, Message: "username was used before"}
	ErrDeniedUsername            = &Error{Code: CodeDeniedUsername, Message: "username is reserved"}
	ErrNoSuchUserList            = &Error{Code: CodeNoSuchUserList, Message: "no such user list"}
	ErrAccountCreationFailed     = &Error{Code: CodeAccountCreationFailed, Message: "account creation failed"}
	ErrPendingExpired            = &Error{Code: CodeExpired, Message: "pending registration expired"}
	ErrPendingNotFound           = &Error{Code: CodePendingNotFound, Message: "pending registration not found"}
)
