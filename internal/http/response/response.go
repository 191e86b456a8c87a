// Package response содержит вспомогательные типы и функции для формирования
// JSON‑ответов HTTP‑обработчиков регистрации в едином формате ошибок.
package response

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator"
)

const (
	// StatusOK значение статуса для успешного ответа.
	StatusOK = "OK"
	// StatusError значение статуса для ответа с ошибкой.
	StatusError = "Error"
)

// Коды ошибок уровня HTTP, не связанные с бизнес‑логикой регистрации.
const (
	CodeInvalidRequest  = "INVALID_REQUEST"
	CodeValidation      = "VALIDATION_FAILED"
	CodeTooManyRequests = "TOO_MANY_REQUESTS"
	CodeInternal        = "INTERNAL_ERROR"
)

// Response описывает стандартную структуру JSON‑ответа сервера.
type Response struct {
	Status string     `json:"status"`
	Error  *ErrorBody `json:"error,omitempty"`
	Data   any        `json:"data,omitempty"`
}

// ErrorBody машиночитаемый код ошибки и сообщение для клиента.
type ErrorBody struct {
	Code    string `json:"code" example:"REGISTRATION_CLOSED"`
	Message string `json:"message" example:"registration is closed"`
}

// OKWithData возвращает успешный Response с переданными данными.
func OKWithData(data any) Response {
	return Response{
		Status: StatusOK,
		Data:   data,
	}
}

// Error возвращает Response с ошибкой.
func Error(code, msg string) Response {
	return Response{
		Status: StatusError,
		Error:  &ErrorBody{Code: code, Message: msg},
	}
}

// ValidationError формирует Response со статусом Error на основе ошибок валидации.
// Каждое нарушение формируется в человеко‑читаемый текст, объединённый через запятую.
func ValidationError(errs validator.ValidationErrors) Response {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "max":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is too long", err.Field()))
		case "email":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be a valid email address", err.Field()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not a valid", err.Field()))
		}
	}
	return Error(CodeValidation, strings.Join(errsMsgs, ", "))
}
