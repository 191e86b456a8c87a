// Package signup реализует HTTP-обработчик регистрации учётной записи.
//
// Обработчик декодирует и валидирует JSON, передаёт запрос сервису регистрации
// и отвечает 204, если регистрация ожидает подтверждения email, или 200
// с учётной записью и токеном.
package signup

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/signup-service/internal/http/response"
	"github.com/magabrotheeeer/signup-service/internal/lib/sl"
	"github.com/magabrotheeeer/signup-service/internal/models"
	signupservice "github.com/magabrotheeeer/signup-service/internal/services/signup"
)

// Request входные данные для регистрации.
type Request struct {
	Username          string  `json:"username" validate:"required,max=128"`
	Password          string  `json:"password" validate:"required"`
	Host              *string `json:"host,omitempty"`
	InvitationCode    string  `json:"invitationCode,omitempty"`
	EmailAddress      string  `json:"emailAddress,omitempty"`
	HcaptchaResponse  string  `json:"hcaptcha-response,omitempty"`
	RecaptchaResponse string  `json:"g-recaptcha-response,omitempty"`
	TurnstileResponse string  `json:"turnstile-response,omitempty"`
}

// AccountResponse учётная запись и её токен доступа.
type AccountResponse struct {
	models.AccountView
	Token string `json:"token"`
}

// Service описывает бизнес-логику регистрации.
type Service interface {
	Signup(ctx context.Context, req signupservice.Request) (*signupservice.Result, error)
}

// Handler обрабатывает HTTP-запросы регистрации.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Регистрация учётной записи
// @Description Создаёт учётную запись или ожидающую регистрацию с подтверждением по email.
// @Tags Signup
// @Accept  json
// @Produce  json
// @Param request body Request true "Данные регистрации"
// @Success 200 {object} AccountResponse "Учётная запись создана"
// @Success 204 "Письмо с подтверждением отправлено"
// @Failure 400 {object} response.Response "Регистрация отклонена"
// @Failure 422 {object} response.Response "Ошибка валидации"
// @Failure 429 {object} response.Response "Слишком много запросов"
// @Router /signup [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.signup"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error(response.CodeInvalidRequest, "invalid request body"))
		return
	}
	log = log.With(slog.String("username", req.Username))

	if err := h.validate.Struct(req); err != nil {
		log.Info("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	res, err := h.service.Signup(r.Context(), signupservice.Request{
		Username:          req.Username,
		Password:          req.Password,
		Host:              req.Host,
		InvitationCode:    req.InvitationCode,
		EmailAddress:      req.EmailAddress,
		HcaptchaResponse:  req.HcaptchaResponse,
		RecaptchaResponse: req.RecaptchaResponse,
		TurnstileResponse: req.TurnstileResponse,
	})
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, errorResponse(err))
		return
	}

	if res.Pending {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	log.Info("account created", slog.String("account_id", res.Account.ID))
	render.JSON(w, r, AccountResponse{AccountView: res.Account, Token: res.Token})
}

// errorResponse переводит ошибку регистрации в ответ клиенту. Детали
// внутренних ошибок в ответ не попадают.
func errorResponse(err error) response.Response {
	var rejection *signupservice.Error
	if !errors.As(err, &rejection) {
		return response.Error(response.CodeInternal, "internal error")
	}
	return response.Error(rejection.Code, rejection.ClientMessage())
}
