// Package signuppending реализует HTTP-обработчик подтверждения ожидающей регистрации.
package signuppending

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/signup-service/internal/http/response"
	"github.com/magabrotheeeer/signup-service/internal/lib/sl"
	"github.com/magabrotheeeer/signup-service/internal/services/session"
	signupservice "github.com/magabrotheeeer/signup-service/internal/services/signup"
)

// Request — код подтверждения из письма.
type Request struct {
	Code string `json:"code" validate:"required"`
}

// Service описывает завершение ожидающей регистрации.
type Service interface {
	SignupPending(ctx context.Context, code string, meta session.RequestMeta) (*session.Result, error)
}

type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Подтверждение регистрации
// @Description Создаёт учётную запись по коду из письма и выдаёт токен.
// @Tags Signup
// @Accept  json
// @Produce  json
// @Param request body Request true "Код подтверждения"
// @Success 200 {object} session.Result "Учётная запись создана"
// @Failure 400 {object} response.Response "Код не найден или истёк"
// @Failure 422 {object} response.Response "Ошибка валидации"
// @Router /signup-pending [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.signuppending"

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

	if err := h.validate.Struct(req); err != nil {
		log.Info("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	res, err := h.service.SignupPending(r.Context(), req.Code, requestMeta(r))
	if err != nil {
		var rejection *signupservice.Error
		w.WriteHeader(http.StatusBadRequest)
		if errors.As(err, &rejection) {
			render.JSON(w, r, response.Error(rejection.Code, rejection.ClientMessage()))
			return
		}
		render.JSON(w, r, response.Error(response.CodeInternal, "internal error"))
		return
	}

	render.JSON(w, r, res)
}

// requestMeta извлекает адрес и User-Agent клиента. RemoteAddr уже
// переписан middleware.RealIP, если запрос пришёл через прокси.
func requestMeta(r *http.Request) session.RequestMeta {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	return session.RequestMeta{IP: ip, UserAgent: r.UserAgent()}
}
