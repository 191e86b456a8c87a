// Package captcha проверяет ответы hCaptcha, reCAPTCHA и Turnstile
// через siteverify-эндпоинты провайдеров.
package captcha

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Эндпоинты проверки провайдеров.
const (
	HcaptchaURL  = "https://hcaptcha.com/siteverify"
	RecaptchaURL = "https://www.recaptcha.net/recaptcha/api/siteverify"
	TurnstileURL = "https://challenges.cloudflare.com/turnstile/v0/siteverify"
)

// ErrNoResponse возвращается, если клиент не прислал ответ капчи.
var ErrNoResponse = errors.New("no response provided")

// ErrRequestFailed возвращается, если провайдер недоступен или ответил не по протоколу.
var ErrRequestFailed = errors.New("request-failed")

type siteverifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// Verifier выполняет запросы проверки к провайдерам капчи.
type Verifier struct {
	client       *http.Client
	hcaptchaURL  string
	recaptchaURL string
	turnstileURL string
}

// Option настраивает Verifier.
type Option func(*Verifier)

// WithEndpoints переопределяет адреса проверки, используется в тестах.
func WithEndpoints(hcaptcha, recaptcha, turnstile string) Option {
	return func(v *Verifier) {
		v.hcaptchaURL = hcaptcha
		v.recaptchaURL = recaptcha
		v.turnstileURL = turnstile
	}
}

// New создаёт Verifier с таймаутом HTTP-запросов.
func New(timeout time.Duration, opts ...Option) *Verifier {
	v := &Verifier{
		client:       &http.Client{Timeout: timeout},
		hcaptchaURL:  HcaptchaURL,
		recaptchaURL: RecaptchaURL,
		turnstileURL: TurnstileURL,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// VerifyHcaptcha проверяет ответ hCaptcha.
func (v *Verifier) VerifyHcaptcha(ctx context.Context, secret, response string) error {
	return v.verify(ctx, "hcaptcha", v.hcaptchaURL, secret, response)
}

// VerifyRecaptcha проверяет ответ reCAPTCHA.
func (v *Verifier) VerifyRecaptcha(ctx context.Context, secret, response string) error {
	return v.verify(ctx, "recaptcha", v.recaptchaURL, secret, response)
}

// VerifyTurnstile проверяет ответ Cloudflare Turnstile.
func (v *Verifier) VerifyTurnstile(ctx context.Context, secret, response string) error {
	return v.verify(ctx, "turnstile", v.turnstileURL, secret, response)
}

func (v *Verifier) verify(ctx context.Context, provider, endpoint, secret, response string) error {
	if response == "" {
		return fmt.Errorf("%s-failed: %w", provider, ErrNoResponse)
	}

	result, err := v.siteverify(ctx, endpoint, secret, response)
	if err != nil {
		return fmt.Errorf("%s-%w: %w", provider, ErrRequestFailed, err)
	}
	if !result.Success {
		return fmt.Errorf("%s-failed: %s", provider, strings.Join(result.ErrorCodes, ", "))
	}
	return nil
}

func (v *Verifier) siteverify(ctx context.Context, endpoint, secret, response string) (*siteverifyResponse, error) {
	form := url.Values{
		"secret":   {secret},
		"response": {response},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var result siteverifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}
