// Package limiter ограничивает количество открытых регистраций за окно времени.
package limiter

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/magabrotheeeer/signup-service/internal/config"
)

const keyPrefix = "registration:limit:"

// RegistrationLimiter — счётчик регистраций с фиксированным окном в Redis.
type RegistrationLimiter struct {
	db     *redis.Client
	max    int64
	window time.Duration
	now    func() time.Time
}

// New создаёт RegistrationLimiter с параметрами из конфигурации.
func New(db *redis.Client, cfg config.RegistrationLimit) *RegistrationLimiter {
	window := cfg.Window
	if window <= 0 {
		window = time.Hour
	}
	return &RegistrationLimiter{
		db:     db,
		max:    cfg.MaxRegistrations,
		window: window,
		now:    time.Now,
	}
}

// IsAvailable сообщает, разрешена ли сейчас открытая регистрация.
// При consuming == true регистрация засчитывается в текущее окно.
func (l *RegistrationLimiter) IsAvailable(ctx context.Context, consuming bool) (bool, error) {
	const op = "limiter.IsAvailable"

	key := l.key()
	if !consuming {
		count, err := l.db.Get(ctx, key).Int64()
		if errors.Is(err, redis.Nil) {
			return l.max > 0, nil
		}
		if err != nil {
			return false, fmt.Errorf("%s: %w", op, err)
		}
		return count < l.max, nil
	}

	count, err := l.db.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if count == 1 {
		if err := l.db.Expire(ctx, key, l.window).Err(); err != nil {
			return false, fmt.Errorf("%s: %w", op, err)
		}
	}
	return count <= l.max, nil
}

func (l *RegistrationLimiter) key() string {
	bucket := l.now().UnixNano() / int64(l.window)
	return keyPrefix + strconv.FormatInt(bucket, 10)
}
