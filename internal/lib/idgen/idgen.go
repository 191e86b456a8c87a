// Package idgen выдаёт упорядоченные по времени идентификаторы (UUIDv7)
// и извлекает из них момент создания.
package idgen

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// New возвращает новый UUIDv7 в строковом виде.
func New() (string, error) {
	const op = "idgen.New"
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return id.String(), nil
}

// Time возвращает момент создания, закодированный в UUIDv7.
func Time(id string) (time.Time, error) {
	const op = "idgen.Time"
	u, err := uuid.Parse(id)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", op, err)
	}
	if u.Version() != 7 {
		return time.Time{}, fmt.Errorf("%s: unexpected uuid version %d", op, u.Version())
	}
	ms := int64(binary.BigEndian.Uint64(u[:8]) >> 16)
	return time.UnixMilli(ms), nil
}

// FromTime строит UUIDv7 с заданным моментом создания.
// Используется при переносе данных и в тестах.
func FromTime(t time.Time) (string, error) {
	const op = "idgen.FromTime"
	u, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	ms := uint64(t.UnixMilli())
	u[0] = byte(ms >> 40)
	u[1] = byte(ms >> 32)
	u[2] = byte(ms >> 24)
	u[3] = byte(ms >> 16)
	u[4] = byte(ms >> 8)
	u[5] = byte(ms)
	return u.String(), nil
}

// Floor возвращает наименьший UUIDv7 с моментом создания t. Все
// идентификаторы, созданные раньше t, меньше него при побайтовом сравнении.
func Floor(t time.Time) string {
	var u uuid.UUID
	ms := uint64(t.UnixMilli())
	binary.BigEndian.PutUint64(u[:8], ms<<16)
	u[6] = 0x70
	u[8] = 0x80
	return u.String()
}
