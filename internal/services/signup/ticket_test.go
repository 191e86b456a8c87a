package signup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/signup-service/internal/models"
	"github.com/magabrotheeeer/signup-service/internal/storage"
)

func TestTicketUsable(t *testing.T) {
	past := testNow.Add(-time.Hour)
	future := testNow.Add(time.Hour)

	tests := []struct {
		name          string
		ticket        *models.RegistrationTicket
		emailRequired bool
		want          bool
	}{
		{
			name:   "nil ticket",
			ticket: nil,
			want:   false,
		},
		{
			name:   "unused without email",
			ticket: &models.RegistrationTicket{State: models.UnusedTicket()},
			want:   true,
		},
		{
			name:          "unused with email",
			ticket:        &models.RegistrationTicket{State: models.UnusedTicket()},
			emailRequired: true,
			want:          true,
		},
		{
			name:   "consumed without email",
			ticket: &models.RegistrationTicket{State: models.ConsumedTicket("acc", past)},
			want:   false,
		},
		{
			name:          "consumed with email and stale allocation time",
			ticket:        &models.RegistrationTicket{State: models.ConsumedTicket("acc", testNow.Add(-48*time.Hour))},
			emailRequired: true,
			want:          false,
		},
		{
			name:   "expired unused",
			ticket: &models.RegistrationTicket{ExpiresAt: &past, State: models.UnusedTicket()},
			want:   false,
		},
		{
			name:          "expired unused with email",
			ticket:        &models.RegistrationTicket{ExpiresAt: &past, State: models.UnusedTicket()},
			emailRequired: true,
			want:          false,
		},
		{
			name:   "not yet expired",
			ticket: &models.RegistrationTicket{ExpiresAt: &future, State: models.UnusedTicket()},
			want:   true,
		},
		{
			name: "fresh allocation with email",
			ticket: &models.RegistrationTicket{
				State: models.ProvisionallyAllocatedTicket(testNow.Add(-10*time.Minute), "pending"),
			},
			emailRequired: true,
			want:          false,
		},
		{
			name: "allocation just under lease",
			ticket: &models.RegistrationTicket{
				State: models.ProvisionallyAllocatedTicket(testNow.Add(-PendingExpiry+time.Second), "pending"),
			},
			emailRequired: true,
			want:          false,
		},
		{
			name: "allocation exactly at lease",
			ticket: &models.RegistrationTicket{
				State: models.ProvisionallyAllocatedTicket(testNow.Add(-PendingExpiry), "pending"),
			},
			emailRequired: true,
			want:          true,
		},
		{
			name: "abandoned allocation with email",
			ticket: &models.RegistrationTicket{
				State: models.ProvisionallyAllocatedTicket(testNow.Add(-31*time.Minute), "pending"),
			},
			emailRequired: true,
			want:          true,
		},
		{
			name: "abandoned allocation without email",
			ticket: &models.RegistrationTicket{
				State: models.ProvisionallyAllocatedTicket(testNow.Add(-2*time.Hour), "pending"),
			},
			want: false,
		},
		{
			name: "abandoned allocation but expired",
			ticket: &models.RegistrationTicket{
				ExpiresAt: &past,
				State:     models.ProvisionallyAllocatedTicket(testNow.Add(-2*time.Hour), "pending"),
			},
			emailRequired: true,
			want:          false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TicketUsable(tt.ticket, tt.emailRequired, testNow))
		})
	}
}

func TestTicketUsable_ConsumedNeverUsable(t *testing.T) {
	past := testNow.Add(-time.Hour)
	future := testNow.Add(time.Hour)
	for _, expiresAt := range []*time.Time{nil, &past, &future} {
		for _, at := range []time.Time{{}, testNow, testNow.Add(-time.Hour), testNow.Add(-48 * time.Hour)} {
			for _, emailRequired := range []bool{false, true} {
				ticket := &models.RegistrationTicket{ExpiresAt: expiresAt, State: models.ConsumedTicket("acc", at)}
				assert.False(t, TicketUsable(ticket, emailRequired, testNow))
			}
		}
	}
}

func TestValidateTicket(t *testing.T) {
	t.Run("not found is not an error", func(t *testing.T) {
		f := newFixture(Options{})
		f.store.On("GetTicketByCode", mock.Anything, "NOPE").
			Return(nil, errors.Join(errors.New("storage.GetTicketByCode"), storage.ErrNotFound))

		ticket, err := f.service.ValidateTicket(context.Background(), "NOPE", false)
		require.NoError(t, err)
		assert.Nil(t, ticket)
	})

	t.Run("usable ticket returned", func(t *testing.T) {
		f := newFixture(Options{})
		want := &models.RegistrationTicket{ID: "t1", Code: "OK", State: models.UnusedTicket()}
		f.store.On("GetTicketByCode", mock.Anything, "OK").Return(want, nil)

		ticket, err := f.service.ValidateTicket(context.Background(), "OK", false)
		require.NoError(t, err)
		assert.Equal(t, want, ticket)
	})

	t.Run("used ticket hidden", func(t *testing.T) {
		f := newFixture(Options{})
		used := &models.RegistrationTicket{ID: "t2", Code: "USED", State: models.ConsumedTicket("acc", testNow)}
		f.store.On("GetTicketByCode", mock.Anything, "USED").Return(used, nil)

		ticket, err := f.service.ValidateTicket(context.Background(), "USED", true)
		require.NoError(t, err)
		assert.Nil(t, ticket)
	})

	t.Run("storage failure", func(t *testing.T) {
		f := newFixture(Options{})
		f.store.On("GetTicketByCode", mock.Anything, "X").Return(nil, errors.New("db down"))

		_, err := f.service.ValidateTicket(context.Background(), "X", false)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "signup.ValidateTicket: db down")
	})
}
