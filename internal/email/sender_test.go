package email

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, routingKey string, message any) error {
	args := m.Called(ctx, routingKey, message)
	return args.Error(0)
}

func TestSender_Send(t *testing.T) {
	publisher := new(mockPublisher)
	want := Message{To: "alice@example.com", Subject: "Signup", HTML: "<b>hi</b>", Text: "hi"}
	publisher.On("Publish", mock.Anything, "signup", want).Return(nil)

	err := NewSender(publisher).Send(context.Background(), want.To, want.Subject, want.HTML, want.Text)
	require.NoError(t, err)
	publisher.AssertExpectations(t)
}

func TestSender_SendPublishError(t *testing.T) {
	publisher := new(mockPublisher)
	publisher.On("Publish", mock.Anything, "signup", mock.Anything).Return(errors.New("channel closed"))

	err := NewSender(publisher).Send(context.Background(), "alice@example.com", "Signup", "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email.Send: channel closed")
}
