package email

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kavella.com/app/internal/mailer"
)

func TestMailerAdapter_Send(t *testing.T) {
	mock := &mailer.Mock{}
	a := NewMailerAdapter(mock, "orders@kavella.com", "Kavella")

	err := a.Send(context.Background(), Message{
		To:      "jane@example.com",
		Subject: "Your order",
		Text:    "plain body",
		HTML:    "<p>html body</p>",
	})
	require.NoError(t, err)

	sent, ok := mock.Last()
	require.True(t, ok)
	assert.Equal(t, "orders@kavella.com", sent.From)
	assert.Equal(t, "Kavella", sent.FromName)
	assert.Equal(t, []string{"jane@example.com"}, sent.To)
	assert.Equal(t, "Your order", sent.Subject)
	assert.Equal(t, "plain body", sent.TextBody)
	assert.Equal(t, "<p>html body</p>", sent.HTMLBody)
}

func TestMailerAdapter_TransportError(t *testing.T) {
	mock := &mailer.Mock{Err: errors.New("smtp down")}
	a := NewMailerAdapter(mock, "orders@kavella.com", "Kavella")

	err := a.Send(context.Background(), Message{To: "jane@example.com"})
	require.Error(t, err)

	_, ok := mock.Last()
	assert.False(t, ok, "a failed send must not be recorded")
}
