package mail

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/k4sper1love/school-service/internal/config"
	"github.com/k4sper1love/school-service/internal/utils"
)

func TestNewSelectsBackend(t *testing.T) {
	m, err := New(config.MailConfig{Backend: config.MailBackendLog}, utils.NewNopLogger())
	require.NoError(t, err)
	assert.IsType(t, &LogMailer{}, m)

	m, err = New(config.MailConfig{Backend: config.MailBackendSMTP, Host: "smtp.example.com", Port: 587}, utils.NewNopLogger())
	require.NoError(t, err)
	assert.IsType(t, &SMTPMailer{}, m)

	_, err = New(config.MailConfig{Backend: "pigeon"}, utils.NewNopLogger())
	assert.Error(t, err)
}

func TestLogMailerNeverFails(t *testing.T) {
	m := NewLogMailer(utils.NewNopLogger())
	err := m.Send(context.Background(), Message{From: "admin@example.com", To: "s@example.com", Subject: "Hi", Body: "Body"})
	assert.NoError(t, err)
}

func TestSMTPMailerRejectsBadAddress(t *testing.T) {
	m, err := NewSMTPMailer(config.MailConfig{Host: "smtp.example.com", Port: 587})
	require.NoError(t, err)

	err = m.Send(context.Background(), Message{From: "not an address", To: "s@example.com"})
	assert.Error(t, err)
}
