package notifier

import (
	"context"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/reconcile-backend/internal/infrastructure/config"
)

func TestSMTP_Send(t *testing.T) {
	s := NewSMTP(config.SMTPConfig{
		Host:     "mail.example.com",
		Port:     2525,
		From:     "alerts@example.com",
		Username: "user",
		Password: "pass",
	})

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	s.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		assert.NotNil(t, a, "credentials configured, auth expected")
		return nil
	}

	err := s.Send(context.Background(), "3 unmatched", "the details", []string{"ops@example.com"})

	require.NoError(t, err)
	assert.Equal(t, "mail.example.com:2525", gotAddr)
	assert.Equal(t, "alerts@example.com", gotFrom)
	assert.Equal(t, []string{"ops@example.com"}, gotTo)
	assert.Contains(t, string(gotMsg), "Subject: 3 unmatched")
	assert.Contains(t, string(gotMsg), "the details")
}

func TestSMTP_Send_NoAuthWithoutUsername(t *testing.T) {
	s := NewSMTP(config.SMTPConfig{Host: "localhost", Port: 25, From: "a@b"})
	s.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		assert.Nil(t, a)
		return nil
	}

	err := s.Send(context.Background(), "s", "b", []string{"x@y"})

	require.NoError(t, err)
}
