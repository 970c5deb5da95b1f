package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coopentrega/recruiting-ai-platform/internal/leads"
	"github.com/coopentrega/recruiting-ai-platform/internal/scoring"
)

type captureSender struct {
	msg EmailMessage
}

func (c *captureSender) Send(_ context.Context, msg EmailMessage) error {
	c.msg = msg
	return nil
}

func TestLeadNotifierFormatsEmail(t *testing.T) {
	sender := &captureSender{}
	n := NewLeadNotifier(sender, "rh@coopentrega.com.br")
	require.NotNil(t, n)

	err := n.LeadCaptured(context.Background(), leads.Lead{
		Name:    "Maria Silva",
		Phone:   "5581999990000",
		Score:   4,
		Answers: scoring.Answers{},
		Summary: "Rules: Q1: OK",
	}, "LEAD-123456")
	require.NoError(t, err)

	assert.Equal(t, "rh@coopentrega.com.br", sender.msg.To)
	assert.Contains(t, sender.msg.Subject, "LEAD-123456")
	assert.Contains(t, sender.msg.Body, "Maria Silva")
	assert.Contains(t, sender.msg.Body, "4/5")
}

func TestNewLeadNotifierRequiresWiring(t *testing.T) {
	assert.Nil(t, NewLeadNotifier(nil, "rh@coopentrega.com.br"))
	assert.Nil(t, NewLeadNotifier(&captureSender{}, ""))
}

func TestNewSendGridSenderRequiresKey(t *testing.T) {
	assert.Nil(t, NewSendGridSender(SendGridConfig{}, nil))
}
