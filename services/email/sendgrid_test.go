package emailsvc

import (
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/registrar/core"
)

func Test_sendgridService_prepare(t *testing.T) {
	svc := NewSendgridService(core.NewTestConfig(), nil).(*sendgridService)

	msg := core.EmailMessage{
		To:           []mail.Address{{Name: "Alice Shah", Address: "alice@example.com"}},
		Bcc:          []mail.Address{{Address: "office@example.com"}},
		Subject:      "Admission confirmed: 24102",
		TemplateName: "admission",
		TextContent:  "Your student ID is 24102.",
		HTMLContent:  "<p>Your student ID is 24102.</p>",
	}
	m := svc.prepare(msg)

	assert.Equal(t, "noreply@localhost", m.From.Address)
	assert.Equal(t, "Registrar", m.From.Name)
	require.Len(t, m.Personalizations, 1)
	p := m.Personalizations[0]
	assert.Equal(t, "[Registrar] Admission confirmed: 24102", p.Subject)
	require.Len(t, p.To, 1)
	assert.Equal(t, "alice@example.com", p.To[0].Address)
	require.Len(t, p.BCC, 1)
	assert.Empty(t, p.CC)
	assert.Equal(t, "admission", p.CustomArgs["template"])
	assert.Equal(t, []string{"admission"}, m.Categories)
	require.Len(t, m.Content, 2)
	assert.Equal(t, "text/plain", m.Content[0].Type)
	assert.Equal(t, "text/html", m.Content[1].Type)

	plain := svc.prepare(core.EmailMessage{To: msg.To, Subject: "Hello", TextContent: "hi"})
	assert.Len(t, plain.Content, 1)
	assert.Empty(t, plain.Categories)

	assert.Equal(t, map[string]interface{}{"email_template": "admission", "email_to": []string{"alice@example.com"}}, logFields(msg))
}
