package mailer

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
)

type fakeTransport struct {
	sent    [][]*mail.Msg
	sendErr error
	dialErr error
	closed  int
}

func (f *fakeTransport) DialAndSendWithContext(_ context.Context, msgs ...*mail.Msg) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, msgs)
	return nil
}

func (f *fakeTransport) DialWithContext(context.Context) error { return f.dialErr }

func (f *fakeTransport) Close() error {
	f.closed++
	return nil
}

func testMailer(tr *fakeTransport) *Mailer {
	return &Mailer{
		cfg: Config{
			Username:  "site@example.com",
			Recipient: "owner@example.com",
			OwnerName: "Site Owner",
			Links:     []Link{{Label: "GitHub", URL: "https://github.com/example"}},
		},
		client: tr,
		logger: slog.Default(),
	}
}

func TestContactValidate(t *testing.T) {
	assert.NoError(t, Contact{Name: "Ann", Email: "ann@example.com", Message: "hi"}.Validate())
	assert.ErrorIs(t, Contact{Name: "Ann", Email: "ann@example.com"}.Validate(), ErrMissingFields)
	assert.ErrorIs(t, Contact{Name: " ", Email: "ann@example.com", Message: "hi"}.Validate(), ErrMissingFields)
	assert.ErrorIs(t, Contact{Name: "Ann", Email: "ann@", Message: "hi"}.Validate(), ErrInvalidEmail)
	assert.ErrorIs(t, Contact{Name: "Ann", Email: "ann smith@example.com", Message: "hi"}.Validate(), ErrInvalidEmail)
}

func TestSend_TwoMessagesOneSession(t *testing.T) {
	tr := &fakeTransport{}
	m := testMailer(tr)

	err := m.Send(context.Background(), Contact{Name: "Ann", Email: "ann@example.com", Message: "Hello there"})
	require.NoError(t, err)
	require.Len(t, tr.sent, 1)
	assert.Len(t, tr.sent[0], 2)
}

func TestSend_MissingMessageSendsNothing(t *testing.T) {
	tr := &fakeTransport{}
	m := testMailer(tr)

	err := m.Send(context.Background(), Contact{Name: "Ann", Email: "ann@example.com"})
	assert.ErrorIs(t, err, ErrMissingFields)
	assert.Empty(t, tr.sent)
}

func TestSend_RelayErrorWrapped(t *testing.T) {
	relayErr := errors.New("554 rejected")
	m := testMailer(&fakeTransport{sendErr: relayErr})

	err := m.Send(context.Background(), Contact{Name: "Ann", Email: "ann@example.com", Message: "hi"})
	assert.ErrorIs(t, err, relayErr)
}

func TestRender_EnvelopesAndEscaping(t *testing.T) {
	m := testMailer(&fakeTransport{})
	envs, err := m.Render(Contact{Name: "Ann", Email: "ann@example.com", Message: "<script>alert(1)</script>"})
	require.NoError(t, err)
	require.Len(t, envs, 2)

	owner, ack := envs[0], envs[1]
	assert.Equal(t, "owner@example.com", owner.To)
	assert.Equal(t, "site@example.com", owner.From)
	assert.Equal(t, `"Ann" <ann@example.com>`, owner.ReplyTo)
	assert.Equal(t, "New Contact Form Submission from Ann", owner.Subject)
	assert.NotContains(t, owner.HTML, "<script>")
	assert.Contains(t, owner.HTML, "&lt;script&gt;")

	assert.Equal(t, "ann@example.com", ack.To)
	assert.Equal(t, "Site Owner", ack.FromName)
	assert.Equal(t, "Thank you for your message", ack.Subject)
	assert.Contains(t, ack.HTML, "Dear Ann,")
	assert.Contains(t, ack.HTML, `<a href="https://github.com/example">GitHub</a>`)
	assert.Contains(t, ack.Text, "Site Owner")
}

func TestVerify(t *testing.T) {
	tr := &fakeTransport{}
	require.NoError(t, testMailer(tr).Verify(context.Background()))
	assert.Equal(t, 1, tr.closed)

	tr = &fakeTransport{dialErr: errors.New("connection refused")}
	assert.Error(t, testMailer(tr).Verify(context.Background()))
}

func TestNew_RequiresRelay(t *testing.T) {
	_, err := New(Config{}, nil)
	assert.ErrorIs(t, err, ErrNotConfigured)

	m, err := New(Config{Host: "smtp.example.com", Username: "u@example.com", Recipient: "o@example.com"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 587, m.cfg.Port)
}
