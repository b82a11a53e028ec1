package mail

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/KevinKickass/PlantDeck/internal/config"
	"github.com/KevinKickass/PlantDeck/internal/types"
)

type fakeSender struct {
	mu    sync.Mutex
	mails []types.Mail
	err   error
}

func (f *fakeSender) Name() string { return "fake" }

func (f *fakeSender) Deliver(_ context.Context, _ From, m types.Mail) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mails = append(f.mails, m)
	return f.err
}

var kim = From{ID: "u1", Name: "Kim", Email: "kim@example.com"}

func request(subject string, recipients ...types.RecipientInput) types.SendMailRequest {
	return types.SendMailRequest{Subject: subject, Content: "<p>hello</p>", Recipients: recipients}
}

func TestSendRecordsSentMail(t *testing.T) {
	sender := &fakeSender{}
	svc := NewService(sender, zap.NewNop())

	m, err := svc.Send(context.Background(), kim, request("Report",
		types.RecipientInput{Email: "lee@example.com"},
		types.RecipientInput{Email: "park@example.com", Name: "Park", Type: types.RecipientCC},
	))
	require.NoError(t, err)

	assert.Equal(t, types.MailSent, m.Status)
	require.NotNil(t, m.SentAt)
	require.Len(t, m.Recipients, 2)
	assert.Equal(t, "lee", m.Recipients[0].Name)
	assert.Equal(t, types.RecipientTo, m.Recipients[0].Type)
	assert.Equal(t, types.RecipientCC, m.Recipients[1].Type)

	require.Len(t, sender.mails, 1)
	assert.Equal(t, types.MailSending, sender.mails[0].Status)
}

func TestSendDeliveryFailureIsRecorded(t *testing.T) {
	svc := NewService(&fakeSender{err: errors.New("connection refused")}, zap.NewNop())

	m, err := svc.Send(context.Background(), kim, request("x", types.RecipientInput{Email: "a@b.c"}))
	require.ErrorIs(t, err, ErrDelivery)
	assert.Equal(t, types.MailFailed, m.Status)
	assert.Equal(t, "connection refused", m.Error)
	assert.Nil(t, m.SentAt)

	sent := svc.SentMails(kim.ID)
	require.Len(t, sent, 1)
	assert.Equal(t, types.MailFailed, sent[0].Status)
}

func TestSendValidation(t *testing.T) {
	sender := &fakeSender{}
	svc := NewService(sender, zap.NewNop())
	ok := types.RecipientInput{Email: "a@b.c"}

	cases := map[string]types.SendMailRequest{
		"blank subject": request("  ", ok),
		"blank content": {Subject: "s", Content: " ", Recipients: []types.RecipientInput{ok}},
		"no recipients": request("s"),
		"no at sign":    request("s", types.RecipientInput{Email: "nobody"}),
		"unparseable":   request("s", types.RecipientInput{Email: "a@@"}),
		"bad type":      request("s", types.RecipientInput{Email: "a@b.c", Type: "fwd"}),
	}
	for name, req := range cases {
		_, err := svc.Send(context.Background(), kim, req)
		assert.ErrorIs(t, err, types.ErrValidation, name)
	}

	assert.Empty(t, sender.mails)
	assert.Empty(t, svc.SentMails(kim.ID))
}

func TestSentMailsNewestFirstPerUser(t *testing.T) {
	svc := NewService(&fakeSender{}, zap.NewNop())
	to := types.RecipientInput{Email: "a@b.c"}

	_, err := svc.Send(context.Background(), kim, request("first", to))
	require.NoError(t, err)
	_, err = svc.Send(context.Background(), kim, request("second", to))
	require.NoError(t, err)

	sent := svc.SentMails(kim.ID)
	require.Len(t, sent, 2)
	assert.Equal(t, "second", sent[0].Subject)
	assert.Equal(t, "first", sent[1].Subject)

	assert.Empty(t, svc.SentMails("someone-else"))
}

func TestContactsSeededOnce(t *testing.T) {
	svc := NewService(&fakeSender{}, zap.NewNop())

	first := svc.Contacts("u1")
	require.Len(t, first, 2)
	assert.Equal(t, "hong@naver.com", first[0].Email)

	c, err := svc.AddContact("u1", "Choi", "choi@example.com", "team")
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)

	again := svc.Contacts("u1")
	require.Len(t, again, 3)
	assert.Equal(t, first[0].ID, again[0].ID)
	assert.Equal(t, "Choi", again[2].Name)

	_, err = svc.AddContact("u1", "", "x@y.z", "")
	assert.ErrorIs(t, err, types.ErrValidation)
	_, err = svc.AddContact("u1", "x", "not-an-email", "")
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestAddContactBeforeFirstListing(t *testing.T) {
	svc := NewService(&fakeSender{}, zap.NewNop())

	_, err := svc.AddContact("u2", "Choi", "choi@example.com", "")
	require.NoError(t, err)
	assert.Len(t, svc.Contacts("u2"), 1)
}

func TestNewSenderSelection(t *testing.T) {
	s, err := NewSender(config.MailConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "log", s.Name())

	s, err = NewSender(config.MailConfig{Host: "smtp.example.com", Port: 2525, FromName: "PlantDeck", FromAddress: "noreply@example.com"}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "smtp", s.Name())
}

func TestSMTPMessageRejectsUnknownRecipientType(t *testing.T) {
	s := &SMTPSender{fromName: "PlantDeck", fromAddress: "noreply@example.com", logger: zap.NewNop()}

	m := types.Mail{Subject: "s", Content: "c", Recipients: []types.Recipient{
		{Email: "a@example.com", Name: "A", Type: types.RecipientTo},
		{Email: "b@example.com", Name: "B", Type: types.RecipientBCC},
	}}
	_, err := s.message(kim, m)
	require.NoError(t, err)

	m.Recipients = append(m.Recipients, types.Recipient{Email: "c@example.com", Type: "fwd"})
	_, err = s.message(kim, m)
	assert.Error(t, err)
}
