// Package mail keeps per-user outboxes and address books and hands
// outgoing mail to a Sender.
package mail

import (
	"context"
	"errors"
	"fmt"
	netmail "net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/KevinKickass/PlantDeck/internal/types"
)

var ErrDelivery = errors.New("mail delivery failed")

// From identifies who is sending.
type From struct {
	ID    string
	Name  string
	Email string
}

type Service struct {
	sender Sender
	logger *zap.Logger
	now    func() time.Time

	mu       sync.RWMutex
	sent     map[string][]types.Mail
	contacts map[string][]types.Contact
}

func NewService(sender Sender, logger *zap.Logger) *Service {
	return &Service{
		sender:   sender,
		logger:   logger,
		now:      time.Now,
		sent:     make(map[string][]types.Mail),
		contacts: make(map[string][]types.Contact),
	}
}

// Send validates req, delivers it and records the outcome. A delivery
// failure is still recorded, with status failed, and reported as ErrDelivery.
func (s *Service) Send(ctx context.Context, from From, req types.SendMailRequest) (types.Mail, error) {
	recipients, err := validateRequest(req)
	if err != nil {
		return types.Mail{}, err
	}

	now := s.now()
	m := types.Mail{
		ID:          uuid.NewString(),
		Subject:     req.Subject,
		Content:     req.Content,
		SenderID:    from.ID,
		SenderName:  from.Name,
		SenderEmail: from.Email,
		Recipients:  recipients,
		Status:      types.MailSending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	deliverErr := s.sender.Deliver(ctx, from, m)

	m.UpdatedAt = s.now()
	if deliverErr != nil {
		m.Status = types.MailFailed
		m.Error = deliverErr.Error()
		s.logger.Error("mail delivery failed",
			zap.String("mail_id", m.ID),
			zap.String("sender", s.sender.Name()),
			zap.Error(deliverErr))
	} else {
		m.Status = types.MailSent
		sentAt := m.UpdatedAt
		m.SentAt = &sentAt
	}

	s.mu.Lock()
	s.sent[from.ID] = append(s.sent[from.ID], m)
	s.mu.Unlock()

	if deliverErr != nil {
		return cloneMail(m), fmt.Errorf("%w: %v", ErrDelivery, deliverErr)
	}
	return cloneMail(m), nil
}

// SentMails lists userID's mails, newest first.
func (s *Service) SentMails(userID string) []types.Mail {
	s.mu.RLock()
	defer s.mu.RUnlock()

	mails := s.sent[userID]
	out := make([]types.Mail, 0, len(mails))
	for i := len(mails) - 1; i >= 0; i-- {
		out = append(out, cloneMail(mails[i]))
	}
	return out
}

// Contacts returns userID's address book, seeding it on first access.
func (s *Service) Contacts(userID string) []types.Contact {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, ok := s.contacts[userID]
	if !ok {
		now := s.now()
		list = []types.Contact{
			{ID: uuid.NewString(), Name: "홍길동", Email: "hong@naver.com", CreatedAt: now, UpdatedAt: now},
			{ID: uuid.NewString(), Name: "김철수", Email: "kim@example.com", CreatedAt: now, UpdatedAt: now},
		}
		s.contacts[userID] = list
	}

	out := make([]types.Contact, len(list))
	copy(out, list)
	return out
}

func (s *Service) AddContact(userID, name, email, groupID string) (types.Contact, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return types.Contact{}, types.Invalid("name", "must not be blank")
	}
	addr, err := parseAddress(email)
	if err != nil {
		return types.Contact{}, types.Invalid("email", "%v", err)
	}

	now := s.now()
	c := types.Contact{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     addr,
		GroupID:   groupID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.contacts[userID] = append(s.contacts[userID], c)
	s.mu.Unlock()

	return c, nil
}

func validateRequest(req types.SendMailRequest) ([]types.Recipient, error) {
	if strings.TrimSpace(req.Subject) == "" {
		return nil, types.Invalid("subject", "must not be blank")
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, types.Invalid("content", "must not be blank")
	}
	if len(req.Recipients) == 0 {
		return nil, types.Invalid("recipients", "at least one recipient is required")
	}

	out := make([]types.Recipient, 0, len(req.Recipients))
	for i, r := range req.Recipients {
		addr, err := parseAddress(r.Email)
		if err != nil {
			return nil, types.Invalid(fmt.Sprintf("recipients.%d.email", i), "%v", err)
		}

		kind := r.Type
		if kind == "" {
			kind = types.RecipientTo
		}
		if !kind.Valid() {
			return nil, types.Invalid(fmt.Sprintf("recipients.%d.type", i), "must be to, cc or bcc")
		}

		name := strings.TrimSpace(r.Name)
		if name == "" {
			name, _, _ = strings.Cut(addr, "@")
		}

		out = append(out, types.Recipient{ID: uuid.NewString(), Name: name, Email: addr, Type: kind})
	}
	return out, nil
}

func parseAddress(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "@") {
		return "", fmt.Errorf("invalid email address %q", raw)
	}
	addr, err := netmail.ParseAddress(raw)
	if err != nil {
		return "", fmt.Errorf("invalid email address %q", raw)
	}
	return addr.Address, nil
}

func cloneMail(m types.Mail) types.Mail {
	m.Recipients = append([]types.Recipient(nil), m.Recipients...)
	if m.SentAt != nil {
		t := *m.SentAt
		m.SentAt = &t
	}
	return m
}
