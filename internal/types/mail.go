package types

import "time"

type RecipientType string

const (
	RecipientTo  RecipientType = "to"
	RecipientCC  RecipientType = "cc"
	RecipientBCC RecipientType = "bcc"
)

func (t RecipientType) Valid() bool {
	switch t {
	case RecipientTo, RecipientCC, RecipientBCC:
		return true
	default:
		return false
	}
}

type MailStatus string

const (
	MailSending MailStatus = "sending"
	MailDraft   MailStatus = "draft"
	MailSent    MailStatus = "sent"
	MailFailed  MailStatus = "failed"
)

type Contact struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	GroupID   string    `json:"groupId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Recipient struct {
	ID    string        `json:"id"`
	Name  string        `json:"name,omitempty"`
	Email string        `json:"email"`
	Type  RecipientType `json:"type"`
}

type Mail struct {
	ID          string      `json:"id"`
	Subject     string      `json:"subject"`
	Content     string      `json:"content"`
	SenderID    string      `json:"senderId"`
	SenderName  string      `json:"senderName"`
	SenderEmail string      `json:"senderEmail"`
	Recipients  []Recipient `json:"recipients"`
	Status      MailStatus  `json:"status"`
	Error       string      `json:"error,omitempty"`
	SentAt      *time.Time  `json:"sentAt,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

type RecipientInput struct {
	Email string        `json:"email"`
	Name  string        `json:"name,omitempty"`
	Type  RecipientType `json:"type"`
}

type SendMailRequest struct {
	Subject    string           `json:"subject"`
	Content    string           `json:"content"`
	Recipients []RecipientInput `json:"recipients"`
}
