package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KevinKickass/PlantDeck/internal/auth"
	"github.com/KevinKickass/PlantDeck/internal/mail"
	"github.com/KevinKickass/PlantDeck/internal/schema"
	"github.com/KevinKickass/PlantDeck/internal/types"
)

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	GroupID string `json:"groupId"`
}

// sender describes the session user, or the configured system address
// when nobody is logged in.
func (s *Server) sender(c *gin.Context) mail.From {
	if user, ok := auth.SessionUser(c); ok {
		return mail.From{ID: user.Username, Name: user.DisplayName, Email: user.Email}
	}
	return mail.From{
		ID:    auth.SystemActor,
		Name:  s.cfg.Mail.FromName,
		Email: s.cfg.Mail.FromAddress,
	}
}

// GET /api/mail
func (s *Server) listMail(c *gin.Context) {
	mails := s.deps.Mail.SentMails(s.sender(c).ID)
	respond(c, http.StatusOK, mails, gin.H{"total": len(mails)})
}

// POST /api/mail
func (s *Server) sendMail(c *gin.Context) {
	var req types.SendMailRequest
	if err := s.bindBody(c, schema.MailSend, &req); err != nil {
		s.fail(c, err)
		return
	}

	sent, err := s.deps.Mail.Send(c.Request.Context(), s.sender(c), req)
	if err != nil {
		if errors.Is(err, mail.ErrDelivery) {
			c.JSON(http.StatusInternalServerError, types.Response{
				Status:  types.StatusError,
				Data:    sent,
				Message: mail.ErrDelivery.Error(),
			})
			return
		}
		s.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, sent, nil)
}

// GET /api/mail/contacts
func (s *Server) listContacts(c *gin.Context) {
	contacts := s.deps.Mail.Contacts(s.sender(c).ID)
	respond(c, http.StatusOK, contacts, gin.H{"total": len(contacts)})
}

// POST /api/mail/contacts
func (s *Server) addContact(c *gin.Context) {
	var req contactRequest
	if err := s.bindBody(c, schema.Contact, &req); err != nil {
		s.fail(c, err)
		return
	}

	contact, err := s.deps.Mail.AddContact(s.sender(c).ID, req.Name, req.Email, req.GroupID)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, contact, nil)
}
