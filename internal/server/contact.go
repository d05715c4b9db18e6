package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"folio/internal/mailer"
)

// handleSendEmail relays a contact form submission to the site owner and
// acknowledges it to the sender.
func (s *Server) handleSendEmail(c *gin.Context) {
	var req mailer.Contact
	if err := c.ShouldBindJSON(&req); err != nil {
		s.metrics.Email("invalid")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}
	if err := req.Validate(); err != nil {
		s.metrics.Email("invalid")
		msg := "Missing required fields"
		if errors.Is(err, mailer.ErrInvalidEmail) {
			msg = "Invalid email address"
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	if s.mailer == nil {
		s.metrics.Email("error")
		s.logger.Error("contact email not sent", slog.String("error", mailer.ErrNotConfigured.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send email"})
		return
	}
	if err := s.mailer.Send(c.Request.Context(), req); err != nil {
		s.metrics.Email("error")
		s.logger.Error("error sending email", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send email"})
		return
	}

	s.metrics.Email("sent")
	c.JSON(http.StatusOK, gin.H{"message": "Email sent successfully"})
}
