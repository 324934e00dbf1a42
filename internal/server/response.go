package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"trade-journal-go/internal/apperr"
)

// ok writes the success envelope with an optional payload merged in.
func ok(c *gin.Context, payload gin.H) {
	body := gin.H{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

func okMessage(c *gin.Context, message string) {
	ok(c, gin.H{"message": message})
}

// fail maps a service error to its HTTP status and the failure envelope.
// Internal errors are logged with their cause; callers only see the safe
// message.
func (s *Server) fail(c *gin.Context, err error) {
	e := apperr.From(err)
	if e.Code == apperr.CodeInternal {
		s.logger.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Error(e))
	}
	c.JSON(e.HTTPStatus(), gin.H{
		"success": false,
		"code":    e.Code,
		"message": e.Message,
	})
}
