package server

import (
	"strings"

	"github.com/gin-gonic/gin"
)

func csvParam(c *gin.Context, key string) []string {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil
	}
	var values []string
	for _, v := range strings.Split(raw, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}

// GET /api/macro/snapshot
func (s *Server) macroSnapshot(c *gin.Context) {
	snapshot, err := s.macro.GetSnapshot(c.Request.Context(),
		csvParam(c, "economies"), csvParam(c, "indicators"))
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{"snapshot": snapshot})
}

// GET /api/macro/status
func (s *Server) macroStatus(c *gin.Context) {
	statuses, err := s.macro.GetStatus(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{"series": statuses})
}

// POST /api/macro/refresh
func (s *Server) macroRefresh(c *gin.Context) {
	result, err := s.macro.Refresh(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{"result": result, "message": "macro refresh complete"})
}
