package server

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"trade-journal-go/internal/apperr"
)

type strategyRequest struct {
	Name        string `form:"name" json:"name"`
	Description string `form:"description" json:"description"`
}

func strategyIDParam(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, apperr.Validation("strategy id must be a positive integer")
	}
	return uint(id), nil
}

// GET /api/strategies
func (s *Server) listStrategies(c *gin.Context) {
	strategies, err := s.registry.GetAll(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{"strategies": strategies})
}

// GET /api/strategies/:id
func (s *Server) getStrategy(c *gin.Context) {
	id, err := strategyIDParam(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	strategy, err := s.registry.GetByID(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{"strategy": strategy})
}

// POST /api/strategies
func (s *Server) createStrategy(c *gin.Context) {
	var req strategyRequest
	if err := c.ShouldBind(&req); err != nil {
		s.fail(c, apperr.Validation("invalid request body"))
		return
	}
	strategy, err := s.registry.Create(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{"strategy": strategy, "message": "strategy created"})
}

// PUT /api/strategies/:id
func (s *Server) renameStrategy(c *gin.Context) {
	id, err := strategyIDParam(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	var req strategyRequest
	if err := c.ShouldBind(&req); err != nil {
		s.fail(c, apperr.Validation("invalid request body"))
		return
	}
	strategy, err := s.registry.Rename(c.Request.Context(), id, req.Name, req.Description)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{"strategy": strategy, "message": "strategy updated"})
}
