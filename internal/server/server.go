// Package server wires the journal, strategy and macro services into the
// HTTP API. Responses use the envelope {success, code?, message?, ...}.
package server

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"trade-journal-go/internal/journal"
	"trade-journal-go/internal/macro"
	"trade-journal-go/internal/strategy"
)

// Server holds the handler dependencies.
type Server struct {
	logger   *zap.Logger
	journal  *journal.Service
	registry *strategy.Registry
	macro    *macro.Service
}

// NewServer creates the handler set.
func NewServer(logger *zap.Logger, journalSvc *journal.Service, registry *strategy.Registry, macroSvc *macro.Service) *Server {
	return &Server{logger: logger, journal: journalSvc, registry: registry, macro: macroSvc}
}

// NewRouter builds the gin engine with all routes and middleware.
func NewRouter(s *Server) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), RequestLogger(s.logger))

	api := router.Group("/api")
	{
		api.GET("/health", s.health)
		api.GET("/confirmation_code", s.confirmationCode)

		trades := api.Group("/trades")
		{
			trades.GET("", s.listTrades)
			trades.GET("/deleted", s.deletedTrades)
			trades.POST("/buy", s.addBuy)
			trades.GET("/:id", s.tradeDetails)
			trades.POST("/:id/sell", s.addSell)
			trades.POST("/:id/details", s.editDetails)
			trades.POST("/:id/delete", s.softDeleteTrade)
			trades.POST("/:id/restore", s.restoreTrade)
			trades.POST("/:id/purge", s.permanentlyDeleteTrade)
			trades.POST("/batch_delete", s.batchSoftDelete)
			trades.POST("/batch_restore", s.batchRestore)
			trades.POST("/batch_purge", s.batchPermanentlyDelete)
		}

		strategies := api.Group("/strategies")
		{
			strategies.GET("", s.listStrategies)
			strategies.POST("", s.createStrategy)
			strategies.GET("/:id", s.getStrategy)
			strategies.PUT("/:id", s.renameStrategy)
		}

		macroGroup := api.Group("/macro")
		{
			macroGroup.GET("/snapshot", s.macroSnapshot)
			macroGroup.GET("/status", s.macroStatus)
			macroGroup.POST("/refresh", s.macroRefresh)
		}
	}

	return router
}

func (s *Server) health(c *gin.Context) {
	ok(c, gin.H{"status": "ok"})
}

func (s *Server) confirmationCode(c *gin.Context) {
	ok(c, gin.H{"confirmation_code": journal.GenerateConfirmationCode()})
}
