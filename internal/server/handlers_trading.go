package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"trade-journal-go/internal/apperr"
	"trade-journal-go/internal/journal"
	"trade-journal-go/internal/repository"
)

// parseAmount parses a decimal form/JSON field submitted as a string. An
// empty optional field resolves to zero.
func parseAmount(field, value string, optional bool) (decimal.Decimal, error) {
	value = strings.TrimSpace(strings.ReplaceAll(value, ",", ""))
	if value == "" {
		if optional {
			return decimal.Zero, nil
		}
		return decimal.Zero, apperr.Validation("%s is required", field)
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, apperr.Validation("%s is not a valid number", field)
	}
	return d, nil
}

func tradeIDParam(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, apperr.Validation("trade id must be a positive integer")
	}
	return uint(id), nil
}

// GET /api/trades
func (s *Server) listTrades(c *gin.Context) {
	params := repository.ListTradesParams{}

	if status := c.Query("status"); status != "" && status != "all" {
		if status != "open" && status != "closed" {
			s.fail(c, apperr.Validation("status must be all, open or closed"))
			return
		}
		params.Status = status
	}

	if strategyArg := c.Query("strategy"); strategyArg != "" && strategyArg != "all" {
		if id, err := strconv.ParseUint(strategyArg, 10, 32); err == nil {
			params.StrategyID = uint(id)
		} else {
			params.StrategyName = strategyArg
		}
	}

	if symbols := c.Query("symbols"); symbols != "" {
		for _, part := range strings.FieldsFunc(symbols, func(r rune) bool { return r == ',' || r == ' ' }) {
			params.SymbolCodes = append(params.SymbolCodes, strings.ToUpper(strings.TrimSpace(part)))
		}
	}

	params.DateFrom = c.Query("date_from")
	params.DateTo = c.Query("date_to")
	if period := c.Query("period"); period != "" {
		from, to, err := journal.PeriodRange(period, c.DefaultQuery("period_type", "year"))
		if err != nil {
			s.fail(c, err)
			return
		}
		params.DateFrom, params.DateTo = from, to
	}

	trades, err := s.journal.List(c.Request.Context(), params)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{"trades": trades, "total": len(trades)})
}

// GET /api/trades/deleted
func (s *Server) deletedTrades(c *gin.Context) {
	trades, err := s.journal.DeletedTrades(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{"trades": trades, "total": len(trades)})
}

type addBuyRequest struct {
	StrategyID      uint   `form:"strategy_id" json:"strategy_id"`
	SymbolCode      string `form:"symbol_code" json:"symbol_code"`
	SymbolName      string `form:"symbol_name" json:"symbol_name"`
	Price           string `form:"price" json:"price"`
	Quantity        int64  `form:"quantity" json:"quantity"`
	TransactionDate string `form:"transaction_date" json:"transaction_date"`
	TransactionFee  string `form:"transaction_fee" json:"transaction_fee"`
	BuyReason       string `form:"buy_reason" json:"buy_reason"`
}

// POST /api/trades/buy
func (s *Server) addBuy(c *gin.Context) {
	var req addBuyRequest
	if err := c.ShouldBind(&req); err != nil {
		s.fail(c, apperr.Validation("invalid request body"))
		return
	}

	price, err := parseAmount("price", req.Price, false)
	if err != nil {
		s.fail(c, err)
		return
	}
	fee, err := parseAmount("transaction_fee", req.TransactionFee, true)
	if err != nil {
		s.fail(c, err)
		return
	}

	tradeID, err := s.journal.AddBuy(c.Request.Context(), journal.BuyInput{
		StrategyID:      req.StrategyID,
		SymbolCode:      strings.ToUpper(strings.TrimSpace(req.SymbolCode)),
		SymbolName:      strings.TrimSpace(req.SymbolName),
		Price:           price,
		Quantity:        req.Quantity,
		TransactionDate: req.TransactionDate,
		Fee:             fee,
		BuyReason:       req.BuyReason,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{"trade_id": tradeID, "message": "buy transaction recorded"})
}

type addSellRequest struct {
	Price           string `form:"price" json:"price"`
	Quantity        int64  `form:"quantity" json:"quantity"`
	TransactionDate string `form:"transaction_date" json:"transaction_date"`
	TransactionFee  string `form:"transaction_fee" json:"transaction_fee"`
	SellReason      string `form:"sell_reason" json:"sell_reason"`
	TradeLog        string `form:"trade_log" json:"trade_log"`
}

// POST /api/trades/:id/sell
func (s *Server) addSell(c *gin.Context) {
	tradeID, err := tradeIDParam(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	var req addSellRequest
	if err := c.ShouldBind(&req); err != nil {
		s.fail(c, apperr.Validation("invalid request body"))
		return
	}

	price, err := parseAmount("price", req.Price, false)
	if err != nil {
		s.fail(c, err)
		return
	}
	fee, err := parseAmount("transaction_fee", req.TransactionFee, true)
	if err != nil {
		s.fail(c, err)
		return
	}

	err = s.journal.AddSell(c.Request.Context(), journal.SellInput{
		TradeID:         tradeID,
		Price:           price,
		Quantity:        req.Quantity,
		TransactionDate: req.TransactionDate,
		Fee:             fee,
		SellReason:      req.SellReason,
		TradeLog:        req.TradeLog,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	okMessage(c, "sell transaction recorded")
}

// GET /api/trades/:id
func (s *Server) tradeDetails(c *gin.Context) {
	tradeID, err := tradeIDParam(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	ctx := c.Request.Context()

	trade, err := s.journal.TradeByID(ctx, tradeID, true)
	if err != nil {
		s.fail(c, err)
		return
	}
	details, err := s.journal.Details(ctx, tradeID)
	if err != nil {
		s.fail(c, err)
		return
	}
	overview, err := s.journal.Overview(ctx, tradeID)
	if err != nil {
		s.fail(c, err)
		return
	}
	modifications, err := s.journal.Modifications(ctx, tradeID)
	if err != nil {
		s.fail(c, err)
		return
	}

	ok(c, gin.H{
		"trade":         trade,
		"details":       details,
		"overview":      overview,
		"modifications": modifications,
	})
}

type detailUpdateRequest struct {
	DetailID       uint    `json:"detail_id"`
	Price          *string `json:"price"`
	Quantity       *int64  `json:"quantity"`
	TransactionFee *string `json:"transaction_fee"`
	BuyReason      *string `json:"buy_reason"`
	SellReason     *string `json:"sell_reason"`
}

type editDetailsRequest struct {
	Updates []detailUpdateRequest `json:"updates"`
	Reason  string                `json:"reason"`
}

// POST /api/trades/:id/details
func (s *Server) editDetails(c *gin.Context) {
	tradeID, err := tradeIDParam(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	var req editDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, apperr.Validation("invalid request body"))
		return
	}

	updates := make([]journal.DetailUpdate, 0, len(req.Updates))
	for _, u := range req.Updates {
		upd := journal.DetailUpdate{
			DetailID:   u.DetailID,
			Quantity:   u.Quantity,
			BuyReason:  u.BuyReason,
			SellReason: u.SellReason,
		}
		if u.Price != nil {
			price, err := parseAmount("price", *u.Price, false)
			if err != nil {
				s.fail(c, err)
				return
			}
			upd.Price = &price
		}
		if u.TransactionFee != nil {
			fee, err := parseAmount("transaction_fee", *u.TransactionFee, true)
			if err != nil {
				s.fail(c, err)
				return
			}
			upd.Fee = &fee
		}
		updates = append(updates, upd)
	}

	if err := s.journal.EditDetails(c.Request.Context(), tradeID, updates, req.Reason); err != nil {
		s.fail(c, err)
		return
	}
	okMessage(c, "trade details updated")
}

type deleteRequest struct {
	ConfirmationCode string `form:"confirmation_code" json:"confirmation_code"`
	ConfirmationText string `form:"confirmation_text" json:"confirmation_text"`
	DeleteReason     string `form:"delete_reason" json:"delete_reason"`
	OperatorNote     string `form:"operator_note" json:"operator_note"`
}

// POST /api/trades/:id/delete
func (s *Server) softDeleteTrade(c *gin.Context) {
	tradeID, err := tradeIDParam(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	var req deleteRequest
	if err := c.ShouldBind(&req); err != nil {
		s.fail(c, apperr.Validation("invalid request body"))
		return
	}
	err = s.journal.SoftDelete(c.Request.Context(), tradeID,
		req.ConfirmationCode, req.DeleteReason, req.OperatorNote)
	if err != nil {
		s.fail(c, err)
		return
	}
	okMessage(c, "trade deleted")
}

// POST /api/trades/:id/restore
func (s *Server) restoreTrade(c *gin.Context) {
	tradeID, err := tradeIDParam(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	var req deleteRequest
	if err := c.ShouldBind(&req); err != nil {
		s.fail(c, apperr.Validation("invalid request body"))
		return
	}
	err = s.journal.Restore(c.Request.Context(), tradeID, req.ConfirmationCode, req.OperatorNote)
	if err != nil {
		s.fail(c, err)
		return
	}
	okMessage(c, "trade restored")
}

// POST /api/trades/:id/purge
func (s *Server) permanentlyDeleteTrade(c *gin.Context) {
	tradeID, err := tradeIDParam(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	var req deleteRequest
	if err := c.ShouldBind(&req); err != nil {
		s.fail(c, apperr.Validation("invalid request body"))
		return
	}
	err = s.journal.PermanentlyDelete(c.Request.Context(), tradeID,
		req.ConfirmationCode, req.ConfirmationText, req.DeleteReason, req.OperatorNote)
	if err != nil {
		s.fail(c, err)
		return
	}
	okMessage(c, "trade permanently deleted")
}

type batchRequest struct {
	TradeIDs         []uint `form:"trade_ids[]" json:"trade_ids"`
	ConfirmationCode string `form:"confirmation_code" json:"confirmation_code"`
	ConfirmationText string `form:"confirmation_text" json:"confirmation_text"`
	DeleteReason     string `form:"delete_reason" json:"delete_reason"`
	OperatorNote     string `form:"operator_note" json:"operator_note"`
}

func (s *Server) bindBatch(c *gin.Context) (*batchRequest, bool) {
	var req batchRequest
	if err := c.ShouldBind(&req); err != nil {
		s.fail(c, apperr.Validation("invalid request body"))
		return nil, false
	}
	if len(req.TradeIDs) == 0 {
		s.fail(c, apperr.Validation("no trades selected"))
		return nil, false
	}
	if req.ConfirmationCode == "" {
		s.fail(c, apperr.Validation("confirmation code is required"))
		return nil, false
	}
	return &req, true
}

// respondBatch writes the three-tier batch outcome: all-succeed, partial
// (x/y message), all-fail.
func respondBatch(c *gin.Context, verb string, result journal.BatchResult) {
	switch {
	case result.SuccessCount == result.Total:
		ok(c, gin.H{
			"success_count": result.SuccessCount,
			"total":         result.Total,
			"message":       fmt.Sprintf("%s %d trades", verb, result.SuccessCount),
		})
	case result.SuccessCount == 0:
		c.JSON(http.StatusInternalServerError, gin.H{
			"success":       false,
			"code":          apperr.CodeInternal,
			"success_count": 0,
			"total":         result.Total,
			"message":       fmt.Sprintf("failed to %s any trade", strings.ToLower(verb)),
		})
	default:
		ok(c, gin.H{
			"success_count": result.SuccessCount,
			"total":         result.Total,
			"message": fmt.Sprintf("partial success: %s %d/%d trades",
				verb, result.SuccessCount, result.Total),
		})
	}
}

// POST /api/trades/batch_delete
func (s *Server) batchSoftDelete(c *gin.Context) {
	req, bound := s.bindBatch(c)
	if !bound {
		return
	}
	result := s.journal.BatchSoftDelete(c.Request.Context(), req.TradeIDs,
		req.ConfirmationCode, req.DeleteReason, req.OperatorNote)
	respondBatch(c, "deleted", result)
}

// POST /api/trades/batch_restore
func (s *Server) batchRestore(c *gin.Context) {
	req, bound := s.bindBatch(c)
	if !bound {
		return
	}
	result := s.journal.BatchRestore(c.Request.Context(), req.TradeIDs,
		req.ConfirmationCode, req.OperatorNote)
	respondBatch(c, "restored", result)
}

// POST /api/trades/batch_purge
func (s *Server) batchPermanentlyDelete(c *gin.Context) {
	req, bound := s.bindBatch(c)
	if !bound {
		return
	}
	if req.ConfirmationText == "" {
		s.fail(c, apperr.Validation("confirmation text is required"))
		return
	}
	result := s.journal.BatchPermanentlyDelete(c.Request.Context(), req.TradeIDs,
		req.ConfirmationCode, req.ConfirmationText, req.DeleteReason, req.OperatorNote)
	respondBatch(c, "permanently deleted", result)
}
