package journal

import (
	"context"
	"time"

	"go.uber.org/zap"

	"trade-journal-go/internal/apperr"
	"trade-journal-go/internal/models"
	"trade-journal-go/internal/repository"
)

// PurgeConfirmationText is the literal the caller must resubmit to authorise
// a permanent delete. Intent proof, not authentication.
const PurgeConfirmationText = "DELETE"

// SoftDelete moves a trade from active to soft_deleted, cascading to its
// details. Deleting an already soft-deleted trade is a no-op success.
func (s *Service) SoftDelete(ctx context.Context, tradeID uint, confirmationCode, deleteReason, operatorNote string) error {
	if confirmationCode == "" {
		return apperr.Validation("confirmation code is required")
	}

	return s.store.InTx(ctx, func(tx *repository.Store) error {
		trade, err := tx.TradeByID(ctx, tradeID, true)
		if err != nil {
			return apperr.Internal(err, "failed to load trade")
		}
		if trade == nil {
			return apperr.NotFound("trade %d does not exist", tradeID)
		}
		if trade.IsDeleted {
			return nil // already in the target state
		}

		now := time.Now()
		trade.IsDeleted = true
		trade.DeletionState = models.DeletionSoftDeleted
		trade.DeleteReason = deleteReason
		trade.OperatorNote = operatorNote
		trade.DeletedAt = &now
		if err := tx.SaveTrade(ctx, trade); err != nil {
			return apperr.Internal(err, "failed to soft-delete trade")
		}
		if err := tx.SetDetailsDeleted(ctx, tradeID, true, &now); err != nil {
			return apperr.Internal(err, "failed to soft-delete details")
		}

		mod := &models.TradeModification{
			TradeID:          tradeID,
			Kind:             models.ModSoftDelete,
			Description:      deleteReason,
			ConfirmationCode: confirmationCode,
			OperatorNote:     operatorNote,
		}
		if err := tx.AppendModification(ctx, mod); err != nil {
			return apperr.Internal(err, "failed to record modification")
		}

		s.logger.Info("Trade soft-deleted", zap.Uint("trade_id", tradeID))
		return nil
	})
}

// Restore moves a trade from soft_deleted back to active, restoring its
// details. Restoring an active trade is a no-op success.
func (s *Service) Restore(ctx context.Context, tradeID uint, confirmationCode, operatorNote string) error {
	if confirmationCode == "" {
		return apperr.Validation("confirmation code is required")
	}

	return s.store.InTx(ctx, func(tx *repository.Store) error {
		trade, err := tx.TradeByID(ctx, tradeID, true)
		if err != nil {
			return apperr.Internal(err, "failed to load trade")
		}
		if trade == nil {
			return apperr.NotFound("trade %d does not exist", tradeID)
		}
		if !trade.IsDeleted {
			return nil // already in the target state
		}

		trade.IsDeleted = false
		trade.DeletionState = models.DeletionActive
		trade.DeleteReason = ""
		trade.OperatorNote = operatorNote
		trade.DeletedAt = nil
		if err := tx.SaveTrade(ctx, trade); err != nil {
			return apperr.Internal(err, "failed to restore trade")
		}
		if err := tx.SetDetailsDeleted(ctx, tradeID, false, nil); err != nil {
			return apperr.Internal(err, "failed to restore details")
		}

		mod := &models.TradeModification{
			TradeID:          tradeID,
			Kind:             models.ModRestore,
			ConfirmationCode: confirmationCode,
			OperatorNote:     operatorNote,
		}
		if err := tx.AppendModification(ctx, mod); err != nil {
			return apperr.Internal(err, "failed to record modification")
		}

		s.logger.Info("Trade restored", zap.Uint("trade_id", tradeID))
		return nil
	})
}

// PermanentlyDelete physically removes a soft-deleted trade, its details and
// its modification history. A purge record is appended out-of-band after the
// rows are gone. Purging an active trade is rejected; purging an unknown or
// already purged id returns not_found.
func (s *Service) PermanentlyDelete(ctx context.Context, tradeID uint, confirmationCode, confirmationText, deleteReason, operatorNote string) error {
	if confirmationCode == "" {
		return apperr.Validation("confirmation code is required")
	}
	if confirmationText != PurgeConfirmationText {
		return apperr.Validation("confirmation text must be %q", PurgeConfirmationText)
	}

	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		trade, err := tx.TradeByID(ctx, tradeID, true)
		if err != nil {
			return apperr.Internal(err, "failed to load trade")
		}
		if trade == nil {
			return apperr.NotFound("trade %d does not exist", tradeID)
		}
		if !trade.IsDeleted {
			return apperr.Domain("trade %d must be soft-deleted before permanent deletion", tradeID)
		}
		if err := tx.PurgeTrade(ctx, tradeID); err != nil {
			return apperr.Internal(err, "failed to purge trade")
		}
		return nil
	})
	if err != nil {
		return err
	}

	// The purge record survives the purge itself, keyed by the dead id.
	mod := &models.TradeModification{
		TradeID:          tradeID,
		Kind:             models.ModPurge,
		Description:      deleteReason,
		ConfirmationCode: confirmationCode,
		OperatorNote:     operatorNote,
	}
	if err := s.store.AppendModification(ctx, mod); err != nil {
		s.logger.Error("Failed to record purge", zap.Uint("trade_id", tradeID), zap.Error(err))
	}

	s.logger.Info("Trade permanently deleted", zap.Uint("trade_id", tradeID))
	return nil
}

// BatchResult counts the outcome of a batch operation. Items are processed
// independently; one failure never aborts the rest.
type BatchResult struct {
	SuccessCount int `json:"success_count"`
	Total        int `json:"total"`
}

// BatchSoftDelete soft-deletes each trade independently.
func (s *Service) BatchSoftDelete(ctx context.Context, tradeIDs []uint, confirmationCode, deleteReason, operatorNote string) BatchResult {
	result := BatchResult{Total: len(tradeIDs)}
	for _, id := range tradeIDs {
		if err := s.SoftDelete(ctx, id, confirmationCode, deleteReason, operatorNote); err != nil {
			s.logger.Warn("Batch soft-delete item failed", zap.Uint("trade_id", id), zap.Error(err))
			continue
		}
		result.SuccessCount++
	}
	return result
}

// BatchRestore restores each trade independently.
func (s *Service) BatchRestore(ctx context.Context, tradeIDs []uint, confirmationCode, operatorNote string) BatchResult {
	result := BatchResult{Total: len(tradeIDs)}
	for _, id := range tradeIDs {
		if err := s.Restore(ctx, id, confirmationCode, operatorNote); err != nil {
			s.logger.Warn("Batch restore item failed", zap.Uint("trade_id", id), zap.Error(err))
			continue
		}
		result.SuccessCount++
	}
	return result
}

// BatchPermanentlyDelete purges each trade independently.
func (s *Service) BatchPermanentlyDelete(ctx context.Context, tradeIDs []uint, confirmationCode, confirmationText, deleteReason, operatorNote string) BatchResult {
	result := BatchResult{Total: len(tradeIDs)}
	for _, id := range tradeIDs {
		if err := s.PermanentlyDelete(ctx, id, confirmationCode, confirmationText, deleteReason, operatorNote); err != nil {
			s.logger.Warn("Batch purge item failed", zap.Uint("trade_id", id), zap.Error(err))
			continue
		}
		result.SuccessCount++
	}
	return result
}
