package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/eirikhm/tripfellows/internal/models"
)

func ensureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

// findParticipation returns the participation row for (user, proposal), or nil
// when the user does not participate. Callers decide whether absence is an error.
func findParticipation(tx *gorm.DB, proposalID, userID string) (*models.Participation, error) {
	var participation models.Participation
	err := tx.
		Where("proposal_id = ? AND user_id = ?", proposalID, userID).
		First(&participation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &participation, nil
}

// countParticipations returns the committed participant count for a proposal.
func countParticipations(tx *gorm.DB, proposalID string) (int64, error) {
	var count int64
	err := tx.
		Model(&models.Participation{}).
		Where("proposal_id = ?", proposalID).
		Count(&count).Error
	return count, err
}
