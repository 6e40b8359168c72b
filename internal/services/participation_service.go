package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/eirikhm/tripfellows/internal/models"
	apperrors "github.com/eirikhm/tripfellows/pkg/errors"
	"github.com/eirikhm/tripfellows/pkg/logger"
	"github.com/eirikhm/tripfellows/pkg/metrics"
)

var (
	// ErrJoinClosed rejects joins on proposals that are not open.
	ErrJoinClosed = apperrors.New("JOIN_CLOSED", "This proposal is no longer accepting new participants", http.StatusForbidden)
	// ErrProposalFull rejects joins once the participant cap is reached.
	ErrProposalFull = apperrors.New("PROPOSAL_FULL", "This trip is full", http.StatusConflict)
	// ErrParticipationNotFound indicates the requested membership does not exist.
	ErrParticipationNotFound = apperrors.New("PARTICIPATION_NOT_FOUND", "User is not a participant of this trip", http.StatusNotFound)
)

// LeaveResult reports the side effects of a departure.
type LeaveResult struct {
	ProposalDeleted bool `json:"proposal_deleted"`
	Reopened        bool `json:"reopened"`
}

// ParticipationService owns membership on proposals: joining, leaving with
// cascade cleanup, and edit-rights grants.
type ParticipationService struct {
	db           *gorm.DB
	auditService *AuditService
	log          *zap.Logger
}

// NewParticipationService constructs a ParticipationService instance.
func NewParticipationService(db *gorm.DB, auditService *AuditService) (*ParticipationService, error) {
	if db == nil {
		return nil, errors.New("participation service: db is required")
	}
	return &ParticipationService{
		db:           db,
		auditService: auditService,
		log:          logger.WithModule("participations"),
	}, nil
}

// Join adds the user to an open proposal. Joining twice is not an error: the
// existing participation is returned unchanged. When the join fills the last
// seat the proposal auto-closes in the same transaction. A join attempt on an
// open proposal that is already at or over capacity repairs the stale status
// before reporting the trip as full; that correction commits even though the
// join itself is rejected.
func (s *ParticipationService) Join(ctx context.Context, proposalID, userID string) (*models.Participation, error) {
	ctx = ensureContext(ctx)

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperrors.NewBadRequest("user id is required")
	}

	var (
		participation *models.Participation
		capacityFull  bool
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		proposal, err := loadProposalTx(tx, proposalID)
		if err != nil {
			return err
		}

		existing, err := findParticipation(tx, proposal.ID, userID)
		if err != nil {
			return fmt.Errorf("participation service: load participation: %w", err)
		}
		if existing != nil {
			participation = existing
			return nil
		}

		if proposal.Status != models.StatusOpen {
			return ErrJoinClosed
		}

		if proposal.MaxParticipants != nil {
			count, err := countParticipations(tx, proposal.ID)
			if err != nil {
				return fmt.Errorf("participation service: count participants: %w", err)
			}
			limit := int64(*proposal.MaxParticipants)

			if count >= limit {
				// Stale open status: the cap was reached without the proposal
				// closing. Repair it and reject the join.
				if err := s.autoClose(tx, ctx, proposal); err != nil {
					return err
				}
				capacityFull = true
				return nil
			}

			participation = &models.Participation{
				UserID:     userID,
				ProposalID: proposal.ID,
			}
			if err := tx.Create(participation).Error; err != nil {
				return fmt.Errorf("participation service: create participation: %w", err)
			}

			if count+1 >= limit {
				if err := s.autoClose(tx, ctx, proposal); err != nil {
					return err
				}
			}
		} else {
			participation = &models.Participation{
				UserID:     userID,
				ProposalID: proposal.ID,
			}
			if err := tx.Create(participation).Error; err != nil {
				return fmt.Errorf("participation service: create participation: %w", err)
			}
		}

		recordAudit(s.auditService, ctx, AuditEntry{
			UserID:   &userID,
			Action:   "participation.join",
			Resource: proposal.ID,
			Result:   "success",
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	if capacityFull {
		return nil, ErrProposalFull
	}

	return participation, nil
}

// Leave removes the user's participation. The last participant leaving purges
// the proposal and everything attached to it. A departure from a proposal
// that auto-closed at capacity reopens it once a seat is free again.
func (s *ParticipationService) Leave(ctx context.Context, proposalID, userID string) (*LeaveResult, error) {
	ctx = ensureContext(ctx)

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperrors.NewBadRequest("user id is required")
	}

	result := &LeaveResult{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		proposal, err := loadProposalTx(tx, proposalID)
		if err != nil {
			return err
		}

		participation, err := findParticipation(tx, proposal.ID, userID)
		if err != nil {
			return fmt.Errorf("participation service: load participation: %w", err)
		}
		if participation == nil {
			return ErrParticipationNotFound
		}

		count, err := countParticipations(tx, proposal.ID)
		if err != nil {
			return fmt.Errorf("participation service: count participants: %w", err)
		}

		if count <= 1 {
			if err := purgeProposal(tx, proposal.ID); err != nil {
				return err
			}
			result.ProposalDeleted = true

			recordAudit(s.auditService, ctx, AuditEntry{
				UserID:   &userID,
				Action:   "proposal.purge",
				Resource: proposal.ID,
				Result:   "success",
				Metadata: map[string]any{"reason": "last participant left"},
			})
			return nil
		}

		if err := tx.Delete(participation).Error; err != nil {
			return fmt.Errorf("participation service: delete participation: %w", err)
		}

		if proposal.Status == models.StatusClosed &&
			proposal.MaxParticipants != nil &&
			count-1 < int64(*proposal.MaxParticipants) {
			if err := s.autoReopen(tx, ctx, proposal); err != nil {
				return err
			}
			result.Reopened = true
		}

		recordAudit(s.auditService, ctx, AuditEntry{
			UserID:   &userID,
			Action:   "participation.leave",
			Resource: proposal.ID,
			Result:   "success",
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// GrantEdit gives another participant edit rights. Only edit-rights holders
// may grant; granting to someone who already has them succeeds without
// change. Rights are never revoked.
func (s *ParticipationService) GrantEdit(ctx context.Context, proposalID, granterID, targetUserID string) (*models.Participation, error) {
	ctx = ensureContext(ctx)

	targetUserID = strings.TrimSpace(targetUserID)
	if targetUserID == "" {
		return nil, apperrors.NewBadRequest("target user id is required")
	}

	var target *models.Participation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		proposal, err := loadProposalTx(tx, proposalID)
		if err != nil {
			return err
		}

		if err := requireEditRights(tx, proposal.ID, granterID); err != nil {
			return err
		}

		target, err = findParticipation(tx, proposal.ID, targetUserID)
		if err != nil {
			return fmt.Errorf("participation service: load target: %w", err)
		}
		if target == nil {
			return ErrParticipationNotFound
		}
		if target.CanEdit {
			return nil
		}

		if err := tx.Model(target).Update("can_edit", true).Error; err != nil {
			return fmt.Errorf("participation service: grant edit: %w", err)
		}
		target.CanEdit = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	return target, nil
}

// ListForUser returns every participation of a user, used by profile views.
func (s *ParticipationService) ListForUser(ctx context.Context, userID string) ([]models.Participation, error) {
	ctx = ensureContext(ctx)

	var participations []models.Participation
	err := s.db.WithContext(ctx).
		Where("user_id = ?", strings.TrimSpace(userID)).
		Order("created_at ASC").
		Find(&participations).Error
	if err != nil {
		return nil, fmt.Errorf("participation service: list for user: %w", err)
	}
	return participations, nil
}

// autoClose performs the capacity-driven open -> closed transition.
func (s *ParticipationService) autoClose(tx *gorm.DB, ctx context.Context, proposal *models.TripProposal) error {
	if proposal.Status != models.StatusOpen {
		return nil
	}
	if err := tx.Model(proposal).Update("status", models.StatusClosed).Error; err != nil {
		return fmt.Errorf("participation service: auto-close: %w", err)
	}
	proposal.Status = models.StatusClosed

	metrics.ProposalTransitions.WithLabelValues(string(models.StatusOpen), string(models.StatusClosed), "auto_close").Inc()
	s.log.Info("proposal auto-closed at capacity", zap.String("proposal_id", proposal.ID))
	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "proposal.auto_close",
		Resource: proposal.ID,
		Result:   "success",
	})
	return nil
}

// autoReopen performs the capacity-driven closed -> open transition.
func (s *ParticipationService) autoReopen(tx *gorm.DB, ctx context.Context, proposal *models.TripProposal) error {
	if proposal.Status != models.StatusClosed {
		return nil
	}
	if err := tx.Model(proposal).Update("status", models.StatusOpen).Error; err != nil {
		return fmt.Errorf("participation service: auto-reopen: %w", err)
	}
	proposal.Status = models.StatusOpen

	metrics.ProposalTransitions.WithLabelValues(string(models.StatusClosed), string(models.StatusOpen), "auto_reopen").Inc()
	s.log.Info("proposal reopened after departure", zap.String("proposal_id", proposal.ID))
	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "proposal.auto_reopen",
		Resource: proposal.ID,
		Result:   "success",
	})
	return nil
}
