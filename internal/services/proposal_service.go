package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/eirikhm/tripfellows/internal/models"
	apperrors "github.com/eirikhm/tripfellows/pkg/errors"
	"github.com/eirikhm/tripfellows/pkg/logger"
	"github.com/eirikhm/tripfellows/pkg/metrics"
)

var (
	// ErrProposalNotFound indicates the requested proposal does not exist.
	ErrProposalNotFound = apperrors.New("PROPOSAL_NOT_FOUND", "Trip proposal not found", http.StatusNotFound)
	// ErrNotParticipant signals the actor has no participation on the proposal.
	ErrNotParticipant = apperrors.New("NOT_PARTICIPANT", "You are not a participant of this trip", http.StatusForbidden)
	// ErrEditForbidden signals the actor participates but lacks edit rights.
	ErrEditForbidden = apperrors.New("EDIT_FORBIDDEN", "You do not have edit rights on this proposal", http.StatusForbidden)
	// ErrInvalidTransition rejects a status change the state machine does not allow.
	ErrInvalidTransition = apperrors.New("INVALID_TRANSITION", "This proposal has already been finalized or cancelled", http.StatusConflict)
	// ErrProposalReadOnly rejects new content on finalized or cancelled proposals.
	ErrProposalReadOnly = apperrors.New("PROPOSAL_READ_ONLY", "This trip proposal is no longer accepting changes", http.StatusConflict)
)

// CreateProposalInput captures new proposal metadata.
type CreateProposalInput struct {
	ActorID         string
	Title           string
	Destination     string
	Budget          *float64
	MaxParticipants *int
	StartDate       *time.Time
	EndDate         *time.Time
}

// ProposalDetail bundles a proposal with its dependent records for the detail view.
type ProposalDetail struct {
	Proposal     models.TripProposal    `json:"proposal"`
	Participants []models.Participation `json:"participants"`
	Messages     []models.Message       `json:"messages"`
	Meetups      []models.Meetup        `json:"meetups"`
}

// ProposalService owns the proposal lifecycle: creation, the status state
// machine, discovery, and deletion with explicit dependent cleanup.
type ProposalService struct {
	db           *gorm.DB
	auditService *AuditService
	log          *zap.Logger
}

// NewProposalService constructs a ProposalService instance.
func NewProposalService(db *gorm.DB, auditService *AuditService) (*ProposalService, error) {
	if db == nil {
		return nil, errors.New("proposal service: db is required")
	}
	return &ProposalService{
		db:           db,
		auditService: auditService,
		log:          logger.WithModule("proposals"),
	}, nil
}

// Create registers a new proposal and enrolls the creator as its first
// participant with edit rights, as a single transaction.
func (s *ProposalService) Create(ctx context.Context, input CreateProposalInput) (*models.TripProposal, error) {
	ctx = ensureContext(ctx)

	actorID := strings.TrimSpace(input.ActorID)
	if actorID == "" {
		return nil, apperrors.NewBadRequest("actor id is required")
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewBadRequest("title is required")
	}
	if input.MaxParticipants != nil && *input.MaxParticipants <= 0 {
		return nil, apperrors.NewBadRequest("max participants must be a positive number")
	}

	proposal := &models.TripProposal{
		Title:           title,
		Destination:     strings.TrimSpace(input.Destination),
		Budget:          input.Budget,
		MaxParticipants: input.MaxParticipants,
		StartDate:       input.StartDate,
		EndDate:         input.EndDate,
		Status:          models.StatusOpen,
		CreatorID:       actorID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(proposal).Error; err != nil {
			return fmt.Errorf("proposal service: create proposal: %w", err)
		}

		participation := &models.Participation{
			UserID:     actorID,
			ProposalID: proposal.ID,
			CanEdit:    true,
		}
		if err := tx.Create(participation).Error; err != nil {
			return fmt.Errorf("proposal service: enroll creator: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		UserID:   &actorID,
		Action:   "proposal.create",
		Resource: proposal.ID,
		Result:   "success",
		Metadata: map[string]any{"title": proposal.Title},
	})

	return proposal, nil
}

// ListDiscoverable returns proposals still visible in discovery: open or
// closed to new participants, proposals without a start date last, the rest
// ascending by start date. Finalized and cancelled proposals never appear.
func (s *ProposalService) ListDiscoverable(ctx context.Context) ([]models.TripProposal, error) {
	ctx = ensureContext(ctx)

	var proposals []models.TripProposal
	err := s.db.WithContext(ctx).
		Where("status IN ?", []models.ProposalStatus{models.StatusOpen, models.StatusClosed}).
		Order("start_date IS NULL, start_date ASC").
		Find(&proposals).Error
	if err != nil {
		return nil, fmt.Errorf("proposal service: list proposals: %w", err)
	}

	return proposals, nil
}

// GetDetail loads a proposal with its participants, messages (newest first),
// and meetups (undecided times last). Only participants may view details.
func (s *ProposalService) GetDetail(ctx context.Context, proposalID, actorID string) (*ProposalDetail, error) {
	ctx = ensureContext(ctx)

	proposal, err := s.loadProposal(ctx, proposalID)
	if err != nil {
		return nil, err
	}

	participation, err := findParticipation(s.db.WithContext(ctx), proposal.ID, strings.TrimSpace(actorID))
	if err != nil {
		return nil, fmt.Errorf("proposal service: load participation: %w", err)
	}
	if participation == nil {
		return nil, ErrNotParticipant
	}

	detail := &ProposalDetail{Proposal: *proposal}

	err = s.db.WithContext(ctx).
		Preload("User").
		Where("proposal_id = ?", proposal.ID).
		Order("created_at ASC").
		Find(&detail.Participants).Error
	if err != nil {
		return nil, fmt.Errorf("proposal service: load participants: %w", err)
	}

	err = s.db.WithContext(ctx).
		Preload("Author").
		Where("proposal_id = ?", proposal.ID).
		Order("created_at DESC").
		Find(&detail.Messages).Error
	if err != nil {
		return nil, fmt.Errorf("proposal service: load messages: %w", err)
	}

	err = s.db.WithContext(ctx).
		Where("proposal_id = ?", proposal.ID).
		Order("time IS NULL, time DESC").
		Find(&detail.Meetups).Error
	if err != nil {
		return nil, fmt.Errorf("proposal service: load meetups: %w", err)
	}

	return detail, nil
}

// Finalize moves the proposal into its terminal finalized state.
func (s *ProposalService) Finalize(ctx context.Context, proposalID, actorID string) (*models.TripProposal, error) {
	return s.transition(ctx, proposalID, actorID, models.StatusFinalized, "finalize")
}

// Cancel moves the proposal into its terminal cancelled state.
func (s *ProposalService) Cancel(ctx context.Context, proposalID, actorID string) (*models.TripProposal, error) {
	return s.transition(ctx, proposalID, actorID, models.StatusCancelled, "cancel")
}

// CloseToNewParticipants stops further joins while keeping the proposal active.
func (s *ProposalService) CloseToNewParticipants(ctx context.Context, proposalID, actorID string) (*models.TripProposal, error) {
	return s.transition(ctx, proposalID, actorID, models.StatusClosed, "close")
}

// transition applies an actor-requested status change after checking edit
// rights and the state machine edges. The switch on the target status is
// exhaustive so new states cannot be added without revisiting the rules here.
func (s *ProposalService) transition(ctx context.Context, proposalID, actorID string, target models.ProposalStatus, trigger string) (*models.TripProposal, error) {
	ctx = ensureContext(ctx)

	var proposal *models.TripProposal
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		proposal, err = loadProposalTx(tx, proposalID)
		if err != nil {
			return err
		}

		if err := requireEditRights(tx, proposal.ID, actorID); err != nil {
			return err
		}

		from := proposal.Status
		switch target {
		case models.StatusFinalized, models.StatusCancelled:
			if from.Terminal() {
				return ErrInvalidTransition
			}
		case models.StatusClosed:
			if from != models.StatusOpen {
				return ErrInvalidTransition.WithInternal(fmt.Errorf("cannot close from %s", from))
			}
		case models.StatusOpen:
			return ErrInvalidTransition.WithInternal(errors.New("reopening is capacity-driven only"))
		default:
			return fmt.Errorf("proposal service: unknown target status %q", target)
		}

		if err := tx.Model(proposal).Update("status", target).Error; err != nil {
			return fmt.Errorf("proposal service: update status: %w", err)
		}
		proposal.Status = target

		metrics.ProposalTransitions.WithLabelValues(string(from), string(target), trigger).Inc()
		s.log.Info("status transition",
			zap.String("proposal_id", proposal.ID),
			zap.String("from", string(from)),
			zap.String("to", string(target)),
			zap.String("trigger", trigger),
		)
		recordAudit(s.auditService, ctx, AuditEntry{
			UserID:   &actorID,
			Action:   "proposal." + trigger,
			Resource: proposal.ID,
			Result:   "success",
			Metadata: map[string]any{"from": string(from), "to": string(target)},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return proposal, nil
}

// Delete removes a proposal and all of its dependent records. Only edit-rights
// holders may delete; the cleanup runs as one atomic purge.
func (s *ProposalService) Delete(ctx context.Context, proposalID, actorID string) error {
	ctx = ensureContext(ctx)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		proposal, err := loadProposalTx(tx, proposalID)
		if err != nil {
			return err
		}

		if err := requireEditRights(tx, proposal.ID, actorID); err != nil {
			return err
		}

		return purgeProposal(tx, proposal.ID)
	})
	if err != nil {
		return err
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		UserID:   &actorID,
		Action:   "proposal.delete",
		Resource: proposalID,
		Result:   "success",
	})

	return nil
}

func (s *ProposalService) loadProposal(ctx context.Context, proposalID string) (*models.TripProposal, error) {
	return loadProposalTx(s.db.WithContext(ctx), proposalID)
}

func loadProposalTx(tx *gorm.DB, proposalID string) (*models.TripProposal, error) {
	proposalID = strings.TrimSpace(proposalID)
	if proposalID == "" {
		return nil, apperrors.NewBadRequest("proposal id is required")
	}

	var proposal models.TripProposal
	err := tx.First(&proposal, "id = ?", proposalID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProposalNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("proposal service: load proposal: %w", err)
	}
	return &proposal, nil
}

// requireEditRights fails unless the actor holds an edit-capable participation.
func requireEditRights(tx *gorm.DB, proposalID, actorID string) error {
	participation, err := findParticipation(tx, proposalID, strings.TrimSpace(actorID))
	if err != nil {
		return fmt.Errorf("proposal service: load participation: %w", err)
	}
	if participation == nil || !participation.CanEdit {
		return ErrEditForbidden
	}
	return nil
}

// purgeProposal removes, in order, all messages, meetups, and participations
// of a proposal, then the proposal row itself. The storage layer guarantees no
// cascading deletes, so the ordering here is the only thing preventing
// orphaned rows. Shared by explicit deletion and last-participant departure.
func purgeProposal(tx *gorm.DB, proposalID string) error {
	if err := tx.Where("proposal_id = ?", proposalID).Delete(&models.Message{}).Error; err != nil {
		return fmt.Errorf("purge proposal: delete messages: %w", err)
	}
	if err := tx.Where("proposal_id = ?", proposalID).Delete(&models.Meetup{}).Error; err != nil {
		return fmt.Errorf("purge proposal: delete meetups: %w", err)
	}
	if err := tx.Where("proposal_id = ?", proposalID).Delete(&models.Participation{}).Error; err != nil {
		return fmt.Errorf("purge proposal: delete participations: %w", err)
	}
	if err := tx.Delete(&models.TripProposal{}, "id = ?", proposalID).Error; err != nil {
		return fmt.Errorf("purge proposal: delete proposal: %w", err)
	}
	return nil
}
