package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/eirikhm/tripfellows/internal/models"
	apperrors "github.com/eirikhm/tripfellows/pkg/errors"
)

// AddMeetupInput carries the payload required to schedule a meetup.
type AddMeetupInput struct {
	ProposalID string
	CreatorID  string
	Location   string
	Time       *time.Time
}

// MeetupService persists proposed meetups behind the participation and
// terminal-state guards.
type MeetupService struct {
	db *gorm.DB
}

// NewMeetupService constructs a MeetupService instance.
func NewMeetupService(db *gorm.DB) (*MeetupService, error) {
	if db == nil {
		return nil, errors.New("meetup service: db is required")
	}
	return &MeetupService{db: db}, nil
}

// Add schedules a meetup on a proposal. A nil Time means the moment is not
// decided yet. Only participants may add, and finalized or cancelled
// proposals accept no further meetups.
func (s *MeetupService) Add(ctx context.Context, input AddMeetupInput) (*models.Meetup, error) {
	ctx = ensureContext(ctx)

	creatorID := strings.TrimSpace(input.CreatorID)
	if creatorID == "" {
		return nil, apperrors.NewBadRequest("creator id is required")
	}

	var meetup *models.Meetup
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		proposal, err := loadProposalTx(tx, input.ProposalID)
		if err != nil {
			return err
		}

		participation, err := findParticipation(tx, proposal.ID, creatorID)
		if err != nil {
			return fmt.Errorf("meetup service: load participation: %w", err)
		}
		if participation == nil {
			return ErrNotParticipant
		}

		if proposal.Status.Terminal() {
			return ErrProposalReadOnly
		}

		meetup = &models.Meetup{
			Location:   strings.TrimSpace(input.Location),
			Time:       input.Time,
			CreatorID:  creatorID,
			ProposalID: proposal.ID,
		}
		if err := tx.Create(meetup).Error; err != nil {
			return fmt.Errorf("meetup service: create meetup: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return meetup, nil
}

// List returns meetups for a proposal with undecided times last, then newest
// first. Only participants may read.
func (s *MeetupService) List(ctx context.Context, proposalID, actorID string) ([]models.Meetup, error) {
	ctx = ensureContext(ctx)

	proposal, err := loadProposalTx(s.db.WithContext(ctx), proposalID)
	if err != nil {
		return nil, err
	}

	participation, err := findParticipation(s.db.WithContext(ctx), proposal.ID, strings.TrimSpace(actorID))
	if err != nil {
		return nil, fmt.Errorf("meetup service: load participation: %w", err)
	}
	if participation == nil {
		return nil, ErrNotParticipant
	}

	var rows []models.Meetup
	err = s.db.WithContext(ctx).
		Where("proposal_id = ?", proposal.ID).
		Order("time IS NULL, time DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("meetup service: list meetups: %w", err)
	}

	return rows, nil
}
