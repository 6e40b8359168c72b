package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/eirikhm/tripfellows/internal/models"
	apperrors "github.com/eirikhm/tripfellows/pkg/errors"
)

const maxMessageLength = 4000

// PostMessageInput carries the payload required to post a message.
type PostMessageInput struct {
	ProposalID string
	AuthorID   string
	Content    string
}

// MessageService persists proposal chat messages behind the participation and
// terminal-state guards.
type MessageService struct {
	db *gorm.DB
}

// NewMessageService constructs a MessageService instance.
func NewMessageService(db *gorm.DB) (*MessageService, error) {
	if db == nil {
		return nil, errors.New("message service: db is required")
	}
	return &MessageService{db: db}, nil
}

// Post stores a message on a proposal. Only participants may post, and
// finalized or cancelled proposals accept no further messages.
func (s *MessageService) Post(ctx context.Context, input PostMessageInput) (*models.Message, error) {
	ctx = ensureContext(ctx)

	authorID := strings.TrimSpace(input.AuthorID)
	if authorID == "" {
		return nil, apperrors.NewBadRequest("author id is required")
	}

	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, apperrors.NewBadRequest("message cannot be empty")
	}
	if utf8.RuneCountInString(content) > maxMessageLength {
		return nil, apperrors.NewBadRequest("message content exceeds maximum length")
	}

	var message *models.Message
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		proposal, err := loadProposalTx(tx, input.ProposalID)
		if err != nil {
			return err
		}

		participation, err := findParticipation(tx, proposal.ID, authorID)
		if err != nil {
			return fmt.Errorf("message service: load participation: %w", err)
		}
		if participation == nil {
			return ErrNotParticipant
		}

		if proposal.Status.Terminal() {
			return ErrProposalReadOnly
		}

		message = &models.Message{
			Content:    content,
			AuthorID:   authorID,
			ProposalID: proposal.ID,
		}
		if err := tx.Create(message).Error; err != nil {
			return fmt.Errorf("message service: create message: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return message, nil
}

// List returns messages for a proposal newest first. Only participants may read.
func (s *MessageService) List(ctx context.Context, proposalID, actorID string, limit int, before time.Time) ([]models.Message, error) {
	ctx = ensureContext(ctx)

	proposal, err := loadProposalTx(s.db.WithContext(ctx), proposalID)
	if err != nil {
		return nil, err
	}

	participation, err := findParticipation(s.db.WithContext(ctx), proposal.ID, strings.TrimSpace(actorID))
	if err != nil {
		return nil, fmt.Errorf("message service: load participation: %w", err)
	}
	if participation == nil {
		return nil, ErrNotParticipant
	}

	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := s.db.WithContext(ctx).
		Preload("Author").
		Where("proposal_id = ?", proposal.ID).
		Order("created_at DESC").
		Limit(limit)

	if !before.IsZero() {
		query = query.Where("created_at < ?", before)
	}

	var rows []models.Message
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("message service: list messages: %w", err)
	}

	return rows, nil
}
