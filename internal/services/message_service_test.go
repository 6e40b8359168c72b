package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/eirikhm/tripfellows/internal/models"
)

func TestPostMessage(t *testing.T) {
	db := openServiceTestDB(t)
	_, _, proposal, creator := newProposalFixture(t, db, "creator@example.com", nil)

	svc, err := NewMessageService(db)
	require.NoError(t, err)

	message, err := svc.Post(context.Background(), PostMessageInput{
		ProposalID: proposal.ID,
		AuthorID:   creator.ID,
		Content:    "  Who is up for this?  ",
	})
	require.NoError(t, err)
	require.Equal(t, "Who is up for this?", message.Content)
	require.Equal(t, creator.ID, message.AuthorID)
}

func TestPostMessageGuards(t *testing.T) {
	db := openServiceTestDB(t)
	proposalSvc, _, proposal, creator := newProposalFixture(t, db, "creator@example.com", nil)
	ctx := context.Background()

	svc, err := NewMessageService(db)
	require.NoError(t, err)

	outsider := createTestUser(t, db, "outsider@example.com")
	_, err = svc.Post(ctx, PostMessageInput{ProposalID: proposal.ID, AuthorID: outsider.ID, Content: "hi"})
	require.ErrorIs(t, err, ErrNotParticipant)

	_, err = svc.Post(ctx, PostMessageInput{ProposalID: proposal.ID, AuthorID: creator.ID, Content: "   "})
	require.Error(t, err)

	_, err = svc.Post(ctx, PostMessageInput{
		ProposalID: proposal.ID,
		AuthorID:   creator.ID,
		Content:    strings.Repeat("x", maxMessageLength+1),
	})
	require.Error(t, err)

	_, err = proposalSvc.Cancel(ctx, proposal.ID, creator.ID)
	require.NoError(t, err)

	_, err = svc.Post(ctx, PostMessageInput{ProposalID: proposal.ID, AuthorID: creator.ID, Content: "too late"})
	require.ErrorIs(t, err, ErrProposalReadOnly)
}

func TestPostMessageAllowedWhileClosed(t *testing.T) {
	db := openServiceTestDB(t)
	proposalSvc, _, proposal, creator := newProposalFixture(t, db, "creator@example.com", nil)
	ctx := context.Background()

	_, err := proposalSvc.CloseToNewParticipants(ctx, proposal.ID, creator.ID)
	require.NoError(t, err)

	svc, err := NewMessageService(db)
	require.NoError(t, err)

	// Closing only stops joins; existing participants keep talking.
	_, err = svc.Post(ctx, PostMessageInput{ProposalID: proposal.ID, AuthorID: creator.ID, Content: "still here"})
	require.NoError(t, err)
}

func TestListMessagesNewestFirst(t *testing.T) {
	db := openServiceTestDB(t)
	_, _, proposal, creator := newProposalFixture(t, db, "creator@example.com", nil)
	ctx := context.Background()

	svc, err := NewMessageService(db)
	require.NoError(t, err)

	base := time.Now().Add(-time.Hour)
	for i, content := range []string{"first", "second", "third"} {
		msg := models.Message{Content: content, AuthorID: creator.ID, ProposalID: proposal.ID}
		msg.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, db.Create(&msg).Error)
	}

	rows, err := svc.List(ctx, proposal.ID, creator.ID, 2, time.Time{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "third", rows[0].Content)
	require.Equal(t, "second", rows[1].Content)

	older, err := svc.List(ctx, proposal.ID, creator.ID, 10, rows[1].CreatedAt)
	require.NoError(t, err)
	require.Len(t, older, 1)
	require.Equal(t, "first", older[0].Content)

	outsider := createTestUser(t, db, "outsider@example.com")
	_, err = svc.List(ctx, proposal.ID, outsider.ID, 10, time.Time{})
	require.ErrorIs(t, err, ErrNotParticipant)
}
