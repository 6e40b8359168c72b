package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAddMeetup(t *testing.T) {
	db := openServiceTestDB(t)
	_, _, proposal, creator := newProposalFixture(t, db, "creator@example.com", nil)
	ctx := context.Background()

	svc, err := NewMeetupService(db)
	require.NoError(t, err)

	when := time.Date(2026, 9, 12, 10, 0, 0, 0, time.UTC)
	meetup, err := svc.Add(ctx, AddMeetupInput{
		ProposalID: proposal.ID,
		CreatorID:  creator.ID,
		Location:   "Central station",
		Time:       &when,
	})
	require.NoError(t, err)
	require.NotNil(t, meetup.Time)

	// The moment can stay undecided.
	undecided, err := svc.Add(ctx, AddMeetupInput{
		ProposalID: proposal.ID,
		CreatorID:  creator.ID,
		Location:   "Somewhere downtown",
	})
	require.NoError(t, err)
	require.Nil(t, undecided.Time)
}

func TestAddMeetupGuards(t *testing.T) {
	db := openServiceTestDB(t)
	proposalSvc, _, proposal, creator := newProposalFixture(t, db, "creator@example.com", nil)
	ctx := context.Background()

	svc, err := NewMeetupService(db)
	require.NoError(t, err)

	outsider := createTestUser(t, db, "outsider@example.com")
	_, err = svc.Add(ctx, AddMeetupInput{ProposalID: proposal.ID, CreatorID: outsider.ID})
	require.ErrorIs(t, err, ErrNotParticipant)

	_, err = proposalSvc.Finalize(ctx, proposal.ID, creator.ID)
	require.NoError(t, err)

	_, err = svc.Add(ctx, AddMeetupInput{ProposalID: proposal.ID, CreatorID: creator.ID})
	require.ErrorIs(t, err, ErrProposalReadOnly)
}

func TestListMeetupsUndecidedLast(t *testing.T) {
	db := openServiceTestDB(t)
	_, _, proposal, creator := newProposalFixture(t, db, "creator@example.com", nil)
	ctx := context.Background()

	svc, err := NewMeetupService(db)
	require.NoError(t, err)

	earlier := time.Date(2026, 9, 10, 9, 0, 0, 0, time.UTC)
	later := time.Date(2026, 9, 14, 9, 0, 0, 0, time.UTC)

	_, err = svc.Add(ctx, AddMeetupInput{ProposalID: proposal.ID, CreatorID: creator.ID, Location: "Early", Time: &earlier})
	require.NoError(t, err)
	_, err = svc.Add(ctx, AddMeetupInput{ProposalID: proposal.ID, CreatorID: creator.ID, Location: "Undecided"})
	require.NoError(t, err)
	_, err = svc.Add(ctx, AddMeetupInput{ProposalID: proposal.ID, CreatorID: creator.ID, Location: "Late", Time: &later})
	require.NoError(t, err)

	rows, err := svc.List(ctx, proposal.ID, creator.ID)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, "Late", rows[0].Location)
	require.Equal(t, "Early", rows[1].Location)
	require.Equal(t, "Undecided", rows[2].Location)
}
