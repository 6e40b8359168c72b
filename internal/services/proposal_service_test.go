package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/eirikhm/tripfellows/internal/models"
)

func TestProposalCreateEnrollsCreatorWithEditRights(t *testing.T) {
	db := openServiceTestDB(t)
	_, _, proposal, creator := newProposalFixture(t, db, "creator@example.com", nil)

	require.NotEmpty(t, proposal.ID)
	require.Equal(t, models.StatusOpen, proposal.Status)
	require.Equal(t, creator.ID, proposal.CreatorID)

	participation, err := findParticipation(db, proposal.ID, creator.ID)
	require.NoError(t, err)
	require.NotNil(t, participation)
	require.True(t, participation.CanEdit)
}

func TestProposalCreateRejectsInvalidInput(t *testing.T) {
	db := openServiceTestDB(t)
	auditSvc, err := NewAuditService(db)
	require.NoError(t, err)
	svc, err := NewProposalService(db, auditSvc)
	require.NoError(t, err)

	ctx := context.Background()
	creator := createTestUser(t, db, "creator@example.com")

	_, err = svc.Create(ctx, CreateProposalInput{ActorID: creator.ID, Title: "   "})
	require.Error(t, err)

	_, err = svc.Create(ctx, CreateProposalInput{ActorID: creator.ID, Title: "Trip", MaxParticipants: intPtr(0)})
	require.Error(t, err)
}

func TestProposalLifecycleTransitions(t *testing.T) {
	db := openServiceTestDB(t)
	svc, _, proposal, creator := newProposalFixture(t, db, "creator@example.com", nil)
	ctx := context.Background()

	closed, err := svc.CloseToNewParticipants(ctx, proposal.ID, creator.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusClosed, closed.Status)

	// Closing an already-closed proposal is not a valid edge.
	_, err = svc.CloseToNewParticipants(ctx, proposal.ID, creator.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)

	finalized, err := svc.Finalize(ctx, proposal.ID, creator.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusFinalized, finalized.Status)
}

func TestProposalTerminalStatesRejectFurtherTransitions(t *testing.T) {
	db := openServiceTestDB(t)
	svc, _, proposal, creator := newProposalFixture(t, db, "creator@example.com", nil)
	ctx := context.Background()

	_, err := svc.Finalize(ctx, proposal.ID, creator.ID)
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, proposal.ID, creator.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.Finalize(ctx, proposal.ID, creator.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.CloseToNewParticipants(ctx, proposal.ID, creator.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)

	var stored models.TripProposal
	require.NoError(t, db.First(&stored, "id = ?", proposal.ID).Error)
	require.Equal(t, models.StatusFinalized, stored.Status)
}

func TestProposalTransitionsRequireEditRights(t *testing.T) {
	db := openServiceTestDB(t)
	svc, participationSvc, proposal, _ := newProposalFixture(t, db, "creator@example.com", nil)
	ctx := context.Background()

	member := createTestUser(t, db, "member@example.com")
	_, err := participationSvc.Join(ctx, proposal.ID, member.ID)
	require.NoError(t, err)

	// A plain participant cannot drive the lifecycle.
	_, err = svc.Finalize(ctx, proposal.ID, member.ID)
	require.ErrorIs(t, err, ErrEditForbidden)

	// Neither can an outsider.
	outsider := createTestUser(t, db, "outsider@example.com")
	_, err = svc.Cancel(ctx, proposal.ID, outsider.ID)
	require.ErrorIs(t, err, ErrEditForbidden)
}

func TestProposalTransitionNotFound(t *testing.T) {
	db := openServiceTestDB(t)
	svc, _, _, creator := newProposalFixture(t, db, "creator@example.com", nil)

	_, err := svc.Finalize(context.Background(), "00000000-0000-0000-0000-000000000000", creator.ID)
	require.ErrorIs(t, err, ErrProposalNotFound)
}

func TestListDiscoverableFiltersAndOrders(t *testing.T) {
	db := openServiceTestDB(t)
	auditSvc, err := NewAuditService(db)
	require.NoError(t, err)
	svc, err := NewProposalService(db, auditSvc)
	require.NoError(t, err)

	ctx := context.Background()
	creator := createTestUser(t, db, "creator@example.com")

	later := time.Date(2026, 9, 20, 0, 0, 0, 0, time.UTC)
	sooner := time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC)

	open, err := svc.Create(ctx, CreateProposalInput{ActorID: creator.ID, Title: "Later trip", StartDate: &later})
	require.NoError(t, err)
	soonest, err := svc.Create(ctx, CreateProposalInput{ActorID: creator.ID, Title: "Sooner trip", StartDate: &sooner})
	require.NoError(t, err)
	undated, err := svc.Create(ctx, CreateProposalInput{ActorID: creator.ID, Title: "Someday trip"})
	require.NoError(t, err)

	closed, err := svc.Create(ctx, CreateProposalInput{ActorID: creator.ID, Title: "Closed trip"})
	require.NoError(t, err)
	_, err = svc.CloseToNewParticipants(ctx, closed.ID, creator.ID)
	require.NoError(t, err)

	finalized, err := svc.Create(ctx, CreateProposalInput{ActorID: creator.ID, Title: "Done trip"})
	require.NoError(t, err)
	_, err = svc.Finalize(ctx, finalized.ID, creator.ID)
	require.NoError(t, err)

	cancelled, err := svc.Create(ctx, CreateProposalInput{ActorID: creator.ID, Title: "Abandoned trip"})
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, cancelled.ID, creator.ID)
	require.NoError(t, err)

	listed, err := svc.ListDiscoverable(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 4)

	// Dated proposals ascending, undated last. Terminal proposals never appear.
	require.Equal(t, soonest.ID, listed[0].ID)
	require.Equal(t, open.ID, listed[1].ID)
	require.Equal(t, undated.ID, listed[3].ID)

	for _, p := range listed {
		require.NotEqual(t, finalized.ID, p.ID)
		require.NotEqual(t, cancelled.ID, p.ID)
	}
}

func TestGetDetailRequiresParticipation(t *testing.T) {
	db := openServiceTestDB(t)
	svc, _, proposal, creator := newProposalFixture(t, db, "creator@example.com", nil)
	ctx := context.Background()

	detail, err := svc.GetDetail(ctx, proposal.ID, creator.ID)
	require.NoError(t, err)
	require.Equal(t, proposal.ID, detail.Proposal.ID)
	require.Len(t, detail.Participants, 1)

	outsider := createTestUser(t, db, "outsider@example.com")
	_, err = svc.GetDetail(ctx, proposal.ID, outsider.ID)
	require.ErrorIs(t, err, ErrNotParticipant)
}

func TestGetDetailOrdersDependents(t *testing.T) {
	db := openServiceTestDB(t)
	svc, _, proposal, creator := newProposalFixture(t, db, "creator@example.com", nil)
	ctx := context.Background()

	first := models.Message{Content: "first", AuthorID: creator.ID, ProposalID: proposal.ID}
	first.CreatedAt = time.Now().Add(-2 * time.Hour)
	require.NoError(t, db.Create(&first).Error)
	second := models.Message{Content: "second", AuthorID: creator.ID, ProposalID: proposal.ID}
	second.CreatedAt = time.Now().Add(-time.Hour)
	require.NoError(t, db.Create(&second).Error)

	when := time.Date(2026, 9, 10, 18, 0, 0, 0, time.UTC)
	dated := models.Meetup{Location: "Station", Time: &when, CreatorID: creator.ID, ProposalID: proposal.ID}
	require.NoError(t, db.Create(&dated).Error)
	undated := models.Meetup{Location: "TBD", CreatorID: creator.ID, ProposalID: proposal.ID}
	require.NoError(t, db.Create(&undated).Error)

	detail, err := svc.GetDetail(ctx, proposal.ID, creator.ID)
	require.NoError(t, err)

	require.Len(t, detail.Messages, 2)
	require.Equal(t, "second", detail.Messages[0].Content)

	require.Len(t, detail.Meetups, 2)
	require.Equal(t, "Station", detail.Meetups[0].Location)
	require.Equal(t, "TBD", detail.Meetups[1].Location)
}

func TestProposalDeletePurgesDependents(t *testing.T) {
	db := openServiceTestDB(t)
	svc, participationSvc, proposal, creator := newProposalFixture(t, db, "creator@example.com", nil)
	ctx := context.Background()

	member := createTestUser(t, db, "member@example.com")
	_, err := participationSvc.Join(ctx, proposal.ID, member.ID)
	require.NoError(t, err)

	require.NoError(t, db.Create(&models.Message{Content: "hello", AuthorID: member.ID, ProposalID: proposal.ID}).Error)
	require.NoError(t, db.Create(&models.Meetup{Location: "Airport", CreatorID: creator.ID, ProposalID: proposal.ID}).Error)

	// A participant without edit rights cannot delete.
	require.ErrorIs(t, svc.Delete(ctx, proposal.ID, member.ID), ErrEditForbidden)

	require.NoError(t, svc.Delete(ctx, proposal.ID, creator.ID))

	var proposals int64
	require.NoError(t, db.Model(&models.TripProposal{}).Where("id = ?", proposal.ID).Count(&proposals).Error)
	require.Zero(t, proposals)

	for _, model := range []any{&models.Participation{}, &models.Message{}, &models.Meetup{}} {
		var count int64
		require.NoError(t, db.Model(model).Where("proposal_id = ?", proposal.ID).Count(&count).Error)
		require.Zero(t, count)
	}

	// Users survive the purge.
	var users int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	require.EqualValues(t, 2, users)

	require.ErrorIs(t, svc.Delete(ctx, proposal.ID, creator.ID), ErrProposalNotFound)
}

func TestNewProposalServiceRequiresDB(t *testing.T) {
	_, err := NewProposalService(nil, nil)
	require.Error(t, err)
}
