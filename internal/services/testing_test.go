package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/eirikhm/tripfellows/internal/models"
)

func openServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.TripProposal{},
		&models.Participation{},
		&models.Message{},
		&models.Meetup{},
		&models.AuditLog{},
	))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	user := &models.User{
		Email:    email,
		Password: "$2a$10$hashedhashedhashedhashedhashedhashedhashedhashedhash",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func newProposalFixture(t *testing.T, db *gorm.DB, creatorEmail string, maxParticipants *int) (*ProposalService, *ParticipationService, *models.TripProposal, *models.User) {
	t.Helper()

	auditSvc, err := NewAuditService(db)
	require.NoError(t, err)
	proposalSvc, err := NewProposalService(db, auditSvc)
	require.NoError(t, err)
	participationSvc, err := NewParticipationService(db, auditSvc)
	require.NoError(t, err)

	creator := createTestUser(t, db, creatorEmail)
	proposal, err := proposalSvc.Create(context.Background(), CreateProposalInput{
		ActorID:         creator.ID,
		Title:           "Weekend in the Dolomites",
		MaxParticipants: maxParticipants,
	})
	require.NoError(t, err)

	return proposalSvc, participationSvc, proposal, creator
}

func intPtr(v int) *int { return &v }
