package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/eirikhm/tripfellows/internal/models"
)

func TestAuditLogAndList(t *testing.T) {
	db := openServiceTestDB(t)
	svc, err := NewAuditService(db)
	require.NoError(t, err)

	ctx := context.Background()
	userID := "00000000-0000-0000-0000-000000000001"

	require.NoError(t, svc.Log(ctx, AuditEntry{
		UserID:   &userID,
		Action:   "participation.join",
		Resource: "proposal-1",
		Result:   "success",
		Metadata: map[string]any{"seat": 2},
	}))
	require.NoError(t, svc.Log(ctx, AuditEntry{
		Action:   "proposal.auto_close",
		Resource: "proposal-1",
		Result:   "success",
	}))

	rows, total, err := svc.List(ctx, AuditListOptions{})
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Len(t, rows, 2)

	filtered, total, err := svc.List(ctx, AuditListOptions{
		Filters: AuditFilters{Action: "proposal.auto_close"},
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Nil(t, filtered[0].UserID)
}

func TestAuditLogRequiresActionAndResult(t *testing.T) {
	db := openServiceTestDB(t)
	svc, err := NewAuditService(db)
	require.NoError(t, err)

	ctx := context.Background()
	require.Error(t, svc.Log(ctx, AuditEntry{Result: "success"}))
	require.Error(t, svc.Log(ctx, AuditEntry{Action: "proposal.create"}))
}

func TestAuditCleanupOlderThan(t *testing.T) {
	db := openServiceTestDB(t)
	svc, err := NewAuditService(db)
	require.NoError(t, err)

	old := models.AuditLog{Action: "proposal.create", Result: "success"}
	old.CreatedAt = time.Now().AddDate(0, 0, -120)
	require.NoError(t, db.Create(&old).Error)

	recent := models.AuditLog{Action: "proposal.create", Result: "success"}
	require.NoError(t, db.Create(&recent).Error)

	removed, err := svc.CleanupOlderThan(context.Background(), 90)
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)

	var remaining int64
	require.NoError(t, db.Model(&models.AuditLog{}).Count(&remaining).Error)
	require.EqualValues(t, 1, remaining)

	// A non-positive retention disables cleanup.
	removed, err = svc.CleanupOlderThan(context.Background(), 0)
	require.NoError(t, err)
	require.Zero(t, removed)
}
