package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecowatch/api/internal/models"
)

func TestComputeStats(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()

	first := f.submit(t, f.dave)
	f.submit(t, f.dave)

	_, err := f.workflow.Assign(ctx, f.admin, first.ID, "bob")
	require.NoError(t, err)
	_, err = f.workflow.StartReview(ctx, f.bob, first.ID)
	require.NoError(t, err)
	_, err = f.workflow.Resolve(ctx, f.bob, first.ID, models.ReportStatusReviewed)
	require.NoError(t, err)

	stats := NewStatsService(f.users, f.reports).Compute()

	assert.Equal(t, 4, stats.TotalUsers)
	assert.Equal(t, 2, stats.Rescuers)
	assert.Equal(t, 1, stats.RegularUsers)
	assert.Equal(t, 4, stats.SignupsToday)

	assert.Equal(t, 2, stats.TotalReports)
	assert.Equal(t, 1, stats.ReportsReviewed)
	assert.Equal(t, 0, stats.ReportsInReview)
	assert.Equal(t, 1, stats.AssignedReports)
	assert.Equal(t, 2, stats.ReportsByCategory[string(models.CategoryForestFire)])
	assert.GreaterOrEqual(t, stats.AvgReviewHours, 0.0)
}
