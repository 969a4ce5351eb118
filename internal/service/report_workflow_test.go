package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecowatch/api/internal/ecoerr"
	"ecowatch/api/internal/models"
	"ecowatch/api/internal/repository"
	"ecowatch/api/internal/store"
)

type workflowFixture struct {
	workflow      *ReportWorkflow
	users         *repository.UserRepository
	reports       *repository.ReportRepository
	notifications *repository.NotificationRepository

	admin   Actor
	bob     Actor // rescuer
	carol   Actor // rescuer
	dave    Actor // citizen
	bobID   string
	daveID  string
}

func newWorkflowFixture(t *testing.T) *workflowFixture {
	t.Helper()
	ctx := context.Background()

	kv, err := store.NewInMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })

	users, err := repository.NewUserRepository(ctx, kv, zerolog.Nop())
	require.NoError(t, err)
	reports, err := repository.NewReportRepository(ctx, kv, zerolog.Nop(), 20)
	require.NoError(t, err)
	notifications, err := repository.NewNotificationRepository(ctx, kv, zerolog.Nop())
	require.NoError(t, err)

	seed := []models.UserProfile{
		{Username: "root", Email: "root@x.com", Role: models.RoleAdmin},
		{Username: "bob", Email: "bob@x.com", Role: models.RoleRescuer},
		{Username: "carol", Email: "carol@x.com", Role: models.RoleRescuer},
		{Username: "dave", Email: "dave@x.com", Role: models.RoleUser},
	}
	ids := map[string]string{}
	for _, u := range seed {
		added, err := users.Add(ctx, u)
		require.NoError(t, err)
		ids[u.Username] = added.ID
	}

	return &workflowFixture{
		workflow:      NewReportWorkflow(reports, users, notifications, nil, zerolog.Nop()),
		users:         users,
		reports:       reports,
		notifications: notifications,
		admin:         Actor{Username: "root", Role: models.RoleAdmin},
		bob:           Actor{Username: "bob", Role: models.RoleRescuer},
		carol:         Actor{Username: "carol", Role: models.RoleRescuer},
		dave:          Actor{Username: "dave", Role: models.RoleUser},
		bobID:         ids["bob"],
		daveID:        ids["dave"],
	}
}

func f64(v float64) *float64 { return &v }

func (f *workflowFixture) submit(t *testing.T, actor Actor) models.Report {
	t.Helper()
	report, err := f.workflow.Create(context.Background(), actor, CreateReportInput{
		Title:       "fire near river",
		Description: "smoke visible from road",
		Latitude:    f64(35.7),
		Longitude:   f64(51.4),
		Category:    models.CategoryForestFire,
	})
	require.NoError(t, err)
	return report
}

func TestCreateStartsUnsetAndUnassigned(t *testing.T) {
	f := newWorkflowFixture(t)

	report := f.submit(t, f.dave)

	assert.Equal(t, models.ReportStatusUnset, report.Status)
	assert.False(t, report.IsSentToRescuer)
	assert.Empty(t, report.AssignedTo)
	assert.Equal(t, "dave", report.AuthorUsername)
}

func TestCreateRequiresCoordinatePair(t *testing.T) {
	f := newWorkflowFixture(t)

	_, err := f.workflow.Create(context.Background(), f.dave, CreateReportInput{
		Title:    "half located",
		Latitude: f64(35.7),
	})
	assert.Error(t, err)
}

func TestCreateAcceptsZeroCoordinates(t *testing.T) {
	f := newWorkflowFixture(t)

	report, err := f.workflow.Create(context.Background(), f.dave, CreateReportInput{
		Title:     "spill at the equator",
		Latitude:  f64(0),
		Longitude: f64(0),
	})
	require.NoError(t, err)
	assert.Zero(t, report.Latitude)
	assert.Zero(t, report.Longitude)
}

func TestAssignToRescuer(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()
	report := f.submit(t, f.dave)

	updated, err := f.workflow.Assign(ctx, f.admin, report.ID, "bob")
	require.NoError(t, err)

	assert.Equal(t, "bob", updated.AssignedTo)
	assert.True(t, updated.IsSentToRescuer)

	// Assignment notifies the rescuer.
	assert.Len(t, f.notifications.ListForUser(f.bobID), 1)
}

func TestAssignToNonRescuerFails(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()
	report := f.submit(t, f.dave)

	_, err := f.workflow.Assign(ctx, f.admin, report.ID, "dave")
	assert.ErrorIs(t, err, ecoerr.ErrInvalidAssignment)

	_, err = f.workflow.Assign(ctx, f.admin, report.ID, "nobody")
	assert.ErrorIs(t, err, ecoerr.ErrInvalidAssignment)
}

func TestAssignRequiresAdmin(t *testing.T) {
	f := newWorkflowFixture(t)
	report := f.submit(t, f.dave)

	_, err := f.workflow.Assign(context.Background(), f.bob, report.ID, "bob")
	assert.ErrorIs(t, err, ecoerr.ErrForbidden)
}

func TestStartReviewRequiresAssignment(t *testing.T) {
	f := newWorkflowFixture(t)
	report := f.submit(t, f.dave)

	_, err := f.workflow.StartReview(context.Background(), f.admin, report.ID)
	assert.ErrorIs(t, err, ecoerr.ErrInvalidAssignment)
}

func TestStartReviewByAssignee(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()
	report := f.submit(t, f.dave)

	_, err := f.workflow.Assign(ctx, f.admin, report.ID, "bob")
	require.NoError(t, err)

	updated, err := f.workflow.StartReview(ctx, f.bob, report.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusInReview, updated.Status)

	// Another rescuer may not drive someone else's assignment.
	_, err = f.workflow.StartReview(ctx, f.carol, report.ID)
	assert.ErrorIs(t, err, ecoerr.ErrForbidden)
}

func TestResolveOnlyByAssignedRescuer(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()
	report := f.submit(t, f.dave)

	_, err := f.workflow.Assign(ctx, f.admin, report.ID, "carol")
	require.NoError(t, err)
	_, err = f.workflow.StartReview(ctx, f.carol, report.ID)
	require.NoError(t, err)

	// bob is a rescuer, but not the assignee.
	_, err = f.workflow.Resolve(ctx, f.bob, report.ID, models.ReportStatusReviewed)
	assert.ErrorIs(t, err, ecoerr.ErrForbidden)

	// The admin cannot resolve either; resolution belongs to the assignee.
	_, err = f.workflow.Resolve(ctx, f.admin, report.ID, models.ReportStatusRejected)
	assert.ErrorIs(t, err, ecoerr.ErrForbidden)

	updated, err := f.workflow.Resolve(ctx, f.carol, report.ID, models.ReportStatusReviewed)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusReviewed, updated.Status)

	// Resolution notifies the author.
	assert.NotEmpty(t, f.notifications.ListForUser(f.daveID))
}

func TestResolveRejectsNonTerminalStatus(t *testing.T) {
	f := newWorkflowFixture(t)
	report := f.submit(t, f.dave)

	_, err := f.workflow.Resolve(context.Background(), f.bob, report.ID, models.ReportStatusInReview)
	assert.Error(t, err)
}

func TestReopenFromTerminalIsAllowed(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()
	report := f.submit(t, f.dave)

	_, err := f.workflow.Assign(ctx, f.admin, report.ID, "bob")
	require.NoError(t, err)
	_, err = f.workflow.StartReview(ctx, f.bob, report.ID)
	require.NoError(t, err)
	_, err = f.workflow.Resolve(ctx, f.bob, report.ID, models.ReportStatusRejected)
	require.NoError(t, err)

	updated, err := f.workflow.StartReview(ctx, f.admin, report.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusInReview, updated.Status)
}

func TestVisibilityPartition(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()

	mine := f.submit(t, f.dave)
	other := f.submit(t, Actor{Username: "root", Role: models.RoleAdmin})

	_, err := f.workflow.Assign(ctx, f.admin, mine.ID, "bob")
	require.NoError(t, err)

	// Rescuer sees only assignments.
	bobList := f.workflow.List(ctx, f.bob)
	require.Len(t, bobList, 1)
	assert.Equal(t, mine.ID, bobList[0].ID)

	_, err = f.workflow.Get(ctx, f.bob, other.ID)
	assert.ErrorIs(t, err, ecoerr.ErrForbidden)

	// Citizen sees only own submissions.
	daveList := f.workflow.List(ctx, f.dave)
	require.Len(t, daveList, 1)
	assert.Equal(t, mine.ID, daveList[0].ID)

	_, err = f.workflow.Get(ctx, f.dave, other.ID)
	assert.ErrorIs(t, err, ecoerr.ErrForbidden)

	// Admin sees everything.
	assert.Len(t, f.workflow.List(ctx, f.admin), 2)
}

func TestAdminCommentsRequireAdmin(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()
	report := f.submit(t, f.dave)

	updated, err := f.workflow.SaveAdminComments(ctx, f.admin, report.ID, "checked by phone")
	require.NoError(t, err)
	assert.Equal(t, "checked by phone", updated.AdminComments)

	_, err = f.workflow.SaveAdminComments(ctx, f.dave, report.ID, "nope")
	assert.ErrorIs(t, err, ecoerr.ErrForbidden)
}

func TestAuthorUpdateCannotTouchLifecycleFields(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()
	report := f.submit(t, f.dave)

	updated, err := f.workflow.Update(ctx, f.dave, report.ID, map[string]any{"description": "more detail"})
	require.NoError(t, err)
	assert.Equal(t, "more detail", updated.Description)

	_, err = f.workflow.Update(ctx, f.dave, report.ID, map[string]any{"status": "reviewed"})
	assert.ErrorIs(t, err, ecoerr.ErrForbidden)

	other := f.submit(t, Actor{Username: "root", Role: models.RoleAdmin})
	_, err = f.workflow.Update(ctx, f.dave, other.ID, map[string]any{"description": "x"})
	assert.ErrorIs(t, err, ecoerr.ErrForbidden)
}

func TestDeleteUnknownReport(t *testing.T) {
	f := newWorkflowFixture(t)

	err := f.workflow.Delete(context.Background(), f.admin, "does-not-exist")
	assert.ErrorIs(t, err, ecoerr.ErrNotFound)
}

func TestDeleteByAuthorAndAdmin(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()

	mine := f.submit(t, f.dave)
	require.NoError(t, f.workflow.Delete(ctx, f.dave, mine.ID))

	other := f.submit(t, Actor{Username: "root", Role: models.RoleAdmin})
	assert.ErrorIs(t, f.workflow.Delete(ctx, f.dave, other.ID), ecoerr.ErrForbidden)
	require.NoError(t, f.workflow.Delete(ctx, f.admin, other.ID))
}
