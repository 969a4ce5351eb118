// Package service layers the report lifecycle rules on top of the
// repositories: assignment, review transitions, resolution, and the
// per-role visibility partition.
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"ecowatch/api/internal/ecoerr"
	"ecowatch/api/internal/models"
	"ecowatch/api/internal/repository"
	"ecowatch/api/internal/storage"
)

// Actor is the identity performing a workflow operation, taken from the
// current session.
type Actor struct {
	Username string
	Role     models.Role
}

type ReportWorkflow struct {
	reports       *repository.ReportRepository
	users         *repository.UserRepository
	notifications *repository.NotificationRepository
	images        *storage.ImageStore
	log           zerolog.Logger
}

func NewReportWorkflow(
	reports *repository.ReportRepository,
	users *repository.UserRepository,
	notifications *repository.NotificationRepository,
	images *storage.ImageStore,
	logger zerolog.Logger,
) *ReportWorkflow {
	return &ReportWorkflow{
		reports:       reports,
		users:         users,
		notifications: notifications,
		images:        images,
		log:           logger.With().Str("component", "workflow").Logger(),
	}
}

type CreateReportInput struct {
	Title        string
	ReporterName string
	Phone        string
	Description  string
	Address      string
	Latitude     *float64
	Longitude    *float64
	Category     models.Category
	Image        string
}

// Create submits a citizen report. Latitude and longitude must be set
// together (zero is a valid coordinate); a fresh report starts unset,
// unassigned and unsent.
func (w *ReportWorkflow) Create(ctx context.Context, actor Actor, input CreateReportInput) (models.Report, error) {
	if (input.Latitude == nil) != (input.Longitude == nil) {
		return models.Report{}, fmt.Errorf("latitude and longitude must be set together")
	}
	var lat, lon float64
	if input.Latitude != nil {
		lat, lon = *input.Latitude, *input.Longitude
	}

	category := input.Category
	if _, ok := models.ParseCategory(string(category)); !ok || category == "" {
		category = models.CategoryOther
	}

	report := models.Report{
		Title:           input.Title,
		ReporterName:    input.ReporterName,
		AuthorUsername:  actor.Username,
		Phone:           input.Phone,
		Description:     input.Description,
		Address:         input.Address,
		Latitude:        lat,
		Longitude:       lon,
		Category:        category,
		Image:           input.Image,
		Status:          models.ReportStatusUnset,
		IsSentToRescuer: false,
		AssignedTo:      "",
	}

	added, err := w.reports.Add(ctx, report)
	if err != nil {
		return models.Report{}, err
	}

	if w.images != nil && added.Image != "" {
		key, err := w.images.PutImage(ctx, added.ID, added.Image)
		if err != nil {
			w.log.Error().Err(err).Str("report", added.ID).Msg("image offload failed; keeping blob inline")
			return added, nil
		}
		return w.reports.Update(ctx, added.ID, map[string]any{"image": "", "imageKey": key})
	}

	return added, nil
}

// canSee implements the visibility partition: admins see everything,
// rescuers see their assignments, citizens see their own submissions.
func canSee(actor Actor, report models.Report) bool {
	switch actor.Role {
	case models.RoleAdmin:
		return true
	case models.RoleRescuer:
		return strings.EqualFold(report.AssignedTo, actor.Username)
	default:
		return strings.EqualFold(report.AuthorUsername, actor.Username)
	}
}

func (w *ReportWorkflow) List(ctx context.Context, actor Actor) []models.Report {
	switch actor.Role {
	case models.RoleAdmin:
		return w.reports.List()
	case models.RoleRescuer:
		return w.reports.ListAssignedTo(actor.Username)
	default:
		return w.reports.ListByAuthor(actor.Username)
	}
}

func (w *ReportWorkflow) Get(ctx context.Context, actor Actor, id string) (models.Report, error) {
	report, err := w.reports.GetByID(ctx, id)
	if err != nil {
		return models.Report{}, err
	}
	if !canSee(actor, report) {
		return models.Report{}, fmt.Errorf("report %s: %w", id, ecoerr.ErrForbidden)
	}
	return report, nil
}

// Assign binds a report to a rescuer and marks it sent. The assignee must
// resolve to an existing profile with the rescuer role.
func (w *ReportWorkflow) Assign(ctx context.Context, actor Actor, reportID, rescuerUsername string) (models.Report, error) {
	if actor.Role != models.RoleAdmin {
		return models.Report{}, fmt.Errorf("assign: %w", ecoerr.ErrForbidden)
	}

	if err := w.users.Sync(ctx); err != nil {
		return models.Report{}, err
	}
	rescuer, err := w.users.FindByUsername(ctx, rescuerUsername)
	if err != nil || rescuer.Role != models.RoleRescuer {
		return models.Report{}, fmt.Errorf("assign %q: %w", rescuerUsername, ecoerr.ErrInvalidAssignment)
	}

	updated, err := w.reports.Update(ctx, reportID, map[string]any{
		"assignedTo":      rescuer.Username,
		"isSentToRescuer": true,
	})
	if err != nil {
		return models.Report{}, err
	}

	w.notify(ctx, rescuer.ID, fmt.Sprintf("Report %q has been assigned to you.", updated.Title))
	w.log.Info().Str("report", reportID).Str("rescuer", rescuer.Username).Msg("report assigned")
	return updated, nil
}

// StartReview moves an assigned report into in_review. The assigning admin
// or the assigned rescuer may request it. Re-entering review from a
// terminal state is allowed but logged.
func (w *ReportWorkflow) StartReview(ctx context.Context, actor Actor, reportID string) (models.Report, error) {
	report, err := w.reports.GetByID(ctx, reportID)
	if err != nil {
		return models.Report{}, err
	}

	isAssignee := actor.Role == models.RoleRescuer && strings.EqualFold(report.AssignedTo, actor.Username)
	if actor.Role != models.RoleAdmin && !isAssignee {
		return models.Report{}, fmt.Errorf("start review: %w", ecoerr.ErrForbidden)
	}
	if !report.IsSentToRescuer || report.AssignedTo == "" {
		return models.Report{}, fmt.Errorf("start review on unassigned report: %w", ecoerr.ErrInvalidAssignment)
	}

	if report.Status.Terminal() {
		w.log.Warn().Str("report", reportID).
			Str("from", string(report.Status)).
			Str("actor", actor.Username).
			Msg("re-opening resolved report")
	}

	return w.reports.Update(ctx, reportID, map[string]any{"status": string(models.ReportStatusInReview)})
}

// Resolve transitions a report to reviewed or rejected. Only the assigned
// rescuer may do this; any other actor fails with Forbidden.
func (w *ReportWorkflow) Resolve(ctx context.Context, actor Actor, reportID string, status models.ReportStatus) (models.Report, error) {
	if !status.Terminal() {
		return models.Report{}, fmt.Errorf("resolve to %q: not a terminal status", status)
	}

	report, err := w.reports.GetByID(ctx, reportID)
	if err != nil {
		return models.Report{}, err
	}

	if actor.Role != models.RoleRescuer || !strings.EqualFold(report.AssignedTo, actor.Username) {
		return models.Report{}, fmt.Errorf("resolve report %s: %w", reportID, ecoerr.ErrForbidden)
	}

	updated, err := w.reports.Update(ctx, reportID, map[string]any{"status": string(status)})
	if err != nil {
		return models.Report{}, err
	}

	if author, err := w.users.FindByUsername(ctx, updated.AuthorUsername); err == nil {
		w.notify(ctx, author.ID, fmt.Sprintf("Your report %q was %s.", updated.Title, status))
	}
	w.log.Info().Str("report", reportID).Str("status", string(status)).Msg("report resolved")
	return updated, nil
}

// SaveAdminComments is an admin-only annotation.
func (w *ReportWorkflow) SaveAdminComments(ctx context.Context, actor Actor, reportID, comments string) (models.Report, error) {
	if actor.Role != models.RoleAdmin {
		return models.Report{}, fmt.Errorf("admin comments: %w", ecoerr.ErrForbidden)
	}
	return w.reports.Update(ctx, reportID, map[string]any{"adminComments": comments})
}

// lifecycle fields only the workflow may touch through its dedicated
// operations.
var restrictedFields = []string{"status", "assignedTo", "isSentToRescuer", "adminComments", "authorUsername"}

// Update applies a descriptive-field patch. Admins may patch any report;
// authors only their own, and never the lifecycle fields.
func (w *ReportWorkflow) Update(ctx context.Context, actor Actor, reportID string, patch map[string]any) (models.Report, error) {
	report, err := w.reports.GetByID(ctx, reportID)
	if err != nil {
		return models.Report{}, err
	}

	if actor.Role != models.RoleAdmin {
		if !strings.EqualFold(report.AuthorUsername, actor.Username) {
			return models.Report{}, fmt.Errorf("update report %s: %w", reportID, ecoerr.ErrForbidden)
		}
		for _, field := range restrictedFields {
			if _, present := patch[field]; present {
				return models.Report{}, fmt.Errorf("update field %s: %w", field, ecoerr.ErrForbidden)
			}
		}
	}

	return w.reports.Update(ctx, reportID, patch)
}

// Delete removes a report. Admins may delete any; authors their own.
func (w *ReportWorkflow) Delete(ctx context.Context, actor Actor, reportID string) error {
	report, err := w.reports.GetByID(ctx, reportID)
	if err != nil {
		return err
	}

	if actor.Role != models.RoleAdmin && !strings.EqualFold(report.AuthorUsername, actor.Username) {
		return fmt.Errorf("delete report %s: %w", reportID, ecoerr.ErrForbidden)
	}

	if err := w.reports.Delete(ctx, reportID); err != nil {
		return err
	}

	if w.images != nil && report.ImageKey != "" {
		if err := w.images.RemoveImage(ctx, report.ImageKey); err != nil {
			w.log.Warn().Err(err).Str("report", reportID).Msg("image cleanup failed")
		}
	}
	return nil
}

func (w *ReportWorkflow) notify(ctx context.Context, userID, message string) {
	if w.notifications == nil || userID == "" {
		return
	}
	_, err := w.notifications.Add(ctx, models.Notification{
		UserID:  userID,
		Message: message,
	})
	if err != nil {
		w.log.Warn().Err(err).Str("user", userID).Msg("notification write failed")
	}
}
