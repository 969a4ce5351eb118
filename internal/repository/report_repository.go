package repository

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"ecowatch/api/internal/models"
	"ecowatch/api/internal/store"
)

const reportPrefix = "report_"

// ReportRepository lists newest-first and evicts the oldest reports once
// the configured capacity is exceeded.
type ReportRepository struct {
	*Repository[models.Report]
}

func NewReportRepository(ctx context.Context, kv store.KV, logger zerolog.Logger, capacity int) (*ReportRepository, error) {
	core, err := New(ctx, kv, logger, Config[models.Report]{
		Prefix:      reportPrefix,
		Capacity:    capacity,
		NewestFirst: true,
		ID:          func(rep *models.Report) string { return rep.ID },
		SetID:       func(rep *models.Report, id string) { rep.ID = id },
		CreatedAt:   func(rep *models.Report) time.Time { return rep.CreatedAt },
		SetCreatedAt: func(rep *models.Report, t time.Time) { rep.CreatedAt = t },
		Normalize: func(rep *models.Report) {
			if rep.Category == "" {
				rep.Category = models.CategoryOther
			}
		},
	})
	if err != nil {
		return nil, err
	}
	return &ReportRepository{Repository: core}, nil
}

// ListByAuthor returns the reports submitted by the given account.
func (r *ReportRepository) ListByAuthor(username string) []models.Report {
	var out []models.Report
	for _, rep := range r.List() {
		if strings.EqualFold(rep.AuthorUsername, username) {
			out = append(out, rep)
		}
	}
	return out
}

// ListAssignedTo returns the reports bound to the given rescuer.
func (r *ReportRepository) ListAssignedTo(username string) []models.Report {
	var out []models.Report
	for _, rep := range r.List() {
		if strings.EqualFold(rep.AssignedTo, username) {
			out = append(out, rep)
		}
	}
	return out
}
