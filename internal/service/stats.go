package service

import (
	"time"

	"ecowatch/api/internal/models"
	"ecowatch/api/internal/repository"
)

// AdminStats aggregates the dashboard figures over users and reports.
type AdminStats struct {
	TotalUsers           int            `json:"totalUsers"`
	Rescuers             int            `json:"rescuers"`
	RegularUsers         int            `json:"regularUsers"`
	SignupsToday         int            `json:"signupsToday"`
	SignupsThisWeek      int            `json:"signupsThisWeek"`
	SignupsThisMonth     int            `json:"signupsThisMonth"`
	TotalReports         int            `json:"totalReports"`
	ReportsInReview      int            `json:"reportsInReview"`
	ReportsReviewed      int            `json:"reportsReviewed"`
	ReportsRejected      int            `json:"reportsRejected"`
	AssignedReports      int            `json:"assignedReports"`
	ReportsByCategory    map[string]int `json:"reportsByCategory"`
	AvgReviewHours       float64        `json:"avgReviewHours"`
}

type StatsService struct {
	users   *repository.UserRepository
	reports *repository.ReportRepository
}

func NewStatsService(users *repository.UserRepository, reports *repository.ReportRepository) *StatsService {
	return &StatsService{users: users, reports: reports}
}

func (s *StatsService) Compute() AdminStats {
	now := time.Now()
	dayAgo := now.AddDate(0, 0, -1)
	weekAgo := now.AddDate(0, 0, -7)
	monthAgo := now.AddDate(0, -1, 0)

	stats := AdminStats{ReportsByCategory: map[string]int{}}

	for _, user := range s.users.List() {
		stats.TotalUsers++
		switch user.Role {
		case models.RoleRescuer:
			stats.Rescuers++
		case models.RoleUser:
			stats.RegularUsers++
		}
		if user.CreatedAt.After(dayAgo) {
			stats.SignupsToday++
		}
		if user.CreatedAt.After(weekAgo) {
			stats.SignupsThisWeek++
		}
		if user.CreatedAt.After(monthAgo) {
			stats.SignupsThisMonth++
		}
	}

	var reviewed int
	var reviewHours float64
	for _, report := range s.reports.List() {
		stats.TotalReports++
		stats.ReportsByCategory[string(report.Category)]++
		switch report.Status {
		case models.ReportStatusInReview:
			stats.ReportsInReview++
		case models.ReportStatusReviewed:
			stats.ReportsReviewed++
		case models.ReportStatusRejected:
			stats.ReportsRejected++
		}
		if report.AssignedTo != "" {
			stats.AssignedReports++
		}
		if report.Status == models.ReportStatusReviewed && report.UpdatedAt != nil {
			reviewed++
			reviewHours += report.UpdatedAt.Sub(report.CreatedAt).Hours()
		}
	}
	if reviewed > 0 {
		stats.AvgReviewHours = reviewHours / float64(reviewed)
	}

	return stats
}
