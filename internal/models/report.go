package models

import "time"

type ReportStatus string

const (
	// ReportStatusUnset is the initial state of a freshly submitted report.
	ReportStatusUnset    ReportStatus = ""
	ReportStatusInReview ReportStatus = "in_review"
	ReportStatusReviewed ReportStatus = "reviewed"
	ReportStatusRejected ReportStatus = "rejected"
)

func (s ReportStatus) Terminal() bool {
	return s == ReportStatusReviewed || s == ReportStatusRejected
}

type Category string

const (
	CategoryIllegalLogging     Category = "illegal_logging"
	CategoryForestFire         Category = "forest_fire"
	CategoryWaterPollution     Category = "water_pollution"
	CategoryIllegalHunting     Category = "illegal_hunting"
	CategoryHabitatDestruction Category = "habitat_destruction"
	CategoryOther              Category = "other"
)

func ParseCategory(s string) (Category, bool) {
	switch Category(s) {
	case CategoryIllegalLogging, CategoryForestFire, CategoryWaterPollution,
		CategoryIllegalHunting, CategoryHabitatDestruction, CategoryOther:
		return Category(s), true
	}
	return CategoryOther, false
}

type Report struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	ReporterName string  `json:"reporterName"`
	// AuthorUsername identifies the submitting account. The upstream data
	// model left authorship untracked; ownership checks run against this.
	AuthorUsername string  `json:"authorUsername"`
	Phone          string  `json:"phone"`
	Description    string  `json:"description"`
	Address        string  `json:"address"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	Category       Category `json:"category"`
	// Image holds the opaque encoded blob when no object store is
	// configured; otherwise ImageKey references the stored object.
	Image           string       `json:"image,omitempty"`
	ImageKey        string       `json:"imageKey,omitempty"`
	Status          ReportStatus `json:"status"`
	IsSentToRescuer bool         `json:"isSentToRescuer"`
	AdminComments   string       `json:"adminComments"`
	AssignedTo      string       `json:"assignedTo"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       *time.Time   `json:"updatedAt,omitempty"`
}
