package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Status is the pipeline stage of a job application.
type Status string

const (
	StatusApplied    Status = "Applied"
	StatusOnlineTest Status = "Online Test"
	StatusInterview  Status = "Interview"
	StatusOffer      Status = "Offer"
	StatusRejected   Status = "Rejected"
)

// Statuses lists every recognized status in pipeline order.
var Statuses = []Status{
	StatusApplied,
	StatusOnlineTest,
	StatusInterview,
	StatusOffer,
	StatusRejected,
}

// Valid reports whether s is one of the recognized statuses.
func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether the pipeline has concluded for s.
func (s Status) Terminal() bool {
	return s == StatusOffer || s == StatusRejected
}

// Source is where the user found the job posting.
type Source string

const (
	SourceLinkedIn       Source = "LinkedIn"
	SourceNaukri         Source = "Naukri"
	SourceIndeed         Source = "Indeed"
	SourceCompanyWebsite Source = "Company Website"
	SourceReferral       Source = "Referral"
	SourceOther          Source = "Other"
)

// Sources lists every recognized source in display order.
var Sources = []Source{
	SourceLinkedIn,
	SourceNaukri,
	SourceIndeed,
	SourceCompanyWebsite,
	SourceReferral,
	SourceOther,
}

// Valid reports whether s is one of the recognized sources.
func (s Source) Valid() bool {
	for _, known := range Sources {
		if s == known {
			return true
		}
	}
	return false
}

// JobApplication is one entry in a user's application history.
type JobApplication struct {
	ID           uuid.UUID           `json:"id" gorm:"type:char(36);primaryKey"`
	UserID       uuid.UUID           `json:"user_id" gorm:"type:char(36);not null;index"`
	Company      string              `json:"company" gorm:"size:255;not null"`
	Position     string              `json:"position" gorm:"size:255;not null"`
	JobLink      string              `json:"job_link,omitempty" gorm:"size:2048"`
	Status       Status              `json:"status" gorm:"type:varchar(20);not null;default:'Applied';index"`
	Source       Source              `json:"source" gorm:"type:varchar(32);not null;default:'Other'"`
	AppliedDate  time.Time           `json:"applied_date" gorm:"not null;index"`
	FollowUpDate *time.Time          `json:"follow_up_date"`
	CTC          decimal.NullDecimal `json:"ctc" gorm:"type:decimal(20,2)"`
	Location     string              `json:"location,omitempty" gorm:"size:255"`
	Notes        string              `json:"notes,omitempty" gorm:"type:text"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`

	// Relations
	User User `json:"-" gorm:"foreignKey:UserID"`
}

// BeforeCreate sets UUID and the schema defaults before creating the record.
func (j *JobApplication) BeforeCreate(tx *gorm.DB) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	if j.Status == "" {
		j.Status = StatusApplied
	}
	if j.Source == "" {
		j.Source = SourceOther
	}
	if j.AppliedDate.IsZero() {
		j.AppliedDate = time.Now()
	}
	return nil
}
