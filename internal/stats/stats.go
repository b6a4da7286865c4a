// Package stats derives dashboard aggregates from a user's job applications.
//
// Every function here is pure and total: records are assumed to be already
// scoped to one owner, and a record with unusable data simply contributes
// nothing to the affected bucket. "Today" is always the calendar date of the
// supplied now in now.Location(); time of day is ignored.
package stats

import (
	"time"

	"jobtrackr/internal/model"
)

// DefaultActivityDays is the window used by the dashboard when none is given.
const DefaultActivityDays = 30

// UpcomingHorizonDays is the inclusive horizon for the "upcoming" label.
const UpcomingHorizonDays = 3

// Urgency is a derived, never persisted follow-up label.
type Urgency string

const (
	UrgencyNone      Urgency = "none"
	UrgencyOverdue   Urgency = "overdue"
	UrgencyDueToday  Urgency = "due today"
	UrgencyUpcoming  Urgency = "upcoming"
	UrgencyScheduled Urgency = "scheduled"
)

// StatusSummary holds the per-status counts of a record collection.
//
// Records with a status outside the recognized set are counted as Applied
// and also tallied in Unrecognized, so the buckets always sum to Total.
type StatusSummary struct {
	Total        int                  `json:"total"`
	ByStatus     map[model.Status]int `json:"by_status"`
	Unrecognized int                  `json:"unrecognized"`
}

// SourceCount is one non-empty bucket of the source distribution.
type SourceCount struct {
	Source model.Source `json:"source"`
	Count  int          `json:"count"`
}

// DayCount is the number of applications sent on one calendar day.
type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// UrgencySummary counts records per follow-up urgency label.
type UrgencySummary struct {
	Overdue   int `json:"overdue"`
	DueToday  int `json:"due_today"`
	Upcoming  int `json:"upcoming"`
	Scheduled int `json:"scheduled"`
	None      int `json:"none"`
}

// Dashboard bundles every aggregate shown on the dashboard.
type Dashboard struct {
	GeneratedOn  string         `json:"generated_on"`
	Status       StatusSummary  `json:"status"`
	Sources      []SourceCount  `json:"sources"`
	Activity     []DayCount     `json:"activity"`
	FollowUps    UrgencySummary `json:"follow_ups"`
	ActivityDays int            `json:"activity_days"`
}

// CountByStatus buckets records by status.
func CountByStatus(jobs []model.JobApplication) StatusSummary {
	summary := StatusSummary{
		ByStatus: make(map[model.Status]int, len(model.Statuses)),
	}
	for _, s := range model.Statuses {
		summary.ByStatus[s] = 0
	}

	for _, job := range jobs {
		status := job.Status
		if !status.Valid() {
			status = model.StatusApplied
			summary.Unrecognized++
		}
		summary.ByStatus[status]++
		summary.Total++
	}
	return summary
}

// ClassifyFollowUp labels how soon the follow-up of job is due relative to now.
func ClassifyFollowUp(job model.JobApplication, now time.Time) Urgency {
	if job.Status.Terminal() {
		return UrgencyNone
	}
	if job.FollowUpDate == nil || job.FollowUpDate.IsZero() {
		return UrgencyNone
	}

	diff := daysBetween(now, *job.FollowUpDate, now.Location())
	switch {
	case diff < 0:
		return UrgencyOverdue
	case diff == 0:
		return UrgencyDueToday
	case diff <= UpcomingHorizonDays:
		return UrgencyUpcoming
	default:
		return UrgencyScheduled
	}
}

// CountByUrgency tallies the follow-up label of every record.
func CountByUrgency(jobs []model.JobApplication, now time.Time) UrgencySummary {
	var summary UrgencySummary
	for _, job := range jobs {
		switch ClassifyFollowUp(job, now) {
		case UrgencyOverdue:
			summary.Overdue++
		case UrgencyDueToday:
			summary.DueToday++
		case UrgencyUpcoming:
			summary.Upcoming++
		case UrgencyScheduled:
			summary.Scheduled++
		default:
			summary.None++
		}
	}
	return summary
}

// CountBySource returns the non-empty source buckets in display order.
// Unrecognized sources are counted as Other.
func CountBySource(jobs []model.JobApplication) []SourceCount {
	counts := make(map[model.Source]int, len(model.Sources))
	for _, job := range jobs {
		source := job.Source
		if !source.Valid() {
			source = model.SourceOther
		}
		counts[source]++
	}

	result := make([]SourceCount, 0, len(model.Sources))
	for _, source := range model.Sources {
		if n := counts[source]; n > 0 {
			result = append(result, SourceCount{Source: source, Count: n})
		}
	}
	return result
}

// Activity returns exactly days entries, oldest first, ending on the day of
// now, each holding the number of records applied on that day.
func Activity(jobs []model.JobApplication, now time.Time, days int) []DayCount {
	if days <= 0 {
		return []DayCount{}
	}

	loc := now.Location()
	today := dayNumber(now, loc)
	first := today - int64(days) + 1

	result := make([]DayCount, days)
	for i := range result {
		result[i].Date = dateOf(first + int64(i)).Format(time.DateOnly)
	}

	for _, job := range jobs {
		if job.AppliedDate.IsZero() {
			continue
		}
		day := dayNumber(job.AppliedDate, loc)
		if day < first || day > today {
			continue
		}
		result[day-first].Count++
	}
	return result
}

// BuildDashboard computes every dashboard aggregate in one pass over jobs.
func BuildDashboard(jobs []model.JobApplication, now time.Time, days int) Dashboard {
	if days <= 0 {
		days = DefaultActivityDays
	}
	return Dashboard{
		GeneratedOn:  now.Format(time.DateOnly),
		Status:       CountByStatus(jobs),
		Sources:      CountBySource(jobs),
		Activity:     Activity(jobs, now, days),
		FollowUps:    CountByUrgency(jobs, now),
		ActivityDays: days,
	}
}

// dayNumber maps t to a count of whole days since the Unix epoch, using the
// calendar date of t in loc.
func dayNumber(t time.Time, loc *time.Location) int64 {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / secondsPerDay
}

func dateOf(day int64) time.Time {
	return time.Unix(day*secondsPerDay, 0).UTC()
}

func daysBetween(from, to time.Time, loc *time.Location) int64 {
	return dayNumber(to, loc) - dayNumber(from, loc)
}

const secondsPerDay = 24 * 60 * 60
