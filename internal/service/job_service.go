package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"jobtrackr/internal/cache"
	apperrors "jobtrackr/internal/errors"
	"jobtrackr/internal/model"
	"jobtrackr/internal/repository"
	"jobtrackr/internal/stats"
)

const (
	statsCacheTTL    = 5 * time.Minute
	statsGenTTL      = 24 * time.Hour
	dateOnlyLayout   = "2006-01-02"
	maxDashboardDays = 365
	maxTextLength    = 255
	maxLinkLength    = 2048
)

// CreateJobInput is the payload for a new job application. Dates accept
// YYYY-MM-DD or RFC3339.
type CreateJobInput struct {
	Company      string           `json:"company" validate:"required,max=255"`
	Position     string           `json:"position" validate:"required,max=255"`
	JobLink      string           `json:"job_link,omitempty" validate:"max=2048"`
	Status       model.Status     `json:"status,omitempty" validate:"omitempty,job_status"`
	Source       model.Source     `json:"source,omitempty" validate:"omitempty,job_source"`
	AppliedDate  string           `json:"applied_date,omitempty"`
	FollowUpDate string           `json:"follow_up_date,omitempty"`
	CTC          *decimal.Decimal `json:"ctc,omitempty" swaggertype:"number"`
	Location     string           `json:"location,omitempty" validate:"max=255"`
	Notes        string           `json:"notes,omitempty"`
}

// JobPatch is a partial update. An absent field is left alone, an explicit
// null clears an optional field and is rejected for a required one.
type JobPatch struct {
	Company      model.Optional[string]          `json:"company" swaggertype:"string"`
	Position     model.Optional[string]          `json:"position" swaggertype:"string"`
	JobLink      model.Optional[string]          `json:"job_link" swaggertype:"string"`
	Status       model.Optional[model.Status]    `json:"status" swaggertype:"string"`
	Source       model.Optional[model.Source]    `json:"source" swaggertype:"string"`
	AppliedDate  model.Optional[string]          `json:"applied_date" swaggertype:"string"`
	FollowUpDate model.Optional[string]          `json:"follow_up_date" swaggertype:"string"`
	CTC          model.Optional[decimal.Decimal] `json:"ctc" swaggertype:"number"`
	Location     model.Optional[string]          `json:"location" swaggertype:"string"`
	Notes        model.Optional[string]          `json:"notes" swaggertype:"string"`
}

// Empty reports whether the patch names no field at all.
func (p JobPatch) Empty() bool {
	return !p.Company.Set && !p.Position.Set && !p.JobLink.Set && !p.Status.Set &&
		!p.Source.Set && !p.AppliedDate.Set && !p.FollowUpDate.Set && !p.CTC.Set &&
		!p.Location.Set && !p.Notes.Set
}

// JobView is a job application as returned to clients.
type JobView struct {
	model.JobApplication
	FollowUpUrgency stats.Urgency `json:"follow_up_urgency"`
}

// ImportError describes one rejected row of an import.
type ImportError struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

// ImportResult summarizes a bulk import.
type ImportResult struct {
	Imported int           `json:"imported"`
	Skipped  []ImportError `json:"skipped"`
}

// JobService exposes owner-scoped job application operations.
type JobService interface {
	Create(ctx context.Context, userID uuid.UUID, in CreateJobInput) (*JobView, error)
	List(ctx context.Context, userID uuid.UUID, filter repository.JobFilter) ([]JobView, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*JobView, error)
	Update(ctx context.Context, userID, id uuid.UUID, patch JobPatch) (*JobView, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	Stats(ctx context.Context, userID uuid.UUID) (*stats.StatusSummary, error)
	Dashboard(ctx context.Context, userID uuid.UUID, days int) (*stats.Dashboard, error)
	Import(ctx context.Context, userID uuid.UUID, inputs []CreateJobInput) (*ImportResult, error)
}

// statsCache is the slice of the Redis client the stats summary needs.
type statsCache interface {
	GetJSON(ctx context.Context, key string, out interface{}) bool
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Counter(ctx context.Context, key string) int64
	Incr(ctx context.Context, key string, ttl time.Duration) error
}

type jobService struct {
	repo  repository.JobRepository
	cache statsCache
	loc   *time.Location
	now   func() time.Time
}

// NewJobService builds a JobService. loc defines the calendar "today" used
// for follow-up urgency and activity windows.
func NewJobService(repo repository.JobRepository, cache *cache.Client, loc *time.Location) JobService {
	if loc == nil {
		loc = time.UTC
	}
	return &jobService{repo: repo, cache: cache, loc: loc, now: time.Now}
}

func (s *jobService) today() time.Time {
	return s.now().In(s.loc)
}

func statsGenKey(userID uuid.UUID) string {
	return "stats:gen:" + userID.String()
}

func statsCacheKey(userID uuid.UUID, gen int64) string {
	return fmt.Sprintf("stats:%s:%d", userID, gen)
}

// invalidate moves the user to a new stats generation. A summary computed
// before the write lands under the old generation and is never read again.
func (s *jobService) invalidate(ctx context.Context, userID uuid.UUID) {
	_ = s.cache.Incr(ctx, statsGenKey(userID), statsGenTTL)
}

func (s *jobService) view(job model.JobApplication, now time.Time) JobView {
	return JobView{JobApplication: job, FollowUpUrgency: stats.ClassifyFollowUp(job, now)}
}

// Create validates in and stores a new application for userID.
func (s *jobService) Create(ctx context.Context, userID uuid.UUID, in CreateJobInput) (*JobView, error) {
	job, err := s.build(userID, in)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	s.invalidate(ctx, userID)

	v := s.view(*job, s.today())
	return &v, nil
}

// build turns in into a record without touching storage.
func (s *jobService) build(userID uuid.UUID, in CreateJobInput) (*model.JobApplication, error) {
	company, err := requiredText("company", in.Company)
	if err != nil {
		return nil, err
	}
	position, err := requiredText("position", in.Position)
	if err != nil {
		return nil, err
	}

	jobLink, err := optionalText("job_link", in.JobLink, maxLinkLength)
	if err != nil {
		return nil, err
	}
	location, err := optionalText("location", in.Location, maxTextLength)
	if err != nil {
		return nil, err
	}

	job := &model.JobApplication{
		UserID:   userID,
		Company:  company,
		Position: position,
		JobLink:  jobLink,
		Status:   model.StatusApplied,
		Source:   model.SourceOther,
		Location: location,
		Notes:    strings.TrimSpace(in.Notes),
	}

	if in.Status != "" {
		if !in.Status.Valid() {
			return nil, invalidStatus()
		}
		job.Status = in.Status
	}
	if in.Source != "" {
		if !in.Source.Valid() {
			return nil, invalidSource()
		}
		job.Source = in.Source
	}

	job.AppliedDate = s.today()
	if strings.TrimSpace(in.AppliedDate) != "" {
		if job.AppliedDate, err = s.parseDate("applied_date", in.AppliedDate); err != nil {
			return nil, err
		}
	}
	if strings.TrimSpace(in.FollowUpDate) != "" {
		followUp, err := s.parseDate("follow_up_date", in.FollowUpDate)
		if err != nil {
			return nil, err
		}
		job.FollowUpDate = &followUp
	}
	if in.CTC != nil {
		if in.CTC.IsNegative() {
			return nil, negativeCTC()
		}
		job.CTC = decimal.NewNullDecimal(*in.CTC)
	}
	return job, nil
}

// List returns the user's applications matching filter.
func (s *jobService) List(ctx context.Context, userID uuid.UUID, filter repository.JobFilter) ([]JobView, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, invalidStatus()
	}
	if filter.Source != "" && !filter.Source.Valid() {
		return nil, invalidSource()
	}
	if filter.Sort == "" {
		filter.Sort = repository.DefaultJobSort
	}
	if !repository.ValidJobSort(filter.Sort) {
		return nil, apperrors.NewValidationError("sort", "must be one of "+strings.Join(repository.JobSortKeys(), ", "))
	}

	jobs, err := s.repo.ListByOwner(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}

	now := s.today()
	views := make([]JobView, 0, len(jobs))
	for _, job := range jobs {
		views = append(views, s.view(job, now))
	}
	return views, nil
}

// Get returns one of the user's applications.
func (s *jobService) Get(ctx context.Context, userID, id uuid.UUID) (*JobView, error) {
	job, err := s.find(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	v := s.view(*job, s.today())
	return &v, nil
}

func (s *jobService) find(ctx context.Context, userID, id uuid.UUID) (*model.JobApplication, error) {
	job, err := s.repo.FindByIDAndOwner(ctx, id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrJobNotFound
		}
		return nil, fmt.Errorf("find job: %w", err)
	}
	return job, nil
}

// Update validates patch, merges it into the stored record and saves it.
func (s *jobService) Update(ctx context.Context, userID, id uuid.UUID, patch JobPatch) (*JobView, error) {
	job, err := s.find(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		v := s.view(*job, s.today())
		return &v, nil
	}

	if err := s.apply(job, patch); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, job); err != nil {
		return nil, fmt.Errorf("update job: %w", err)
	}
	s.invalidate(ctx, userID)

	v := s.view(*job, s.today())
	return &v, nil
}

// apply validates every present field before mutating job, so a rejected
// patch leaves job untouched.
func (s *jobService) apply(job *model.JobApplication, p JobPatch) error {
	next := *job

	if p.Company.Set {
		if p.Company.Null {
			return apperrors.NewValidationError("company", "cannot be null")
		}
		v, err := requiredText("company", p.Company.Value)
		if err != nil {
			return err
		}
		next.Company = v
	}
	if p.Position.Set {
		if p.Position.Null {
			return apperrors.NewValidationError("position", "cannot be null")
		}
		v, err := requiredText("position", p.Position.Value)
		if err != nil {
			return err
		}
		next.Position = v
	}
	if p.Status.Set {
		if p.Status.Null || !p.Status.Value.Valid() {
			return invalidStatus()
		}
		next.Status = p.Status.Value
	}
	if p.Source.Set {
		if p.Source.Null || !p.Source.Value.Valid() {
			return invalidSource()
		}
		next.Source = p.Source.Value
	}
	if p.AppliedDate.Set {
		if p.AppliedDate.Null || strings.TrimSpace(p.AppliedDate.Value) == "" {
			return apperrors.NewValidationError("applied_date", "cannot be cleared")
		}
		t, err := s.parseDate("applied_date", p.AppliedDate.Value)
		if err != nil {
			return err
		}
		next.AppliedDate = t
	}
	if p.FollowUpDate.Set {
		if p.FollowUpDate.Null || strings.TrimSpace(p.FollowUpDate.Value) == "" {
			next.FollowUpDate = nil
		} else {
			t, err := s.parseDate("follow_up_date", p.FollowUpDate.Value)
			if err != nil {
				return err
			}
			next.FollowUpDate = &t
		}
	}
	if p.CTC.Set {
		if p.CTC.Null {
			next.CTC = decimal.NullDecimal{}
		} else {
			if p.CTC.Value.IsNegative() {
				return negativeCTC()
			}
			next.CTC = decimal.NewNullDecimal(p.CTC.Value)
		}
	}
	if p.JobLink.Set {
		v, err := optionalText("job_link", p.JobLink.Value, maxLinkLength)
		if err != nil {
			return err
		}
		next.JobLink = v
	}
	if p.Location.Set {
		v, err := optionalText("location", p.Location.Value, maxTextLength)
		if err != nil {
			return err
		}
		next.Location = v
	}
	if p.Notes.Set {
		next.Notes = strings.TrimSpace(p.Notes.Value)
	}

	*job = next
	return nil
}

// Delete permanently removes one of the user's applications.
func (s *jobService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.repo.DeleteByIDAndOwner(ctx, id, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrJobNotFound
		}
		return fmt.Errorf("delete job: %w", err)
	}
	s.invalidate(ctx, userID)
	return nil
}

// Stats returns the user's status summary, served from Redis when a fresh
// copy exists.
func (s *jobService) Stats(ctx context.Context, userID uuid.UUID) (*stats.StatusSummary, error) {
	key := statsCacheKey(userID, s.cache.Counter(ctx, statsGenKey(userID)))

	var cached stats.StatusSummary
	if s.cache.GetJSON(ctx, key, &cached) && cached.ByStatus != nil {
		return &cached, nil
	}

	jobs, err := s.repo.ListByOwner(ctx, userID, repository.JobFilter{})
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	summary := stats.CountByStatus(jobs)

	_ = s.cache.SetJSON(ctx, key, summary, statsCacheTTL)
	return &summary, nil
}

// Dashboard aggregates all of the user's applications over an activity
// window of days ending today.
func (s *jobService) Dashboard(ctx context.Context, userID uuid.UUID, days int) (*stats.Dashboard, error) {
	if days == 0 {
		days = stats.DefaultActivityDays
	}
	if days < 1 || days > maxDashboardDays {
		return nil, apperrors.NewValidationError("days", fmt.Sprintf("must be between 1 and %d", maxDashboardDays))
	}

	jobs, err := s.repo.ListByOwner(ctx, userID, repository.JobFilter{})
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	dashboard := stats.BuildDashboard(jobs, s.today(), days)
	return &dashboard, nil
}

// Import validates every row and stores the valid ones in one batch.
// Invalid rows are reported and skipped.
func (s *jobService) Import(ctx context.Context, userID uuid.UUID, inputs []CreateJobInput) (*ImportResult, error) {
	result := &ImportResult{Skipped: []ImportError{}}
	jobs := make([]*model.JobApplication, 0, len(inputs))
	for i, in := range inputs {
		job, err := s.build(userID, in)
		if err != nil {
			result.Skipped = append(result.Skipped, ImportError{Index: i, Error: err.Error()})
			continue
		}
		jobs = append(jobs, job)
	}

	if err := s.repo.CreateBatch(ctx, jobs); err != nil {
		return nil, fmt.Errorf("import jobs: %w", err)
	}
	result.Imported = len(jobs)
	if result.Imported > 0 {
		s.invalidate(ctx, userID)
	}
	return result, nil
}

// parseDate accepts RFC3339 timestamps and plain dates; plain dates are
// midnight in the service location.
func (s *jobService) parseDate(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(dateOnlyLayout, value, s.loc); err == nil {
		return t, nil
	}
	return time.Time{}, apperrors.NewValidationError(field, "must be a date in YYYY-MM-DD or RFC3339 format")
}

func requiredText(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", apperrors.NewValidationError(field, "is required")
	}
	return optionalText(field, value, maxTextLength)
}

// optionalText trims value and enforces the column width in characters.
func optionalText(field, value string, limit int) (string, error) {
	value = strings.TrimSpace(value)
	if utf8.RuneCountInString(value) > limit {
		return "", apperrors.NewValidationError(field, fmt.Sprintf("must be at most %d characters", limit))
	}
	return value, nil
}

func invalidStatus() error {
	return apperrors.NewValidationError("status", "must be one of "+joinStatuses())
}

func invalidSource() error {
	return apperrors.NewValidationError("source", "must be one of "+joinSources())
}

func negativeCTC() error {
	return apperrors.NewValidationError("ctc", "must not be negative")
}

func joinStatuses() string {
	names := make([]string, len(model.Statuses))
	for i, st := range model.Statuses {
		names[i] = string(st)
	}
	return strings.Join(names, ", ")
}

func joinSources() string {
	names := make([]string, len(model.Sources))
	for i, src := range model.Sources {
		names[i] = string(src)
	}
	return strings.Join(names, ", ")
}
