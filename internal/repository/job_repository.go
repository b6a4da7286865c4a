package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"jobtrackr/internal/model"
)

// DefaultJobSort is the ordering used when a filter names none.
const DefaultJobSort = "-created_at"

// jobOrders maps the accepted sort keys to ORDER BY clauses. Ties always
// break on newest first then id so listings are stable.
var jobOrders = map[string]string{
	"-created_at":    "created_at DESC, id ASC",
	"created_at":     "created_at ASC, id ASC",
	"applied_date":   "applied_date ASC, created_at DESC, id ASC",
	"-applied_date":  "applied_date DESC, created_at DESC, id ASC",
	"follow_up_date": "follow_up_date IS NULL, follow_up_date ASC, created_at DESC, id ASC",
	"company":        "LOWER(company) ASC, created_at DESC, id ASC",
}

// ValidJobSort reports whether key is an accepted sort key.
func ValidJobSort(key string) bool {
	_, ok := jobOrders[key]
	return ok
}

// JobSortKeys lists the accepted sort keys.
func JobSortKeys() []string {
	return []string{"-created_at", "created_at", "applied_date", "-applied_date", "follow_up_date", "company"}
}

// JobFilter narrows an owner-scoped listing. Zero values mean no filter.
type JobFilter struct {
	Status model.Status
	Source model.Source
	Query  string
	Sort   string
}

// JobRepository defines job application persistence. Every read and write
// is scoped to the owning user.
type JobRepository interface {
	Create(ctx context.Context, job *model.JobApplication) error
	CreateBatch(ctx context.Context, jobs []*model.JobApplication) error
	ListByOwner(ctx context.Context, userID uuid.UUID, filter JobFilter) ([]model.JobApplication, error)
	FindByIDAndOwner(ctx context.Context, id, userID uuid.UUID) (*model.JobApplication, error)
	Update(ctx context.Context, job *model.JobApplication) error
	DeleteByIDAndOwner(ctx context.Context, id, userID uuid.UUID) error
}

type jobRepository struct {
	db *gorm.DB
}

// likeEscaper makes a search term match literally. '!' is the escape
// character because a backslash literal is read differently by MySQL and
// Postgres.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// NewJobRepository creates a new job application repository.
func NewJobRepository(db *gorm.DB) JobRepository {
	return &jobRepository{db: db}
}

// Create inserts a new job application.
func (r *jobRepository) Create(ctx context.Context, job *model.JobApplication) error {
	return r.db.WithContext(ctx).Create(job).Error
}

// CreateBatch inserts all jobs in one transaction.
func (r *jobRepository) CreateBatch(ctx context.Context, jobs []*model.JobApplication) error {
	if len(jobs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(jobs, 100).Error
	})
}

// ListByOwner returns the user's applications matching filter.
func (r *jobRepository) ListByOwner(ctx context.Context, userID uuid.UUID, filter JobFilter) ([]model.JobApplication, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Source != "" {
		query = query.Where("source = ?", filter.Source)
	}
	if q := strings.ToLower(strings.TrimSpace(filter.Query)); q != "" {
		pattern := "%" + likeEscaper.Replace(q) + "%"
		query = query.Where("LOWER(company) LIKE ? ESCAPE '!' OR LOWER(position) LIKE ? ESCAPE '!' OR LOWER(location) LIKE ? ESCAPE '!'", pattern, pattern, pattern)
	}

	order, ok := jobOrders[filter.Sort]
	if !ok {
		order = jobOrders[DefaultJobSort]
	}

	jobs := []model.JobApplication{}
	if err := query.Order(order).Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// FindByIDAndOwner returns gorm.ErrRecordNotFound both for a missing id and
// for an id owned by someone else.
func (r *jobRepository) FindByIDAndOwner(ctx context.Context, id, userID uuid.UUID) (*model.JobApplication, error) {
	var job model.JobApplication
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&job).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// Update writes every mutable column of job. Ownership and identity columns
// are never rewritten. Callers load the record through FindByIDAndOwner
// first; MySQL reports zero affected rows for an unchanged row, so the
// count is not a reliable existence check here.
func (r *jobRepository) Update(ctx context.Context, job *model.JobApplication) error {
	return r.db.WithContext(ctx).Model(job).
		Where("user_id = ?", job.UserID).
		Select("*").
		Omit("id", "user_id", "created_at", "User").
		Updates(job).Error
}

// DeleteByIDAndOwner permanently removes the application.
func (r *jobRepository) DeleteByIDAndOwner(ctx context.Context, id, userID uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&model.JobApplication{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
