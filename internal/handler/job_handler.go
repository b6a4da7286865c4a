package handler

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"jobtrackr/internal/auth"
	apperrors "jobtrackr/internal/errors"
	"jobtrackr/internal/model"
	"jobtrackr/internal/repository"
	"jobtrackr/internal/service"
)

const maxImportRows = 1000

// JobHandler handles job application endpoints. Every route runs behind the
// guard, so the acting user is always present on the context.
type JobHandler struct {
	jobService service.JobService
}

// NewJobHandler creates a new job handler.
func NewJobHandler(jobService service.JobService) *JobHandler {
	return &JobHandler{jobService: jobService}
}

// JobResponse wraps a single job with an acknowledgement.
type JobResponse struct {
	Message string           `json:"message"`
	Job     *service.JobView `json:"job"`
}

// JobListResponse is a listing of the user's jobs.
type JobListResponse struct {
	Count int               `json:"count"`
	Jobs  []service.JobView `json:"jobs"`
}

func currentUserID(c echo.Context) (uuid.UUID, error) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		return uuid.Nil, apperrors.ErrAuthRequired
	}
	return user.ID, nil
}

// jobID parses the :id path parameter. A malformed id cannot name any
// record, so it reads as not found.
func jobID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperrors.ErrJobNotFound
	}
	return id, nil
}

// CreateJob godoc
// @Summary Create a job application
// @Tags jobs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.CreateJobInput true "Job application"
// @Success 201 {object} JobResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /jobs [post]
func (h *JobHandler) CreateJob(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return fail(c, err)
	}

	var req service.CreateJobInput
	if err := bindAndValidate(c, &req); err != nil {
		return fail(c, err)
	}

	job, err := h.jobService.Create(c.Request().Context(), userID, req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, JobResponse{Message: "job application created", Job: job})
}

// ImportJobs godoc
// @Summary Bulk import job applications
// @Description Invalid rows are skipped and reported by index; valid rows are stored together.
// @Tags jobs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body []service.CreateJobInput true "Job applications"
// @Success 201 {object} service.ImportResult
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /jobs/import [post]
func (h *JobHandler) ImportJobs(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return fail(c, err)
	}

	var rows []service.CreateJobInput
	if err := c.Bind(&rows); err != nil {
		return fail(c, apperrors.NewValidationError("", "invalid request body"))
	}
	if len(rows) == 0 {
		return fail(c, apperrors.NewValidationError("", "at least one application is required"))
	}
	if len(rows) > maxImportRows {
		return fail(c, apperrors.NewValidationError("", "too many applications in one import"))
	}

	result, err := h.jobService.Import(c.Request().Context(), userID, rows)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, result)
}

// ListJobs godoc
// @Summary List job applications
// @Tags jobs
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status"
// @Param source query string false "Filter by source"
// @Param q query string false "Search company, position and location"
// @Param sort query string false "Sort key" Enums(-created_at, created_at, applied_date, -applied_date, follow_up_date, company)
// @Success 200 {object} JobListResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /jobs [get]
func (h *JobHandler) ListJobs(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return fail(c, err)
	}

	filter := repository.JobFilter{
		Status: model.Status(c.QueryParam("status")),
		Source: model.Source(c.QueryParam("source")),
		Query:  c.QueryParam("q"),
		Sort:   c.QueryParam("sort"),
	}
	jobs, err := h.jobService.List(c.Request().Context(), userID, filter)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, JobListResponse{Count: len(jobs), Jobs: jobs})
}

// GetJob godoc
// @Summary Get a job application
// @Tags jobs
// @Produce json
// @Security BearerAuth
// @Param id path string true "Job ID"
// @Success 200 {object} service.JobView
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /jobs/{id} [get]
func (h *JobHandler) GetJob(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return fail(c, err)
	}
	id, err := jobID(c)
	if err != nil {
		return fail(c, err)
	}

	job, err := h.jobService.Get(c.Request().Context(), userID, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, job)
}

// UpdateJob godoc
// @Summary Update a job application
// @Description Only the fields present in the body change; null clears optional fields.
// @Tags jobs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Job ID"
// @Param request body service.JobPatch true "Fields to change"
// @Success 200 {object} JobResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /jobs/{id} [put]
// @Router /jobs/{id} [patch]
func (h *JobHandler) UpdateJob(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return fail(c, err)
	}
	id, err := jobID(c)
	if err != nil {
		return fail(c, err)
	}

	var patch service.JobPatch
	if err := c.Bind(&patch); err != nil {
		return fail(c, apperrors.NewValidationError("", "invalid request body"))
	}

	job, err := h.jobService.Update(c.Request().Context(), userID, id, patch)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, JobResponse{Message: "job application updated", Job: job})
}

// DeleteJob godoc
// @Summary Delete a job application
// @Tags jobs
// @Produce json
// @Security BearerAuth
// @Param id path string true "Job ID"
// @Success 200 {object} MessageResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /jobs/{id} [delete]
func (h *JobHandler) DeleteJob(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return fail(c, err)
	}
	id, err := jobID(c)
	if err != nil {
		return fail(c, err)
	}

	if err := h.jobService.Delete(c.Request().Context(), userID, id); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "job application deleted"})
}

// Stats godoc
// @Summary Status counts
// @Tags jobs
// @Produce json
// @Security BearerAuth
// @Success 200 {object} stats.StatusSummary
// @Failure 401 {object} errors.ErrorResponse
// @Router /jobs/stats [get]
func (h *JobHandler) Stats(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return fail(c, err)
	}

	summary, err := h.jobService.Stats(c.Request().Context(), userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}

// Dashboard godoc
// @Summary Dashboard aggregates
// @Tags jobs
// @Produce json
// @Security BearerAuth
// @Param days query int false "Activity window in days (1-365)" default(30)
// @Success 200 {object} stats.Dashboard
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /jobs/dashboard [get]
func (h *JobHandler) Dashboard(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return fail(c, err)
	}

	days := 0
	if raw := c.QueryParam("days"); raw != "" {
		days, err = strconv.Atoi(raw)
		if err != nil || days == 0 {
			return fail(c, apperrors.NewValidationError("days", "must be an integer between 1 and 365"))
		}
	}

	dashboard, err := h.jobService.Dashboard(c.Request().Context(), userID, days)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, dashboard)
}
