package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"jobtrackr/internal/auth"
	"jobtrackr/internal/config"
	"jobtrackr/internal/db"
	apperrors "jobtrackr/internal/errors"
	"jobtrackr/internal/handler"
	"jobtrackr/internal/model"
	"jobtrackr/internal/repository"
	"jobtrackr/internal/service"
)

type testServer struct {
	e  *echo.Echo
	db *gorm.DB
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gormDB, err := db.Open("sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))
	t.Cleanup(func() {
		if sqlDB, err := gormDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	users := repository.NewUserRepository(gormDB)
	jobs := repository.NewJobRepository(gormDB)
	jwtService := auth.NewJWTService("e2e-secret", time.Hour, time.Hour)
	tokens := auth.NewTokenStore(nil)

	e := echo.New()
	Register(e, &config.Config{CORSOrigins: []string{"*"}}, Handlers{
		Auth: handler.NewAuthHandler(service.NewAuthService(users, jwtService, tokens)),
		User: handler.NewUserHandler(service.NewUserService(users, nil)),
		Job:  handler.NewJobHandler(service.NewJobService(jobs, nil, time.UTC)),
	}, auth.Guard(jwtService, tokens, users))

	return &testServer{e: e, db: gormDB}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp apperrors.ErrorResponse
	decode(t, rec, &resp)
	return resp.Code
}

func (s *testServer) register(t *testing.T, email string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Test User", "email": email, "password": "secret123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp handler.AuthResponse
	decode(t, rec, &resp)
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func (s *testServer) createJob(t *testing.T, token string, body map[string]interface{}) service.JobView {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/jobs", token, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp struct {
		Job service.JobView `json:"job"`
	}
	decode(t, rec, &resp)
	return resp.Job
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "ada@example.com")

	t.Run("duplicate registration", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
			"name": "Again", "email": "ADA@example.com", "password": "secret123",
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "USER_ALREADY_EXISTS", errorCode(t, rec))

		var count int64
		require.NoError(t, s.db.Model(&model.User{}).Count(&count).Error)
		assert.EqualValues(t, 1, count)
	})

	t.Run("registration validation", func(t *testing.T) {
		for _, body := range []map[string]string{
			{"email": "x@example.com", "password": "secret123"},
			{"name": "X", "email": "not-an-email", "password": "secret123"},
			{"name": "X", "email": "x@example.com", "password": "123"},
		} {
			rec := s.do(t, http.MethodPost, "/api/auth/register", "", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "VALIDATION_ERROR", errorCode(t, rec))
		}
	})

	t.Run("login", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
			"email": "ada@example.com", "password": "secret123",
		})
		require.Equal(t, http.StatusOK, rec.Code)
		var resp handler.AuthResponse
		decode(t, rec, &resp)
		assert.NotEmpty(t, resp.Token)
		assert.NotContains(t, rec.Body.String(), "password")

		me := s.do(t, http.MethodGet, "/api/me", resp.Token, nil)
		assert.Equal(t, http.StatusOK, me.Code)
		assert.Contains(t, me.Body.String(), "ada@example.com")
	})

	t.Run("wrong password and unknown email look alike", func(t *testing.T) {
		wrong := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ada@example.com", "password": "nope-nope"})
		unknown := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "bob@example.com", "password": "nope-nope"})
		assert.Equal(t, http.StatusUnauthorized, wrong.Code)
		assert.Equal(t, wrong.Code, unknown.Code)
		assert.Equal(t, wrong.Body.String(), unknown.Body.String())
	})
}

func TestJobsRequireAuth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/jobs", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "AUTH_REQUIRED", errorCode(t, rec))

	rec = s.do(t, http.MethodGet, "/api/jobs", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_TOKEN", errorCode(t, rec))
}

func TestCreateJobValidation(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "ada@example.com")

	for _, body := range []map[string]interface{}{
		{"position": "Engineer"},
		{"company": "Acme"},
		{"company": "   ", "position": "Engineer"},
		{"company": "Acme", "position": "Engineer", "status": "Ghosted"},
		{"company": "Acme", "position": "Engineer", "ctc": -10},
	} {
		rec := s.do(t, http.MethodPost, "/api/jobs", token, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, "VALIDATION_ERROR", errorCode(t, rec))
	}

	var count int64
	require.NoError(t, s.db.Model(&model.JobApplication{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestJobLifecycle(t *testing.T) {
	s := newTestServer(t)
	alice := s.register(t, "alice@example.com")
	bob := s.register(t, "bob@example.com")

	job := s.createJob(t, alice, map[string]interface{}{"company": "Acme", "position": "Engineer", "source": "LinkedIn"})
	assert.Equal(t, model.StatusApplied, job.Status)
	assert.Equal(t, "none", string(job.FollowUpUrgency))
	s.createJob(t, alice, map[string]interface{}{"company": "Globex", "position": "SRE", "status": "Interview"})

	path := "/api/jobs/" + job.ID.String()

	t.Run("list", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/jobs?sort=company", alice, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp handler.JobListResponse
		decode(t, rec, &resp)
		assert.Equal(t, 2, resp.Count)
		assert.Equal(t, "Acme", resp.Jobs[0].Company)

		rec = s.do(t, http.MethodGet, "/api/jobs?sort=salary", alice, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("other user's job is indistinguishable from a missing one", func(t *testing.T) {
		foreign := s.do(t, http.MethodGet, path, bob, nil)
		missing := s.do(t, http.MethodGet, "/api/jobs/00000000-0000-0000-0000-000000000000", bob, nil)
		malformed := s.do(t, http.MethodGet, "/api/jobs/not-a-uuid", bob, nil)

		for _, rec := range []*httptest.ResponseRecorder{foreign, missing, malformed} {
			assert.Equal(t, http.StatusNotFound, rec.Code)
			assert.Equal(t, "JOB_NOT_FOUND", errorCode(t, rec))
		}
		assert.Equal(t, foreign.Body.String(), missing.Body.String())

		assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPatch, path, bob, map[string]string{"status": "Offer"}).Code)
		assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, path, bob, nil).Code)

		rec := s.do(t, http.MethodGet, "/api/jobs", bob, nil)
		var resp handler.JobListResponse
		decode(t, rec, &resp)
		assert.Zero(t, resp.Count)
		assert.NotNil(t, resp.Jobs)
	})

	t.Run("patch", func(t *testing.T) {
		rec := s.do(t, http.MethodPatch, path, alice, map[string]interface{}{"status": "Online Test", "follow_up_date": "2099-01-01"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var resp struct {
			Job service.JobView `json:"job"`
		}
		decode(t, rec, &resp)
		assert.Equal(t, model.StatusOnlineTest, resp.Job.Status)
		assert.Equal(t, "scheduled", string(resp.Job.FollowUpUrgency))
		assert.Equal(t, "Acme", resp.Job.Company)

		rec = s.do(t, http.MethodPut, path, alice, map[string]interface{}{"company": nil})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("over-long fields are rejected on every write path", func(t *testing.T) {
		long := strings.Repeat("a", 300)

		rec := s.do(t, http.MethodPost, "/api/jobs", alice, map[string]interface{}{"company": long, "position": "Dev"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "VALIDATION_ERROR", errorCode(t, rec))

		for _, method := range []string{http.MethodPatch, http.MethodPut} {
			rec = s.do(t, method, path, alice, map[string]interface{}{"company": long})
			assert.Equal(t, http.StatusBadRequest, rec.Code, method)
			assert.Equal(t, "VALIDATION_ERROR", errorCode(t, rec), method)
		}

		rec = s.do(t, http.MethodGet, path, alice, nil)
		var resp struct {
			Job service.JobView `json:"job"`
		}
		decode(t, rec, &resp)
		assert.Equal(t, "Acme", resp.Job.Company)
	})

	t.Run("delete is reflected in stats", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/jobs/stats", alice, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var before struct {
			Total    int            `json:"total"`
			ByStatus map[string]int `json:"by_status"`
		}
		decode(t, rec, &before)
		assert.Equal(t, 2, before.Total)
		assert.Equal(t, 1, before.ByStatus["Online Test"])

		rec = s.do(t, http.MethodDelete, path, alice, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = s.do(t, http.MethodGet, "/api/jobs/stats", alice, nil)
		var after struct {
			Total    int            `json:"total"`
			ByStatus map[string]int `json:"by_status"`
		}
		decode(t, rec, &after)
		assert.Equal(t, 1, after.Total)
		assert.Equal(t, 0, after.ByStatus["Online Test"])
		assert.Equal(t, 1, after.ByStatus["Interview"])

		assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, path, alice, nil).Code)
	})

	t.Run("import", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/jobs/import", bob, []map[string]interface{}{
			{"company": "Initech", "position": "QA"},
			{"position": "No company"},
			{"company": strings.Repeat("a", 300), "position": "QA"},
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var result service.ImportResult
		decode(t, rec, &result)
		assert.Equal(t, 1, result.Imported)
		require.Len(t, result.Skipped, 2)
		assert.Equal(t, 1, result.Skipped[0].Index)
		assert.Equal(t, 2, result.Skipped[1].Index)
		assert.Contains(t, result.Skipped[1].Error, "must be at most 255 characters")

		assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/api/jobs/import", bob, []map[string]interface{}{}).Code)
	})

	t.Run("dashboard", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/jobs/dashboard?days=7", alice, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var dashboard struct {
			Activity []struct {
				Count int `json:"count"`
			} `json:"activity"`
		}
		decode(t, rec, &dashboard)
		require.Len(t, dashboard.Activity, 7)
		assert.Equal(t, 1, dashboard.Activity[6].Count)

		assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/jobs/dashboard?days=0", alice, nil).Code)
		assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/jobs/dashboard?days=abc", alice, nil).Code)
	})
}
