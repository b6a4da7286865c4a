package router

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"jobtrackr/internal/config"
	apperrors "jobtrackr/internal/errors"
	"jobtrackr/internal/handler"
	"jobtrackr/internal/model"
)

// Handlers groups the HTTP handlers served by the API.
type Handlers struct {
	Auth *handler.AuthHandler
	User *handler.UserHandler
	Job  *handler.JobHandler
}

// Register wires routes and middleware. guard protects every route that
// needs an authenticated user.
func Register(e *echo.Echo, cfg *config.Config, h Handlers, guard []echo.MiddlewareFunc) {
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
	}))

	e.Validator = NewValidator()

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/register", h.Auth.Register)
	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/refresh", h.Auth.Refresh)

	// Secured routes
	secured := api.Group("", guard...)
	secured.POST("/auth/logout", h.Auth.Logout)
	secured.GET("/me", h.User.Me)

	jobs := secured.Group("/jobs")
	jobs.POST("", h.Job.CreateJob)
	jobs.GET("", h.Job.ListJobs)
	jobs.POST("/import", h.Job.ImportJobs)
	jobs.GET("/stats", h.Job.Stats)
	jobs.GET("/dashboard", h.Job.Dashboard)
	jobs.GET("/:id", h.Job.GetJob)
	jobs.PUT("/:id", h.Job.UpdateJob)
	jobs.PATCH("/:id", h.Job.UpdateJob)
	jobs.DELETE("/:id", h.Job.DeleteJob)
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator returns a validator that reports fields by their JSON names
// and knows the job status and source enums.
func NewValidator() *CustomValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("job_status", func(fl validator.FieldLevel) bool {
		return model.Status(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("job_source", func(fl validator.FieldLevel) bool {
		return model.Source(fl.Field().String()).Valid()
	})
	return &CustomValidator{validator: v}
}

// Validate implements echo.Validator interface. The first failing field is
// reported as a validation error.
func (cv *CustomValidator) Validate(i interface{}) error {
	err := cv.validator.Struct(i)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperrors.NewValidationError("", err.Error())
	}
	fe := verrs[0]
	return apperrors.NewValidationError(fe.Field(), describe(fe))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "job_status":
		return "is not a recognized status"
	case "job_source":
		return "is not a recognized source"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
