package handlers

import (
	"context"
	"net/http"

	cumuluscontext "github.com/2lambda123/nasa-cumulus-sub001/pkg/context"
	cumuluserrors "github.com/2lambda123/nasa-cumulus-sub001/pkg/errors"
	"github.com/2lambda123/nasa-cumulus-sub001/pkg/models"
	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
)

// Runner performs one migration run with optional environment overrides.
type Runner interface {
	Run(ctx context.Context, overrides map[string]string) (*models.RunSummary, error)
}

// MigrationRequest is the invocation input. Env overrides the process
// environment for this run only.
type MigrationRequest struct {
	Env map[string]string `json:"env"`
}

type MigrationHandler struct {
	runner Runner
	logger ectologger.Logger
}

func NewMigrationHandler(runner Runner, logger ectologger.Logger) *MigrationHandler {
	return &MigrationHandler{
		runner: runner,
		logger: logger,
	}
}

func (h *MigrationHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/api/v1/migrations", h.Create)
}

// Create runs a migration and responds with its summary. Per-record failures
// are part of the summary, not an error response.
func (h *MigrationHandler) Create(c echo.Context) error {
	var req MigrationRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}
	}

	// The run outlives a client disconnect.
	ctx := context.WithoutCancel(c.Request().Context())
	summary, err := h.runner.Run(ctx, req.Env)
	if err != nil {
		if cumuluserrors.IsInvocationError(err) {
			return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		h.logger.WithContext(ctx).WithError(err).WithFields(cumuluscontext.LogFields(ctx)).Error("Migration run failed")
		return httperror.NewHTTPError(http.StatusInternalServerError, "migration run failed")
	}

	return c.JSON(http.StatusOK, summary)
}
