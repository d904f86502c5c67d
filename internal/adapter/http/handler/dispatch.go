package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/Temutjin2k/taxi-dispatch/internal/adapter/http/handler/dto"
	"github.com/Temutjin2k/taxi-dispatch/internal/domain/models"
	"github.com/Temutjin2k/taxi-dispatch/internal/domain/types"
	"github.com/Temutjin2k/taxi-dispatch/pkg/logger"
	wrap "github.com/Temutjin2k/taxi-dispatch/pkg/logger/wrapper"
	"github.com/Temutjin2k/taxi-dispatch/pkg/validator"
)

// directoryWarning is returned with an empty directory when the store could not be read.
const directoryWarning = "driver directory is temporarily unavailable"

type (
	DirectoryService interface {
		ListAssignable(ctx context.Context) (models.DriverDirectory, error)
	}

	AssignmentService interface {
		Assign(ctx context.Context, tripID, driverID string) (*models.Assignment, error)
	}
)

type Dispatch struct {
	directory DirectoryService
	engine    AssignmentService
	l         logger.Logger
}

func NewDispatch(directory DirectoryService, engine AssignmentService, l logger.Logger) *Dispatch {
	return &Dispatch{
		directory: directory,
		engine:    engine,
		l:         l,
	}
}

// ListAssignable godoc
// @Summary      Assignable drivers
// @Description  Returns free drivers sorted by unit label. Drivers without a resolvable unit are listed separately and are never offered.
// @Tags         Dispatch
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dto.DirectoryResponse
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /drivers/assignable [get]
func (h *Dispatch) ListAssignable(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), types.ActionListAssignable)

	directory, err := h.directory.ListAssignable(ctx)

	response := envelope{"drivers": dto.NewDirectoryResponse(directory)}
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to build driver directory", err)
		response["warning"] = directoryWarning
	}

	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
		return
	}
}

// AssignDriver godoc
// @Summary      Assign a driver to a trip
// @Description  Atomically binds a free driver to a requested trip. Rule failures answer 409 with a reason code.
// @Tags         Dispatch
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        trip_id  path      string                   true  "Trip ID"
// @Param        request  body      dto.AssignDriverRequest  true  "Driver to assign"
// @Success      200      {object}  dto.AssignDriverResponse
// @Failure      404      {object}  map[string]string
// @Failure      409      {object}  map[string]string
// @Failure      422      {object}  map[string]string
// @Failure      503      {object}  map[string]string
// @Router       /trips/{trip_id}/assign [post]
func (h *Dispatch) AssignDriver(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), types.ActionAssignDriver)

	tripID := strings.TrimSpace(r.PathValue("trip_id"))
	if tripID == "" {
		badRequestResponse(w, "trip id must be provided")
		return
	}

	var req dto.AssignDriverRequest
	if err := readJSON(w, r, &req); err != nil {
		h.l.Warn(ctx, "failed to read request JSON data", "error", err.Error())
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	if req.Validate(v); !v.Valid() {
		h.l.Warn(ctx, "invalid request data")
		failedValidationResponse(w, v.Errors)
		return
	}

	assignment, err := h.engine.Assign(ctx, tripID, req.DriverID)
	if err != nil {
		domainErrorResponse(w, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, dto.NewAssignDriverResponse(assignment), nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
		return
	}
}
