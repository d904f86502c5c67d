package handler

import (
	"context"
	"net/http"

	"github.com/Temutjin2k/taxi-dispatch/internal/domain/models"
	"github.com/Temutjin2k/taxi-dispatch/internal/domain/types"
	"github.com/Temutjin2k/taxi-dispatch/pkg/logger"
	wrap "github.com/Temutjin2k/taxi-dispatch/pkg/logger/wrapper"
)

type ReconcilerService interface {
	SweepStuckBusy(ctx context.Context) (*models.SweepReport, error)
	SweepIdle(ctx context.Context) (*models.SweepReport, error)
}

type Reconciler struct {
	service ReconcilerService
	l       logger.Logger
}

func NewReconciler(service ReconcilerService, l logger.Logger) *Reconciler {
	return &Reconciler{
		service: service,
		l:       l,
	}
}

// SweepStuckBusy godoc
// @Summary      Release stuck busy drivers
// @Description  Runs the stuck busy sweep once and returns its report.
// @Tags         Reconciler
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  models.SweepReport
// @Failure      503  {object}  map[string]string
// @Router       /reconciler/sweeps/stuck-busy [post]
func (h *Reconciler) SweepStuckBusy(w http.ResponseWriter, r *http.Request) {
	h.sweep(wrap.WithAction(r.Context(), types.ActionSweepStuckBusy), w, h.service.SweepStuckBusy)
}

// SweepIdle godoc
// @Summary      Take idle drivers offline
// @Description  Runs the idle sweep once and returns its report.
// @Tags         Reconciler
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  models.SweepReport
// @Failure      503  {object}  map[string]string
// @Router       /reconciler/sweeps/idle [post]
func (h *Reconciler) SweepIdle(w http.ResponseWriter, r *http.Request) {
	h.sweep(wrap.WithAction(r.Context(), types.ActionSweepIdle), w, h.service.SweepIdle)
}

func (h *Reconciler) sweep(ctx context.Context, w http.ResponseWriter, run func(context.Context) (*models.SweepReport, error)) {
	report, err := run(ctx)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "sweep failed", err)
		domainErrorResponse(w, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, envelope{"report": report}, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
		return
	}
}
