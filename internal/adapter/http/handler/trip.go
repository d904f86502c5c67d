package handler

import (
	"context"
	"net/http"

	"github.com/Temutjin2k/taxi-dispatch/internal/adapter/http/handler/dto"
	"github.com/Temutjin2k/taxi-dispatch/internal/domain/models"
	"github.com/Temutjin2k/taxi-dispatch/internal/domain/types"
	"github.com/Temutjin2k/taxi-dispatch/pkg/logger"
	wrap "github.com/Temutjin2k/taxi-dispatch/pkg/logger/wrapper"
	"github.com/Temutjin2k/taxi-dispatch/pkg/validator"
)

const tripsWarning = "requested trips are temporarily unavailable"

type TripService interface {
	Create(ctx context.Context, req models.CreateTripRequest) (*models.Trip, error)
	ListRequested(ctx context.Context, filters models.Filters) ([]*models.Trip, models.Metadata, error)
}

type Trip struct {
	service TripService
	l       logger.Logger
}

func NewTrip(service TripService, l logger.Logger) *Trip {
	return &Trip{
		service: service,
		l:       l,
	}
}

// CreateTrip godoc
// @Summary      Request a trip
// @Description  Creates a trip in the requested state for a passenger without an active trip.
// @Tags         Trips
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      dto.CreateTripRequest  true  "Trip request"
// @Success      201      {object}  dto.TripResponse
// @Failure      409      {object}  map[string]string
// @Failure      422      {object}  map[string]string
// @Router       /trips [post]
func (h *Trip) CreateTrip(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), types.ActionCreateTrip)

	var req dto.CreateTripRequest
	if err := readJSON(w, r, &req); err != nil {
		h.l.Warn(ctx, "failed to read request JSON data", "error", err.Error())
		badRequestResponse(w, err.Error())
		return
	}

	// A passenger token always requests for itself.
	if user := models.UserFromContext(ctx); user != nil && user.Role == types.PassengerRole {
		req.PassengerID = user.ID
	}

	v := validator.New()
	if req.Validate(v); !v.Valid() {
		h.l.Warn(ctx, "invalid request data")
		failedValidationResponse(w, v.Errors)
		return
	}

	trip, err := h.service.Create(ctx, req.ToModel())
	if err != nil {
		domainErrorResponse(w, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, dto.NewTripResponse(trip), nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
		return
	}
}

// ListRequested godoc
// @Summary      Requested trips
// @Description  Pages through trips waiting for a driver.
// @Tags         Trips
// @Produce      json
// @Security     BearerAuth
// @Param        page       query     int     false  "Page number"  default(1)
// @Param        page_size  query     int     false  "Page size"    default(20)
// @Param        sort       query     string  false  "created_at or -created_at"
// @Success      200        {object}  map[string]any
// @Failure      422        {object}  map[string]string
// @Router       /trips/requested [get]
func (h *Trip) ListRequested(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), types.ActionListRequested)

	v := validator.New()
	qs := r.URL.Query()

	page := readInt(qs, "page", 1, v)
	pageSize := readInt(qs, "page_size", 20, v)
	filters := models.Filters{
		Page:     page,
		PageSize: pageSize,
		Sort:     readString(qs, "sort", models.SortOldestFirst),
	}

	if filters.Validate(v); !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	trips, meta, err := h.service.ListRequested(ctx, filters)

	response := envelope{"trips": dto.NewTripList(trips), "metadata": meta}
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to list requested trips", err)
		response["warning"] = tripsWarning
	}

	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
		return
	}
}
