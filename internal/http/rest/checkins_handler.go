package rest

import (
	"math"
	"net/http"
	"strconv"

	"github.com/bwise1/workin/internal/model"
	"github.com/bwise1/workin/internal/presence"
	"github.com/bwise1/workin/util"
	"github.com/bwise1/workin/util/tracing"
	"github.com/bwise1/workin/util/values"
	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
)

func (api *API) CheckinRoutes() chi.Router {
	mux := chi.NewRouter()

	mux.Group(func(r chi.Router) {
		r.Use(api.OptionalLogin)
		r.Method(http.MethodGet, "/nearby", Handler(api.GetNearbyCheckins))
		r.Method(http.MethodGet, "/active", Handler(api.ListActiveCheckins))
		r.Method(http.MethodGet, "/stats", Handler(api.GetActiveStats))
		r.Method(http.MethodGet, "/share/{shareID}", Handler(api.GetCheckinByShareID))
		r.Method(http.MethodGet, "/{checkinID}", Handler(api.GetCheckinByID))
	})

	mux.Group(func(r chi.Router) {
		r.Use(api.RequireLogin)
		r.Method(http.MethodPost, "/", Handler(api.StartCheckin))
		r.Method(http.MethodGet, "/mine", Handler(api.GetMyCheckin))
		r.Method(http.MethodDelete, "/mine", Handler(api.StopCheckin))
		r.Method(http.MethodPost, "/{checkinID}/join", Handler(api.SendJoinRequest))
	})

	return mux
}

func (api *API) StartCheckin(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	var req model.StartCheckinRequest
	if decodeErr := util.DecodeJSONBody(&tc, r.Body, &req); decodeErr != nil {
		return respondWithError(decodeErr, "unable to decode request", values.BadRequestBody, &tc)
	}
	if err := util.ValidateStruct(req); err != nil {
		return respondWithError(err, util.ValidationMessage(err), values.BadRequestBody, &tc)
	}

	res, status, message, err := api.StartCheckinHelper(r.Context(), util.SubjectFromContext(r.Context()), req)
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}

	return &ServerResponse{
		Message:    message,
		Status:     status,
		StatusCode: util.StatusCode(status),
		Data:       res,
	}
}

func (api *API) StopCheckin(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	res, status, message, err := api.StopCheckinHelper(r.Context(), util.SubjectFromContext(r.Context()))
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}

	return &ServerResponse{
		Message:    message,
		Status:     status,
		StatusCode: util.StatusCode(status),
		Data:       res,
	}
}

func (api *API) GetMyCheckin(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	checkin, status, message, err := api.GetMyCheckinHelper(r.Context(), util.SubjectFromContext(r.Context()))
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}

	return &ServerResponse{
		Message:    message,
		Status:     status,
		StatusCode: util.StatusCode(status),
		Data:       checkin,
	}
}

func (api *API) GetNearbyCheckins(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	q, err := parseNearbyQuery(r)
	if err != nil {
		return respondWithError(err, err.Error(), values.BadRequestBody, &tc)
	}

	checkins, status, message, err := api.GetNearbyCheckinsHelper(r.Context(), util.SubjectFromContext(r.Context()), q)
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}

	return &ServerResponse{
		Message:    message,
		Status:     status,
		StatusCode: util.StatusCode(status),
		Data:       checkins,
	}
}

func (api *API) ListActiveCheckins(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	checkins, status, message, err := api.ListActiveCheckinsHelper(r.Context(), util.SubjectFromContext(r.Context()))
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}

	return &ServerResponse{
		Message:    message,
		Status:     status,
		StatusCode: util.StatusCode(status),
		Data:       checkins,
	}
}

func (api *API) GetActiveStats(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	stats, status, message, err := api.GetActiveStatsHelper(r.Context())
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}

	return &ServerResponse{
		Message:    message,
		Status:     status,
		StatusCode: util.StatusCode(status),
		Data:       stats,
	}
}

func (api *API) GetCheckinByID(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	checkinID, err := util.StringToUUID(chi.URLParam(r, "checkinID"))
	if err != nil {
		return respondWithError(err, "invalid checkin id", values.BadRequestBody, &tc)
	}

	checkin, status, message, err := api.GetCheckinByIDHelper(r.Context(), util.SubjectFromContext(r.Context()), checkinID)
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}

	return &ServerResponse{
		Message:    message,
		Status:     status,
		StatusCode: util.StatusCode(status),
		Data:       checkin,
	}
}

func (api *API) GetCheckinByShareID(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	shareID := chi.URLParam(r, "shareID")
	checkin, status, message, err := api.GetCheckinByShareIDHelper(r.Context(), util.SubjectFromContext(r.Context()), shareID)
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}

	return &ServerResponse{
		Message:    message,
		Status:     status,
		StatusCode: util.StatusCode(status),
		Data:       checkin,
	}
}

func (api *API) SendJoinRequest(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	checkinID, err := util.StringToUUID(chi.URLParam(r, "checkinID"))
	if err != nil {
		return respondWithError(err, "invalid checkin id", values.BadRequestBody, &tc)
	}

	status, message, err := api.SendJoinRequestHelper(r.Context(), util.SubjectFromContext(r.Context()), checkinID)
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}

	return &ServerResponse{
		Message:    message,
		Status:     status,
		StatusCode: util.StatusCode(status),
	}
}

func parseNearbyQuery(r *http.Request) (presence.NearbyQuery, error) {
	var q presence.NearbyQuery
	params := r.URL.Query()

	lat, err := parseFinite(params.Get("lat"))
	if err != nil {
		return q, errors.New("lat is required and must be a number")
	}
	lng, err := parseFinite(params.Get("lng"))
	if err != nil {
		return q, errors.New("lng is required and must be a number")
	}
	q.Lat, q.Lng = lat, lng

	if raw := params.Get("radius"); raw != "" {
		radius, err := parseFinite(raw)
		if err != nil || radius < 0 {
			return q, errors.New("radius must be a non-negative number")
		}
		q.RadiusKm = radius
	}
	return q, nil
}

// parseFinite rejects NaN and the infinities, which ParseFloat accepts.
func parseFinite(raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.Errorf("%q is not a finite number", raw)
	}
	return v, nil
}
