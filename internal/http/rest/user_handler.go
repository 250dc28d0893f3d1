package rest

import (
	"net/http"

	"github.com/bwise1/workin/internal/model"
	"github.com/bwise1/workin/util"
	"github.com/bwise1/workin/util/tracing"
	"github.com/bwise1/workin/util/values"
	"github.com/go-chi/chi/v5"
)

func (api *API) UserRoutes() chi.Router {
	mux := chi.NewRouter()

	mux.Route("/", func(r chi.Router) {
		r.Use(api.RequireLogin)
		r.Method(http.MethodGet, "/me", Handler(api.GetProfile))
		r.Method(http.MethodPut, "/me/preferences", Handler(api.UpdatePreferences))
		r.Method(http.MethodPut, "/me/profile", Handler(api.UpdateProfile))
		r.Method(http.MethodPost, "/{userID}/wave", Handler(api.Wave))
	})

	return mux
}

func (api *API) GetProfile(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	profile, status, message, err := api.GetProfileHelper(r.Context(), util.SubjectFromContext(r.Context()))
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}

	return &ServerResponse{
		Message:    message,
		Status:     status,
		StatusCode: util.StatusCode(status),
		Data:       profile,
	}
}

func (api *API) UpdatePreferences(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	var req model.Preferences
	if decodeErr := util.DecodeJSONBody(&tc, r.Body, &req); decodeErr != nil {
		return respondWithError(decodeErr, "unable to decode request", values.BadRequestBody, &tc)
	}
	if err := util.ValidateStruct(req); err != nil {
		return respondWithError(err, util.ValidationMessage(err), values.BadRequestBody, &tc)
	}

	profile, status, message, err := api.UpdatePreferencesHelper(r.Context(), util.SubjectFromContext(r.Context()), req)
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}

	return &ServerResponse{
		Message:    message,
		Status:     status,
		StatusCode: util.StatusCode(status),
		Data:       profile,
	}
}

func (api *API) UpdateProfile(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	var req model.ProfileDetails
	if decodeErr := util.DecodeJSONBody(&tc, r.Body, &req); decodeErr != nil {
		return respondWithError(decodeErr, "unable to decode request", values.BadRequestBody, &tc)
	}
	if err := util.ValidateStruct(req); err != nil {
		return respondWithError(err, util.ValidationMessage(err), values.BadRequestBody, &tc)
	}

	profile, status, message, err := api.UpdateProfileHelper(r.Context(), util.SubjectFromContext(r.Context()), req)
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}

	return &ServerResponse{
		Message:    message,
		Status:     status,
		StatusCode: util.StatusCode(status),
		Data:       profile,
	}
}

func (api *API) Wave(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	target := chi.URLParam(r, "userID")
	status, message, err := api.WaveHelper(r.Context(), util.SubjectFromContext(r.Context()), target)
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}

	return &ServerResponse{
		Message:    message,
		Status:     status,
		StatusCode: util.StatusCode(status),
	}
}

// ServeNotificationSocket streams the caller's new notifications.
func (api *API) ServeNotificationSocket(w http.ResponseWriter, r *http.Request) {
	api.Deps.WebSocket.HandleConnections(w, r, util.SubjectFromContext(r.Context()))
}
