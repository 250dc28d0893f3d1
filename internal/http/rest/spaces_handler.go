package rest

import (
	"net/http"

	"github.com/bwise1/workin/util"
	"github.com/bwise1/workin/util/tracing"
	"github.com/bwise1/workin/util/values"
	"github.com/go-chi/chi/v5"
)

func (api *API) SpaceRoutes() chi.Router {
	mux := chi.NewRouter()

	mux.Group(func(r chi.Router) {
		r.Use(api.OptionalLogin)
		r.Method(http.MethodGet, "/", Handler(api.ListSpacesByCity))
		r.Method(http.MethodGet, "/{spaceID}", Handler(api.GetSpace))
	})

	return mux
}

func (api *API) ListSpacesByCity(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	spaces, status, message, err := api.ListSpacesByCityHelper(r.Context(), r.URL.Query().Get("city"))
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}

	return &ServerResponse{
		Message:    message,
		Status:     status,
		StatusCode: util.StatusCode(status),
		Data:       spaces,
	}
}

func (api *API) GetSpace(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	spaceID, err := util.StringToUUID(chi.URLParam(r, "spaceID"))
	if err != nil {
		return respondWithError(err, "invalid space id", values.BadRequestBody, &tc)
	}

	space, status, message, err := api.GetSpaceHelper(r.Context(), util.SubjectFromContext(r.Context()), spaceID)
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}

	return &ServerResponse{
		Message:    message,
		Status:     status,
		StatusCode: util.StatusCode(status),
		Data:       space,
	}
}
