package rest

import (
	"context"
	"net/http"

	"github.com/bwise1/workin/util"
	"github.com/bwise1/workin/util/tracing"
	"github.com/bwise1/workin/util/values"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (api *API) NotificationRoutes() chi.Router {
	mux := chi.NewRouter()

	mux.Group(func(r chi.Router) {
		r.Use(api.RequireLogin)
		r.Method(http.MethodGet, "/", Handler(api.ListUnreadNotifications))
		r.Method(http.MethodPost, "/clear", Handler(api.ClearAllNotifications))
		r.Method(http.MethodPost, "/{notificationID}/read", Handler(api.MarkNotificationRead))
		r.Method(http.MethodPost, "/{notificationID}/accept", Handler(api.AcceptJoinRequest))
		r.Method(http.MethodPost, "/{notificationID}/decline", Handler(api.DeclineJoinRequest))
	})

	return mux
}

func (api *API) ListUnreadNotifications(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	notifications, status, message, err := api.ListUnreadNotificationsHelper(r.Context(), util.SubjectFromContext(r.Context()))
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}

	return &ServerResponse{
		Message:    message,
		Status:     status,
		StatusCode: util.StatusCode(status),
		Data:       notifications,
	}
}

func (api *API) ClearAllNotifications(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	res, status, message, err := api.ClearAllNotificationsHelper(r.Context(), util.SubjectFromContext(r.Context()))
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

func (api *API) MarkNotificationRead(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	return api.actOnNotification(r, api.MarkNotificationReadHelper)
}

func (api *API) AcceptJoinRequest(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	return api.actOnNotification(r, api.AcceptJoinRequestHelper)
}

func (api *API) DeclineJoinRequest(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	return api.actOnNotification(r, api.DeclineJoinRequestHelper)
}

type notificationAction func(ctx context.Context, identity string, id uuid.UUID) (string, string, error)

func (api *API) actOnNotification(r *http.Request, action notificationAction) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	notificationID, err := util.StringToUUID(chi.URLParam(r, "notificationID"))
	if err != nil {
		return respondWithError(err, "invalid notification id", values.BadRequestBody, &tc)
	}

	status, message, err := action(r.Context(), util.SubjectFromContext(r.Context()), notificationID)
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}

	return &ServerResponse{
		Message:    message,
		Status:     status,
		StatusCode: util.StatusCode(status),
	}
}
