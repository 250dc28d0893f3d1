package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/bwise1/workin/config"
	deps "github.com/bwise1/workin/internal/debs"
	"github.com/bwise1/workin/internal/presence"
	"github.com/bwise1/workin/util/values"
	"github.com/go-chi/chi/v5"
)

const (
	defaultIdleTimeout    = time.Minute
	defaultReadTimeout    = 5 * time.Second
	defaultWriteTimeout   = 10 * time.Second
	defaultShutdownPeriod = 30 * time.Second
)

type Handler func(w http.ResponseWriter, r *http.Request) *ServerResponse

func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := h(w, r)
	respByte, err := json.Marshal(resp)
	if err != nil {
		writeErrorResponse(w, err, values.Error, "unable to marshal server response")
		return
	}
	writeJSONResponse(w, respByte, resp.StatusCode)
}

type API struct {
	Server   *http.Server
	Config   *config.Config
	Deps     *deps.Dependencies
	Presence *presence.Service
}

func (api *API) Serve() error {
	api.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", api.Config.Port),
		IdleTimeout:  defaultIdleTimeout,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
		Handler:      api.setUpServerHandler(),
	}
	return api.Server.ListenAndServe()
}

func (api *API) setUpServerHandler() http.Handler {
	mux := chi.NewRouter()

	// browsers cannot set custom headers on a websocket upgrade
	mux.With(api.RequireSocketLogin).Get("/ws", api.ServeNotificationSocket)

	mux.Group(func(r chi.Router) {
		r.Use(RequestTracing)

		r.Get("/",
			func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("workin presence api"))
			},
		)

		r.Mount("/checkins", api.CheckinRoutes())
		r.Mount("/notifications", api.NotificationRoutes())
		r.Mount("/users", api.UserRoutes())
		r.Mount("/spaces", api.SpaceRoutes())
	})

	return mux
}

func (api *API) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownPeriod)
	defer cancel()

	return api.Server.Shutdown(ctx)
}
