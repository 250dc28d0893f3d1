package rest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/bwise1/workin/internal/model"
	"github.com/bwise1/workin/util"
	"github.com/bwise1/workin/util/tracing"
	"github.com/bwise1/workin/util/values"
	"github.com/golang-jwt/jwt"
	"github.com/lucsky/cuid"
)

var (
	errTokenExpired = errors.New("token expired")
	errTokenInvalid = errors.New("invalid token")
)

// RequestTracing handles the request tracing context
func RequestTracing(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		requestSource := r.Header.Get(values.HeaderRequestSource)
		if requestSource == "" {
			errM := errors.New("X-Request-Source is empty")

			writeErrorResponse(w, errM, values.BadRequestBody, errM.Error())
			return
		}

		requestID := r.Header.Get(values.HeaderRequestID)
		if requestID == "" {
			requestID = cuid.New()
		}
		w.Header().Set(values.HeaderRequestID, requestID)

		tracingContext := tracing.Context{
			RequestID:     requestID,
			RequestSource: requestSource,
		}

		ctx = context.WithValue(ctx, values.ContextTracingKey, tracingContext)
		next.ServeHTTP(w, r.WithContext(ctx))
	}

	return http.HandlerFunc(fn)
}

// RequireLogin rejects requests without a valid bearer token.
func (api *API) RequireLogin(next http.Handler) http.Handler {
	return api.login(next, true, false)
}

// OptionalLogin lets anonymous requests through but still rejects a bad token.
func (api *API) OptionalLogin(next http.Handler) http.Handler {
	return api.login(next, false, false)
}

// RequireSocketLogin also accepts the token as a "token" query parameter.
func (api *API) RequireSocketLogin(next http.Handler) http.Handler {
	return api.login(next, true, true)
}

func (api *API) login(next http.Handler, required, allowQuery bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok && allowQuery {
			token = r.URL.Query().Get("token")
		}
		if token == "" {
			if required {
				writeErrorResponse(w, errors.New(values.NotAuthorised), values.NotAuthorised, "not-authorized")
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		identity, err := api.verifyToken(token)
		if err != nil {
			if errors.Is(err, errTokenExpired) {
				writeErrorResponse(w, err, values.TokenExpired, "token-expired")
				return
			}
			writeErrorResponse(w, err, values.NotAuthorised, "invalid-token")
			return
		}

		syncCtx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := api.Presence.SyncIdentity(syncCtx, identity); err != nil {
			writeErrorResponse(w, err, values.Error, "identity-sync-failed")
			return
		}

		next.ServeHTTP(w, r.WithContext(util.WithIdentity(r.Context(), identity)))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	authorization := strings.Split(r.Header.Get("Authorization"), " ")
	if len(authorization) != 2 || authorization[0] != "Bearer" || authorization[1] == "" {
		return "", false
	}
	return authorization[1], true
}

// verifyToken checks an HMAC-signed identity token and reads the caller from
// its sub, name and picture claims.
func (api *API) verifyToken(tokenString string) (model.Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Ensure the signing method is correct
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(api.Config.JwtSecret), nil
	})

	// Specifically handle token expiration
	if ve, ok := err.(*jwt.ValidationError); ok {
		if ve.Errors&jwt.ValidationErrorExpired != 0 {
			return model.Identity{}, errTokenExpired
		}
	}

	if err != nil || !token.Valid {
		log.Println("error verifying token", err)
		return model.Identity{}, errTokenInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return model.Identity{}, errTokenInvalid
	}

	subject, _ := claims["sub"].(string)
	if subject == "" {
		return model.Identity{}, errTokenInvalid
	}
	name, _ := claims["name"].(string)
	picture, _ := claims["picture"].(string)

	return model.Identity{
		Subject:     subject,
		DisplayName: name,
		AvatarURL:   picture,
	}, nil
}
