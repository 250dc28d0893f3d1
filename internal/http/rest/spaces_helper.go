package rest

import (
	"context"

	"github.com/bwise1/workin/internal/model"
	"github.com/bwise1/workin/util/values"
	"github.com/google/uuid"
)

func (api *API) ListSpacesByCityHelper(ctx context.Context, city string) ([]model.Space, string, string, error) {
	spaces, err := api.Presence.SpacesByCity(ctx, city)
	if err != nil {
		status, message := presenceStatus(err)
		return nil, status, message, err
	}
	return spaces, values.Success, "Spaces fetched successfully", nil
}

func (api *API) GetSpaceHelper(ctx context.Context, viewer string, id uuid.UUID) (model.SpaceDetail, string, string, error) {
	space, err := api.Presence.GetSpace(ctx, viewer, id)
	if err != nil {
		status, message := presenceStatus(err)
		return model.SpaceDetail{}, status, message, err
	}
	return space, values.Success, "Space fetched successfully", nil
}
