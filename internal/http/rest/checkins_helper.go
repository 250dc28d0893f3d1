package rest

import (
	"context"

	"github.com/bwise1/workin/internal/model"
	"github.com/bwise1/workin/internal/presence"
	"github.com/bwise1/workin/util/values"
	"github.com/google/uuid"
)

func (api *API) StartCheckinHelper(ctx context.Context, identity string, req model.StartCheckinRequest) (model.StartCheckinResponse, string, string, error) {
	res, err := api.Presence.StartCheckin(ctx, identity, req)
	if err != nil {
		status, message := presenceStatus(err)
		return model.StartCheckinResponse{}, status, message, err
	}
	return res, values.Created, "Checked in", nil
}

func (api *API) StopCheckinHelper(ctx context.Context, identity string) (model.StopCheckinResponse, string, string, error) {
	res, err := api.Presence.StopCheckin(ctx, identity)
	if err != nil {
		status, message := presenceStatus(err)
		return model.StopCheckinResponse{}, status, message, err
	}
	if !res.Ended {
		return res, values.Success, "No active check-in", nil
	}
	return res, values.Success, "Checked out", nil
}

func (api *API) GetMyCheckinHelper(ctx context.Context, identity string) (*model.Checkin, string, string, error) {
	checkin, err := api.Presence.GetMyActiveCheckin(ctx, identity)
	if err != nil {
		status, message := presenceStatus(err)
		return nil, status, message, err
	}
	if checkin == nil {
		return nil, values.Success, "No active check-in", nil
	}
	return checkin, values.Success, "Active check-in fetched successfully", nil
}

func (api *API) GetNearbyCheckinsHelper(ctx context.Context, viewer string, q presence.NearbyQuery) ([]model.CheckinView, string, string, error) {
	checkins, err := api.Presence.NearbyCheckins(ctx, viewer, q)
	if err != nil {
		status, message := presenceStatus(err)
		return nil, status, message, err
	}
	return checkins, values.Success, "Nearby check-ins fetched successfully", nil
}

func (api *API) ListActiveCheckinsHelper(ctx context.Context, viewer string) ([]model.CheckinView, string, string, error) {
	checkins, err := api.Presence.ListActiveCheckins(ctx, viewer)
	if err != nil {
		status, message := presenceStatus(err)
		return nil, status, message, err
	}
	return checkins, values.Success, "Active check-ins fetched successfully", nil
}

func (api *API) GetActiveStatsHelper(ctx context.Context) (model.ActiveStats, string, string, error) {
	stats, err := api.Presence.ActiveStats(ctx)
	if err != nil {
		status, message := presenceStatus(err)
		return model.ActiveStats{}, status, message, err
	}
	return stats, values.Success, "Active stats fetched successfully", nil
}

func (api *API) GetCheckinByIDHelper(ctx context.Context, viewer string, id uuid.UUID) (model.CheckinView, string, string, error) {
	checkin, err := api.Presence.GetCheckinByID(ctx, viewer, id)
	if err != nil {
		status, message := presenceStatus(err)
		return model.CheckinView{}, status, message, err
	}
	return checkin, values.Success, "Check-in fetched successfully", nil
}

func (api *API) GetCheckinByShareIDHelper(ctx context.Context, viewer, shareID string) (model.SharedCheckin, string, string, error) {
	checkin, err := api.Presence.GetCheckinByShareID(ctx, viewer, shareID)
	if err != nil {
		status, message := presenceStatus(err)
		return model.SharedCheckin{}, status, message, err
	}
	return checkin, values.Success, "Check-in fetched successfully", nil
}

func (api *API) SendJoinRequestHelper(ctx context.Context, sender string, checkinID uuid.UUID) (string, string, error) {
	if err := api.Presence.SendJoinRequest(ctx, sender, checkinID); err != nil {
		status, message := presenceStatus(err)
		return status, message, err
	}
	return values.Created, "Join request sent", nil
}
