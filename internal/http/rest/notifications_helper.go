package rest

import (
	"context"

	"github.com/bwise1/workin/internal/model"
	"github.com/bwise1/workin/util/values"
	"github.com/google/uuid"
)

func (api *API) ListUnreadNotificationsHelper(ctx context.Context, identity string) ([]model.Notification, string, string, error) {
	notifications, err := api.Presence.ListUnreadNotifications(ctx, identity)
	if err != nil {
		status, message := presenceStatus(err)
		return nil, status, message, err
	}
	return notifications, values.Success, "Notifications fetched successfully", nil
}

func (api *API) ClearAllNotificationsHelper(ctx context.Context, identity string) (model.ClearNotificationsResponse, string, string, error) {
	cleared, err := api.Presence.ClearAllNotifications(ctx, identity)
	if err != nil {
		status, message := presenceStatus(err)
		return model.ClearNotificationsResponse{}, status, message, err
	}
	return model.ClearNotificationsResponse{Cleared: cleared}, values.Success, "Notifications cleared", nil
}

func (api *API) MarkNotificationReadHelper(ctx context.Context, identity string, id uuid.UUID) (string, string, error) {
	if err := api.Presence.MarkNotificationRead(ctx, identity, id); err != nil {
		status, message := presenceStatus(err)
		return status, message, err
	}
	return values.Success, "Notification marked as read", nil
}

func (api *API) AcceptJoinRequestHelper(ctx context.Context, identity string, id uuid.UUID) (string, string, error) {
	if err := api.Presence.AcceptJoinRequest(ctx, identity, id); err != nil {
		status, message := presenceStatus(err)
		return status, message, err
	}
	return values.Success, "Join request accepted", nil
}

func (api *API) DeclineJoinRequestHelper(ctx context.Context, identity string, id uuid.UUID) (string, string, error) {
	if err := api.Presence.DeclineJoinRequest(ctx, identity, id); err != nil {
		status, message := presenceStatus(err)
		return status, message, err
	}
	return values.Success, "Join request declined", nil
}
