package rest

import (
	"context"

	"github.com/bwise1/workin/internal/model"
	"github.com/bwise1/workin/util/values"
)

func (api *API) GetProfileHelper(ctx context.Context, identity string) (model.Profile, string, string, error) {
	profile, err := api.Presence.GetProfile(ctx, identity)
	if err != nil {
		status, message := presenceStatus(err)
		return model.Profile{}, status, message, err
	}
	return profile, values.Success, "User profile retrieved successfully", nil
}

func (api *API) UpdatePreferencesHelper(ctx context.Context, identity string, prefs model.Preferences) (model.Profile, string, string, error) {
	profile, err := api.Presence.UpdatePreferences(ctx, identity, prefs)
	if err != nil {
		status, message := presenceStatus(err)
		return model.Profile{}, status, message, err
	}
	return profile, values.Success, "Preferences updated", nil
}

func (api *API) UpdateProfileHelper(ctx context.Context, identity string, details model.ProfileDetails) (model.Profile, string, string, error) {
	profile, err := api.Presence.UpdateProfile(ctx, identity, details)
	if err != nil {
		status, message := presenceStatus(err)
		return model.Profile{}, status, message, err
	}
	return profile, values.Success, "Profile updated", nil
}

func (api *API) WaveHelper(ctx context.Context, sender, target string) (string, string, error) {
	if err := api.Presence.Wave(ctx, sender, target); err != nil {
		status, message := presenceStatus(err)
		return status, message, err
	}
	return values.Created, "Wave sent", nil
}
