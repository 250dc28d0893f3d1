package presence

import (
	"context"
	"strings"

	"github.com/bwise1/workin/internal/model"
	"github.com/pkg/errors"
)

// SyncIdentity records the verified identity's display fields so other
// identities can see who waved or asked to join.
func (s *Service) SyncIdentity(ctx context.Context, identity model.Identity) error {
	if identity.Subject == "" {
		return ErrUnauthorized
	}
	if err := s.store.UpsertProfile(ctx, identity, s.now()); err != nil {
		return errors.Wrap(err, "upsert profile")
	}
	return nil
}

func (s *Service) GetProfile(ctx context.Context, identity string) (model.Profile, error) {
	if identity == "" {
		return model.Profile{}, ErrUnauthorized
	}
	p, err := s.store.Profile(ctx, identity)
	if err != nil {
		return model.Profile{}, errors.Wrap(err, "load profile")
	}
	if p == nil {
		return model.Profile{}, errors.Wrapf(ErrNotFound, "user %s", identity)
	}
	return *p, nil
}

// UpdatePreferences replaces identity's check-in defaults. Visibility is
// normalized and negative fuzz radii are clamped to zero.
func (s *Service) UpdatePreferences(ctx context.Context, identity string, prefs model.Preferences) (model.Profile, error) {
	if identity == "" {
		return model.Profile{}, ErrUnauthorized
	}

	if prefs.DefaultVisibility != nil {
		v := string(NormalizeVisibility(*prefs.DefaultVisibility))
		prefs.DefaultVisibility = &v
	}
	if prefs.DefaultFuzzKm != nil {
		f := effectiveFuzzKm(prefs.DefaultFuzzKm, nil)
		prefs.DefaultFuzzKm = &f
	}
	if prefs.DefaultStatus != nil && strings.TrimSpace(*prefs.DefaultStatus) == "" {
		prefs.DefaultStatus = nil
	}

	var updated model.Profile
	err := s.store.RunInTx(ctx, func(repo Repository) error {
		p, err := repo.Profile(ctx, identity)
		if err != nil {
			return errors.Wrap(err, "load profile")
		}
		if p == nil {
			return errors.Wrapf(ErrNotFound, "user %s", identity)
		}
		if err := repo.UpdatePreferences(ctx, identity, prefs, s.now()); err != nil {
			return errors.Wrap(err, "update preferences")
		}
		p.Preferences = prefs
		updated = *p
		return nil
	})
	if err != nil {
		return model.Profile{}, err
	}
	return updated, nil
}

// UpdateProfile replaces identity's handle, bio, links and skills. Handles
// are stored lower-case and must be unique; blank values are cleared.
func (s *Service) UpdateProfile(ctx context.Context, identity string, details model.ProfileDetails) (model.Profile, error) {
	if identity == "" {
		return model.Profile{}, ErrUnauthorized
	}

	details.Handle = trimmedOrNil(details.Handle)
	if details.Handle != nil {
		h := strings.ToLower(*details.Handle)
		details.Handle = &h
	}
	details.Bio = trimmedOrNil(details.Bio)
	details.Links = compactStrings(details.Links)
	details.Skills = compactStrings(details.Skills)

	var updated model.Profile
	err := s.store.RunInTx(ctx, func(repo Repository) error {
		p, err := repo.Profile(ctx, identity)
		if err != nil {
			return errors.Wrap(err, "load profile")
		}
		if p == nil {
			return errors.Wrapf(ErrNotFound, "user %s", identity)
		}
		now := s.now()
		if err := repo.UpdateProfileDetails(ctx, identity, details, now); err != nil {
			if errors.Is(err, ErrHandleTaken) {
				return err
			}
			return errors.Wrap(err, "update profile")
		}
		p.ProfileDetails = details
		p.UpdatedAt = now
		updated = *p
		return nil
	})
	if err != nil {
		return model.Profile{}, err
	}
	return updated, nil
}

// compactStrings trims each value and drops blanks and repeats, keeping the
// first occurrence.
func compactStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
