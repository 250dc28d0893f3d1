package presence

import (
	"context"
	"fmt"

	"github.com/bwise1/workin/internal/model"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const anonymousSender = "Someone"

// Wave queues a say-hello notification for target. Repeated waves queue
// repeated notifications.
func (s *Service) Wave(ctx context.Context, sender, target string) error {
	if sender == "" {
		return ErrUnauthorized
	}
	if sender == target {
		return ErrSelfTarget
	}

	var created model.Notification
	err := s.store.RunInTx(ctx, func(repo Repository) error {
		targetProfile, err := repo.Profile(ctx, target)
		if err != nil {
			return errors.Wrap(err, "load target profile")
		}
		if targetProfile == nil {
			return errors.Wrapf(ErrNotFound, "user %s", target)
		}

		senderProfile, err := repo.Profile(ctx, sender)
		if err != nil {
			return errors.Wrap(err, "load sender profile")
		}
		name, avatar := senderDisplay(senderProfile)

		created = model.Notification{
			ID:              uuid.New(),
			RecipientID:     target,
			SenderID:        &sender,
			Type:            model.NotificationSayHello,
			PayloadImageURL: avatar,
			Message:         fmt.Sprintf("%s waved hello", name),
			CreatedAt:       s.now(),
		}
		return repo.InsertNotification(ctx, &created)
	})
	if err != nil {
		return err
	}

	s.notify(created)
	return nil
}

// SendJoinRequest asks the owner of checkinID to let sender join. The sender
// must be checked in somewhere themselves.
func (s *Service) SendJoinRequest(ctx context.Context, sender string, checkinID uuid.UUID) error {
	if sender == "" {
		return ErrUnauthorized
	}

	var created model.Notification
	err := s.store.RunInTx(ctx, func(repo Repository) error {
		now := s.now()

		own, err := repo.ActiveCheckinByOwner(ctx, sender)
		if err != nil {
			return errors.Wrap(err, "load sender checkin")
		}
		if !IsLive(own, now) {
			return ErrNotCheckedIn
		}

		checkin, err := repo.CheckinByID(ctx, checkinID)
		if err != nil {
			return errors.Wrap(err, "load checkin")
		}
		if checkin == nil {
			return errors.Wrapf(ErrNotFound, "checkin %s", checkinID)
		}
		if checkin.OwnerID == sender {
			return ErrSelfJoin
		}
		if checkin.HasParticipant(sender) {
			return ErrAlreadyJoined
		}

		owner, err := repo.Profile(ctx, checkin.OwnerID)
		if err != nil {
			return errors.Wrap(err, "load owner profile")
		}
		if owner == nil {
			return errors.Wrapf(ErrNotFound, "user %s", checkin.OwnerID)
		}

		senderProfile, err := repo.Profile(ctx, sender)
		if err != nil {
			return errors.Wrap(err, "load sender profile")
		}
		name, avatar := senderDisplay(senderProfile)

		related := checkin.ID
		created = model.Notification{
			ID:               uuid.New(),
			RecipientID:      checkin.OwnerID,
			SenderID:         &sender,
			RelatedCheckinID: &related,
			Type:             model.NotificationJoinRequest,
			PayloadImageURL:  avatar,
			Message:          fmt.Sprintf("%s wants to join your check-in at %s", name, checkin.PlaceName),
			CreatedAt:        now,
		}
		return repo.InsertNotification(ctx, &created)
	})
	if err != nil {
		return err
	}

	s.notify(created)
	return nil
}

// AcceptJoinRequest adds the requester to the owner's check-in and marks the
// request read. A request can be accepted once.
func (s *Service) AcceptJoinRequest(ctx context.Context, owner string, notificationID uuid.UUID) error {
	if owner == "" {
		return ErrUnauthorized
	}

	return s.store.RunInTx(ctx, func(repo Repository) error {
		n, err := loadJoinRequest(ctx, repo, owner, notificationID)
		if err != nil {
			return err
		}
		if n.Read {
			return errors.Wrap(ErrInvalid, "join request already handled")
		}
		if n.RelatedCheckinID == nil || n.SenderID == nil {
			return errors.Wrap(ErrInvalid, "join request is missing its checkin or sender")
		}

		checkin, err := repo.CheckinByID(ctx, *n.RelatedCheckinID)
		if err != nil {
			return errors.Wrap(err, "load checkin")
		}
		if checkin == nil {
			return errors.Wrapf(ErrNotFound, "checkin %s", *n.RelatedCheckinID)
		}
		if checkin.OwnerID != owner {
			return ErrUnauthorized
		}

		if !checkin.HasParticipant(*n.SenderID) {
			if err := repo.AddParticipant(ctx, checkin.ID, *n.SenderID); err != nil {
				return errors.Wrap(err, "add participant")
			}
		}

		return repo.MarkNotificationRead(ctx, n.ID)
	})
}

// DeclineJoinRequest marks the request read without touching the check-in.
func (s *Service) DeclineJoinRequest(ctx context.Context, owner string, notificationID uuid.UUID) error {
	if owner == "" {
		return ErrUnauthorized
	}

	return s.store.RunInTx(ctx, func(repo Repository) error {
		n, err := loadJoinRequest(ctx, repo, owner, notificationID)
		if err != nil {
			return err
		}
		return repo.MarkNotificationRead(ctx, n.ID)
	})
}

func (s *Service) ListUnreadNotifications(ctx context.Context, identity string) ([]model.Notification, error) {
	if identity == "" {
		return nil, ErrUnauthorized
	}
	list, err := s.store.UnreadNotifications(ctx, identity, unreadLimit)
	if err != nil {
		return nil, errors.Wrap(err, "list unread notifications")
	}
	if list == nil {
		list = []model.Notification{}
	}
	return list, nil
}

func (s *Service) MarkNotificationRead(ctx context.Context, identity string, notificationID uuid.UUID) error {
	if identity == "" {
		return ErrUnauthorized
	}

	return s.store.RunInTx(ctx, func(repo Repository) error {
		n, err := repo.NotificationByID(ctx, notificationID)
		if err != nil {
			return errors.Wrap(err, "load notification")
		}
		if n == nil {
			return errors.Wrapf(ErrNotFound, "notification %s", notificationID)
		}
		if n.RecipientID != identity {
			return ErrUnauthorized
		}
		if n.Read {
			return nil
		}
		return repo.MarkNotificationRead(ctx, n.ID)
	})
}

// ClearAllNotifications marks every unread notification of identity read and
// reports how many were flipped.
func (s *Service) ClearAllNotifications(ctx context.Context, identity string) (int, error) {
	if identity == "" {
		return 0, ErrUnauthorized
	}

	var cleared int
	err := s.store.RunInTx(ctx, func(repo Repository) error {
		n, err := repo.MarkAllNotificationsRead(ctx, identity)
		cleared = n
		return err
	})
	if err != nil {
		return 0, errors.Wrap(err, "clear notifications")
	}
	return cleared, nil
}

func loadJoinRequest(ctx context.Context, repo Repository, owner string, id uuid.UUID) (*model.Notification, error) {
	n, err := repo.NotificationByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "load notification")
	}
	if n == nil || n.RecipientID != owner || n.Type != model.NotificationJoinRequest {
		return nil, errors.Wrap(ErrInvalid, "invalid notification")
	}
	return n, nil
}

func senderDisplay(p *model.Profile) (string, string) {
	if p == nil {
		return anonymousSender, ""
	}
	name := p.DisplayName
	if name == "" {
		name = anonymousSender
	}
	return name, p.AvatarURL
}
