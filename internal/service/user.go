package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Skotchmaster/storefront/internal/identity"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type UserService struct {
	Repo     *repo.GormRepo
	Events   Publisher
	AdminIDs []string
}

func (s *UserService) isConfiguredAdmin(userID string) bool {
	for _, id := range s.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// ResolveRole backs the admin middleware when the session token carries no role claim.
func (s *UserService) ResolveRole(ctx context.Context, userID string) (string, error) {
	if s.isConfiguredAdmin(userID) {
		return models.RoleAdmin, nil
	}
	u, err := s.Repo.GetUser(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return models.RoleCustomer, nil
		}
		return "", err
	}
	return u.Role, nil
}

// Me returns the caller's profile, creating the row from token claims on first use.
func (s *UserService) Me(ctx context.Context, userID, email string) (*models.User, error) {
	u, err := s.Repo.GetUser(ctx, userID)
	if err == nil {
		return u, nil
	}
	if !isNotFound(err) {
		return nil, err
	}

	role := models.RoleCustomer
	if s.isConfiguredAdmin(userID) {
		role = models.RoleAdmin
	}
	email = strings.TrimSpace(email)
	if email == "" {
		// Not persisted until the identity webhook delivers an address.
		return &models.User{ID: userID, Role: role}, nil
	}

	if err := s.Repo.CreateUserIfMissing(ctx, &models.User{ID: userID, Email: email, Role: role}); err != nil {
		return nil, err
	}
	u, err = s.Repo.GetUser(ctx, userID)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return u, nil
}

func (s *UserService) ListUsers(ctx context.Context, query string, offset, limit int) (int64, []models.User, error) {
	return s.Repo.ListUsers(ctx, query, offset, limit)
}

func (s *UserService) SetUserRole(ctx context.Context, userID, role string) (*models.User, error) {
	role = strings.ToLower(strings.TrimSpace(role))
	if role != models.RoleAdmin && role != models.RoleCustomer {
		return nil, fmt.Errorf("%w: role must be customer or admin", ErrValidation)
	}
	u, err := s.Repo.SetUserRole(ctx, userID, role)
	if err != nil {
		return nil, notFound(err, "user")
	}
	s.changed(ctx, "user_role_changed", u.ID, u.Role)
	return u, nil
}

// ApplyIdentityEvent mirrors a provider user event into the users table.
func (s *UserService) ApplyIdentityEvent(ctx context.Context, ev *identity.Event) error {
	l := logging.FromContext(ctx).With("event", ev.Type, "user_id", ev.Data.ID)
	if ev.Data.ID == "" {
		return fmt.Errorf("%w: event has no user id", ErrValidation)
	}

	switch ev.Type {
	case identity.EventUserCreated, identity.EventUserUpdated:
		email := ev.Data.PrimaryEmail()
		if email == "" {
			return fmt.Errorf("%w: user has no email address", ErrValidation)
		}

		role := models.RoleCustomer
		existing, err := s.Repo.GetUser(ctx, ev.Data.ID)
		switch {
		case err == nil:
			role = existing.Role
		case !isNotFound(err):
			return err
		}
		if strings.EqualFold(ev.Data.PublicMetadata.Role, models.RoleAdmin) || s.isConfiguredAdmin(ev.Data.ID) {
			role = models.RoleAdmin
		}

		u := &models.User{
			ID:        ev.Data.ID,
			Email:     email,
			FirstName: ev.Data.FirstName,
			LastName:  ev.Data.LastName,
			ImageURL:  ev.Data.ImageURL,
			Role:      role,
		}
		if err := s.Repo.UpsertUser(ctx, u); err != nil {
			return dupKey(err, "email")
		}
		l.Infow("user_synced", "role", role)
		s.changed(ctx, strings.ReplaceAll(ev.Type, ".", "_"), u.ID, u.Role)

	case identity.EventUserDeleted:
		if err := s.Repo.DeleteUser(ctx, ev.Data.ID); err != nil && !isNotFound(err) {
			return err
		}
		l.Infow("user_deleted")
		s.changed(ctx, "user_deleted", ev.Data.ID, "")

	default:
		l.Debugw("identity_event_ignored")
	}
	return nil
}

func (s *UserService) changed(ctx context.Context, eventType, userID, role string) {
	publish(ctx, s.Events, TopicUsers, userID, map[string]any{
		"type":   eventType,
		"userID": userID,
		"role":   role,
	})
}
