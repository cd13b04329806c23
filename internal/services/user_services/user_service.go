// File: internal/services/user_services/user_service.go
package user_services

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"

	"github.com/iyunix/go-converse/internal/domain"
	"github.com/iyunix/go-converse/internal/repository/user"
)

// profileColors is the palette new users are assigned from.
var profileColors = []string{
	"#F97316", "#EF4444", "#EAB308", "#22C55E",
	"#14B8A6", "#3B82F6", "#6366F1", "#A855F7",
	"#EC4899", "#64748B",
}

// ErrMissingSubject is returned for identities without a subject claim.
var ErrMissingSubject = errors.New("identity subject is required")

// UserService provisions local users for verified identities.
type UserService struct {
	userRepo user.UserRepository
	logger   Logger
}

func NewUserService(userRepo user.UserRepository, logger Logger) *UserService {
	return &UserService{userRepo: userRepo, logger: logger}
}

// Provision returns the local user for identity, creating it on first sight.
// Existing users are returned unchanged.
func (s *UserService) Provision(ctx context.Context, identity Identity) (*domain.User, error) {
	subject := strings.TrimSpace(identity.Subject)
	if subject == "" {
		return nil, ErrMissingSubject
	}

	u, err := s.userRepo.FindOrCreate(ctx, &domain.User{
		ExternalID:   subject,
		Email:        strings.TrimSpace(identity.Email),
		FirstName:    strings.TrimSpace(identity.FirstName),
		LastName:     strings.TrimSpace(identity.LastName),
		ProfileColor: ProfileColorFor(subject),
	})
	if err != nil {
		s.logger.Error("failed to provision user", "error", err)
		return nil, err
	}
	return u, nil
}

// ProfileColorFor picks a stable palette colour for subject.
func ProfileColorFor(subject string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(subject))
	return profileColors[h.Sum32()%uint32(len(profileColors))]
}
