package service

import (
	"context"
	"strings"
	"time"

	"github.com/brrowapp/brrow-backend/internal/model"
	"github.com/brrowapp/brrow-backend/internal/repository"
)

type UserService interface {
	UpdateProfile(ctx context.Context, uid, displayName, timezone string) (*model.User, error)
}

type userService struct {
	repo repository.UserRepository
}

func NewUserService(repo repository.UserRepository) UserService {
	return &userService{repo: repo}
}

// UpdateProfile stores the name shown in push titles and the IANA timezone
// used for quiet hours.
func (s *userService) UpdateProfile(ctx context.Context, uid, displayName, timezone string) (*model.User, error) {
	displayName = strings.TrimSpace(displayName)
	if len(displayName) > 255 {
		return nil, invalid("displayName is too long")
	}
	timezone = strings.TrimSpace(timezone)
	if timezone != "" {
		if _, err := time.LoadLocation(timezone); err != nil {
			return nil, invalid("unknown timezone " + timezone)
		}
	}
	u := &model.User{UID: uid, DisplayName: displayName, Timezone: timezone}
	if err := s.repo.Upsert(ctx, u); err != nil {
		return nil, err
	}
	return s.repo.FindByUID(ctx, uid)
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
