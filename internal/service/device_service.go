package service

import (
	"context"
	"strings"

	"github.com/brrowapp/brrow-backend/internal/model"
	"github.com/brrowapp/brrow-backend/internal/repository"
)

const maxTokenLength = 512

type DeviceInput struct {
	Token    string
	Platform model.Platform
	// Web push subscription keys, required for web devices.
	P256dh string
	Auth   string
}

type DeviceService interface {
	Register(ctx context.Context, uid string, in DeviceInput) (*model.Device, error)
	List(ctx context.Context, uid string) ([]model.Device, error)
	Deactivate(ctx context.Context, uid string, id uint64) error
}

type deviceService struct {
	repo repository.DeviceRepository
}

func NewDeviceService(repo repository.DeviceRepository) DeviceService {
	return &deviceService{repo: repo}
}

// Register is an upsert on the token; re-registering a deactivated token
// brings it back.
func (s *deviceService) Register(ctx context.Context, uid string, in DeviceInput) (*model.Device, error) {
	in.Token = strings.TrimSpace(in.Token)
	if in.Token == "" {
		return nil, invalid("token is required")
	}
	if len(in.Token) > maxTokenLength {
		return nil, invalid("token is too long")
	}
	in.Platform = model.Platform(strings.ToLower(string(in.Platform)))
	if !in.Platform.Valid() {
		return nil, invalid("platform must be ios, android or web")
	}
	if in.Platform == model.PlatformWeb {
		if !strings.HasPrefix(in.Token, "https://") {
			return nil, invalid("web token must be the subscription endpoint URL")
		}
		if in.P256dh == "" || in.Auth == "" {
			return nil, invalid("web devices need p256dh and auth keys")
		}
	} else {
		in.P256dh, in.Auth = "", ""
	}
	return s.repo.Register(ctx, &model.Device{
		UserUID:       uid,
		Token:         in.Token,
		Platform:      in.Platform,
		WebPushP256dh: in.P256dh,
		WebPushAuth:   in.Auth,
	})
}

func (s *deviceService) List(ctx context.Context, uid string) ([]model.Device, error) {
	return s.repo.ListByUser(ctx, uid)
}

func (s *deviceService) Deactivate(ctx context.Context, uid string, id uint64) error {
	d, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return translate(err)
	}
	// Other users' devices are reported as missing.
	if d.UserUID != uid {
		return ErrNotFound
	}
	return s.repo.Deactivate(ctx, id, nowUTC())
}
