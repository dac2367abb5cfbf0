package service

import (
	"context"
	"time"

	"github.com/brrowapp/brrow-backend/internal/model"
	"github.com/brrowapp/brrow-backend/internal/repository"
)

// DeliveryService exposes the delivery attempt log.
type DeliveryService interface {
	// ForMessage is the sender's view of a message's attempts.
	ForMessage(ctx context.Context, uid string, msgID uint64) ([]model.DeliveryAttempt, error)
	Query(ctx context.Context, f repository.DeliveryFilter) ([]model.DeliveryAttempt, error)
	Health(ctx context.Context, since time.Time) (map[model.DeliveryStatus]int64, error)
}

type deliveryService struct {
	convRepo     repository.ConversationRepository
	deliveryRepo repository.DeliveryRepository
}

func NewDeliveryService(convRepo repository.ConversationRepository, deliveryRepo repository.DeliveryRepository) DeliveryService {
	return &deliveryService{convRepo: convRepo, deliveryRepo: deliveryRepo}
}

func (s *deliveryService) ForMessage(ctx context.Context, uid string, msgID uint64) ([]model.DeliveryAttempt, error) {
	msg, err := s.convRepo.FindMessage(ctx, msgID)
	if err != nil {
		return nil, translate(err)
	}
	if msg.SenderUID != uid {
		return nil, ErrForbidden
	}
	return s.deliveryRepo.Query(ctx, repository.DeliveryFilter{MessageID: msgID, Limit: 500})
}

func (s *deliveryService) Query(ctx context.Context, f repository.DeliveryFilter) ([]model.DeliveryAttempt, error) {
	return s.deliveryRepo.Query(ctx, f)
}

func (s *deliveryService) Health(ctx context.Context, since time.Time) (map[model.DeliveryStatus]int64, error) {
	counts, err := s.deliveryRepo.CountByStatus(ctx, since)
	if err != nil {
		return nil, err
	}
	for _, st := range []model.DeliveryStatus{
		model.DeliveryQueued, model.DeliverySent, model.DeliveryFailedRetryable,
		model.DeliveryFailedPermanent, model.DeliveryNoDevice,
	} {
		if _, ok := counts[st]; !ok {
			counts[st] = 0
		}
	}
	return counts, nil
}
