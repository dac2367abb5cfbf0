package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/brrowapp/brrow-backend/internal/dispatch"
	"github.com/brrowapp/brrow-backend/internal/model"
	"github.com/brrowapp/brrow-backend/internal/repository"
	"go.uber.org/zap"
)

const (
	maxMessageLength = 4000
	maxParticipants  = 50
	enqueueTimeout   = 2 * time.Second
)

type ConversationService interface {
	Create(ctx context.Context, creatorUID, title string, participantUIDs []string) (*model.Conversation, error)
	ListByUser(ctx context.Context, uid string) ([]model.Conversation, error)
	ListMessages(ctx context.Context, convID uint64, uid string, afterSeq uint64, limit int) ([]model.Message, error)
	SendMessage(ctx context.Context, convID uint64, uid string, typ model.MessageType, body string) (*model.Message, error)
	SetMuted(ctx context.Context, convID uint64, uid string, muted bool) error
	RemoveParticipant(ctx context.Context, convID uint64, actorUID, targetUID string) error
	Delete(ctx context.Context, convID uint64, uid string) error
	MarkRead(ctx context.Context, convID uint64, uid string) error
}

type conversationService struct {
	convRepo  repository.ConversationRepository
	notifRepo repository.NotificationRepository
	queue     dispatch.Queue
	log       *zap.Logger
}

func NewConversationService(convRepo repository.ConversationRepository, notifRepo repository.NotificationRepository, queue dispatch.Queue, log *zap.Logger) ConversationService {
	return &conversationService{convRepo: convRepo, notifRepo: notifRepo, queue: queue, log: log}
}

func (s *conversationService) Create(ctx context.Context, creatorUID, title string, participantUIDs []string) (*model.Conversation, error) {
	uids := []string{creatorUID}
	for _, uid := range participantUIDs {
		if uid = strings.TrimSpace(uid); uid != "" && uid != creatorUID {
			uids = append(uids, uid)
		}
	}
	if len(uids) < 2 {
		return nil, invalid("a conversation needs at least one other participant")
	}
	if len(uids) > maxParticipants {
		return nil, invalid("too many participants")
	}
	return s.convRepo.Create(ctx, strings.TrimSpace(title), uids)
}

func (s *conversationService) ListByUser(ctx context.Context, uid string) ([]model.Conversation, error) {
	return s.convRepo.FindByUser(ctx, uid)
}

func (s *conversationService) ListMessages(ctx context.Context, convID uint64, uid string, afterSeq uint64, limit int) ([]model.Message, error) {
	if err := s.requireParticipant(ctx, convID, uid); err != nil {
		return nil, err
	}
	return s.convRepo.ListMessages(ctx, convID, afterSeq, limit)
}

// SendMessage stores the message and queues its notifications. The message is
// committed before the job is queued; a queueing failure is logged and never
// surfaces to the sender.
func (s *conversationService) SendMessage(ctx context.Context, convID uint64, uid string, typ model.MessageType, body string) (*model.Message, error) {
	if typ == "" {
		typ = model.MessageTypeText
	}
	if !typ.Valid() {
		return nil, invalid("unknown message type")
	}
	body = strings.TrimSpace(body)
	if body == "" && typ != model.MessageTypeImage {
		return nil, invalid("body is required")
	}
	if utf8.RuneCountInString(body) > maxMessageLength {
		return nil, invalid("body is too long")
	}
	if err := s.requireParticipant(ctx, convID, uid); err != nil {
		return nil, err
	}
	msg, err := s.convRepo.AppendMessage(ctx, convID, uid, typ, body)
	if err != nil {
		return nil, translate(err)
	}
	s.onMessageCreated(ctx, msg)
	return msg, nil
}

func (s *conversationService) onMessageCreated(ctx context.Context, msg *model.Message) {
	qctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), enqueueTimeout)
	defer cancel()
	job := dispatch.Job{MessageID: msg.ID, ConversationID: msg.ConversationID}
	if err := s.queue.Enqueue(qctx, job); err != nil {
		s.log.Error("enqueue notification job",
			zap.Uint64("message_id", msg.ID),
			zap.Uint64("conversation_id", msg.ConversationID),
			zap.Error(err))
	}
}

func (s *conversationService) SetMuted(ctx context.Context, convID uint64, uid string, muted bool) error {
	if err := s.requireParticipant(ctx, convID, uid); err != nil {
		return err
	}
	return translate(s.convRepo.SetMuted(ctx, convID, uid, muted))
}

// RemoveParticipant lets any current participant remove anyone, including
// themselves.
func (s *conversationService) RemoveParticipant(ctx context.Context, convID uint64, actorUID, targetUID string) error {
	if err := s.requireParticipant(ctx, convID, actorUID); err != nil {
		return err
	}
	return translate(s.convRepo.RemoveParticipant(ctx, convID, targetUID))
}

func (s *conversationService) Delete(ctx context.Context, convID uint64, uid string) error {
	if err := s.requireParticipant(ctx, convID, uid); err != nil {
		return err
	}
	return translate(s.convRepo.Delete(ctx, convID))
}

func (s *conversationService) MarkRead(ctx context.Context, convID uint64, uid string) error {
	if err := s.requireParticipant(ctx, convID, uid); err != nil {
		return err
	}
	if err := s.convRepo.MarkRead(ctx, convID, uid, time.Now().UTC()); err != nil {
		return translate(err)
	}
	return s.notifRepo.MarkByConversation(ctx, uid, convID)
}

func (s *conversationService) requireParticipant(ctx context.Context, convID uint64, uid string) error {
	if _, err := s.convRepo.FindByID(ctx, convID); err != nil {
		return translate(err)
	}
	ok, err := s.convRepo.IsParticipant(ctx, convID, uid)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}
