package repository

import (
	"context"
	"time"

	"github.com/brrowapp/brrow-backend/internal/model"
	"gorm.io/gorm"
)

// ConversationRepository is the message store: conversations, their
// participants and the ordered message log.
type ConversationRepository interface {
	Create(ctx context.Context, title string, participantUIDs []string) (*model.Conversation, error)
	FindByID(ctx context.Context, id uint64) (*model.Conversation, error)
	FindByUser(ctx context.Context, uid string) ([]model.Conversation, error)
	Participants(ctx context.Context, convID uint64) ([]model.Participant, error)
	IsParticipant(ctx context.Context, convID uint64, uid string) (bool, error)
	AppendMessage(ctx context.Context, convID uint64, senderUID string, typ model.MessageType, body string) (*model.Message, error)
	FindMessage(ctx context.Context, id uint64) (*model.Message, error)
	ListMessages(ctx context.Context, convID, afterSeq uint64, limit int) ([]model.Message, error)
	SetMuted(ctx context.Context, convID uint64, uid string, muted bool) error
	MarkRead(ctx context.Context, convID uint64, uid string, at time.Time) error
	RemoveParticipant(ctx context.Context, convID uint64, uid string) error
	Delete(ctx context.Context, convID uint64) error
}

type conversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

func (r *conversationRepository) Create(ctx context.Context, title string, participantUIDs []string) (*model.Conversation, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	seen := make(map[string]struct{}, len(participantUIDs))
	cv := model.Conversation{Title: title}
	for _, uid := range participantUIDs {
		if _, ok := seen[uid]; ok || uid == "" {
			continue
		}
		seen[uid] = struct{}{}
		cv.Participants = append(cv.Participants, model.Participant{UserUID: uid})
	}
	if err := r.db.WithContext(ctx).Create(&cv).Error; err != nil {
		return nil, err
	}
	return &cv, nil
}

func (r *conversationRepository) FindByID(ctx context.Context, id uint64) (*model.Conversation, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var cv model.Conversation
	if err := r.db.WithContext(ctx).Preload("Participants").First(&cv, id).Error; err != nil {
		return nil, mapErr(err)
	}
	return &cv, nil
}

func (r *conversationRepository) FindByUser(ctx context.Context, uid string) ([]model.Conversation, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var list []model.Conversation
	if err := r.db.WithContext(ctx).
		Preload("Participants").
		Where("id IN (?)", r.db.Model(&model.Participant{}).Select("conversation_id").Where("user_uid = ?", uid)).
		Order("updated_at DESC, id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// Participants returns the current membership. A deleted conversation has no
// participants and yields ErrNotFound.
func (r *conversationRepository) Participants(ctx context.Context, convID uint64) ([]model.Participant, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var cv model.Conversation
	if err := r.db.WithContext(ctx).Select("id").First(&cv, convID).Error; err != nil {
		return nil, mapErr(err)
	}
	var list []model.Participant
	if err := r.db.WithContext(ctx).
		Where("conversation_id = ?", convID).
		Order("id ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *conversationRepository) IsParticipant(ctx context.Context, convID uint64, uid string) (bool, error) {
	if r.db == nil {
		return false, ErrDBNotReady
	}
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(&model.Participant{}).
		Where("conversation_id = ? AND user_uid = ?", convID, uid).
		Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

// AppendMessage bumps the conversation's sequence counter and inserts the
// message in one transaction. The UPDATE holds the conversation row lock until
// commit, so concurrent appends to one conversation serialize.
func (r *conversationRepository) AppendMessage(ctx context.Context, convID uint64, senderUID string, typ model.MessageType, body string) (*model.Message, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var msg *model.Message
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Conversation{}).
			Where("id = ?", convID).
			Updates(map[string]any{
				"last_seq":   gorm.Expr("last_seq + 1"),
				"updated_at": tx.NowFunc(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		var cv model.Conversation
		if err := tx.Select("id", "last_seq").First(&cv, convID).Error; err != nil {
			return mapErr(err)
		}
		msg = &model.Message{
			ConversationID: convID,
			Seq:            cv.LastSeq,
			SenderUID:      senderUID,
			Type:           typ,
			Body:           body,
		}
		return tx.Create(msg).Error
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func (r *conversationRepository) FindMessage(ctx context.Context, id uint64) (*model.Message, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var msg model.Message
	if err := r.db.WithContext(ctx).First(&msg, id).Error; err != nil {
		return nil, mapErr(err)
	}
	return &msg, nil
}

func (r *conversationRepository) ListMessages(ctx context.Context, convID, afterSeq uint64, limit int) ([]model.Message, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var msgs []model.Message
	if err := r.db.WithContext(ctx).
		Where("conversation_id = ? AND seq > ?", convID, afterSeq).
		Order("seq ASC").
		Limit(limit).
		Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

func (r *conversationRepository) SetMuted(ctx context.Context, convID uint64, uid string, muted bool) error {
	return r.updateParticipant(ctx, convID, uid, map[string]any{"muted": muted})
}

func (r *conversationRepository) MarkRead(ctx context.Context, convID uint64, uid string, at time.Time) error {
	return r.updateParticipant(ctx, convID, uid, map[string]any{"last_read_at": at})
}

func (r *conversationRepository) updateParticipant(ctx context.Context, convID uint64, uid string, fields map[string]any) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	res := r.db.WithContext(ctx).
		Model(&model.Participant{}).
		Where("conversation_id = ? AND user_uid = ?", convID, uid).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// MySQL reports zero rows when the values did not change.
		ok, err := r.IsParticipant(ctx, convID, uid)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}
	}
	return nil
}

func (r *conversationRepository) RemoveParticipant(ctx context.Context, convID uint64, uid string) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	res := r.db.WithContext(ctx).
		Where("conversation_id = ? AND user_uid = ?", convID, uid).
		Delete(&model.Participant{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *conversationRepository) Delete(ctx context.Context, convID uint64) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	res := r.db.WithContext(ctx).Delete(&model.Conversation{}, convID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
