package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"nova-chat/backend/internal/model"
)

const conversationsIndexKey = "conversations"

type redisRepository struct {
	rdb *redis.Client
}

// NewRedisRepository stores each conversation and message as a hash.
// A sorted set scored by updated_at indexes conversations and a sorted set
// scored by a per-conversation counter orders the messages.
func NewRedisRepository(rdb *redis.Client) Repository {
	return &redisRepository{rdb: rdb}
}

func conversationKey(id string) string { return fmt.Sprintf("conversation:%s", id) }
func messagesKey(id string) string     { return fmt.Sprintf("conversation:%s:messages", id) }
func sequenceCounterKey(id string) string {
	return fmt.Sprintf("conversation:%s:seq", id)
}
func messageKey(id string) string { return fmt.Sprintf("message:%s", id) }

func (r *redisRepository) CreateConversation(ctx context.Context, conv *model.Conversation) error {
	pipe := r.rdb.TxPipeline()
	pipe.HSet(ctx, conversationKey(conv.ID), conversationToHash(conv))
	pipe.ZAdd(ctx, conversationsIndexKey, redis.Z{Score: float64(conv.UpdatedAt.UnixNano()), Member: conv.ID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("could not store conversation: %w", err)
	}
	return nil
}

func (r *redisRepository) LoadLatestConversation(ctx context.Context) (*model.Conversation, error) {
	ids, err := r.rdb.ZRevRange(ctx, conversationsIndexKey, 0, 0).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, ErrNotFound
	}
	return r.GetConversation(ctx, ids[0])
}

func (r *redisRepository) GetConversation(ctx context.Context, conversationID string) (*model.Conversation, error) {
	fields, err := r.rdb.HGetAll(ctx, conversationKey(conversationID)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}
	return hashToConversation(fields)
}

func (r *redisRepository) ListConversations(ctx context.Context) ([]*model.Conversation, error) {
	ids, err := r.rdb.ZRevRange(ctx, conversationsIndexKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	convs := make([]*model.Conversation, 0, len(ids))
	for _, id := range ids {
		conv, err := r.GetConversation(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		convs = append(convs, conv)
	}
	return convs, nil
}

func (r *redisRepository) UpdateConversationTitle(ctx context.Context, conversationID, title string) error {
	key := conversationKey(conversationID)
	exists, err := r.rdb.Exists(ctx, key).Result()
	if err != nil {
		return err
	}
	if exists == 0 {
		return ErrNotFound
	}

	now := time.Now().UTC()
	pipe := r.rdb.TxPipeline()
	pipe.HSet(ctx, key, "title", title, "updated_at", now.Format(time.RFC3339Nano))
	pipe.ZAdd(ctx, conversationsIndexKey, redis.Z{Score: float64(now.UnixNano()), Member: conversationID})
	_, err = pipe.Exec(ctx)
	return err
}

func (r *redisRepository) DeleteConversation(ctx context.Context, conversationID string) error {
	msgIDs, err := r.rdb.ZRange(ctx, messagesKey(conversationID), 0, -1).Result()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("could not get message IDs for deletion: %w", err)
	}

	pipe := r.rdb.TxPipeline()
	if len(msgIDs) > 0 {
		keys := make([]string, len(msgIDs))
		for i, id := range msgIDs {
			keys[i] = messageKey(id)
		}
		pipe.Del(ctx, keys...)
	}
	pipe.Del(ctx, conversationKey(conversationID), messagesKey(conversationID), sequenceCounterKey(conversationID))
	pipe.ZRem(ctx, conversationsIndexKey, conversationID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to execute conversation deletion pipeline: %w", err)
	}
	return nil
}

func (r *redisRepository) AppendMessage(ctx context.Context, conversationID string, msg *model.Message) error {
	key := conversationKey(conversationID)
	exists, err := r.rdb.Exists(ctx, key).Result()
	if err != nil {
		return err
	}
	if exists == 0 {
		return ErrNotFound
	}

	seq, err := r.rdb.Incr(ctx, sequenceCounterKey(conversationID)).Result()
	if err != nil {
		return fmt.Errorf("could not allocate message sequence: %w", err)
	}

	now := time.Now().UTC()
	pipe := r.rdb.TxPipeline()
	pipe.HSet(ctx, messageKey(msg.ID), messageToHash(conversationID, msg))
	pipe.ZAdd(ctx, messagesKey(conversationID), redis.Z{Score: float64(seq), Member: msg.ID})
	pipe.HSet(ctx, key, "updated_at", now.Format(time.RFC3339Nano))
	pipe.ZAdd(ctx, conversationsIndexKey, redis.Z{Score: float64(now.UnixNano()), Member: conversationID})
	_, err = pipe.Exec(ctx)
	return err
}

func (r *redisRepository) ListMessages(ctx context.Context, conversationID string) ([]model.Message, error) {
	msgIDs, err := r.rdb.ZRange(ctx, messagesKey(conversationID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	messages := make([]model.Message, 0, len(msgIDs))
	for _, id := range msgIDs {
		fields, err := r.rdb.HGetAll(ctx, messageKey(id)).Result()
		if err != nil {
			return nil, err
		}
		if len(fields) == 0 {
			continue
		}
		msg, err := hashToMessage(fields)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

func conversationToHash(conv *model.Conversation) map[string]any {
	return map[string]any{
		"id":         conv.ID,
		"title":      conv.Title,
		"created_at": conv.CreatedAt.UTC().Format(time.RFC3339Nano),
		"updated_at": conv.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func hashToConversation(fields map[string]string) (*model.Conversation, error) {
	created, err := time.Parse(time.RFC3339Nano, fields["created_at"])
	if err != nil {
		return nil, fmt.Errorf("invalid created_at: %w", err)
	}
	updated, err := time.Parse(time.RFC3339Nano, fields["updated_at"])
	if err != nil {
		return nil, fmt.Errorf("invalid updated_at: %w", err)
	}
	return &model.Conversation{
		ID:        fields["id"],
		Title:     fields["title"],
		CreatedAt: created,
		UpdatedAt: updated,
	}, nil
}

func messageToHash(conversationID string, msg *model.Message) map[string]any {
	return map[string]any{
		"id":              msg.ID,
		"conversation_id": conversationID,
		"role":            string(msg.Role),
		"content":         msg.Content,
		"created_at":      msg.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func hashToMessage(fields map[string]string) (model.Message, error) {
	created, err := time.Parse(time.RFC3339Nano, fields["created_at"])
	if err != nil {
		return model.Message{}, fmt.Errorf("invalid created_at: %w", err)
	}
	return model.Message{
		ID:             fields["id"],
		ConversationID: fields["conversation_id"],
		Role:           model.Role(fields["role"]),
		Content:        fields["content"],
		CreatedAt:      created,
	}, nil
}
