package repository

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"

	"nova-chat/backend/internal/model"
)

var conversationsBucket = []byte("conversations")

// BoltRepository stores conversations in a single bucket keyed by id and the
// messages of each conversation in their own bucket, keyed by a big-endian
// sequence number so that iteration order is insertion order.
type BoltRepository struct {
	db *bolt.DB
}

// NewBoltRepository opens (or creates) the database file at path.
func NewBoltRepository(path string) (*BoltRepository, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(conversationsBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create buckets: %w", err)
	}
	return &BoltRepository{db: db}, nil
}

// Close releases the database file lock.
func (b *BoltRepository) Close() error {
	return b.db.Close()
}

func messageBucketName(conversationID string) []byte {
	return []byte("messages-" + conversationID)
}

func sequenceKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}

func (b *BoltRepository) CreateConversation(_ context.Context, conv *model.Conversation) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(messageBucketName(conv.ID)); err != nil {
			return fmt.Errorf("failed to create message bucket: %w", err)
		}
		return putConversation(tx, conv)
	})
}

func putConversation(tx *bolt.Tx, conv *model.Conversation) error {
	v, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("failed to marshal conversation: %w", err)
	}
	return tx.Bucket(conversationsBucket).Put([]byte(conv.ID), v)
}

func getConversation(tx *bolt.Tx, conversationID string) (*model.Conversation, error) {
	v := tx.Bucket(conversationsBucket).Get([]byte(conversationID))
	if v == nil {
		return nil, ErrNotFound
	}
	var conv model.Conversation
	if err := json.Unmarshal(v, &conv); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversation: %w", err)
	}
	return &conv, nil
}

func (b *BoltRepository) LoadLatestConversation(ctx context.Context) (*model.Conversation, error) {
	convs, err := b.ListConversations(ctx)
	if err != nil {
		return nil, err
	}
	if len(convs) == 0 {
		return nil, ErrNotFound
	}
	return convs[0], nil
}

func (b *BoltRepository) GetConversation(_ context.Context, conversationID string) (*model.Conversation, error) {
	var conv *model.Conversation
	err := b.db.View(func(tx *bolt.Tx) error {
		var err error
		conv, err = getConversation(tx, conversationID)
		return err
	})
	return conv, err
}

// ListConversations returns conversations, most recently updated first.
func (b *BoltRepository) ListConversations(context.Context) ([]*model.Conversation, error) {
	convs := []*model.Conversation{}
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(conversationsBucket).ForEach(func(_, v []byte) error {
			var conv model.Conversation
			if err := json.Unmarshal(v, &conv); err != nil {
				return fmt.Errorf("failed to unmarshal conversation: %w", err)
			}
			convs = append(convs, &conv)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(convs, func(i, j int) bool {
		return convs[i].UpdatedAt.After(convs[j].UpdatedAt)
	})
	return convs, nil
}

func (b *BoltRepository) UpdateConversationTitle(_ context.Context, conversationID, title string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		conv, err := getConversation(tx, conversationID)
		if err != nil {
			return err
		}
		conv.Title = title
		conv.UpdatedAt = time.Now().UTC()
		return putConversation(tx, conv)
	})
}

func (b *BoltRepository) DeleteConversation(_ context.Context, conversationID string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(messageBucketName(conversationID)); err != nil && err != bolt.ErrBucketNotFound {
			return fmt.Errorf("failed to delete message bucket: %w", err)
		}
		return tx.Bucket(conversationsBucket).Delete([]byte(conversationID))
	})
}

func (b *BoltRepository) AppendMessage(_ context.Context, conversationID string, msg *model.Message) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		conv, err := getConversation(tx, conversationID)
		if err != nil {
			return err
		}
		bucket, err := tx.CreateBucketIfNotExists(messageBucketName(conversationID))
		if err != nil {
			return fmt.Errorf("failed to open message bucket: %w", err)
		}

		seq, err := bucket.NextSequence()
		if err != nil {
			return fmt.Errorf("failed to get next sequence: %w", err)
		}
		stored := *msg
		stored.ConversationID = conversationID
		stored.Streaming = false
		v, err := json.Marshal(stored)
		if err != nil {
			return fmt.Errorf("failed to marshal message: %w", err)
		}
		if err := bucket.Put(sequenceKey(seq), v); err != nil {
			return err
		}

		conv.UpdatedAt = time.Now().UTC()
		return putConversation(tx, conv)
	})
}

func (b *BoltRepository) ListMessages(_ context.Context, conversationID string) ([]model.Message, error) {
	messages := []model.Message{}
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(messageBucketName(conversationID))
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(_, v []byte) error {
			var msg model.Message
			if err := json.Unmarshal(v, &msg); err != nil {
				return fmt.Errorf("failed to unmarshal message: %w", err)
			}
			messages = append(messages, msg)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}
