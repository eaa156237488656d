package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nova-chat/backend/internal/model"
	"nova-chat/backend/internal/repository"
)

// exerciseRepository checks the behavior every backend must share.
func exerciseRepository(t *testing.T, repo repository.Repository) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	_, err := repo.LoadLatestConversation(ctx)
	require.ErrorIs(t, err, repository.ErrNotFound)

	older := &model.Conversation{ID: "c-old", Title: "New Chat", CreatedAt: base, UpdatedAt: base}
	newer := &model.Conversation{ID: "c-new", Title: "New Chat", CreatedAt: base.Add(time.Minute), UpdatedAt: base.Add(time.Minute)}
	require.NoError(t, repo.CreateConversation(ctx, older))
	require.NoError(t, repo.CreateConversation(ctx, newer))

	latest, err := repo.LoadLatestConversation(ctx)
	require.NoError(t, err)
	assert.Equal(t, "c-new", latest.ID)

	// Appending touches the conversation, making it the latest.
	msgs := []*model.Message{
		{ID: "m1", Role: model.RoleUser, Content: "Hello", CreatedAt: base.Add(2 * time.Minute)},
		{ID: "m2", Role: model.RoleAssistant, Content: "Hi there 🙂", CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, m := range msgs {
		require.NoError(t, repo.AppendMessage(ctx, "c-old", m))
	}
	assert.ErrorIs(t, repo.AppendMessage(ctx, "nope", &model.Message{ID: "m9", Role: model.RoleUser, CreatedAt: base}), repository.ErrNotFound)

	latest, err = repo.LoadLatestConversation(ctx)
	require.NoError(t, err)
	assert.Equal(t, "c-old", latest.ID)

	stored, err := repo.ListMessages(ctx, "c-old")
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, "m1", stored[0].ID)
	assert.Equal(t, "Hello", stored[0].Content)
	assert.Equal(t, model.RoleAssistant, stored[1].Role)
	assert.Equal(t, "Hi there 🙂", stored[1].Content)
	assert.Equal(t, "c-old", stored[1].ConversationID)

	require.NoError(t, repo.UpdateConversationTitle(ctx, "c-old", "Hello"))
	conv, err := repo.GetConversation(ctx, "c-old")
	require.NoError(t, err)
	assert.Equal(t, "Hello", conv.Title)
	assert.ErrorIs(t, repo.UpdateConversationTitle(ctx, "nope", "x"), repository.ErrNotFound)

	all, err := repo.ListConversations(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "c-old", all[0].ID)

	require.NoError(t, repo.DeleteConversation(ctx, "c-old"))
	require.NoError(t, repo.DeleteConversation(ctx, "c-old"))
	_, err = repo.GetConversation(ctx, "c-old")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	stored, err = repo.ListMessages(ctx, "c-old")
	require.NoError(t, err)
	assert.Empty(t, stored)
}
