package services_test

import (
	"context"
	"testing"

	"github.com/healthtracker/healthtracker/internal/services"
	"github.com/healthtracker/healthtracker/internal/testutil"
	"github.com/healthtracker/healthtracker/pkg/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatService_CreateMessageValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := testutil.CreateUser(t, env.db, "Alice", "A")

	_, err := env.chat.CreateMessage(ctx, &services.CreateMessageRequest{UserIDFrom: alice.ID, UserIDTo: alice.ID, Text: "  "})
	assert.ErrorIs(t, err, services.ErrEmptyMessage)

	// 收件人先于发件人校验
	_, err = env.chat.CreateMessage(ctx, &services.CreateMessageRequest{UserIDFrom: 501, UserIDTo: 502, Text: "hi"})
	require.ErrorIs(t, err, services.ErrUserNotFound)
	assert.Contains(t, err.Error(), "502")

	_, err = env.chat.CreateMessage(ctx, &services.CreateMessageRequest{UserIDFrom: 501, UserIDTo: alice.ID, Text: "hi"})
	require.ErrorIs(t, err, services.ErrUserNotFound)
	assert.Contains(t, err.Error(), "501")

	assert.Empty(t, env.publisher.Events())
}

func TestChatService_Conversation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := testutil.CreateUser(t, env.db, "Alice", "A")
	bob := testutil.CreateUser(t, env.db, "Bob", "B")

	send := func(from, to uint, text string) {
		_, err := env.chat.CreateMessage(ctx, &services.CreateMessageRequest{UserIDFrom: from, UserIDTo: to, Text: text})
		require.NoError(t, err)
	}
	send(alice.ID, bob.ID, "one")
	send(alice.ID, bob.ID, "two")
	send(bob.ID, alice.ID, "three")

	fromAlice, err := env.chat.GetNumberOfNewMessages(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), fromAlice)

	fromBob, err := env.chat.GetNumberOfNewMessages(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), fromBob)

	require.NoError(t, env.chat.UpdateMessagesToReaded(ctx, alice.ID, bob.ID))
	fromAlice, err = env.chat.GetNumberOfNewMessages(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Zero(t, fromAlice)

	// 没有未读消息时不发事件
	require.NoError(t, env.chat.UpdateMessagesToReaded(ctx, alice.ID, bob.ID))

	page, err := env.chat.GetMessages(ctx, bob.ID, alice.ID, 1, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "three", page[0].Text)

	_, err = env.chat.GetMessages(ctx, alice.ID, bob.ID, 3, 2)
	assert.ErrorIs(t, err, services.ErrNullPage)

	_, err = env.chat.GetMessages(ctx, alice.ID, bob.ID, 1, 0)
	assert.ErrorIs(t, err, services.ErrInvalidPage)

	msg, err := env.chat.GetMessage(ctx, page[0].ID)
	require.NoError(t, err)
	assert.Equal(t, bob.ID, msg.UserIDFrom)

	_, err = env.chat.GetMessage(ctx, 999)
	assert.ErrorIs(t, err, services.ErrMessageNotFound)

	assert.Equal(t, []queue.EventType{
		queue.EventMessageCreated,
		queue.EventMessageCreated,
		queue.EventMessageCreated,
		queue.EventMessagesRead,
	}, env.publisher.Types())
}
