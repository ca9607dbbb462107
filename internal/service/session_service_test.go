package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"govchat-server/internal/model"
)

func TestCreateAndListSessions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.createUser(t, "a@x.com")
	clock := newSteppingClock(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC), time.Second)
	env.sessions.SetClock(clock.Now)

	first := env.createSession(t, u.ID, "First")
	second := env.createSession(t, u.ID, "Second")
	assert.Nil(t, first.LastMessage)

	list, err := env.sessions.ListSessions(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)

	// 在较早的会话中活动后它排到最前
	require.NoError(t, env.sessions.TouchSession(ctx, first.ID, "ping", clock.Now()))
	list, err = env.sessions.ListSessions(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, list[0].ID)
	require.NotNil(t, list[0].LastMessage)
	assert.Equal(t, "ping", *list[0].LastMessage)

	empty, err := env.sessions.ListSessions(ctx, 4242)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestCreateSessionUnknownUser(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.sessions.CreateSession(context.Background(), 777, &CreateSessionRequest{Title: "x"})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestCreateSessionNotifies(t *testing.T) {
	env := newTestEnv(t)
	u := env.createUser(t, "a@x.com")

	n := &mockNotifier{}
	n.On("NotifySessionCreated", u.ID, mock.MatchedBy(func(s *SessionResponse) bool {
		return s.Title == "Hi"
	})).Once()
	env.sessions.SetNotifier(n)

	env.createSession(t, u.ID, "Hi")
	n.AssertExpectations(t)
}

func TestAppendAndListMessagesChronologically(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.createUser(t, "a@x.com")
	sess := env.createSession(t, u.ID, "History")

	env.sessions.SetClock(newSteppingClock(time.Now().UTC(), time.Millisecond).Now)

	contents := []string{"one", "two", "three", "four"}
	for i, c := range contents {
		sender := model.SenderUser
		if i%2 == 1 {
			sender = model.SenderBot
		}
		_, err := env.sessions.AppendMessage(ctx, sess.ID, sender, c)
		require.NoError(t, err)
	}

	msgs, err := env.sessions.ListMessages(ctx, u.ID, sess.ID)
	require.NoError(t, err)
	require.Len(t, msgs, len(contents))
	for i, m := range msgs {
		assert.Equal(t, contents[i], m.Content)
		if i > 0 {
			assert.False(t, m.Timestamp.Before(msgs[i-1].Timestamp))
		}
	}
}

func TestAppendMessageErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.createUser(t, "a@x.com")
	sess := env.createSession(t, u.ID, "s")

	_, err := env.sessions.AppendMessage(ctx, 9999, model.SenderUser, "hello")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = env.sessions.AppendMessage(ctx, sess.ID, "system", "hello")
	assert.ErrorIs(t, err, ErrInvalidSender)
}

func TestAppendThenTouchUpdatesSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.createUser(t, "a@x.com")
	sess := env.createSession(t, u.ID, "s")

	before, err := env.store.Sessions.GetByID(ctx, sess.ID)
	require.NoError(t, err)

	msg, err := env.sessions.AppendMessage(ctx, sess.ID, model.SenderUser, "Hello")
	require.NoError(t, err)
	require.NoError(t, env.sessions.TouchSession(ctx, sess.ID, msg.Content, msg.Timestamp))

	after, err := env.store.Sessions.GetByID(ctx, sess.ID)
	require.NoError(t, err)
	require.NotNil(t, after.LastMessage)
	assert.Equal(t, "Hello", *after.LastMessage)
	assert.False(t, after.UpdatedAt.Before(before.UpdatedAt))

	// 较早的时间戳不会让 updated_at 回退
	require.NoError(t, env.sessions.TouchSession(ctx, sess.ID, "Stale", before.UpdatedAt.Add(-time.Hour)))
	again, err := env.store.Sessions.GetByID(ctx, sess.ID)
	require.NoError(t, err)
	assert.False(t, again.UpdatedAt.Before(after.UpdatedAt))
}

func TestTouchMissingSession(t *testing.T) {
	env := newTestEnv(t)
	err := env.sessions.TouchSession(context.Background(), 31337, "x", time.Now())
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestListMessagesOwnership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "owner@x.com")
	intruder := env.createUser(t, "intruder@x.com")
	sess := env.createSession(t, owner.ID, "private")

	_, err := env.sessions.ListMessages(ctx, intruder.ID, sess.ID)
	assert.ErrorIs(t, err, ErrNoPermission)

	_, err = env.sessions.ListMessages(ctx, owner.ID, 9999)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	msgs, err := env.sessions.ListMessages(ctx, owner.ID, sess.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestTouchUnchangedRowStillFindsSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.createUser(t, "a@x.com")
	sess := env.createSession(t, u.ID, "s")

	// 模拟 MySQL 默认行为：UPDATE 只统计值发生变化的行
	err := env.store.DB().Callback().Update().After("gorm:update").Register("test:changed_rows_only", func(tx *gorm.DB) {
		if tx.Statement.Table == "chat_sessions" {
			tx.RowsAffected = 0
		}
	})
	require.NoError(t, err)

	at := time.Now().UTC()
	require.NoError(t, env.sessions.TouchSession(ctx, sess.ID, "Hello", at))
	require.NoError(t, env.sessions.TouchSession(ctx, sess.ID, "Hello", at.Add(-time.Minute)))

	err = env.sessions.TouchSession(ctx, 31337, "Hello", at)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	chat := NewChatService(env.store, env.sessions, fixedResponder("r"), env.log)
	_, err = chat.SendMessage(ctx, u.ID, sess.ID, "Hello")
	require.NoError(t, err)

	count, err := env.store.Messages.CountBySessionID(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
