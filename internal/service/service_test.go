package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"govchat-server/internal/cache"
	"govchat-server/internal/database"
	"govchat-server/internal/model"
	"govchat-server/internal/repository"
	"govchat-server/pkg/jwt"
	"govchat-server/pkg/util"
)

const testSecret = "service-test-secret-0123456789abcdef"

type testEnv struct {
	store     *repository.Store
	blacklist *cache.MemoryCache
	jwt       *jwt.JWTService
	log       *zap.Logger
	auth      *AuthService
	users     *UserService
	sessions  *SessionService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := zaptest.NewLogger(t)
	db, err := database.NewInMemory("svc_"+strings.ReplaceAll(t.Name(), "/", "_"), log)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	store := repository.NewStore(db)
	blacklist := cache.NewMemoryCache()
	jwtService := jwt.NewJWTService(testSecret, "govchat", time.Hour, 24*time.Hour)

	return &testEnv{
		store:     store,
		blacklist: blacklist,
		jwt:       jwtService,
		log:       log,
		auth:      NewAuthService(store.Users, blacklist, jwtService, log),
		users:     NewUserService(store.Users),
		sessions:  NewSessionService(store, log),
	}
}

func (e *testEnv) createUser(t *testing.T, email string) *model.User {
	t.Helper()
	hash, err := util.HashPassword("pw")
	require.NoError(t, err)
	u := &model.User{Name: "User", Email: email, PasswordHash: hash}
	require.NoError(t, e.store.Users.Create(context.Background(), u))
	return u
}

func (e *testEnv) createSession(t *testing.T, userID int64, title string) *SessionResponse {
	t.Helper()
	s, err := e.sessions.CreateSession(context.Background(), userID, &CreateSessionRequest{Title: title})
	require.NoError(t, err)
	return s
}

// fixedResponder 总是返回同一条回复
type fixedResponder string

func (r fixedResponder) Respond(context.Context, string) string { return string(r) }

// steppingClock 每次调用前进固定步长
type steppingClock struct {
	mu   sync.Mutex
	t    time.Time
	step time.Duration
}

func newSteppingClock(start time.Time, step time.Duration) *steppingClock {
	return &steppingClock{t: start, step: step}
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(c.step)
	return c.t
}

// mockNotifier 记录通知调用
type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) NotifySessionCreated(userID int64, session *SessionResponse) {
	m.Called(userID, session)
}

func (m *mockNotifier) NotifyMessageCreated(userID int64, messages ...MessageResponse) {
	m.Called(userID, messages)
}
