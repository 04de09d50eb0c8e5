package service

import (
	"assignment_desk/internal/common/security"
	"assignment_desk/internal/domain/model"
	"assignment_desk/internal/domain/repository"
	"assignment_desk/internal/platform/session"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.AssignmentEvent
	fail   bool
}

func (p *recordingPublisher) Publish(ctx context.Context, event model.AssignmentEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("queue unavailable")
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) kinds() []model.EventKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []model.EventKind
	for _, e := range p.events {
		out = append(out, e.Kind)
	}
	return out
}

type testEnv struct {
	users       repository.UserRepository
	assignments repository.AssignmentRepository
	events      *recordingPublisher
	sessions    session.Store

	auth        *AuthService
	assignment  *AssignmentService
	userService *UserService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		users:       repository.NewMemoryUserRepository(),
		assignments: repository.NewMemoryAssignmentRepository(),
		events:      &recordingPublisher{},
		sessions:    session.NewMemoryStore(),
	}
	tokens := security.NewTokenAuth([]byte("test-secret"), time.Hour)
	env.auth = NewAuthService(env.users, tokens, env.sessions, bcrypt.MinCost)
	env.assignment = NewAssignmentService(env.assignments, env.users, env.events)
	env.userService = NewUserService(env.users)
	return env
}

// addUser stores a user directly, bypassing registration.
func (env *testEnv) addUser(t *testing.T, username string, isAdmin bool) *model.User {
	t.Helper()
	u := &model.User{
		ID:       uuid.NewString(),
		FullName: "Full " + username,
		Username: username,
		IsAdmin:  isAdmin,
	}
	require.NoError(t, env.users.Create(context.Background(), u))
	return u
}

func boolPtr(b bool) *bool { return &b }
