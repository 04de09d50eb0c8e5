package repository

import (
	"assignment_desk/internal/common"
	"assignment_desk/internal/domain/model"
	"assignment_desk/internal/platform/database"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"
)

func openTestBolt(t *testing.T) *bbolt.DB {
	t.Helper()
	db, err := database.OpenBolt(filepath.Join(t.TempDir(), "nested", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.CloseBolt(db) })
	return db
}

func TestBoltUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewBoltUserRepository(openTestBolt(t))

	alice := &model.User{ID: "u1", Username: "alice", FullName: "Alice", HashedPassword: "hash"}
	require.NoError(t, repo.Create(ctx, alice))
	assert.False(t, alice.CreatedAt.IsZero())
	require.NoError(t, repo.Create(ctx, &model.User{ID: "a1", Username: "root", FullName: "Root", IsAdmin: true}))
	require.NoError(t, repo.Create(ctx, &model.User{ID: "a2", Username: "boss", FullName: "Boss", IsAdmin: true}))

	err := repo.Create(ctx, &model.User{ID: "u2", Username: "alice"})
	assert.ErrorIs(t, err, common.ErrConflict)
	_, err = repo.FindByID(ctx, "u2")
	assert.ErrorIs(t, err, common.ErrNotFound, "a rejected user must not be stored")

	u, err := repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, "hash", u.HashedPassword)

	_, err = repo.FindByUsername(ctx, "ghost")
	assert.ErrorIs(t, err, common.ErrNotFound)

	admins, err := repo.FindAdminsByUsernames(ctx, []string{"root", "alice", "ghost", "root"})
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, "a1", admins[0].ID)

	all, err := repo.ListAdmins(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "boss", all[0].Username)

	byIDs, err := repo.FindByIDs(ctx, []string{"u1", "a1", "u1", "nope"})
	require.NoError(t, err)
	assert.Len(t, byIDs, 2)
}

func TestBoltAssignmentRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewBoltAssignmentRepository(openTestBolt(t))

	for _, id := range []string{"first", "second", "third"} {
		require.NoError(t, repo.Create(ctx, &model.Assignment{ID: id, UserID: "u1", Task: id, AssignedAdmins: []string{"a1"}, Status: model.StatusPending}))
	}
	require.NoError(t, repo.Create(ctx, &model.Assignment{ID: "other", UserID: "u2", AssignedAdmins: []string{"a1", "a2"}, Status: model.StatusPending}))

	mine, err := repo.ListByCreator(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, mine, 3)
	assert.Equal(t, "third", mine[0].ID)
	assert.Equal(t, "first", mine[2].ID)

	assigned, err := repo.ListByAdmin(ctx, "a2")
	require.NoError(t, err)
	require.Len(t, assigned, 1)
	assert.Equal(t, []string{"a1", "a2"}, assigned[0].AssignedAdmins)

	got, err := repo.FindByID(ctx, "second")
	require.NoError(t, err)
	created := got.CreatedAt
	got.Status = model.StatusRejected
	got.Feedback = "redo"
	got.UserID = "someone-else"
	require.NoError(t, repo.Update(ctx, got))

	stored, err := repo.FindByID(ctx, "second")
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, stored.Status)
	assert.Equal(t, "redo", stored.Feedback)
	assert.Equal(t, "u1", stored.UserID)
	assert.True(t, created.Equal(stored.CreatedAt))

	require.NoError(t, repo.Delete(ctx, "second"))
	assert.ErrorIs(t, repo.Delete(ctx, "second"), common.ErrNotFound)
	assert.ErrorIs(t, repo.Update(ctx, &model.Assignment{ID: "second"}), common.ErrNotFound)
	_, err = repo.FindByID(ctx, "second")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestBoltNotificationRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewBoltNotificationRepository(openTestBolt(t))
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, &model.Notification{ID: "n1", UserID: "u1", EventID: "e1", Message: "hi", CreatedAt: base}))
	require.NoError(t, repo.Create(ctx, &model.Notification{ID: "n2", UserID: "u1", EventID: "e1", Message: "hi", CreatedAt: base}))
	require.NoError(t, repo.Create(ctx, &model.Notification{ID: "n3", UserID: "u1", EventID: "e2", Message: "later", CreatedAt: base.Add(time.Minute)}))
	require.NoError(t, repo.Create(ctx, &model.Notification{ID: "n4", UserID: "u10", EventID: "e3", CreatedAt: base}))

	list, err := repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "n3", list[0].ID)
	assert.Equal(t, "n1", list[1].ID)
	assert.Equal(t, "e1", list[1].EventID)
}
