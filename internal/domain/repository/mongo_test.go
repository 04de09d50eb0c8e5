package repository

import (
	"assignment_desk/internal/common"
	"assignment_desk/internal/domain/model"
	"assignment_desk/internal/platform/database"
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
)

// testMongo connects to TEST_MONGO_URI, creates a throwaway database with the
// application indexes and skips the test when no server answers.
func testMongo(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017/?serverSelectionTimeoutMS=2000"
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	client, db, err := database.ConnectMongo(ctx, uri, "assignment_desk_test_"+uniqueTag())
	if err != nil {
		t.Skipf("mongo not available: %v", err)
	}
	t.Cleanup(func() {
		db.Drop(context.Background())
		database.DisconnectMongo(client)
	})
	require.NoError(t, database.EnsureMongoIndexes(context.Background(), db))
	return db
}

func TestMongoUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMongoUserRepository(testMongo(t))

	alice := &model.User{ID: "u1", Username: "alice", FullName: "Alice", HashedPassword: "hash"}
	require.NoError(t, repo.Create(ctx, alice))
	assert.False(t, alice.CreatedAt.IsZero())
	require.NoError(t, repo.Create(ctx, &model.User{ID: "a1", Username: "root", FullName: "Root", IsAdmin: true}))
	require.NoError(t, repo.Create(ctx, &model.User{ID: "a2", Username: "rootless", FullName: "Rootless", IsAdmin: true}))

	// The unique username index turns a duplicate into a conflict.
	err := repo.Create(ctx, &model.User{ID: "u2", Username: "alice", FullName: "Impostor"})
	require.ErrorIs(t, err, common.ErrConflict)
	assert.Equal(t, "Username already exists", common.ClientMessage(err))
	_, err = repo.FindByID(ctx, "u2")
	assert.ErrorIs(t, err, common.ErrNotFound)

	u, err := repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, "hash", u.HashedPassword)

	_, err = repo.FindByUsername(ctx, "ghost")
	assert.ErrorIs(t, err, common.ErrNotFound)

	admins, err := repo.FindAdminsByUsernames(ctx, []string{"root", "alice", "ro", "ROOTLESS", "root"})
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, "a1", admins[0].ID)

	all, err := repo.ListAdmins(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "root", all[0].Username)
	assert.Equal(t, "rootless", all[1].Username)

	byIDs, err := repo.FindByIDs(ctx, []string{"u1", "a1", "u1", "nope"})
	require.NoError(t, err)
	assert.Len(t, byIDs, 2)
}

func TestMongoAssignmentRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMongoAssignmentRepository(testMongo(t))

	first := &model.Assignment{ID: "as1", UserID: "u1", Task: "first", AssignedAdmins: []string{"z", "x", "y"}, Status: model.StatusPending}
	require.NoError(t, repo.Create(ctx, first))
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, repo.Create(ctx, &model.Assignment{ID: "as2", UserID: "u1", Task: "second", AssignedAdmins: []string{"y"}, Status: model.StatusPending}))

	got, err := repo.FindByID(ctx, "as1")
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "x", "y"}, got.AssignedAdmins)

	mine, err := repo.ListByCreator(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "as2", mine[0].ID)

	forY, err := repo.ListByAdmin(ctx, "y")
	require.NoError(t, err)
	assert.Len(t, forY, 2)

	got.AssignedAdmins = []string{"y", "z"}
	got.Status = model.StatusAccepted
	got.Feedback = "nice"
	got.UserID = "someone-else"
	require.NoError(t, repo.Update(ctx, got))

	stored, err := repo.FindByID(ctx, "as1")
	require.NoError(t, err)
	assert.Equal(t, []string{"y", "z"}, stored.AssignedAdmins)
	assert.Equal(t, model.StatusAccepted, stored.Status)
	assert.Equal(t, "nice", stored.Feedback)
	assert.Equal(t, "u1", stored.UserID)

	forX, err := repo.ListByAdmin(ctx, "x")
	require.NoError(t, err)
	assert.Empty(t, forX)

	assert.ErrorIs(t, repo.Update(ctx, &model.Assignment{ID: "missing"}), common.ErrNotFound)
	require.NoError(t, repo.Delete(ctx, "as1"))
	assert.ErrorIs(t, repo.Delete(ctx, "as1"), common.ErrNotFound)
	_, err = repo.FindByID(ctx, "as1")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestMongoNotificationRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMongoNotificationRepository(testMongo(t))
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, &model.Notification{ID: "n1", UserID: "u1", EventID: "e1", Kind: model.EventAssignmentCreated, Message: "hi", CreatedAt: base}))
	// The unique (eventId, userId) index makes a second delivery a no-op.
	require.NoError(t, repo.Create(ctx, &model.Notification{ID: "n2", UserID: "u1", EventID: "e1", Kind: model.EventAssignmentCreated, Message: "again", CreatedAt: base}))
	require.NoError(t, repo.Create(ctx, &model.Notification{ID: "n3", UserID: "u1", EventID: "e2", Kind: model.EventAssignmentAccepted, Message: "later", CreatedAt: base.Add(time.Minute)}))
	require.NoError(t, repo.Create(ctx, &model.Notification{ID: "n4", UserID: "u2", EventID: "e1", CreatedAt: base}))

	list, err := repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "n3", list[0].ID)
	assert.Equal(t, "n1", list[1].ID)
	assert.Equal(t, "hi", list[1].Message)
	assert.True(t, base.Equal(list[1].CreatedAt))
}
