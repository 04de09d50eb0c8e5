package service

import (
	"assignment_desk/internal/common"
	"assignment_desk/internal/domain/model"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func usernames(summaries []model.UserSummary) []string {
	var out []string
	for _, s := range summaries {
		out = append(out, s.Username)
	}
	return out
}

func TestReviewScenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.addUser(t, "u", false)
	x := env.addUser(t, "x", true)
	y := env.addUser(t, "y", true)
	z := env.addUser(t, "z", true)

	created, err := env.assignment.Create(ctx, u.ID, CreateAssignmentRequest{Task: "Review my report", AssignedAdmins: []string{"x", "y"}})
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, created.Status)
	assert.Equal(t, "u", created.Creator.Username)
	assert.Equal(t, "Full u", created.Creator.FullName)
	assert.Equal(t, []string{"x", "y"}, usernames(created.AssignedAdmins))
	assert.Nil(t, created.UpdatedAt)

	accepted, err := env.assignment.Accept(ctx, created.ID, x.ID, ReviewRequest{Feedback: "ok"})
	require.NoError(t, err)
	assert.Equal(t, model.StatusAccepted, accepted.Status)
	assert.Equal(t, "ok", accepted.Feedback)
	assert.NotNil(t, accepted.UpdatedAt)
	assert.Equal(t, []string{"x", "y"}, usernames(accepted.AssignedAdmins))

	// Y still sees the assignment, now accepted.
	forY, err := env.assignment.List(ctx, y.ID)
	require.NoError(t, err)
	require.Len(t, forY, 1)
	assert.Equal(t, model.StatusAccepted, forY[0].Status)

	_, err = env.assignment.Accept(ctx, created.ID, z.ID, ReviewRequest{Feedback: "me too"})
	require.ErrorIs(t, err, common.ErrNotFound)
	assert.Equal(t, msgReviewNotFound, common.ClientMessage(err))

	_, err = env.assignment.Accept(ctx, "does-not-exist", x.ID, ReviewRequest{})
	require.ErrorIs(t, err, common.ErrNotFound)
	assert.Equal(t, msgReviewNotFound, common.ClientMessage(err))

	assert.Equal(t, []model.EventKind{model.EventAssignmentCreated, model.EventAssignmentAccepted}, env.events.kinds())
	assert.Equal(t, []string{x.ID, y.ID}, env.events.events[0].RecipientIDs)
	assert.Equal(t, []string{u.ID}, env.events.events[1].RecipientIDs)
}

func TestCreateByAdminIsForbidden(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.addUser(t, "boss", true)
	env.addUser(t, "other", true)

	bodies := []CreateAssignmentRequest{
		{Task: "t", AssignedAdmins: []string{"other"}},
		{Task: "t", AssignedAdmins: []string{"ghost"}},
		{},
	}
	for _, body := range bodies {
		_, err := env.assignment.Create(ctx, admin.ID, body)
		require.ErrorIs(t, err, common.ErrForbidden)
	}
	assert.Empty(t, env.events.kinds())
}

func TestCreateRequiresExactAdminResolution(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.addUser(t, "u", false)
	env.addUser(t, "a", true)
	env.addUser(t, "b", true)
	env.addUser(t, "c", false)

	cases := map[string][]string{
		"non-admin":  {"a", "b", "c"},
		"unknown":    {"a", "ghost"},
		"duplicates": {"a", "a"},
	}
	for name, admins := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := env.assignment.Create(ctx, u.ID, CreateAssignmentRequest{Task: "t", AssignedAdmins: admins})
			require.ErrorIs(t, err, common.ErrValidation)
			assert.Equal(t, msgInvalidAdmins, common.ClientMessage(err))
		})
	}

	persisted, err := env.assignments.ListByCreator(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, persisted)
}

func TestCreateValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.addUser(t, "u", false)
	env.addUser(t, "a", true)

	for _, req := range []CreateAssignmentRequest{
		{AssignedAdmins: []string{"a"}},
		{Task: "t"},
		{Task: "t", AssignedAdmins: []string{}},
		{Task: "t", AssignedAdmins: []string{""}},
	} {
		_, err := env.assignment.Create(ctx, u.ID, req)
		assert.ErrorIs(t, err, common.ErrValidation, "%+v", req)
	}
}

func TestCreateByUnknownActor(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.assignment.Create(context.Background(), "ghost", CreateAssignmentRequest{Task: "t", AssignedAdmins: []string{"a"}})
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestUpdate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.addUser(t, "u", false)
	v := env.addUser(t, "v", false)
	a := env.addUser(t, "a", true)
	env.addUser(t, "b", true)
	env.addUser(t, "plain", false)

	created, err := env.assignment.Create(ctx, u.ID, CreateAssignmentRequest{Task: "draft", AssignedAdmins: []string{"a"}})
	require.NoError(t, err)

	_, err = env.assignment.Update(ctx, "missing", u.ID, UpdateAssignmentRequest{Task: "x"})
	require.ErrorIs(t, err, common.ErrNotFound)

	_, err = env.assignment.Update(ctx, created.ID, v.ID, UpdateAssignmentRequest{Task: "hijack"})
	require.ErrorIs(t, err, common.ErrForbidden)

	// Empty fields leave the stored values untouched.
	same, err := env.assignment.Update(ctx, created.ID, u.ID, UpdateAssignmentRequest{})
	require.NoError(t, err)
	assert.Equal(t, "draft", same.Task)
	assert.Equal(t, []string{"a"}, usernames(same.AssignedAdmins))
	assert.NotNil(t, same.UpdatedAt)

	// A partially invalid admin list changes nothing, not even the task.
	_, err = env.assignment.Update(ctx, created.ID, u.ID, UpdateAssignmentRequest{Task: "final", AssignedAdmins: []string{"b", "plain"}})
	require.ErrorIs(t, err, common.ErrValidation)
	stored, err := env.assignments.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "draft", stored.Task)
	assert.Equal(t, []string{a.ID}, stored.AssignedAdmins)

	updated, err := env.assignment.Update(ctx, created.ID, u.ID, UpdateAssignmentRequest{Task: "final", AssignedAdmins: []string{"b"}})
	require.NoError(t, err)
	assert.Equal(t, "final", updated.Task)
	assert.Equal(t, []string{"b"}, usernames(updated.AssignedAdmins))
	assert.Equal(t, model.StatusPending, updated.Status)
}

func TestUpdateKeepsReviewStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.addUser(t, "u", false)
	a := env.addUser(t, "a", true)

	created, err := env.assignment.Create(ctx, u.ID, CreateAssignmentRequest{Task: "t", AssignedAdmins: []string{"a"}})
	require.NoError(t, err)
	_, err = env.assignment.Reject(ctx, created.ID, a.ID, ReviewRequest{Feedback: "no"})
	require.NoError(t, err)

	updated, err := env.assignment.Update(ctx, created.ID, u.ID, UpdateAssignmentRequest{Task: "t2"})
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, updated.Status)
	assert.Equal(t, "no", updated.Feedback)
}

func TestDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.addUser(t, "u", false)
	v := env.addUser(t, "v", false)
	env.addUser(t, "a", true)

	created, err := env.assignment.Create(ctx, v.ID, CreateAssignmentRequest{Task: "t", AssignedAdmins: []string{"a"}})
	require.NoError(t, err)

	err = env.assignment.Delete(ctx, created.ID, u.ID)
	require.ErrorIs(t, err, common.ErrForbidden)
	_, err = env.assignments.FindByID(ctx, created.ID)
	require.NoError(t, err, "assignment must survive a forbidden delete")

	require.NoError(t, env.assignment.Delete(ctx, created.ID, v.ID))
	_, err = env.assignments.FindByID(ctx, created.ID)
	require.ErrorIs(t, err, common.ErrNotFound)

	err = env.assignment.Delete(ctx, created.ID, v.ID)
	require.ErrorIs(t, err, common.ErrNotFound)
	assert.Equal(t, msgAssignmentNotFound, common.ClientMessage(err))
}

func TestListViews(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.addUser(t, "u", false)
	other := env.addUser(t, "other", false)
	a := env.addUser(t, "a", true)
	b := env.addUser(t, "b", true)

	first, err := env.assignment.Create(ctx, u.ID, CreateAssignmentRequest{Task: "first", AssignedAdmins: []string{"a"}})
	require.NoError(t, err)
	second, err := env.assignment.Create(ctx, u.ID, CreateAssignmentRequest{Task: "second", AssignedAdmins: []string{"a", "b"}})
	require.NoError(t, err)
	_, err = env.assignment.Create(ctx, other.ID, CreateAssignmentRequest{Task: "foreign", AssignedAdmins: []string{"b"}})
	require.NoError(t, err)

	mine, err := env.assignment.List(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, second.ID, mine[0].ID, "newest first")
	assert.Equal(t, first.ID, mine[1].ID)
	assert.Equal(t, []string{"a", "b"}, usernames(mine[0].AssignedAdmins))
	assert.Nil(t, mine[0].UpdatedAt)

	forA, err := env.assignment.List(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, forA, 2)
	for _, item := range forA {
		assert.Nil(t, item.AssignedAdmins)
		assert.Equal(t, "u", item.Creator.Username)
		assert.NotNil(t, item.UpdatedAt)
	}

	forB, err := env.assignment.List(ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, forB, 2)

	again, err := env.assignment.List(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, mine, again, "listing is idempotent")
}

func TestReject(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.addUser(t, "u", false)
	a := env.addUser(t, "a", true)
	outsider := env.addUser(t, "outsider", true)

	created, err := env.assignment.Create(ctx, u.ID, CreateAssignmentRequest{Task: "t", AssignedAdmins: []string{"a"}})
	require.NoError(t, err)

	for _, feedback := range []string{"", "   "} {
		_, err = env.assignment.Reject(ctx, created.ID, a.ID, ReviewRequest{Feedback: feedback})
		require.ErrorIs(t, err, common.ErrValidation)
	}
	stored, err := env.assignments.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, stored.Status)

	// Authorization is checked before the body.
	_, err = env.assignment.Reject(ctx, created.ID, outsider.ID, ReviewRequest{})
	require.ErrorIs(t, err, common.ErrNotFound)

	rejected, err := env.assignment.Reject(ctx, created.ID, a.ID, ReviewRequest{Feedback: "  needs sources\n"})
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, rejected.Status)
	assert.Equal(t, "  needs sources\n", rejected.Feedback)
}

func TestReviewedAssignmentsAreTerminal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.addUser(t, "u", false)
	a := env.addUser(t, "a", true)

	created, err := env.assignment.Create(ctx, u.ID, CreateAssignmentRequest{Task: "t", AssignedAdmins: []string{"a"}})
	require.NoError(t, err)

	accepted, err := env.assignment.Accept(ctx, created.ID, a.ID, ReviewRequest{})
	require.NoError(t, err)
	assert.Empty(t, accepted.Feedback)

	_, err = env.assignment.Reject(ctx, created.ID, a.ID, ReviewRequest{Feedback: "changed my mind"})
	require.ErrorIs(t, err, common.ErrInvalidTransition)
	_, err = env.assignment.Accept(ctx, created.ID, a.ID, ReviewRequest{})
	require.ErrorIs(t, err, common.ErrInvalidTransition)

	stored, err := env.assignments.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusAccepted, stored.Status)
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	env := newTestEnv(t)
	env.events.fail = true
	ctx := context.Background()
	u := env.addUser(t, "u", false)
	env.addUser(t, "a", true)

	created, err := env.assignment.Create(ctx, u.ID, CreateAssignmentRequest{Task: "t", AssignedAdmins: []string{"a"}})
	require.NoError(t, err)
	_, err = env.assignments.FindByID(ctx, created.ID)
	assert.NoError(t, err)
}

func TestListAdministrators(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "zed", true)
	env.addUser(t, "amy", true)
	env.addUser(t, "bob", false)

	admins, err := env.userService.ListAdministrators(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"amy", "zed"}, usernames(admins))
	assert.NotEmpty(t, admins[0].ID)
}
