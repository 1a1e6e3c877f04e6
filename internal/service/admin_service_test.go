package service_test

import (
	"context"
	"testing"

	"github.com/Freeeeeet/relay_bot/internal/model"
	"github.com/Freeeeeet/relay_bot/internal/service"
	"github.com/Freeeeeet/relay_bot/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAdminStats(t *testing.T) {
	coord := testutil.NewCoordinator(t)
	admin := service.NewAdminService(coord, zap.NewNop())
	connections := service.NewConnectionService(coord, zap.NewNop())
	tasks := service.NewTaskService(coord, zap.NewNop())
	messages := service.NewMessageService(coord, zap.NewNop())
	usage := service.NewUsageService(coord, newLimits(1), zap.NewNop())
	subs := service.NewSubscriptionService(coord, zap.NewNop())
	ctx := context.Background()

	testutil.SeedSupervisor(t, coord.Pool(), 1001)
	testutil.SeedSubordinate(t, coord.Pool(), 2001)

	res, err := connections.Create(ctx, 1001, 2001, 1)
	require.NoError(t, err)
	_, err = tasks.Create(ctx, res.Connection.ID, "a", "b")
	require.NoError(t, err)
	_, err = messages.Save(ctx, res.Connection.ID, 1001, "a", "b")
	require.NoError(t, err)
	_, err = usage.Increment(ctx, 1001)
	require.NoError(t, err)
	_, err = subs.Apply(ctx, billingEvent("subscription_created", 1001, nil, nil))
	require.NoError(t, err)
	_, err = admin.SubmitFeedback(ctx, 2001, "great")
	require.NoError(t, err)

	st, err := admin.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.Stats{
		Persons:             2,
		Supervisors:         1,
		Subordinates:        1,
		ActiveConnections:   1,
		PendingTasks:        1,
		CompletedTasks:      0,
		Messages:            1,
		BlockedSupervisors:  1,
		ActiveSubscriptions: 1,
		UnreadFeedback:      1,
	}, *st)
}

func TestAdminFeedback(t *testing.T) {
	coord := testutil.NewCoordinator(t)
	admin := service.NewAdminService(coord, zap.NewNop())
	ctx := context.Background()

	testutil.SeedPerson(t, coord.Pool(), 1001, "en")

	fb, err := admin.SubmitFeedback(ctx, 1001, "please add French")
	require.NoError(t, err)
	assert.False(t, fb.IsRead)

	unread, err := admin.ListFeedback(ctx, true, 10)
	require.NoError(t, err)
	require.Len(t, unread, 1)

	read, err := admin.MarkFeedbackRead(ctx, fb.ID)
	require.NoError(t, err)
	require.NotNil(t, read)
	assert.True(t, read.IsRead)
	assert.NotNil(t, read.ReadAt)

	again, err := admin.MarkFeedbackRead(ctx, fb.ID)
	require.NoError(t, err)
	assert.Nil(t, again)

	unread, err = admin.ListFeedback(ctx, true, 10)
	require.NoError(t, err)
	assert.Empty(t, unread)

	all, err := admin.ListFeedback(ctx, false, 10)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = admin.SubmitFeedback(ctx, 404, "ghost")
	assert.ErrorIs(t, err, service.ErrUnknownParticipant)
}
