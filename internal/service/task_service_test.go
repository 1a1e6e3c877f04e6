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

func TestTaskLifecycleEndToEnd(t *testing.T) {
	coord := testutil.NewCoordinator(t)
	connections := service.NewConnectionService(coord, zap.NewNop())
	tasks := service.NewTaskService(coord, zap.NewNop())
	ctx := context.Background()

	testutil.SeedSupervisor(t, coord.Pool(), 1001)
	testutil.SeedSubordinate(t, coord.Pool(), 2001)

	res, err := connections.Create(ctx, 1001, 2001, 1)
	require.NoError(t, err)
	require.True(t, res.Created())

	task, err := tasks.Create(ctx, res.Connection.ID, "Проверить склад", "Revisar el almacén")
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusPending, task.Status)

	done, err := tasks.Complete(ctx, task.ID)
	require.NoError(t, err)
	require.NotNil(t, done)
	assert.Equal(t, model.TaskStatusCompleted, done.Status)
	assert.NotNil(t, done.CompletedAt)

	again, err := tasks.Complete(ctx, task.ID)
	require.NoError(t, err)
	assert.Nil(t, again)

	supTasks, err := tasks.ListForSupervisor(ctx, 1001, "")
	require.NoError(t, err)
	require.Len(t, supTasks, 1)
	assert.Equal(t, model.TaskStatusCompleted, supTasks[0].Status)
	assert.Equal(t, "Проверить склад", supTasks[0].Description)
	assert.Equal(t, 1, supTasks[0].Slot)

	subTasks, err := tasks.ListForSubordinate(ctx, 2001, model.TaskStatusCompleted)
	require.NoError(t, err)
	require.Len(t, subTasks, 1)
	assert.Equal(t, model.TaskStatusCompleted, subTasks[0].Status)
	assert.Equal(t, "Revisar el almacén", subTasks[0].DescriptionTranslated)

	pending, err := tasks.ListForSubordinate(ctx, 2001, model.TaskStatusPending)
	require.NoError(t, err)
	assert.Empty(t, pending)

	counts, err := tasks.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[model.TaskStatusCompleted])
	assert.Equal(t, int64(0), counts[model.TaskStatusPending])
}

func TestTaskCompleteMissing(t *testing.T) {
	coord := testutil.NewCoordinator(t)
	tasks := service.NewTaskService(coord, zap.NewNop())

	task, err := tasks.Complete(context.Background(), 424242)
	require.NoError(t, err)
	assert.Nil(t, task)
}

func TestTaskDescriptionsImmutable(t *testing.T) {
	coord := testutil.NewCoordinator(t)
	connections := service.NewConnectionService(coord, zap.NewNop())
	tasks := service.NewTaskService(coord, zap.NewNop())
	ctx := context.Background()

	testutil.SeedSupervisor(t, coord.Pool(), 1001)
	testutil.SeedSubordinate(t, coord.Pool(), 2001)
	res, err := connections.Create(ctx, 1001, 2001, 1)
	require.NoError(t, err)

	task, err := tasks.Create(ctx, res.Connection.ID, "original", "translated")
	require.NoError(t, err)

	_, err = coord.Pool().Exec(ctx,
		`UPDATE tasks SET description_translated = 'changed' WHERE id = $1`, task.ID)
	require.Error(t, err)

	stored, err := tasks.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "translated", stored.DescriptionTranslated)
}

func TestTaskRequiresActiveConnection(t *testing.T) {
	coord := testutil.NewCoordinator(t)
	connections := service.NewConnectionService(coord, zap.NewNop())
	tasks := service.NewTaskService(coord, zap.NewNop())
	ctx := context.Background()

	testutil.SeedSupervisor(t, coord.Pool(), 1001)
	testutil.SeedSubordinate(t, coord.Pool(), 2001)
	res, err := connections.Create(ctx, 1001, 2001, 1)
	require.NoError(t, err)

	task, err := tasks.Create(ctx, res.Connection.ID, "before", "antes")
	require.NoError(t, err)

	_, err = connections.Retire(ctx, res.Connection.ID)
	require.NoError(t, err)

	_, err = tasks.Create(ctx, res.Connection.ID, "after", "después")
	assert.ErrorIs(t, err, service.ErrConnectionNotActive)

	// Задачи закрытой связи остаются доступными
	list, err := tasks.ListForConnection(ctx, res.Connection.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, task.ID, list[0].ID)

	done, err := tasks.Complete(ctx, task.ID)
	require.NoError(t, err)
	assert.NotNil(t, done)
}
