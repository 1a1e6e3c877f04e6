package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Freeeeeet/relay_bot/internal/model"
	"github.com/Freeeeeet/relay_bot/internal/repository/base"
	"github.com/Freeeeeet/relay_bot/internal/service"
	"github.com/Freeeeeet/relay_bot/internal/testutil"
	"github.com/Freeeeeet/relay_bot/internal/translator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

const untranslatable = "???"

var errTranslate = errors.New("translation backend down")

type relayEnv struct {
	relay       *service.RelayService
	connections *service.ConnectionService
	usage       *service.UsageService
	subs        *service.SubscriptionService
	coord       *base.Coordinator
}

func newRelayEnv(t *testing.T, ceiling int64) *relayEnv {
	t.Helper()
	coord := testutil.NewCoordinator(t)
	log := zap.NewNop()

	tagger := translator.Func(func(_ context.Context, text string, from, to language.Tag) (string, error) {
		if text == untranslatable {
			return "", errTranslate
		}
		return from.String() + ">" + to.String() + ":" + text, nil
	})

	env := &relayEnv{
		connections: service.NewConnectionService(coord, log),
		usage:       service.NewUsageService(coord, newLimits(ceiling), log),
		subs:        service.NewSubscriptionService(coord, log),
		coord:       coord,
	}
	env.relay = service.NewRelayService(
		service.NewUserService(coord, log),
		env.connections,
		env.usage,
		env.subs,
		service.NewMessageService(coord, log),
		service.NewTaskService(coord, log),
		tagger,
		log,
	)
	return env
}

func TestRelayTranslatesBothWays(t *testing.T) {
	env := newRelayEnv(t, 50)
	ctx := context.Background()

	testutil.SeedSupervisor(t, env.coord.Pool(), 1001)
	testutil.SeedSubordinate(t, env.coord.Pool(), 2001)
	res, err := env.connections.Create(ctx, 1001, 2001, 1)
	require.NoError(t, err)

	d, err := env.relay.Relay(ctx, 1001, 0, "Привет")
	require.NoError(t, err)
	assert.Equal(t, int64(2001), d.RecipientID)
	assert.True(t, d.FromSupervisor)
	assert.Equal(t, res.Connection.ID, d.Connection.ID)
	assert.Equal(t, "ru>es:Привет", d.Message.TranslatedText)

	d, err = env.relay.Relay(ctx, 2001, 0, "Hola")
	require.NoError(t, err)
	assert.Equal(t, int64(1001), d.RecipientID)
	assert.False(t, d.FromSupervisor)
	assert.Equal(t, "es>ru:Hola", d.Message.TranslatedText)

	// Сообщения подчинённого лимит не расходуют
	rec, err := env.usage.Get(ctx, 1001)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.MessagesSent)
}

func TestRelaySlotSelection(t *testing.T) {
	env := newRelayEnv(t, 50)
	ctx := context.Background()

	testutil.SeedSupervisor(t, env.coord.Pool(), 1001)
	testutil.SeedSubordinate(t, env.coord.Pool(), 2001)
	testutil.SeedSubordinate(t, env.coord.Pool(), 2002)
	testutil.SeedPerson(t, env.coord.Pool(), 3001, "en")

	_, err := env.relay.Relay(ctx, 1001, 0, "nobody")
	assert.ErrorIs(t, err, service.ErrNotPaired)

	_, err = env.connections.Create(ctx, 1001, 2001, 1)
	require.NoError(t, err)
	_, err = env.connections.Create(ctx, 1001, 2002, 3)
	require.NoError(t, err)

	_, err = env.relay.Relay(ctx, 1001, 0, "which one")
	assert.ErrorIs(t, err, service.ErrSlotRequired)

	d, err := env.relay.Relay(ctx, 1001, 3, "slot three")
	require.NoError(t, err)
	assert.Equal(t, int64(2002), d.RecipientID)

	_, err = env.relay.Relay(ctx, 1001, 2, "empty slot")
	assert.ErrorIs(t, err, service.ErrNotPaired)

	_, err = env.relay.Relay(ctx, 3001, 0, "no role")
	assert.ErrorIs(t, err, service.ErrNotPaired)

	_, err = env.relay.Relay(ctx, 404, 0, "stranger")
	assert.ErrorIs(t, err, service.ErrPersonNotFound)
}

func TestRelayLimitAndSubscriptionOverride(t *testing.T) {
	env := newRelayEnv(t, 2)
	ctx := context.Background()

	testutil.SeedSupervisor(t, env.coord.Pool(), 1001)
	testutil.SeedSubordinate(t, env.coord.Pool(), 2001)
	_, err := env.connections.Create(ctx, 1001, 2001, 1)
	require.NoError(t, err)

	_, err = env.relay.Relay(ctx, 1001, 0, "one")
	require.NoError(t, err)
	_, err = env.relay.Relay(ctx, 1001, 0, "two")
	assert.ErrorIs(t, err, service.ErrLimitReached)

	_, err = env.subs.Apply(ctx, billingEvent("subscription_created", 1001, nil, nil))
	require.NoError(t, err)

	_, err = env.relay.Relay(ctx, 1001, 0, "paid")
	require.NoError(t, err)

	// С подпиской счётчик не растёт
	rec, err := env.usage.Get(ctx, 1001)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rec.MessagesSent)
	assert.True(t, rec.IsBlocked)
}

func TestRelayFailedTranslationKeepsAllowance(t *testing.T) {
	env := newRelayEnv(t, 2)
	ctx := context.Background()

	testutil.SeedSupervisor(t, env.coord.Pool(), 1001)
	testutil.SeedSubordinate(t, env.coord.Pool(), 2001)
	_, err := env.connections.Create(ctx, 1001, 2001, 1)
	require.NoError(t, err)

	_, err = env.relay.Relay(ctx, 1001, 0, untranslatable)
	assert.ErrorIs(t, err, errTranslate)

	rec, err := env.usage.Get(ctx, 1001)
	require.NoError(t, err)
	assert.Nil(t, rec, "undelivered message is not counted")

	_, err = env.relay.Relay(ctx, 1001, 0, "one")
	require.NoError(t, err)

	rec, err = env.usage.Get(ctx, 1001)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, int64(1), rec.MessagesSent)
	assert.False(t, rec.IsBlocked)
}

func TestRelayTasks(t *testing.T) {
	env := newRelayEnv(t, 50)
	ctx := context.Background()

	testutil.SeedSupervisor(t, env.coord.Pool(), 1001)
	testutil.SeedSubordinate(t, env.coord.Pool(), 2001)
	testutil.SeedSubordinate(t, env.coord.Pool(), 2002)
	_, err := env.connections.Create(ctx, 1001, 2001, 4)
	require.NoError(t, err)

	task, conn, err := env.relay.AssignTask(ctx, 1001, 0, "Убрать склад")
	require.NoError(t, err)
	assert.Equal(t, 4, task.Slot)
	assert.Equal(t, int64(2001), conn.SubordinateID)
	assert.Equal(t, "ru>es:Убрать склад", task.DescriptionTranslated)

	_, _, err = env.relay.AssignTask(ctx, 2001, 0, "reverse")
	assert.ErrorIs(t, err, service.ErrNotSupervisor)

	_, _, err = env.relay.CompleteTask(ctx, 2002, task.ID)
	assert.ErrorIs(t, err, service.ErrNotTaskOwner)

	done, _, err := env.relay.CompleteTask(ctx, 2001, task.ID)
	require.NoError(t, err)
	require.NotNil(t, done)
	assert.Equal(t, model.TaskStatusCompleted, done.Status)

	done, _, err = env.relay.CompleteTask(ctx, 2001, task.ID)
	require.NoError(t, err)
	assert.Nil(t, done)
}
