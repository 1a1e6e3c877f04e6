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
	"golang.org/x/sync/errgroup"
)

const concurrentCallers = 10

func TestConnectionCreateConcurrentSameSlot(t *testing.T) {
	coord := testutil.NewCoordinator(t)
	svc := service.NewConnectionService(coord, zap.NewNop())
	ctx := context.Background()

	const supervisor = 1001
	testutil.SeedSupervisor(t, coord.Pool(), supervisor)
	for i := 0; i < concurrentCallers; i++ {
		testutil.SeedSubordinate(t, coord.Pool(), int64(2001+i))
	}

	results := make([]service.CreateResult, concurrentCallers)
	var g errgroup.Group
	for i := 0; i < concurrentCallers; i++ {
		g.Go(func() error {
			res, err := svc.Create(ctx, supervisor, int64(2001+i), 1)
			results[i] = res
			return err
		})
	}
	require.NoError(t, g.Wait())

	var created, occupied int
	for _, res := range results {
		switch res.Outcome {
		case service.OutcomeCreated:
			created++
		case service.OutcomeSlotOccupied:
			occupied++
		}
	}
	assert.Equal(t, 1, created)
	assert.Equal(t, concurrentCallers-1, occupied)

	active, err := svc.ListActiveBySupervisor(ctx, supervisor)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, 1, active[0].Slot)
}

func TestConnectionCreateConcurrentSameSubordinate(t *testing.T) {
	coord := testutil.NewCoordinator(t)
	svc := service.NewConnectionService(coord, zap.NewNop())
	ctx := context.Background()

	const subordinate = 2001
	testutil.SeedSubordinate(t, coord.Pool(), subordinate)
	for i := 0; i < concurrentCallers; i++ {
		testutil.SeedSupervisor(t, coord.Pool(), int64(1001+i))
	}

	results := make([]service.CreateResult, concurrentCallers)
	var g errgroup.Group
	for i := 0; i < concurrentCallers; i++ {
		g.Go(func() error {
			slot := model.MinSlot + i%model.MaxSlots
			res, err := svc.Create(ctx, int64(1001+i), subordinate, slot)
			results[i] = res
			return err
		})
	}
	require.NoError(t, g.Wait())

	var created, paired int
	for _, res := range results {
		switch res.Outcome {
		case service.OutcomeCreated:
			created++
		case service.OutcomeSubordinateAlreadyPaired:
			paired++
		}
	}
	assert.Equal(t, 1, created)
	assert.Equal(t, concurrentCallers-1, paired)

	conn, err := svc.GetActiveBySubordinate(ctx, subordinate)
	require.NoError(t, err)
	require.NotNil(t, conn)
}

func TestConnectionRetireIsIdempotent(t *testing.T) {
	coord := testutil.NewCoordinator(t)
	svc := service.NewConnectionService(coord, zap.NewNop())
	ctx := context.Background()

	testutil.SeedSupervisor(t, coord.Pool(), 1001)
	testutil.SeedSubordinate(t, coord.Pool(), 2001)

	res, err := svc.Create(ctx, 1001, 2001, 2)
	require.NoError(t, err)
	require.True(t, res.Created())

	first, err := svc.Retire(ctx, res.Connection.ID)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, model.ConnectionStatusRetired, first.Status)
	assert.NotNil(t, first.RetiredAt)

	second, err := svc.Retire(ctx, res.Connection.ID)
	require.NoError(t, err)
	assert.Nil(t, second)

	// Слот и подчинённый освобождены, повторная пара это новая строка
	again, err := svc.Create(ctx, 1001, 2001, 2)
	require.NoError(t, err)
	require.True(t, again.Created())
	assert.NotEqual(t, res.Connection.ID, again.Connection.ID)
}

func TestConnectionCreateErrors(t *testing.T) {
	coord := testutil.NewCoordinator(t)
	svc := service.NewConnectionService(coord, zap.NewNop())
	ctx := context.Background()

	testutil.SeedSupervisor(t, coord.Pool(), 1001)
	testutil.SeedSubordinate(t, coord.Pool(), 2001)

	tests := []struct {
		name        string
		supervisor  int64
		subordinate int64
		slot        int
		wantErr     error
	}{
		{name: "slot zero", supervisor: 1001, subordinate: 2001, slot: 0, wantErr: service.ErrInvalidSlot},
		{name: "slot above max", supervisor: 1001, subordinate: 2001, slot: model.MaxSlots + 1, wantErr: service.ErrInvalidSlot},
		{name: "unknown supervisor", supervisor: 9999, subordinate: 2001, slot: 1, wantErr: service.ErrUnknownParticipant},
		{name: "unknown subordinate", supervisor: 1001, subordinate: 9999, slot: 1, wantErr: service.ErrUnknownParticipant},
		{name: "roles swapped", supervisor: 2001, subordinate: 1001, slot: 1, wantErr: service.ErrUnknownParticipant},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.supervisor, tt.subordinate, tt.slot)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	active, err := svc.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestConnectFirstFreeSlot(t *testing.T) {
	coord := testutil.NewCoordinator(t)
	svc := service.NewConnectionService(coord, zap.NewNop())
	ctx := context.Background()

	testutil.SeedSupervisor(t, coord.Pool(), 1001)
	for i := 0; i <= model.MaxSlots; i++ {
		testutil.SeedSubordinate(t, coord.Pool(), int64(2001+i))
	}

	// Занимаем слот 1 и 3 вручную
	for _, pair := range []struct {
		sub  int64
		slot int
	}{{2001, 1}, {2002, 3}} {
		res, err := svc.Create(ctx, 1001, pair.sub, pair.slot)
		require.NoError(t, err)
		require.True(t, res.Created())
	}

	res, err := svc.ConnectFirstFreeSlot(ctx, 1001, 2003)
	require.NoError(t, err)
	require.True(t, res.Created())
	assert.Equal(t, 2, res.Connection.Slot)

	res, err = svc.ConnectFirstFreeSlot(ctx, 1001, 2003)
	require.NoError(t, err)
	assert.Equal(t, service.OutcomeSubordinateAlreadyPaired, res.Outcome)

	for _, sub := range []int64{2004, 2005} {
		res, err = svc.ConnectFirstFreeSlot(ctx, 1001, sub)
		require.NoError(t, err)
		require.True(t, res.Created())
	}

	res, err = svc.ConnectFirstFreeSlot(ctx, 1001, 2006)
	require.NoError(t, err)
	assert.Equal(t, service.OutcomeSlotOccupied, res.Outcome)
	assert.Nil(t, res.Connection)

	bySlot, err := svc.GetActiveBySlot(ctx, 1001, 5)
	require.NoError(t, err)
	require.NotNil(t, bySlot)
	assert.Equal(t, int64(2005), bySlot.SubordinateID)
}

func TestCreateOutcomeString(t *testing.T) {
	assert.Equal(t, "created", service.OutcomeCreated.String())
	assert.Equal(t, "slot_occupied", service.OutcomeSlotOccupied.String())
	assert.Equal(t, "subordinate_already_paired", service.OutcomeSubordinateAlreadyPaired.String())
	assert.Equal(t, "outcome(42)", service.CreateOutcome(42).String())
}
