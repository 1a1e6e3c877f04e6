package state

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManagerDialogKeepsSlot(t *testing.T) {
	sm := NewManager()

	assert.Equal(t, StateNone, sm.GetState(1))
	assert.Zero(t, sm.SelectedSlot(1))

	sm.SelectSlot(1, 3)
	sm.SetState(1, StateAwaitingTask)
	assert.Equal(t, StateAwaitingTask, sm.GetState(1))

	sm.ClearState(1)
	assert.Equal(t, StateNone, sm.GetState(1))
	assert.Equal(t, 3, sm.SelectedSlot(1), "cancelling a dialog keeps the slot")

	sm.SelectSlot(1, 0)
	assert.Empty(t, sm.states)
}

func TestManagerConcurrentAccess(t *testing.T) {
	sm := NewManager()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			sm.SelectSlot(id%5, int(id%5)+1)
			sm.SetState(id%5, StateAwaitingFeedback)
			_ = sm.GetState(id % 5)
			sm.ClearState(id % 5)
		}(int64(i))
	}
	wg.Wait()

	for id := int64(0); id < 5; id++ {
		assert.Equal(t, StateNone, sm.GetState(id))
		assert.Equal(t, int(id)+1, sm.SelectedSlot(id))
	}
}
