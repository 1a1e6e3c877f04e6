package state

import (
	"sync"
)

// Manager хранит состояние диалогов в памяти процесса
type Manager struct {
	mu     sync.RWMutex
	states map[int64]*UserData // telegramID -> UserData
}

// NewManager создаёт новый менеджер состояний
func NewManager() *Manager {
	return &Manager{
		states: make(map[int64]*UserData),
	}
}

func (sm *Manager) entry(telegramID int64) *UserData {
	ud, exists := sm.states[telegramID]
	if !exists {
		ud = &UserData{}
		sm.states[telegramID] = ud
	}
	return ud
}

// dropIfEmpty не держит записи без диалога и без выбранного слота
func (sm *Manager) dropIfEmpty(telegramID int64) {
	if ud, ok := sm.states[telegramID]; ok && ud.State == StateNone && ud.Slot == 0 {
		delete(sm.states, telegramID)
	}
}

// GetState получает текущее состояние пользователя
func (sm *Manager) GetState(telegramID int64) UserState {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if userData, exists := sm.states[telegramID]; exists {
		return userData.State
	}
	return StateNone
}

// SetState устанавливает состояние пользователя
func (sm *Manager) SetState(telegramID int64, state UserState) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.entry(telegramID).State = state
	sm.dropIfEmpty(telegramID)
}

// ClearState завершает диалог. Выбранный слот сохраняется.
func (sm *Manager) ClearState(telegramID int64) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if ud, exists := sm.states[telegramID]; exists {
		ud.State = StateNone
		sm.dropIfEmpty(telegramID)
	}
}

// SelectedSlot слот, в который уходит текст руководителя (0, если не выбран)
func (sm *Manager) SelectedSlot(telegramID int64) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if userData, exists := sm.states[telegramID]; exists {
		return userData.Slot
	}
	return 0
}

// SelectSlot запоминает слот; 0 сбрасывает выбор
func (sm *Manager) SelectSlot(telegramID int64, slot int) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.entry(telegramID).Slot = slot
	sm.dropIfEmpty(telegramID)
}
