package game

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/annel0/blockverse/internal/protocol"
)

// Параметры точки появления: квадрат со стороной spawnSpread вокруг
// нуля, на высоте spawnHeight над плитой земли.
const (
	spawnSpread = 10.0
	spawnHeight = 2.0
)

// Registry владеет живыми сессиями. Идентификаторы монотонны в рамках
// процесса, начинаются с 1 и никогда не переиспользуются — даже после
// отключения игрока его id остаётся «сожжённым».
type Registry struct {
	mu       sync.RWMutex
	nextID   int64
	sessions map[int64]*Session
	rng      *rand.Rand
}

// NewRegistry создаёт пустой реестр сессий
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[int64]*Session),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Register выделяет следующий id, назначает случайную точку появления
// и цвет, и связывает сессию с соединением.
func (r *Registry) Register(sender Sender) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	s := &Session{
		ID:       r.nextID,
		X:        (r.rng.Float64() - 0.5) * spawnSpread,
		Y:        spawnHeight,
		Z:        (r.rng.Float64() - 0.5) * spawnSpread,
		Rotation: 0,
		Color:    fmt.Sprintf("hsl(%d, 70%%, 50%%)", r.rng.Intn(360)),
		Name:     fmt.Sprintf("Игрок%d", r.nextID),
		sender:   sender,
	}
	r.sessions[s.ID] = s
	return s
}

// Unregister удаляет сессию и возвращает её. Повторный вызов для того
// же id — безопасный no-op с возвратом nil.
func (r *Registry) Unregister(id int64) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil
	}
	delete(r.sessions, id)
	return s
}

// Get возвращает сессию по id
func (r *Registry) Get(id int64) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// UpdatePosition перезаписывает трансформ сессии значениями клиента.
// Валидации нет намеренно: сервер доверяет координатам клиента.
func (r *Registry) UpdatePosition(id int64, x, y, z, rotation float64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return false
	}
	s.X, s.Y, s.Z, s.Rotation = x, y, z, rotation
	return true
}

// All возвращает снимок живых сессий
func (r *Registry) All() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// States возвращает снимок всех сессий в представлении протокола,
// кроме сессии except (0 — без исключений).
func (r *Registry) States(except int64) []protocol.PlayerState {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]protocol.PlayerState, 0, len(r.sessions))
	for _, s := range r.sessions {
		if s.ID == except {
			continue
		}
		out = append(out, s.State())
	}
	return out
}

// Count возвращает число живых сессий
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
