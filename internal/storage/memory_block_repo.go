package storage

import (
	"context"
	"errors"
	"sync"

	"github.com/annel0/blockverse/internal/vec"
	"github.com/annel0/blockverse/internal/world"
)

// ErrRepoClosed возвращается при операциях над закрытым репозиторием
var ErrRepoClosed = errors.New("репозиторий закрыт")

// MemoryBlockRepo реализует BlockRepo в памяти.
// Используется в тестах и для CI/локальной разработки без БД.
// ВНИМАНИЕ: данные теряются при перезапуске сервера!
type MemoryBlockRepo struct {
	mu     sync.RWMutex
	data   map[vec.Vec3]world.Block
	closed bool
}

// NewMemoryBlockRepo создаёт пустой репозиторий в памяти
func NewMemoryBlockRepo() *MemoryBlockRepo {
	return &MemoryBlockRepo{
		data: make(map[vec.Vec3]world.Block),
	}
}

// LoadAll возвращает все блоки
func (r *MemoryBlockRepo) LoadAll(ctx context.Context) ([]world.Block, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return nil, ErrRepoClosed
	}

	out := make([]world.Block, 0, len(r.data))
	for _, b := range r.data {
		out = append(out, b)
	}
	return out, nil
}

// Save сохраняет блок (идемпотентный upsert по координате)
func (r *MemoryBlockRepo) Save(ctx context.Context, b world.Block) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRepoClosed
	}
	r.data[b.Pos] = b
	return nil
}

// SaveAll сохраняет набор блоков
func (r *MemoryBlockRepo) SaveAll(ctx context.Context, blocks []world.Block) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRepoClosed
	}
	for _, b := range blocks {
		r.data[b.Pos] = b
	}
	return nil
}

// Delete удаляет блок; отсутствие записи — не ошибка
func (r *MemoryBlockRepo) Delete(ctx context.Context, pos vec.Vec3) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRepoClosed
	}
	delete(r.data, pos)
	return nil
}

// Count возвращает число блоков
func (r *MemoryBlockRepo) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return 0, ErrRepoClosed
	}
	return int64(len(r.data)), nil
}

// Ping проверяет, что репозиторий не закрыт
func (r *MemoryBlockRepo) Ping(ctx context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return ErrRepoClosed
	}
	return nil
}

// Close помечает репозиторий закрытым; повторный Close безопасен
func (r *MemoryBlockRepo) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}
