package world

import (
	"sync"
	"time"

	"github.com/annel0/blockverse/internal/vec"
)

// Store — канонический владелец состояния мира: отображение
// целочисленной координаты в блок. Мутации приходят только из одного
// логического секвенсора (Hub), поэтому правило «первый писатель
// побеждает» даёт тотальный порядок без дополнительных очередей.
// RWMutex нужен из-за конкурентных читателей: статус-эндпоинт и
// снапшоты не должны ждать игровой цикл.
type Store struct {
	mu     sync.RWMutex
	blocks map[vec.Vec3]Block
}

// NewStore создает пустое хранилище мира
func NewStore() *Store {
	return &Store{
		blocks: make(map[vec.Vec3]Block),
	}
}

// Get возвращает блок по координате
func (s *Store) Get(pos vec.Vec3) (Block, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blocks[pos]
	return b, ok
}

// Put ставит блок в пустую клетку. Возвращает false, если клетка уже
// занята — это не ошибка, а проигрыш гонки размещения: повторная
// установка (в том числе другим типом) молча не имеет эффекта.
func (s *Store) Put(pos vec.Vec3, t BlockType) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, occupied := s.blocks[pos]; occupied {
		return false
	}
	s.blocks[pos] = Block{Pos: pos, Type: t, CreatedAt: time.Now()}
	return true
}

// Remove убирает блок из клетки. Возвращает убранный блок;
// для пустой клетки — no-op и ok=false.
func (s *Store) Remove(pos vec.Vec3) (Block, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blocks[pos]
	if !ok {
		return Block{}, false
	}
	delete(s.blocks, pos)
	return b, true
}

// Snapshot возвращает полный срез мира на момент вызова.
// Порядок не определён; используется при подключении клиента.
func (s *Store) Snapshot() []Block {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Block, 0, len(s.blocks))
	for _, b := range s.blocks {
		out = append(out, b)
	}
	return out
}

// Count возвращает число блоков в памяти
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blocks)
}

// Seed загружает стартовый набор блоков (из БД или генератора).
// Дубликаты координат схлопываются по правилу «первый побеждает».
// Вызывается один раз до подключения клиентов.
func (s *Store) Seed(blocks []Block) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range blocks {
		if _, occupied := s.blocks[b.Pos]; occupied {
			continue
		}
		s.blocks[b.Pos] = b
	}
}
