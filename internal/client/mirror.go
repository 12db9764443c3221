// Package client реализует протокольную сторону игрового клиента:
// локальное зеркало мира с оптимистичными правками и подключение к
// серверу. Используется ботом и интеграционными тестами; браузерный
// клиент реализует ту же логику на своей стороне.
package client

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/annel0/blockverse/internal/protocol"
	"github.com/annel0/blockverse/internal/vec"
	"github.com/annel0/blockverse/internal/world"
)

// Mirror — локальная копия авторитетного состояния сервера.
// Правки применяются оптимистично в момент действия пользователя;
// эхо собственных blockPlaced/blockRemoved повторно применяется
// идемпотентно, без отката. Проигранная гонка не чинится ничем,
// кроме полного снимка при переподключении.
type Mirror struct {
	mu      sync.RWMutex
	selfID  int64
	blocks  map[vec.Vec3]world.BlockType
	players map[int64]protocol.PlayerState
}

// NewMirror создаёт пустое зеркало
func NewMirror() *Mirror {
	return &Mirror{
		blocks:  make(map[vec.Vec3]world.BlockType),
		players: make(map[int64]protocol.PlayerState),
	}
}

// SelfID возвращает id, выданный сервером в init (0 до init)
func (m *Mirror) SelfID() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.selfID
}

// BlockAt возвращает тип блока в координате
func (m *Mirror) BlockAt(pos vec.Vec3) (world.BlockType, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.blocks[pos]
	return t, ok
}

// BlockCount возвращает размер локального мира
func (m *Mirror) BlockCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.blocks)
}

// Players возвращает снимок видимых игроков (без самого клиента)
func (m *Mirror) Players() []protocol.PlayerState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]protocol.PlayerState, 0, len(m.players))
	for _, p := range m.players {
		out = append(out, p)
	}
	return out
}

// PredictPlace применяет установку блока локально до ответа сервера.
// Занятая координата — no-op, как и в авторитетном мире.
func (m *Mirror) PredictPlace(pos vec.Vec3, t world.BlockType) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, occupied := m.blocks[pos]; occupied {
		return false
	}
	m.blocks[pos] = t
	return true
}

// PredictRemove удаляет блок локально до ответа сервера
func (m *Mirror) PredictRemove(pos vec.Vec3) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.blocks[pos]; !ok {
		return false
	}
	delete(m.blocks, pos)
	return true
}

// Apply применяет кадр сервера к зеркалу. Повторное применение
// собственного эха безопасно: установка поверх локально предсказанного
// блока перезаписывает тип авторитетным значением, удаление
// отсутствующего — no-op.
func (m *Mirror) Apply(frame []byte) error {
	var probe struct {
		Type protocol.MessageType `json:"type"`
	}
	if err := json.Unmarshal(frame, &probe); err != nil {
		return fmt.Errorf("кадр сервера не является JSON: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	switch probe.Type {
	case protocol.TypeInit:
		var msg protocol.InitMessage
		if err := json.Unmarshal(frame, &msg); err != nil {
			return fmt.Errorf("некорректный init: %w", err)
		}
		// Полный снимок замещает всё локальное состояние — это
		// единственный механизм починки после проигранной гонки
		m.selfID = msg.ClientID
		m.blocks = make(map[vec.Vec3]world.BlockType, len(msg.Blocks))
		for _, b := range msg.Blocks {
			m.blocks[vec.Vec3{X: b.X, Y: b.Y, Z: b.Z}] = b.Type
		}
		m.players = make(map[int64]protocol.PlayerState, len(msg.Players))
		for _, p := range msg.Players {
			m.players[p.ID] = p
		}

	case protocol.TypePlayerJoined:
		var msg protocol.PlayerJoinedMessage
		if err := json.Unmarshal(frame, &msg); err != nil {
			return fmt.Errorf("некорректный playerJoined: %w", err)
		}
		m.players[msg.Player.ID] = msg.Player

	case protocol.TypePlayerMoved:
		var msg protocol.PlayerMovedMessage
		if err := json.Unmarshal(frame, &msg); err != nil {
			return fmt.Errorf("некорректный playerMoved: %w", err)
		}
		// Позиция применяется мгновенно, без интерполяции
		if p, ok := m.players[msg.ClientID]; ok {
			p.X, p.Y, p.Z, p.Rotation = msg.X, msg.Y, msg.Z, msg.Rotation
			m.players[msg.ClientID] = p
		}

	case protocol.TypeBlockPlaced:
		var msg protocol.BlockPlacedMessage
		if err := json.Unmarshal(frame, &msg); err != nil {
			return fmt.Errorf("некорректный blockPlaced: %w", err)
		}
		m.blocks[vec.Vec3{X: msg.X, Y: msg.Y, Z: msg.Z}] = msg.BlockType

	case protocol.TypeBlockRemoved:
		var msg protocol.BlockRemovedMessage
		if err := json.Unmarshal(frame, &msg); err != nil {
			return fmt.Errorf("некорректный blockRemoved: %w", err)
		}
		delete(m.blocks, vec.Vec3{X: msg.X, Y: msg.Y, Z: msg.Z})

	case protocol.TypePlayerLeft:
		var msg protocol.PlayerLeftMessage
		if err := json.Unmarshal(frame, &msg); err != nil {
			return fmt.Errorf("некорректный playerLeft: %w", err)
		}
		delete(m.players, msg.ClientID)

	default:
		return fmt.Errorf("неизвестный тип кадра сервера %q", probe.Type)
	}

	return nil
}
