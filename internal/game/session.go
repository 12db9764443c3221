package game

import (
	"github.com/annel0/blockverse/internal/protocol"
)

// Sender — исходящая сторона соединения сессии. Реализуется
// websocket-транспортом; в тестах подменяется фейком.
type Sender interface {
	// Enqueue кладёт кадр в исходящую очередь без блокировки.
	// false означает, что соединение мертво или безнадёжно отстало.
	Enqueue(data []byte) bool

	// Close закрывает соединение.
	Close()
}

// Session — живое состояние подключённого игрока. Поля позиции
// мутируются только циклом Hub, читаются под замком реестра.
type Session struct {
	ID       int64
	X        float64
	Y        float64
	Z        float64
	Rotation float64
	Color    string
	Name     string

	sender Sender
}

// State возвращает снимок сессии в представлении протокола
func (s *Session) State() protocol.PlayerState {
	return protocol.PlayerState{
		ID:       s.ID,
		X:        s.X,
		Y:        s.Y,
		Z:        s.Z,
		Rotation: s.Rotation,
		Color:    s.Color,
		Name:     s.Name,
	}
}
