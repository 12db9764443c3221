package storage

import (
	"context"
	"time"
)

// PlayerRecord — последнее замеченное состояние игрока для
// аналитики. В живое состояние сессий эти записи не читаются:
// переподключившийся клиент — всегда новая сессия.
type PlayerRecord struct {
	SessionID int64     `json:"session_id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Z         float64   `json:"z"`
	LastSeen  time.Time `json:"last_seen"`
}

// PlayerRepo — best-effort журнал присутствия игроков.
// Контракт консистентности сознательно слабый: потеря записи не
// влияет на игру.
type PlayerRepo interface {
	// UpsertSeen записывает/обновляет последнее появление игрока.
	UpsertSeen(ctx context.Context, rec PlayerRecord) error

	// Close закрывает соединение.
	Close() error
}
