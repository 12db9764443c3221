package storage

import (
	"context"

	"github.com/annel0/blockverse/internal/vec"
	"github.com/annel0/blockverse/internal/world"
)

// BlockRepo определяет интерфейс долговременного хранилища блоков.
// Контракт одинаков для всех бэкендов:
//   - Save — идемпотентный upsert по ключу (x,y,z); повтор с тем же
//     ключом безопасен и не плодит строк;
//   - Delete — no-op для отсутствующей координаты;
//   - LoadAll — полное содержимое (мир отправляется одним куском,
//     шардирования по чанкам нет).
// Ошибки возвращаются вызывающему; политика «best-effort, не блокировать
// геймплей» реализуется уровнем выше, в Adapter.
type BlockRepo interface {
	// LoadAll читает все сохранённые блоки.
	LoadAll(ctx context.Context) ([]world.Block, error)

	// Save сохраняет блок (идемпотентный upsert по координате).
	Save(ctx context.Context, b world.Block) error

	// SaveAll сохраняет стартовый набор блоков (после генерации мира).
	SaveAll(ctx context.Context, blocks []world.Block) error

	// Delete удаляет блок по координате.
	Delete(ctx context.Context, pos vec.Vec3) error

	// Count возвращает число блоков в хранилище.
	Count(ctx context.Context) (int64, error)

	// Ping проверяет доступность хранилища.
	Ping(ctx context.Context) error

	// Close закрывает соединение/файлы.
	Close() error
}
