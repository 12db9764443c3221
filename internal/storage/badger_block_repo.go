package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v3"

	"github.com/annel0/blockverse/internal/vec"
	"github.com/annel0/blockverse/internal/world"
)

// blockKeyPrefix — префикс ключей блоков в BadgerDB
var blockKeyPrefix = []byte("block:")

// blockRecord — сериализованное значение блока
type blockRecord struct {
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

// BadgerBlockRepo реализует BlockRepo поверх встроенной BadgerDB —
// вариант для одиночного сервера без внешней базы. Идемпотентность
// Save здесь даёт сама модель ключ-значение: повторная запись того же
// ключа перезаписывает ту же запись.
type BadgerBlockRepo struct {
	db *badger.DB
}

// NewBadgerBlockRepo открывает (или создаёт) базу в указанном каталоге
func NewBadgerBlockRepo(path string) (*BadgerBlockRepo, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // отключаем собственное логирование BadgerDB

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	return &BadgerBlockRepo{db: db}, nil
}

// blockKey кодирует координату в ключ "block:x,y,z"
func blockKey(pos vec.Vec3) []byte {
	return []byte(string(blockKeyPrefix) + pos.String())
}

// parseBlockKey восстанавливает координату из ключа
func parseBlockKey(key []byte) (vec.Vec3, error) {
	var pos vec.Vec3
	_, err := fmt.Sscanf(string(key[len(blockKeyPrefix):]), "%d,%d,%d", &pos.X, &pos.Y, &pos.Z)
	if err != nil {
		return vec.Vec3{}, fmt.Errorf("повреждённый ключ блока %q: %w", key, err)
	}
	return pos, nil
}

// LoadAll читает все сохранённые блоки
func (r *BadgerBlockRepo) LoadAll(ctx context.Context) ([]world.Block, error) {
	var out []world.Block

	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = blockKeyPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			item := it.Item()
			pos, err := parseBlockKey(item.Key())
			if err != nil {
				return err
			}
			err = item.Value(func(val []byte) error {
				var rec blockRecord
				if err := json.Unmarshal(val, &rec); err != nil {
					return fmt.Errorf("повреждённое значение блока %v: %w", pos, err)
				}
				out = append(out, world.Block{
					Pos:       pos,
					Type:      world.BlockType(rec.Type),
					CreatedAt: rec.CreatedAt,
				})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения блоков из BadgerDB: %w", err)
	}

	return out, nil
}

// Save сохраняет блок
func (r *BadgerBlockRepo) Save(ctx context.Context, b world.Block) error {
	data, err := json.Marshal(blockRecord{Type: string(b.Type), CreatedAt: b.CreatedAt})
	if err != nil {
		return fmt.Errorf("ошибка сериализации блока %v: %w", b.Pos, err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(blockKey(b.Pos), data)
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения блока %v: %w", b.Pos, err)
	}
	return nil
}

// SaveAll сохраняет набор блоков одной пишущей транзакцией (батчами —
// Badger сам разбивает WriteBatch по лимитам транзакции).
func (r *BadgerBlockRepo) SaveAll(ctx context.Context, blocks []world.Block) error {
	wb := r.db.NewWriteBatch()
	defer wb.Cancel()

	for _, b := range blocks {
		data, err := json.Marshal(blockRecord{Type: string(b.Type), CreatedAt: b.CreatedAt})
		if err != nil {
			return fmt.Errorf("ошибка сериализации блока %v: %w", b.Pos, err)
		}
		if err := wb.Set(blockKey(b.Pos), data); err != nil {
			return fmt.Errorf("ошибка записи блока %v в batch: %w", b.Pos, err)
		}
	}

	if err := wb.Flush(); err != nil {
		return fmt.Errorf("ошибка фиксации batch: %w", err)
	}
	return nil
}

// Delete удаляет блок; отсутствие ключа — не ошибка
func (r *BadgerBlockRepo) Delete(ctx context.Context, pos vec.Vec3) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(blockKey(pos))
	})
	if err != nil {
		return fmt.Errorf("ошибка удаления блока %v: %w", pos, err)
	}
	return nil
}

// Count возвращает число блоков в базе
func (r *BadgerBlockRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = blockKeyPrefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта блоков: %w", err)
	}
	return n, nil
}

// Ping для встроенной базы всегда успешен, пока она открыта
func (r *BadgerBlockRepo) Ping(ctx context.Context) error {
	if r.db.IsClosed() {
		return fmt.Errorf("BadgerDB закрыта")
	}
	return nil
}

// Close закрывает базу
func (r *BadgerBlockRepo) Close() error {
	return r.db.Close()
}
