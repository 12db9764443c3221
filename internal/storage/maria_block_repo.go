package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"

	"github.com/annel0/blockverse/internal/vec"
	"github.com/annel0/blockverse/internal/world"
)

// MariaBlockRepo реализует BlockRepo поверх MariaDB/MySQL.
// Уникальный индекс по (x,y,z) обязателен: именно он делает Save
// безопасно идемпотентным при повторах и конкурентных upsert'ах —
// блокировок на уровне приложения нет.
type MariaBlockRepo struct {
	db *sql.DB
}

// NewMariaBlockRepo подключается к базе и создаёт таблицы при
// необходимости.
//
// dsn — строка подключения (user:pass@tcp(host:port)/dbname).
func NewMariaBlockRepo(dsn string) (*MariaBlockRepo, error) {
	db, err := sql.Open("mysql", dsn+"?parseTime=true")
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к MariaDB: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось проверить соединение с MariaDB: %w", err)
	}

	repo := &MariaBlockRepo{db: db}
	if err := repo.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось создать таблицы: %w", err)
	}

	return repo, nil
}

// createTables создаёт таблицу blocks, если она не существует
func (r *MariaBlockRepo) createTables() error {
	query := `
		CREATE TABLE IF NOT EXISTS blocks (
			id         BIGINT      AUTO_INCREMENT PRIMARY KEY,
			x          INT         NOT NULL,
			y          INT         NOT NULL,
			z          INT         NOT NULL,
			type       VARCHAR(16) NOT NULL,
			created_at TIMESTAMP   DEFAULT CURRENT_TIMESTAMP,
			UNIQUE KEY uniq_coord (x, y, z)
		) ENGINE=InnoDB
	`

	if _, err := r.db.Exec(query); err != nil {
		return fmt.Errorf("ошибка создания таблицы blocks: %w", err)
	}
	return nil
}

// LoadAll читает все сохранённые блоки
func (r *MariaBlockRepo) LoadAll(ctx context.Context) ([]world.Block, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT x, y, z, type, created_at FROM blocks`)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения блоков: %w", err)
	}
	defer rows.Close()

	var out []world.Block
	for rows.Next() {
		var b world.Block
		var t string
		if err := rows.Scan(&b.Pos.X, &b.Pos.Y, &b.Pos.Z, &t, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки блока: %w", err)
		}
		b.Type = world.BlockType(t)
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка обхода строк блоков: %w", err)
	}

	return out, nil
}

// Save сохраняет блок. INSERT ... ON DUPLICATE KEY UPDATE по
// uniq_coord даёт идемпотентность при повторах: существующая строка
// не размножается, тип не меняется задним числом.
func (r *MariaBlockRepo) Save(ctx context.Context, b world.Block) error {
	query := `
		INSERT INTO blocks (x, y, z, type)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE type = type
	`

	if _, err := r.db.ExecContext(ctx, query, b.Pos.X, b.Pos.Y, b.Pos.Z, string(b.Type)); err != nil {
		return fmt.Errorf("ошибка сохранения блока %v: %w", b.Pos, err)
	}
	return nil
}

// SaveAll сохраняет набор блоков одной транзакцией (начальная
// загрузка сгенерированного мира).
func (r *MariaBlockRepo) SaveAll(ctx context.Context, blocks []world.Block) error {
	if len(blocks) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO blocks (x, y, z, type)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE type = type
	`)
	if err != nil {
		return fmt.Errorf("ошибка подготовки запроса: %w", err)
	}
	defer stmt.Close()

	for _, b := range blocks {
		if _, err := stmt.ExecContext(ctx, b.Pos.X, b.Pos.Y, b.Pos.Z, string(b.Type)); err != nil {
			return fmt.Errorf("ошибка сохранения блока %v в batch: %w", b.Pos, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return nil
}

// Delete удаляет блок по координате; отсутствие строки — не ошибка
func (r *MariaBlockRepo) Delete(ctx context.Context, pos vec.Vec3) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM blocks WHERE x = ? AND y = ? AND z = ?`,
		pos.X, pos.Y, pos.Z); err != nil {
		return fmt.Errorf("ошибка удаления блока %v: %w", pos, err)
	}
	return nil
}

// Count возвращает число блоков в базе
func (r *MariaBlockRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM blocks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("ошибка подсчёта блоков: %w", err)
	}
	return n, nil
}

// Ping проверяет соединение с базой
func (r *MariaBlockRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close закрывает соединение с базой данных
func (r *MariaBlockRepo) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
