package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
)

// MariaPlayerRepo пишет журнал присутствия в таблицу players.
// Ключ — id сессии; ид сессий монотонны в рамках запуска процесса,
// поэтому таблица отражает «последних замеченных», а не историю
// всех заходов.
type MariaPlayerRepo struct {
	db *sql.DB
}

// NewMariaPlayerRepo подключается к базе и создаёт таблицу players
func NewMariaPlayerRepo(dsn string) (*MariaPlayerRepo, error) {
	db, err := sql.Open("mysql", dsn+"?parseTime=true")
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к MariaDB: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось проверить соединение с MariaDB: %w", err)
	}

	repo := &MariaPlayerRepo{db: db}
	if err := repo.createTable(); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось создать таблицу players: %w", err)
	}

	return repo, nil
}

func (r *MariaPlayerRepo) createTable() error {
	query := `
		CREATE TABLE IF NOT EXISTS players (
			session_id BIGINT       PRIMARY KEY,
			name       VARCHAR(64)  NOT NULL,
			color      VARCHAR(32)  NOT NULL,
			x          DOUBLE       NOT NULL,
			y          DOUBLE       NOT NULL,
			z          DOUBLE       NOT NULL,
			last_seen  TIMESTAMP    DEFAULT CURRENT_TIMESTAMP
			           ON UPDATE    CURRENT_TIMESTAMP
		) ENGINE=InnoDB
	`

	if _, err := r.db.Exec(query); err != nil {
		return fmt.Errorf("ошибка создания таблицы players: %w", err)
	}
	return nil
}

// UpsertSeen записывает последнее появление игрока
func (r *MariaPlayerRepo) UpsertSeen(ctx context.Context, rec PlayerRecord) error {
	query := `
		INSERT INTO players (session_id, name, color, x, y, z)
		VALUES (?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			name = VALUES(name),
			color = VALUES(color),
			x = VALUES(x),
			y = VALUES(y),
			z = VALUES(z),
			last_seen = CURRENT_TIMESTAMP
	`

	if _, err := r.db.ExecContext(ctx, query,
		rec.SessionID, rec.Name, rec.Color, rec.X, rec.Y, rec.Z); err != nil {
		return fmt.Errorf("ошибка записи присутствия игрока %d: %w", rec.SessionID, err)
	}
	return nil
}

// Close закрывает соединение с базой данных
func (r *MariaPlayerRepo) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
