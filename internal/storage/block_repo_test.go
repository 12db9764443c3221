package storage

import (
	"context"
	"testing"

	"github.com/annel0/blockverse/internal/vec"
	"github.com/annel0/blockverse/internal/world"
)

// testBlockRepo прогоняет общий контракт BlockRepo на любом бэкенде
func testBlockRepo(t *testing.T, repo BlockRepo) {
	ctx := context.Background()

	t.Run("Save and LoadAll", func(t *testing.T) {
		b := world.Block{Pos: vec.Vec3{X: 1, Y: 2, Z: 3}, Type: world.BlockStone}
		if err := repo.Save(ctx, b); err != nil {
			t.Fatalf("ошибка сохранения блока: %v", err)
		}

		blocks, err := repo.LoadAll(ctx)
		if err != nil {
			t.Fatalf("ошибка загрузки блоков: %v", err)
		}
		if len(blocks) != 1 {
			t.Fatalf("ожидался 1 блок, получено %d", len(blocks))
		}
		if blocks[0].Pos != b.Pos || blocks[0].Type != b.Type {
			t.Errorf("блок не совпадает: ожидался %+v, получен %+v", b, blocks[0])
		}
	})

	t.Run("Save Idempotent", func(t *testing.T) {
		b := world.Block{Pos: vec.Vec3{X: 1, Y: 2, Z: 3}, Type: world.BlockStone}

		// Повторный upsert того же ключа не плодит записей
		if err := repo.Save(ctx, b); err != nil {
			t.Fatalf("ошибка повторного сохранения: %v", err)
		}

		n, err := repo.Count(ctx)
		if err != nil {
			t.Fatalf("ошибка подсчёта: %v", err)
		}
		if n != 1 {
			t.Errorf("после повторного Save ожидался 1 блок, получено %d", n)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		pos := vec.Vec3{X: 1, Y: 2, Z: 3}
		if err := repo.Delete(ctx, pos); err != nil {
			t.Fatalf("ошибка удаления: %v", err)
		}

		// Удаление отсутствующей координаты — no-op, не ошибка
		if err := repo.Delete(ctx, pos); err != nil {
			t.Errorf("повторное удаление должно быть no-op: %v", err)
		}

		n, _ := repo.Count(ctx)
		if n != 0 {
			t.Errorf("после удаления ожидалось 0 блоков, получено %d", n)
		}
	})

	t.Run("SaveAll", func(t *testing.T) {
		blocks := []world.Block{
			{Pos: vec.Vec3{X: 10, Y: 0, Z: 10}, Type: world.BlockGrass},
			{Pos: vec.Vec3{X: 11, Y: 0, Z: 10}, Type: world.BlockDirt},
			{Pos: vec.Vec3{X: 12, Y: 0, Z: 10}, Type: world.BlockSand},
		}
		if err := repo.SaveAll(ctx, blocks); err != nil {
			t.Fatalf("ошибка пакетного сохранения: %v", err)
		}

		n, err := repo.Count(ctx)
		if err != nil {
			t.Fatalf("ошибка подсчёта: %v", err)
		}
		if n != int64(len(blocks)) {
			t.Errorf("ожидалось %d блоков, получено %d", len(blocks), n)
		}
	})

	t.Run("Ping", func(t *testing.T) {
		if err := repo.Ping(ctx); err != nil {
			t.Errorf("Ping открытого хранилища должен проходить: %v", err)
		}
	})
}

// TestMemoryBlockRepo проверяет контракт на in-memory бэкенде
func TestMemoryBlockRepo(t *testing.T) {
	repo := NewMemoryBlockRepo()
	defer repo.Close()
	testBlockRepo(t, repo)
}

// TestBadgerBlockRepo проверяет контракт на встроенной BadgerDB
func TestBadgerBlockRepo(t *testing.T) {
	repo, err := NewBadgerBlockRepo(t.TempDir())
	if err != nil {
		t.Fatalf("не удалось открыть BadgerDB: %v", err)
	}
	defer repo.Close()
	testBlockRepo(t, repo)
}

// TestBadgerBlockRepoKeyRoundTrip проверяет кодирование координат,
// включая отрицательные значения.
func TestBadgerBlockRepoKeyRoundTrip(t *testing.T) {
	coords := []vec.Vec3{
		{X: 0, Y: 0, Z: 0},
		{X: -5, Y: 2, Z: -5},
		{X: 1000000, Y: -64, Z: 42},
	}

	for _, pos := range coords {
		got, err := parseBlockKey(blockKey(pos))
		if err != nil {
			t.Fatalf("ошибка разбора ключа для %v: %v", pos, err)
		}
		if got != pos {
			t.Errorf("координата исказилась: %v -> %v", pos, got)
		}
	}
}
