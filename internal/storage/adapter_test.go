package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/annel0/blockverse/internal/vec"
	"github.com/annel0/blockverse/internal/world"
)

// brokenBlockRepo имитирует недоступное хранилище: каждая операция
// завершается ошибкой.
type brokenBlockRepo struct{}

var errStorageDown = errors.New("хранилище недоступно")

func (brokenBlockRepo) LoadAll(ctx context.Context) ([]world.Block, error) { return nil, errStorageDown }
func (brokenBlockRepo) Save(ctx context.Context, b world.Block) error      { return errStorageDown }
func (brokenBlockRepo) SaveAll(ctx context.Context, bs []world.Block) error {
	return errStorageDown
}
func (brokenBlockRepo) Delete(ctx context.Context, pos vec.Vec3) error { return errStorageDown }
func (brokenBlockRepo) Count(ctx context.Context) (int64, error)       { return 0, errStorageDown }
func (brokenBlockRepo) Ping(ctx context.Context) error                 { return errStorageDown }
func (brokenBlockRepo) Close() error                                   { return nil }

func testWorld() []world.Block {
	return []world.Block{
		{Pos: vec.Vec3{X: 0, Y: 0, Z: 0}, Type: world.BlockGrass},
		{Pos: vec.Vec3{X: 1, Y: 0, Z: 0}, Type: world.BlockGrass},
	}
}

// TestAdapterLoadOrInitEmpty: пустое хранилище — единственный триггер
// генерации мира; сгенерированный мир сразу сохраняется.
func TestAdapterLoadOrInitEmpty(t *testing.T) {
	repo := NewMemoryBlockRepo()
	defer repo.Close()
	a := NewAdapter(repo)

	blocks := a.LoadOrInit(context.Background(), testWorld)
	if len(blocks) != 2 {
		t.Fatalf("ожидался сгенерированный мир из 2 блоков, получено %d", len(blocks))
	}
	if !a.Enabled() {
		t.Error("персистентность не должна отключаться из-за пустого хранилища")
	}

	n, _ := repo.Count(context.Background())
	if n != 2 {
		t.Errorf("стартовый мир должен быть сохранён: ожидалось 2 блока, получено %d", n)
	}
}

// TestAdapterLoadOrInitExisting: непустое хранилище возвращается как
// есть, генератор не вызывается.
func TestAdapterLoadOrInitExisting(t *testing.T) {
	repo := NewMemoryBlockRepo()
	defer repo.Close()
	repo.SaveAll(context.Background(), []world.Block{
		{Pos: vec.Vec3{X: 5, Y: 1, Z: 5}, Type: world.BlockBrick},
	})

	a := NewAdapter(repo)
	called := false
	blocks := a.LoadOrInit(context.Background(), func() []world.Block {
		called = true
		return testWorld()
	})

	if called {
		t.Error("генератор не должен вызываться при непустом хранилище")
	}
	if len(blocks) != 1 || blocks[0].Type != world.BlockBrick {
		t.Errorf("ожидался сохранённый мир, получено %+v", blocks)
	}
}

// TestAdapterFallbackIdempotence: при недоступном хранилище адаптер
// отдаёт сгенерированный мир и навсегда переходит в in-memory режим —
// последующие операции становятся no-op без новых ошибок.
func TestAdapterFallbackIdempotence(t *testing.T) {
	a := NewAdapter(brokenBlockRepo{})

	blocks := a.LoadOrInit(context.Background(), testWorld)
	if len(blocks) != 2 {
		t.Fatalf("при сбое хранилища ожидался сгенерированный мир, получено %d блоков", len(blocks))
	}
	if a.Enabled() {
		t.Fatal("после сбоя загрузки персистентность должна быть отключена")
	}

	before := a.Failures()

	// Отключённый адаптер глотает операции молча
	a.SaveAsync(world.Block{Pos: vec.Vec3{X: 9, Y: 9, Z: 9}, Type: world.BlockGlass})
	a.DeleteAsync(vec.Vec3{X: 9, Y: 9, Z: 9})
	a.Flush()

	if a.Failures() != before {
		t.Errorf("операции в выключенном режиме не должны считаться ошибками: %d -> %d",
			before, a.Failures())
	}
	if err := a.Ping(context.Background()); err != nil {
		t.Errorf("Ping выключенного адаптера не должен возвращать ошибку: %v", err)
	}
	if n, err := a.Count(context.Background()); err != nil || n != 0 {
		t.Errorf("Count выключенного адаптера: ожидалось (0, nil), получено (%d, %v)", n, err)
	}
}

// TestAdapterBestEffortWrites: ошибка отдельной записи учитывается в
// счётчике, но не отключает персистентность.
func TestAdapterBestEffortWrites(t *testing.T) {
	repo := NewMemoryBlockRepo()
	defer repo.Close()
	a := NewAdapter(repo)
	a.LoadOrInit(context.Background(), testWorld)

	// Закрытый репозиторий вернёт ошибку на запись
	repo.Close()

	a.SaveAsync(world.Block{Pos: vec.Vec3{X: 3, Y: 3, Z: 3}, Type: world.BlockWood})
	a.Flush()

	if a.Failures() == 0 {
		t.Error("ошибка записи должна попадать в счётчик сбоев")
	}
	if !a.Enabled() {
		t.Error("единичная ошибка записи не должна отключать персистентность")
	}
}

// TestAdapterNilRepo: адаптер без репозитория работает как выключенный
// с первого вызова.
func TestAdapterNilRepo(t *testing.T) {
	a := NewAdapter(nil)
	if a.Enabled() {
		t.Fatal("адаптер без репозитория должен быть выключен")
	}

	blocks := a.LoadOrInit(context.Background(), testWorld)
	if len(blocks) != 2 {
		t.Errorf("ожидался сгенерированный мир, получено %d блоков", len(blocks))
	}
	if err := a.Close(); err != nil {
		t.Errorf("Close без репозитория: %v", err)
	}
}
