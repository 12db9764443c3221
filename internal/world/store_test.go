package world

import (
	"testing"

	"github.com/annel0/blockverse/internal/vec"
)

// TestStorePutFirstWriterWins проверяет правило слияния конкурентных
// размещений: первый писатель побеждает, повторный Put — тихий no-op.
func TestStorePutFirstWriterWins(t *testing.T) {
	store := NewStore()
	pos := vec.Vec3{X: 5, Y: 0, Z: 5}

	if !store.Put(pos, BlockStone) {
		t.Fatal("первый Put в пустую клетку должен пройти")
	}

	// Повторная установка — даже другим типом — не имеет эффекта
	if store.Put(pos, BlockGrass) {
		t.Error("Put в занятую клетку должен вернуть false")
	}

	b, ok := store.Get(pos)
	if !ok {
		t.Fatal("блок не найден после Put")
	}
	if b.Type != BlockStone {
		t.Errorf("тип блока перезаписан: ожидался stone, получен %s", b.Type)
	}
	if store.Count() != 1 {
		t.Errorf("ожидался ровно 1 блок, получено %d", store.Count())
	}
}

// TestStoreRoundTrip проверяет цикл place -> remove -> place:
// после удаления клетка снова свободна для размещения.
func TestStoreRoundTrip(t *testing.T) {
	store := NewStore()
	pos := vec.Vec3{X: 1, Y: 2, Z: 3}

	if !store.Put(pos, BlockBrick) {
		t.Fatal("Put не прошёл")
	}

	removed, ok := store.Remove(pos)
	if !ok {
		t.Fatal("Remove занятой клетки должен вернуть блок")
	}
	if removed.Type != BlockBrick {
		t.Errorf("удалён не тот блок: %s", removed.Type)
	}

	if _, ok := store.Get(pos); ok {
		t.Error("клетка должна быть пуста после Remove")
	}

	// Гонка больше не действует — размещение снова возможно
	if !store.Put(pos, BlockGlass) {
		t.Error("Put после Remove должен пройти")
	}
}

// TestStoreRemoveEmpty проверяет, что удаление из пустой клетки — no-op
func TestStoreRemoveEmpty(t *testing.T) {
	store := NewStore()

	if _, ok := store.Remove(vec.Vec3{X: 9, Y: 9, Z: 9}); ok {
		t.Error("Remove пустой клетки должен вернуть ok=false")
	}
	if store.Count() != 0 {
		t.Errorf("хранилище должно остаться пустым, блоков: %d", store.Count())
	}
}

// TestStoreSnapshot проверяет, что снапшот отражает текущее состояние
// (N размещений минус пересекающиеся удаления), а не частичный вид.
func TestStoreSnapshot(t *testing.T) {
	store := NewStore()

	positions := []vec.Vec3{
		{X: 0, Y: 0, Z: 0},
		{X: 1, Y: 0, Z: 0},
		{X: 2, Y: 0, Z: 0},
		{X: 3, Y: 0, Z: 0},
	}
	for _, p := range positions {
		store.Put(p, BlockDirt)
	}
	store.Remove(positions[1])
	store.Remove(positions[2])

	snap := store.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("ожидалось 2 блока в снапшоте, получено %d", len(snap))
	}

	seen := make(map[vec.Vec3]bool)
	for _, b := range snap {
		seen[b.Pos] = true
	}
	if !seen[positions[0]] || !seen[positions[3]] {
		t.Errorf("снапшот не содержит ожидаемых координат: %+v", seen)
	}

	// Снапшот — копия: мутация результата не трогает хранилище
	snap[0].Type = BlockGlass
	b, _ := store.Get(snap[0].Pos)
	if b.Type == BlockGlass {
		t.Error("мутация снапшота просочилась в хранилище")
	}
}

// TestStoreSeedCollapsesDuplicates проверяет схлопывание дубликатов
// координат при начальной загрузке.
func TestStoreSeedCollapsesDuplicates(t *testing.T) {
	store := NewStore()
	pos := vec.Vec3{X: 7, Y: 1, Z: 7}

	store.Seed([]Block{
		{Pos: pos, Type: BlockStone},
		{Pos: pos, Type: BlockSand},
	})

	if store.Count() != 1 {
		t.Fatalf("ожидался 1 блок после Seed, получено %d", store.Count())
	}
	b, _ := store.Get(pos)
	if b.Type != BlockStone {
		t.Errorf("Seed должен оставить первого писателя, получен %s", b.Type)
	}
}

// TestBlockTypeValidation проверяет закрытость набора материалов
func TestBlockTypeValidation(t *testing.T) {
	valid := []BlockType{BlockStone, BlockGrass, BlockWood, BlockLeaf, BlockDirt, BlockSand, BlockBrick, BlockGlass}
	for _, bt := range valid {
		if !bt.IsValid() {
			t.Errorf("тип %s должен быть валидным", bt)
		}
	}

	if BlockType("bedrock").IsValid() {
		t.Error("неизвестный тип не должен проходить валидацию")
	}
	if BlockType("").IsValid() {
		t.Error("пустой тип не должен проходить валидацию")
	}
}
