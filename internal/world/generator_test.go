package world

import (
	"testing"

	"github.com/annel0/blockverse/internal/vec"
)

// TestGeneratorGroundPlane проверяет, что плоскость земли сплошная
// и лежит на фиксированной высоте.
func TestGeneratorGroundPlane(t *testing.T) {
	gen := NewGeneratorWithSeed(12345)
	blocks := gen.Generate()

	byPos := make(map[vec.Vec3]BlockType, len(blocks))
	for _, b := range blocks {
		byPos[b.Pos] = b.Type
	}

	for x := -GroundRadius; x <= GroundRadius; x++ {
		for z := -GroundRadius; z <= GroundRadius; z++ {
			if _, ok := byPos[vec.Vec3{X: x, Y: GroundLevel, Z: z}]; !ok {
				t.Fatalf("дыра в плоскости земли на (%d,%d,%d)", x, GroundLevel, z)
			}
		}
	}
}

// TestGeneratorNoDuplicates проверяет инвариант уникальности:
// генератор не выдаёт два блока в одной клетке.
func TestGeneratorNoDuplicates(t *testing.T) {
	gen := NewGeneratorWithSeed(777)
	blocks := gen.Generate()

	seen := make(map[vec.Vec3]bool, len(blocks))
	for _, b := range blocks {
		if seen[b.Pos] {
			t.Fatalf("дубликат координаты %v в выводе генератора", b.Pos)
		}
		seen[b.Pos] = true
	}
}

// TestGeneratorLandmarks проверяет наличие неподвижных ориентиров
// по их жёстко заданным координатам.
func TestGeneratorLandmarks(t *testing.T) {
	gen := NewGeneratorWithSeed(1)
	blocks := gen.Generate()

	byPos := make(map[vec.Vec3]BlockType, len(blocks))
	for _, b := range blocks {
		byPos[b.Pos] = b.Type
	}

	// Вершина кирпичной башни
	if bt := byPos[vec.Vec3{X: 15, Y: GroundLevel + 5, Z: 15}]; bt != BlockBrick {
		t.Errorf("на вершине башни ожидался brick, получен %q", bt)
	}

	// Угол стеклянного куба
	if bt := byPos[vec.Vec3{X: -15, Y: GroundLevel + 1, Z: 12}]; bt != BlockGlass {
		t.Errorf("в углу куба ожидался glass, получен %q", bt)
	}

	// Вершина пирамиды
	if bt := byPos[vec.Vec3{X: -14, Y: GroundLevel + 3, Z: -14}]; bt != BlockSand {
		t.Errorf("на вершине пирамиды ожидался sand, получен %q", bt)
	}
}

// TestGeneratorHasTrees проверяет, что в мире есть стволы и листья
func TestGeneratorHasTrees(t *testing.T) {
	gen := NewGeneratorWithSeed(42)
	blocks := gen.Generate()

	var wood, leaf int
	for _, b := range blocks {
		switch b.Type {
		case BlockWood:
			wood++
		case BlockLeaf:
			leaf++
		}
	}

	// Стволы минимум 3 блока; листья прореживаются, но вероятность
	// полностью пустой кроны у всех деревьев пренебрежимо мала
	if wood < TreeCount*3 {
		t.Errorf("слишком мало древесины: %d", wood)
	}
	if leaf == 0 {
		t.Error("в мире нет ни одного листа")
	}
}
