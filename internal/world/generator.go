package world

import (
	"math/rand"
	"time"

	"github.com/aquilax/go-perlin"

	"github.com/annel0/blockverse/internal/vec"
)

// Константы генерации стартового мира
const (
	GroundRadius = 20  // полуширина площадки: [-20;20] по X и Z
	GroundLevel  = 0   // высота плоскости земли
	BumpScale    = 0.1 // масштаб шума для холмиков
	BumpStart    = 0.72
	TreeCount    = 8
	LeafKeepProb = 0.8 // вероятность оставить отдельный лист кроны
)

// Generator производит стартовую раскладку блоков, когда хранилище
// пусто. Процедура намеренно недетерминирована между запусками
// (сид берётся от часов); жёсткий контракт только один — генерация
// никогда не вызывается поверх непустого мира, за это отвечает
// storage.Adapter.
type Generator struct {
	noise *perlin.Perlin
	rng   *rand.Rand
}

// NewGenerator создаёт генератор со случайным сидом
func NewGenerator() *Generator {
	seed := time.Now().UnixNano()
	return NewGeneratorWithSeed(seed)
}

// NewGeneratorWithSeed создаёт генератор с фиксированным сидом (для тестов)
func NewGeneratorWithSeed(seed int64) *Generator {
	// alpha/beta/октавы — та же настройка сглаженности, что и для
	// ландшафтного шума основного мира
	return &Generator{
		noise: perlin.NewPerlin(2.0, 2.0, 3, seed),
		rng:   rand.New(rand.NewSource(seed)),
	}
}

// Generate возвращает стартовый набор блоков: травяная плоскость,
// шумовые холмики, деревья и неподвижные ориентиры.
func (g *Generator) Generate() []Block {
	placed := make(map[vec.Vec3]BlockType)

	g.generateGround(placed)
	g.generateBumps(placed)
	g.generateTrees(placed)
	g.generateLandmarks(placed)

	now := time.Now()
	out := make([]Block, 0, len(placed))
	for pos, t := range placed {
		out = append(out, Block{Pos: pos, Type: t, CreatedAt: now})
	}
	return out
}

// generateGround кладёт сплошную плоскость травы на GroundLevel
func (g *Generator) generateGround(placed map[vec.Vec3]BlockType) {
	for x := -GroundRadius; x <= GroundRadius; x++ {
		for z := -GroundRadius; z <= GroundRadius; z++ {
			g.put(placed, vec.Vec3{X: x, Y: GroundLevel, Z: z}, BlockGrass)
		}
	}
}

// generateBumps поднимает отдельные столбики земли там, где шум
// Перлина превышает порог — редкие неровности рельефа.
func (g *Generator) generateBumps(placed map[vec.Vec3]BlockType) {
	for x := -GroundRadius; x <= GroundRadius; x++ {
		for z := -GroundRadius; z <= GroundRadius; z++ {
			// Noise2D возвращает [-1;1], приводим к [0;1]
			n := (g.noise.Noise2D(float64(x)*BumpScale, float64(z)*BumpScale) + 1.0) / 2.0
			if n < BumpStart {
				continue
			}
			height := 1
			if n > BumpStart+0.12 {
				height = 2
			}
			for y := 1; y <= height; y++ {
				g.put(placed, vec.Vec3{X: x, Y: GroundLevel + y, Z: z}, BlockDirt)
			}
		}
	}
}

// leafOffsets — крона относительно верхушки ствола
var leafOffsets = []vec.Vec3{
	{X: 0, Y: 0, Z: 0},
	{X: 1, Y: 0, Z: 0}, {X: -1, Y: 0, Z: 0},
	{X: 0, Y: 0, Z: 1}, {X: 0, Y: 0, Z: -1},
	{X: 1, Y: 0, Z: 1}, {X: -1, Y: 0, Z: -1},
	{X: 1, Y: 0, Z: -1}, {X: -1, Y: 0, Z: 1},
	{X: 0, Y: 1, Z: 0},
	{X: 1, Y: 1, Z: 0}, {X: -1, Y: 1, Z: 0},
	{X: 0, Y: 1, Z: 1}, {X: 0, Y: 1, Z: -1},
	{X: 0, Y: 2, Z: 0},
}

// generateTrees ставит TreeCount деревьев в случайных точках площадки
func (g *Generator) generateTrees(placed map[vec.Vec3]BlockType) {
	for i := 0; i < TreeCount; i++ {
		x := g.rng.Intn(2*GroundRadius-6) - (GroundRadius - 3)
		z := g.rng.Intn(2*GroundRadius-6) - (GroundRadius - 3)
		g.placeTree(placed, x, z)
	}
}

// placeTree строит одно дерево: ствол 3-5 блоков и крону со случайным
// прореживанием листьев.
func (g *Generator) placeTree(placed map[vec.Vec3]BlockType, x, z int) {
	trunkHeight := 3 + g.rng.Intn(3)
	for y := 1; y <= trunkHeight; y++ {
		g.put(placed, vec.Vec3{X: x, Y: GroundLevel + y, Z: z}, BlockWood)
	}

	top := vec.Vec3{X: x, Y: GroundLevel + trunkHeight, Z: z}
	for _, off := range leafOffsets {
		if g.rng.Float64() > LeafKeepProb {
			continue
		}
		g.put(placed, top.Add(off), BlockLeaf)
	}
}

// generateLandmarks ставит неподвижные постройки по жёстко заданным
// координатам: кирпичная башня, стеклянный куб и песчаная пирамида.
// Удобные ориентиры для ручной проверки синхронизации.
func (g *Generator) generateLandmarks(placed map[vec.Vec3]BlockType) {
	// Башня из кирпича
	for y := 1; y <= 5; y++ {
		g.put(placed, vec.Vec3{X: 15, Y: GroundLevel + y, Z: 15}, BlockBrick)
	}

	// Полый стеклянный куб 3x3x3
	for dx := 0; dx < 3; dx++ {
		for dy := 0; dy < 3; dy++ {
			for dz := 0; dz < 3; dz++ {
				if dx == 1 && dy == 1 && dz == 1 {
					continue
				}
				g.put(placed, vec.Vec3{X: -15 + dx, Y: GroundLevel + 1 + dy, Z: 12 + dz}, BlockGlass)
			}
		}
	}

	// Песчаная пирамида 5x5 -> 1x1
	for layer := 0; layer < 3; layer++ {
		half := 2 - layer
		for dx := -half; dx <= half; dx++ {
			for dz := -half; dz <= half; dz++ {
				g.put(placed, vec.Vec3{X: -14 + dx, Y: GroundLevel + 1 + layer, Z: -14 + dz}, BlockSand)
			}
		}
	}
}

// put соблюдает инвариант «одна клетка — один блок» уже на этапе
// генерации: первый записавший побеждает.
func (g *Generator) put(placed map[vec.Vec3]BlockType, pos vec.Vec3, t BlockType) {
	if _, occupied := placed[pos]; occupied {
		return
	}
	placed[pos] = t
}
