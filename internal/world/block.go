package world

import (
	"time"

	"github.com/annel0/blockverse/internal/vec"
)

// BlockType — материал блока. На проводе и в БД хранится строкой,
// набор значений закрыт и совпадает с хотбаром клиента.
type BlockType string

const (
	BlockStone BlockType = "stone"
	BlockGrass BlockType = "grass"
	BlockWood  BlockType = "wood"
	BlockLeaf  BlockType = "leaf"
	BlockDirt  BlockType = "dirt"
	BlockSand  BlockType = "sand"
	BlockBrick BlockType = "brick"
	BlockGlass BlockType = "glass"
)

var knownBlockTypes = map[BlockType]struct{}{
	BlockStone: {},
	BlockGrass: {},
	BlockWood:  {},
	BlockLeaf:  {},
	BlockDirt:  {},
	BlockSand:  {},
	BlockBrick: {},
	BlockGlass: {},
}

// IsValid сообщает, входит ли тип в закрытый набор материалов
func (t BlockType) IsValid() bool {
	_, ok := knownBlockTypes[t]
	return ok
}

// Block представляет собой воксель игрового мира.
// Идентичность блока — его позиция: в одной клетке не бывает двух блоков,
// смена типа «на месте» не поддерживается (только remove + place).
type Block struct {
	Pos       vec.Vec3
	Type      BlockType
	CreatedAt time.Time // заполняется при создании; в снапшот клиенту не уходит
}
