package vec

import "fmt"

// Vec3 представляет позицию блока в мире: целочисленные координаты
// разреженной трехмерной сетки. Используется как ключ в картах,
// поэтому тип обязан оставаться сравнимым (comparable).
type Vec3 struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// Vec3Float представляет непрерывную позицию игрока.
// Позиции игроков дробные, позиции блоков — никогда.
type Vec3Float struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Add складывает два вектора
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{
		X: v.X + other.X,
		Y: v.Y + other.Y,
		Z: v.Z + other.Z,
	}
}

// Offset возвращает вектор, смещенный на dx, dy, dz
func (v Vec3) Offset(dx, dy, dz int) Vec3 {
	return Vec3{X: v.X + dx, Y: v.Y + dy, Z: v.Z + dz}
}

// Equals проверяет равенство векторов
func (v Vec3) Equals(other Vec3) bool {
	return v.X == other.X && v.Y == other.Y && v.Z == other.Z
}

// String возвращает строковое представление "x,y,z" — тот же формат,
// которым клиент ключует свою локальную копию мира.
func (v Vec3) String() string {
	return fmt.Sprintf("%d,%d,%d", v.X, v.Y, v.Z)
}
