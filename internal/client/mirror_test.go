package client

import (
	"testing"

	"github.com/annel0/blockverse/internal/vec"
	"github.com/annel0/blockverse/internal/world"
)

// TestMirrorInitReplacesState: init полностью замещает локальное
// состояние, включая предсказанные блоки.
func TestMirrorInitReplacesState(t *testing.T) {
	m := NewMirror()
	m.PredictPlace(vec.Vec3{X: 99, Y: 99, Z: 99}, world.BlockGlass)

	frame := []byte(`{
		"type":"init","clientId":7,
		"players":[{"id":3,"x":1,"y":2,"z":3,"rotation":0,"color":"hsl(10, 70%, 50%)","name":"Игрок3"}],
		"blocks":[{"x":0,"y":0,"z":0,"type":"grass"}]
	}`)
	if err := m.Apply(frame); err != nil {
		t.Fatalf("ошибка применения init: %v", err)
	}

	if m.SelfID() != 7 {
		t.Errorf("selfID: ожидался 7, получен %d", m.SelfID())
	}
	if m.BlockCount() != 1 {
		t.Errorf("init должен заместить мир: ожидался 1 блок, получено %d", m.BlockCount())
	}
	if _, ok := m.BlockAt(vec.Vec3{X: 99, Y: 99, Z: 99}); ok {
		t.Error("предсказанный блок должен исчезнуть после полного снимка")
	}
	if len(m.Players()) != 1 {
		t.Errorf("ожидался 1 игрок, получено %d", len(m.Players()))
	}
}

// TestMirrorPredictionEcho: эхо собственного действия применяется
// идемпотентно, без отката и дублей.
func TestMirrorPredictionEcho(t *testing.T) {
	m := NewMirror()
	pos := vec.Vec3{X: 2, Y: 1, Z: 2}

	if !m.PredictPlace(pos, world.BlockWood) {
		t.Fatal("предсказание в пустую координату должно проходить")
	}
	if m.PredictPlace(pos, world.BlockStone) {
		t.Error("повторное предсказание в занятую координату — no-op")
	}

	// Авторитетное эхо того же действия
	if err := m.Apply([]byte(`{"type":"blockPlaced","x":2,"y":1,"z":2,"blockType":"wood"}`)); err != nil {
		t.Fatalf("ошибка применения эха: %v", err)
	}
	if m.BlockCount() != 1 {
		t.Errorf("эхо не должно создавать дубликат: %d блоков", m.BlockCount())
	}

	// Удаление: предсказание + эхо
	if !m.PredictRemove(pos) {
		t.Fatal("предсказание удаления существующего блока должно проходить")
	}
	if err := m.Apply([]byte(`{"type":"blockRemoved","x":2,"y":1,"z":2}`)); err != nil {
		t.Fatalf("эхо удаления отсутствующего блока должно быть no-op: %v", err)
	}
	if m.BlockCount() != 0 {
		t.Errorf("мир должен быть пуст, осталось %d", m.BlockCount())
	}
}

// TestMirrorLostRaceOverwrite: blockPlaced победителя гонки
// перезаписывает тип, предсказанный проигравшим.
func TestMirrorLostRaceOverwrite(t *testing.T) {
	m := NewMirror()
	pos := vec.Vec3{X: 5, Y: 1, Z: 5}

	m.PredictPlace(pos, world.BlockGlass)

	// Сервер рассылает установку победителя с другим типом
	if err := m.Apply([]byte(`{"type":"blockPlaced","x":5,"y":1,"z":5,"blockType":"brick"}`)); err != nil {
		t.Fatalf("ошибка применения: %v", err)
	}

	if got, _ := m.BlockAt(pos); got != world.BlockBrick {
		t.Errorf("авторитетный тип должен победить: ожидался brick, получен %s", got)
	}
}

// TestMirrorPlayerLifecycle: join/move/left ведут список игроков,
// позиция применяется мгновенно.
func TestMirrorPlayerLifecycle(t *testing.T) {
	m := NewMirror()

	m.Apply([]byte(`{"type":"playerJoined","player":{"id":4,"x":0,"y":2,"z":0,"rotation":0,"color":"hsl(200, 70%, 50%)","name":"Игрок4"}}`))
	if len(m.Players()) != 1 {
		t.Fatalf("ожидался 1 игрок, получено %d", len(m.Players()))
	}

	m.Apply([]byte(`{"type":"playerMoved","clientId":4,"x":8.5,"y":2,"z":-1,"rotation":3.14}`))
	p := m.Players()[0]
	if p.X != 8.5 || p.Rotation != 3.14 {
		t.Errorf("позиция должна примениться мгновенно: %+v", p)
	}

	// Движение неизвестного игрока игнорируется
	if err := m.Apply([]byte(`{"type":"playerMoved","clientId":99,"x":0,"y":0,"z":0,"rotation":0}`)); err != nil {
		t.Errorf("движение неизвестного игрока не должно быть ошибкой: %v", err)
	}

	m.Apply([]byte(`{"type":"playerLeft","clientId":4}`))
	if len(m.Players()) != 0 {
		t.Errorf("игрок должен исчезнуть после playerLeft, осталось %d", len(m.Players()))
	}
}

// TestMirrorMalformedFrame: дефектный кадр — ошибка, состояние цело
func TestMirrorMalformedFrame(t *testing.T) {
	m := NewMirror()
	m.PredictPlace(vec.Vec3{X: 1, Y: 1, Z: 1}, world.BlockStone)

	if err := m.Apply([]byte(`не json`)); err == nil {
		t.Error("не-JSON кадр должен возвращать ошибку")
	}
	if err := m.Apply([]byte(`{"type":"unknown"}`)); err == nil {
		t.Error("неизвестный тип кадра должен возвращать ошибку")
	}
	if m.BlockCount() != 1 {
		t.Errorf("дефектные кадры не должны трогать состояние: %d блоков", m.BlockCount())
	}
}
