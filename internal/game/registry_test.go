package game

import (
	"testing"
)

type nopSender struct{}

func (nopSender) Enqueue([]byte) bool { return true }
func (nopSender) Close()              {}

// TestRegistryMonotonicIDs: идентификаторы начинаются с 1, растут
// монотонно и не переиспользуются после отключения.
func TestRegistryMonotonicIDs(t *testing.T) {
	r := NewRegistry()

	first := r.Register(nopSender{})
	if first.ID != 1 {
		t.Fatalf("первая сессия должна получить id 1, получила %d", first.ID)
	}

	second := r.Register(nopSender{})
	if second.ID != 2 {
		t.Fatalf("вторая сессия должна получить id 2, получила %d", second.ID)
	}

	// Освобождаем оба id и регистрируемся снова
	r.Unregister(first.ID)
	r.Unregister(second.ID)

	third := r.Register(nopSender{})
	if third.ID != 3 {
		t.Errorf("id не должны переиспользоваться: ожидался 3, получен %d", third.ID)
	}
}

// TestRegistryUnregisterIdempotent: повторное снятие сессии — no-op
func TestRegistryUnregisterIdempotent(t *testing.T) {
	r := NewRegistry()
	s := r.Register(nopSender{})

	if removed := r.Unregister(s.ID); removed == nil {
		t.Fatal("первое снятие должно вернуть сессию")
	}
	if removed := r.Unregister(s.ID); removed != nil {
		t.Error("повторное снятие должно вернуть nil")
	}
	if r.Count() != 0 {
		t.Errorf("реестр должен быть пуст, осталось %d", r.Count())
	}
}

// TestRegistrySpawnAttributes: новая сессия получает точку появления в
// пределах зоны спауна, нулевой поворот, цвет и имя.
func TestRegistrySpawnAttributes(t *testing.T) {
	r := NewRegistry()

	for i := 0; i < 50; i++ {
		s := r.Register(nopSender{})
		if s.X < -spawnSpread/2 || s.X >= spawnSpread/2 ||
			s.Z < -spawnSpread/2 || s.Z >= spawnSpread/2 {
			t.Errorf("точка появления (%f, %f) вне зоны спауна", s.X, s.Z)
		}
		if s.Y != spawnHeight {
			t.Errorf("высота появления: ожидалось %f, получено %f", spawnHeight, s.Y)
		}
		if s.Rotation != 0 {
			t.Errorf("стартовый поворот должен быть 0, получен %f", s.Rotation)
		}
		if s.Color == "" || s.Name == "" {
			t.Errorf("сессия без цвета или имени: %+v", s)
		}
	}
}

// TestRegistryUpdatePosition: трансформ перезаписывается без валидации;
// для снятой сессии обновление сообщает false.
func TestRegistryUpdatePosition(t *testing.T) {
	r := NewRegistry()
	s := r.Register(nopSender{})

	if !r.UpdatePosition(s.ID, 100, -50, 3.5, 1.57) {
		t.Fatal("обновление живой сессии должно проходить")
	}

	got, _ := r.Get(s.ID)
	if got.X != 100 || got.Y != -50 || got.Z != 3.5 || got.Rotation != 1.57 {
		t.Errorf("трансформ не применился: %+v", got)
	}

	r.Unregister(s.ID)
	if r.UpdatePosition(s.ID, 0, 0, 0, 0) {
		t.Error("обновление снятой сессии должно возвращать false")
	}
}

// TestRegistryStatesExcludes: снимок состояний не содержит исключённую
// сессию.
func TestRegistryStatesExcludes(t *testing.T) {
	r := NewRegistry()
	a := r.Register(nopSender{})
	b := r.Register(nopSender{})

	states := r.States(a.ID)
	if len(states) != 1 || states[0].ID != b.ID {
		t.Errorf("ожидалась только сессия %d, получено %+v", b.ID, states)
	}

	if got := len(r.States(0)); got != 2 {
		t.Errorf("без исключений ожидалось 2 состояния, получено %d", got)
	}
}
