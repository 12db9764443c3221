package storage

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/annel0/blockverse/internal/logging"
	"github.com/annel0/blockverse/internal/vec"
	"github.com/annel0/blockverse/internal/world"
)

// opTimeout ограничивает отдельную операцию персистентности,
// чтобы зависшая база не накапливала горутины бесконечно.
const opTimeout = 5 * time.Second

// Adapter — сквозная прослойка между in-memory миром и долговременным
// хранилищем. Политика жёсткая: источником истины для живого геймплея
// остаётся память, персистентность строго best-effort. Ошибка записи
// логируется и глотается — она никогда не блокирует и не отменяет
// рассылку события игрокам. Если хранилище недоступно на старте,
// адаптер навсегда (до перезапуска процесса) переходит в выключенный
// режим.
type Adapter struct {
	repo     BlockRepo // nil — хранилище не сконфигурировано
	disabled atomic.Bool
	failures atomic.Int64
	wg       sync.WaitGroup
}

// NewAdapter оборачивает репозиторий; repo == nil означает работу
// без долговременного хранилища с первого же вызова.
func NewAdapter(repo BlockRepo) *Adapter {
	a := &Adapter{repo: repo}
	if repo == nil {
		a.disabled.Store(true)
	}
	return a
}

// Enabled сообщает, жива ли персистентность
func (a *Adapter) Enabled() bool {
	return !a.disabled.Load()
}

// Failures возвращает число проглоченных ошибок записи/удаления
func (a *Adapter) Failures() int64 {
	return a.failures.Load()
}

// LoadOrInit загружает мир из хранилища; если оно пусто — генерирует
// стартовый мир и сохраняет его. При недоступности хранилища
// возвращает сгенерированный мир без сохранения и отключает
// персистентность до конца жизни процесса.
func (a *Adapter) LoadOrInit(ctx context.Context, generate func() []world.Block) []world.Block {
	if a.disabled.Load() {
		logging.Info("💾 Долговременное хранилище не сконфигурировано, мир только в памяти")
		return generate()
	}

	blocks, err := a.repo.LoadAll(ctx)
	if err != nil {
		logging.Error("💾 Хранилище недоступно, переходим в in-memory режим: %v", err)
		a.disabled.Store(true)
		return generate()
	}

	if len(blocks) > 0 {
		logging.Info("💾 Загружено %d блоков из хранилища", len(blocks))
		return blocks
	}

	// Пустое хранилище — единственный триггер генерации
	blocks = generate()
	logging.Info("🌍 Хранилище пусто, сгенерирован стартовый мир: %d блоков", len(blocks))

	if err := a.repo.SaveAll(ctx, blocks); err != nil {
		// Мир уже в памяти — играть можно, сохранение догонит
		// на последующих place/remove
		logging.Error("💾 Не удалось сохранить стартовый мир: %v", err)
		a.failures.Add(1)
	}

	return blocks
}

// SaveAsync сохраняет блок в фоне. Вызовы не сериализуются между
// собой: у каждого своя горутина и свой таймаут.
func (a *Adapter) SaveAsync(b world.Block) {
	if a.disabled.Load() {
		return
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()

		if err := a.repo.Save(ctx, b); err != nil {
			logging.Error("💾 Ошибка сохранения блока %v: %v", b.Pos, err)
			a.failures.Add(1)
		}
	}()
}

// DeleteAsync удаляет блок в фоне с тем же контрактом, что и SaveAsync
func (a *Adapter) DeleteAsync(pos vec.Vec3) {
	if a.disabled.Load() {
		return
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()

		if err := a.repo.Delete(ctx, pos); err != nil {
			logging.Error("💾 Ошибка удаления блока %v: %v", pos, err)
			a.failures.Add(1)
		}
	}()
}

// Flush дожидается завершения всех фоновых операций.
// Используется при остановке сервера и в тестах.
func (a *Adapter) Flush() {
	a.wg.Wait()
}

// Count возвращает число блоков в долговременном хранилище
func (a *Adapter) Count(ctx context.Context) (int64, error) {
	if a.disabled.Load() {
		return 0, nil
	}
	return a.repo.Count(ctx)
}

// Ping проверяет доступность хранилища (для статус-эндпоинта)
func (a *Adapter) Ping(ctx context.Context) error {
	if a.disabled.Load() {
		return nil
	}
	return a.repo.Ping(ctx)
}

// Close дожидается фоновых операций и закрывает репозиторий
func (a *Adapter) Close() error {
	a.Flush()
	if a.repo != nil {
		return a.repo.Close()
	}
	return nil
}
