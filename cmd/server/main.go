package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/blockverse/internal/api"
	"github.com/annel0/blockverse/internal/config"
	"github.com/annel0/blockverse/internal/eventbus"
	"github.com/annel0/blockverse/internal/game"
	"github.com/annel0/blockverse/internal/logging"
	"github.com/annel0/blockverse/internal/observability"
	"github.com/annel0/blockverse/internal/storage"
	"github.com/annel0/blockverse/internal/transport"
	"github.com/annel0/blockverse/internal/world"
)

func main() {
	// Инициализируем систему логирования
	if err := logging.InitDefaultLogger("server"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()

	logging.Info("🎮 Запуск сервера воксельной песочницы...")

	// === КОНФИГУРАЦИЯ ===
	cfg, err := config.Load("")
	if err != nil {
		logging.Error("❌ Ошибка чтения конфигурации: %v", err)
		log.Fatalf("❌ Ошибка чтения конфигурации: %v", err)
	}

	wsPort := cfg.Server.GetWSPort()
	statusPort := cfg.Server.GetStatusPort()
	logging.Info("📡 Конфигурация сервера: WebSocket=:%d, статус=:%d", wsPort, statusPort)

	ctx := context.Background()

	// === ТЕЛЕМЕТРИЯ ===
	var telemetryShutdown func(context.Context) error
	if cfg.Telemetry.Enabled {
		telemetryShutdown, err = observability.InitTelemetry(ctx, "blockverse-server")
		if err != nil {
			logging.Error("📡 Телеметрия недоступна, продолжаем без неё: %v", err)
			telemetryShutdown = nil
		}
	}

	// === ШИНА СОБЫТИЙ ===
	var bus eventbus.EventBus
	if cfg.EventBus.URL != "" {
		retention := time.Duration(cfg.EventBus.Retention) * time.Hour
		jsBus, err := eventbus.NewJetStreamBus(cfg.EventBus.URL, cfg.EventBus.Stream, retention)
		if err != nil {
			logging.Error("🪵 JetStream недоступен, используем внутрипроцессную шину: %v", err)
			bus = eventbus.NewMemoryBus(1024)
		} else {
			logging.Info("🪵 Шина событий: JetStream %s", cfg.EventBus.URL)
			bus = jsBus
		}
	} else {
		bus = eventbus.NewMemoryBus(1024)
	}
	eventbus.Init(bus)
	if err := eventbus.StartLoggingListener(bus); err != nil {
		logging.Error("🪵 Не удалось подписать лог-слушатель: %v", err)
	}
	busMetrics := eventbus.NewMetricsExporter(bus)
	busMetrics.Start()

	// === ДОЛГОВРЕМЕННОЕ ХРАНИЛИЩЕ ===
	// Ошибка подключения не фатальна: адаптер уходит в in-memory режим
	var blockRepo storage.BlockRepo
	switch {
	case cfg.Storage.GetMariaDSN() != "":
		repo, err := storage.NewMariaBlockRepo(cfg.Storage.GetMariaDSN())
		if err != nil {
			logging.Error("💾 MariaDB недоступна: %v", err)
		} else {
			logging.Info("💾 Хранилище блоков: MariaDB")
			blockRepo = repo
		}
	case cfg.Storage.BadgerPath != "":
		repo, err := storage.NewBadgerBlockRepo(cfg.Storage.BadgerPath)
		if err != nil {
			logging.Error("💾 BadgerDB недоступна: %v", err)
		} else {
			logging.Info("💾 Хранилище блоков: BadgerDB (%s)", cfg.Storage.BadgerPath)
			blockRepo = repo
		}
	}
	persist := storage.NewAdapter(blockRepo)

	// === МИР ===
	store := world.NewStore()
	store.Seed(persist.LoadOrInit(ctx, world.NewGenerator().Generate))
	logging.Info("🌍 Мир готов: %d блоков", store.Count())

	// === ЖУРНАЛ ПРИСУТСТВИЯ ===
	var players storage.PlayerRepo
	switch cfg.Presence.Backend {
	case "redis":
		repoCfg := storage.DefaultRedisPlayerConfig()
		if cfg.Presence.RedisAddr != "" {
			repoCfg.Addr = cfg.Presence.RedisAddr
		}
		repoCfg.DB = cfg.Presence.RedisDB
		repo, err := storage.NewRedisPlayerRepo(repoCfg)
		if err != nil {
			logging.Error("💾 Redis недоступен, журнал присутствия выключен: %v", err)
		} else {
			logging.Info("💾 Журнал присутствия: Redis %s", repoCfg.Addr)
			players = repo
		}
	case "maria":
		if dsn := cfg.Storage.GetMariaDSN(); dsn != "" {
			repo, err := storage.NewMariaPlayerRepo(dsn)
			if err != nil {
				logging.Error("💾 Журнал присутствия в MariaDB недоступен: %v", err)
			} else {
				logging.Info("💾 Журнал присутствия: MariaDB")
				players = repo
			}
		}
	}

	// === ИГРОВОЙ ЦИКЛ ===
	registry := game.NewRegistry()
	hub := game.NewHub(store, registry, persist, players)
	go hub.Run()

	// === СЕТЕВЫЕ СЕРВЕРЫ ===
	wsServer := transport.NewWSServer(hub)
	go func() {
		if err := wsServer.Start(wsPort); err != nil {
			logging.Error("❌ WebSocket сервер: %v", err)
			log.Fatalf("❌ WebSocket сервер: %v", err)
		}
	}()

	statusServer := api.NewStatusServer(hub, registry, store, persist, cfg.Telemetry.Enabled)
	go func() {
		if err := statusServer.Start(statusPort); err != nil {
			logging.Error("❌ Статус-сервер: %v", err)
		}
	}()

	logging.Info("✅ Все сервисы запущены и готовы принимать соединения")
	logging.Info("   🌐 Игровой трафик: ws://localhost:%d", wsPort)
	logging.Info("   📊 Статус: http://localhost:%d/api/status", statusPort)
	logging.Info("   ❤️  Health check: http://localhost:%d/healthz", statusPort)

	// Ждем сигнала для завершения
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logging.Info("📡 Получен сигнал %v, завершение работы...", sig)

	// === GRACEFUL SHUTDOWN ===
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := wsServer.Shutdown(shutdownCtx); err != nil {
		logging.Error("❌ Ошибка остановки WebSocket сервера: %v", err)
	}
	if err := statusServer.Shutdown(shutdownCtx); err != nil {
		logging.Error("❌ Ошибка остановки статус-сервера: %v", err)
	}

	// Hub дорабатывает очередь команд и дожидается фоновых записей
	hub.Stop()
	busMetrics.Stop()

	if err := persist.Close(); err != nil {
		logging.Error("❌ Ошибка закрытия хранилища: %v", err)
	}
	if players != nil {
		if err := players.Close(); err != nil {
			logging.Error("❌ Ошибка закрытия журнала присутствия: %v", err)
		}
	}
	if telemetryShutdown != nil {
		if err := telemetryShutdown(shutdownCtx); err != nil {
			logging.Error("❌ Ошибка остановки телеметрии: %v", err)
		}
	}

	logging.Info("👋 Сервер успешно остановлен")
}
