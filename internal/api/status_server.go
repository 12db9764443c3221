// Package api поднимает служебный HTTP-сервер: liveness, статус мира
// и метрики Prometheus. Сервер строго read-only — никаких мутаций
// игрового состояния через HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/process"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/annel0/blockverse/internal/game"
	"github.com/annel0/blockverse/internal/logging"
	"github.com/annel0/blockverse/internal/middleware"
	"github.com/annel0/blockverse/internal/storage"
	"github.com/annel0/blockverse/internal/world"
)

// StatusServer отдаёт состояние сервера для мониторинга
type StatusServer struct {
	hub      *game.Hub
	registry *game.Registry
	store    *world.Store
	persist  *storage.Adapter

	engine *gin.Engine
	srv    *http.Server
	proc   *process.Process
}

// NewStatusServer собирает маршруты и middleware служебного сервера
func NewStatusServer(hub *game.Hub, registry *game.Registry, store *world.Store, persist *storage.Adapter, telemetry bool) *StatusServer {
	gin.SetMode(gin.ReleaseMode)

	s := &StatusServer{
		hub:      hub,
		registry: registry,
		store:    store,
		persist:  persist,
		engine:   gin.New(),
	}

	// gopsutil может не знать о нашем процессе только в экзотических
	// окружениях; тогда блок process в статусе будет пустым
	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		s.proc = proc
	}

	s.engine.Use(gin.Recovery())
	s.engine.Use(middleware.NewRequestLogger().Handler())
	if telemetry {
		s.engine.Use(otelgin.Middleware("blockverse-status"))
	}

	pm := middleware.NewPrometheusMiddleware("status_api")
	s.engine.Use(pm.Handler())
	pm.RegisterMetricsEndpoint(s.engine)

	s.engine.GET("/healthz", s.handleHealthz)
	s.engine.GET("/api/status", s.handleStatus)

	return s
}

func (s *StatusServer) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *StatusServer) handleStatus(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	persistence := gin.H{
		"enabled":  s.persist.Enabled(),
		"failures": s.persist.Failures(),
	}
	if s.persist.Enabled() {
		if err := s.persist.Ping(ctx); err != nil {
			persistence["reachable"] = false
		} else {
			persistence["reachable"] = true
			if n, err := s.persist.Count(ctx); err == nil {
				persistence["blocks"] = n
			}
		}
	}

	status := gin.H{
		"uptime_seconds":  int64(s.hub.Uptime().Seconds()),
		"sessions_online": s.registry.Count(),
		"blocks_cached":   s.store.Count(),
		"persistence":     persistence,
		"process":         s.processStats(),
	}

	c.JSON(http.StatusOK, status)
}

// processStats собирает потребление ресурсов процесса
func (s *StatusServer) processStats() gin.H {
	stats := gin.H{"goroutines": runtime.NumGoroutine()}
	if s.proc == nil {
		return stats
	}

	if mem, err := s.proc.MemoryInfo(); err == nil {
		stats["rss_mb"] = mem.RSS / 1024 / 1024
	}
	if cpu, err := s.proc.CPUPercent(); err == nil {
		stats["cpu_percent"] = fmt.Sprintf("%.1f", cpu)
	}
	return stats
}

// Start слушает порт и блокирует до Shutdown
func (s *StatusServer) Start(port int) error {
	s.srv = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.engine,
	}

	logging.Info("📊 Статус-сервер слушает порт %d", port)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("ошибка статус-сервера: %w", err)
	}
	return nil
}

// Shutdown останавливает HTTP-сервер
func (s *StatusServer) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
