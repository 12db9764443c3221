// Бот-клиент: подключается к серверу как обычный игрок, бродит по
// миру и иногда строит. Полезен для нагрузочных прогонов и ручной
// проверки рассылки.
package main

import (
	"context"
	"flag"
	"log"
	"math"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/blockverse/internal/client"
	"github.com/annel0/blockverse/internal/logging"
	"github.com/annel0/blockverse/internal/vec"
	"github.com/annel0/blockverse/internal/world"
)

var buildPalette = []world.BlockType{
	world.BlockStone, world.BlockWood, world.BlockBrick, world.BlockGlass,
}

func main() {
	serverURL := flag.String("server", "ws://localhost:3000", "адрес игрового сервера")
	interval := flag.Duration("interval", 200*time.Millisecond, "период между шагами")
	buildChance := flag.Float64("build", 0.1, "вероятность постройки на шаге")
	flag.Parse()

	if err := logging.InitDefaultLogger("bot"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()

	dialCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	conn, err := client.Dial(dialCtx, *serverURL)
	cancel()
	if err != nil {
		logging.Error("❌ Не удалось подключиться: %v", err)
		log.Fatalf("❌ Не удалось подключиться: %v", err)
	}
	defer conn.Close()

	logging.Info("🤖 Бот подключился: сессия %d, в мире %d блоков, онлайн %d игроков",
		conn.Mirror().SelfID(), conn.Mirror().BlockCount(), len(conn.Mirror().Players())+1)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	x, z := (rng.Float64()-0.5)*10, (rng.Float64()-0.5)*10
	y := 2.0
	heading := rng.Float64() * 2 * math.Pi

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			// Случайное блуждание с плавным поворотом
			heading += (rng.Float64() - 0.5) * 0.6
			x += math.Cos(heading) * 0.5
			z += math.Sin(heading) * 0.5
			if err := conn.Move(x, y, z, heading); err != nil {
				logging.Error("🤖 Ошибка отправки позиции: %v", err)
				return
			}

			if rng.Float64() < *buildChance {
				pos := vec.Vec3{X: int(math.Round(x)), Y: 1, Z: int(math.Round(z))}
				bt := buildPalette[rng.Intn(len(buildPalette))]
				sent, err := conn.Place(pos, bt)
				if err != nil {
					logging.Error("🤖 Ошибка установки блока: %v", err)
					return
				}
				if sent {
					logging.Debug("🤖 Поставил %s в %v", bt, pos)
				}
			}

		case <-conn.Done():
			logging.Info("🤖 Сервер закрыл соединение")
			return

		case sig := <-sigCh:
			logging.Info("🤖 Получен сигнал %v, отключаемся", sig)
			return
		}
	}
}
