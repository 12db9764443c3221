package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/annel0/blockverse/internal/client"
	"github.com/annel0/blockverse/internal/game"
	"github.com/annel0/blockverse/internal/storage"
	"github.com/annel0/blockverse/internal/vec"
	"github.com/annel0/blockverse/internal/world"
)

func startTestServer(t *testing.T) (*game.Hub, string) {
	t.Helper()

	store := world.NewStore()
	store.Seed([]world.Block{
		{Pos: vec.Vec3{X: 0, Y: 0, Z: 0}, Type: world.BlockGrass},
	})

	hub := game.NewHub(store, game.NewRegistry(), storage.NewAdapter(nil), nil)
	go hub.Run()
	t.Cleanup(hub.Stop)

	ws := NewWSServer(hub)
	ts := httptest.NewServer(http.HandlerFunc(ws.handleConn))
	t.Cleanup(ts.Close)

	return hub, "ws" + strings.TrimPrefix(ts.URL, "http")
}

func dialTest(t *testing.T, url string) *client.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := client.Dial(ctx, url)
	if err != nil {
		t.Fatalf("не удалось подключиться к тестовому серверу: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("не дождались: %s", what)
}

// TestWSRoundTrip: полный путь через настоящий websocket — init,
// установка блока одним клиентом и её появление у второго.
func TestWSRoundTrip(t *testing.T) {
	_, url := startTestServer(t)

	alice := dialTest(t, url)
	if alice.Mirror().SelfID() != 1 {
		t.Fatalf("первый клиент должен получить id 1, получил %d", alice.Mirror().SelfID())
	}
	if alice.Mirror().BlockCount() != 1 {
		t.Fatalf("init должен принести посеянный мир: %d блоков", alice.Mirror().BlockCount())
	}

	bob := dialTest(t, url)
	waitFor(t, "Алиса видит Боба", func() bool {
		return len(alice.Mirror().Players()) == 1
	})

	pos := vec.Vec3{X: 5, Y: 1, Z: 5}
	sent, err := alice.Place(pos, world.BlockBrick)
	if err != nil || !sent {
		t.Fatalf("установка блока не отправилась: sent=%v err=%v", sent, err)
	}

	waitFor(t, "блок дошёл до Боба", func() bool {
		bt, ok := bob.Mirror().BlockAt(pos)
		return ok && bt == world.BlockBrick
	})

	// Перемещение Алисы доходит до Боба, но не возвращается ей
	if err := alice.Move(9, 2, -1, 1.2); err != nil {
		t.Fatalf("ошибка отправки позиции: %v", err)
	}
	waitFor(t, "Боб видит перемещение Алисы", func() bool {
		for _, p := range bob.Mirror().Players() {
			if p.ID == alice.Mirror().SelfID() && p.X == 9 {
				return true
			}
		}
		return false
	})
}

// TestWSDisconnectBroadcastsLeft: разрыв соединения снимает сессию и
// рассылает playerLeft оставшимся.
func TestWSDisconnectBroadcastsLeft(t *testing.T) {
	_, url := startTestServer(t)

	alice := dialTest(t, url)
	bob := dialTest(t, url)

	waitFor(t, "Алиса видит Боба", func() bool {
		return len(alice.Mirror().Players()) == 1
	})

	bob.Close()

	waitFor(t, "Боб исчез у Алисы", func() bool {
		return len(alice.Mirror().Players()) == 0
	})
}
