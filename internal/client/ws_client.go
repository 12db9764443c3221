package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/annel0/blockverse/internal/logging"
	"github.com/annel0/blockverse/internal/protocol"
	"github.com/annel0/blockverse/internal/vec"
	"github.com/annel0/blockverse/internal/world"
)

// Conn — подключение игрового клиента к серверу. Входящие кадры
// применяются к зеркалу фоновым читателем; исходящие запросы
// сериализуются мьютексом записи.
type Conn struct {
	ws     *websocket.Conn
	mirror *Mirror

	writeMu   sync.Mutex
	ready     chan struct{}
	readyOnce sync.Once
	done      chan struct{}
}

// Dial подключается к серверу и дожидается init
func Dial(ctx context.Context, url string) (*Conn, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к %s: %w", url, err)
	}

	c := &Conn{
		ws:     ws,
		mirror: NewMirror(),
		ready:  make(chan struct{}),
		done:   make(chan struct{}),
	}
	go c.readLoop()

	select {
	case <-c.ready:
		return c, nil
	case <-c.done:
		return nil, fmt.Errorf("соединение закрылось до получения init")
	case <-ctx.Done():
		c.Close()
		return nil, ctx.Err()
	}
}

// Mirror возвращает локальное зеркало мира
func (c *Conn) Mirror() *Mirror {
	return c.mirror
}

// Done закрывается при разрыве соединения
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

func (c *Conn) readLoop() {
	defer close(c.done)

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		if err := c.mirror.Apply(data); err != nil {
			logging.Warn("Кадр сервера отброшен: %v", err)
			continue
		}
		if c.mirror.SelfID() != 0 {
			c.readyOnce.Do(func() { close(c.ready) })
		}
	}
}

func (c *Conn) send(msg interface{}) error {
	data, err := protocol.Encode(msg)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("ошибка отправки кадра: %w", err)
	}
	return nil
}

// Move отправляет позицию игрока; сервер принимает её без валидации
func (c *Conn) Move(x, y, z, rotation float64) error {
	return c.send(protocol.PlayerMoveRequest{
		Type: protocol.TypePlayerMove, X: x, Y: y, Z: z, Rotation: rotation,
	})
}

// Place оптимистично ставит блок локально и отправляет запрос.
// false без отправки — координата занята уже в зеркале.
func (c *Conn) Place(pos vec.Vec3, t world.BlockType) (bool, error) {
	if !c.mirror.PredictPlace(pos, t) {
		return false, nil
	}
	return true, c.send(protocol.PlaceBlockRequest{
		Type: protocol.TypePlaceBlock, X: pos.X, Y: pos.Y, Z: pos.Z, BlockType: t,
	})
}

// Remove оптимистично удаляет блок локально и отправляет запрос
func (c *Conn) Remove(pos vec.Vec3) (bool, error) {
	if !c.mirror.PredictRemove(pos) {
		return false, nil
	}
	return true, c.send(protocol.RemoveBlockRequest{
		Type: protocol.TypeRemoveBlock, X: pos.X, Y: pos.Y, Z: pos.Z,
	})
}

// Close разрывает соединение
func (c *Conn) Close() error {
	return c.ws.Close()
}
