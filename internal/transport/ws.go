// Package transport поднимает websocket-сервер и превращает каждое
// соединение в сессию игрового цикла.
package transport

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/annel0/blockverse/internal/game"
	"github.com/annel0/blockverse/internal/logging"
)

const (
	// writeWait — предел на запись одного кадра
	writeWait = 10 * time.Second

	// pongWait — сколько ждём pong, прежде чем счесть клиента мёртвым
	pongWait = 60 * time.Second

	// pingPeriod — период ping; должен быть меньше pongWait
	pingPeriod = (pongWait * 9) / 10

	// maxFrameSize ограничивает входящий кадр
	maxFrameSize = 64 * 1024

	// sendBuffer — глубина исходящей очереди соединения. Переполнение
	// означает безнадёжно отставшего клиента: такое соединение
	// закрывается, а не тормозит рассылку остальным.
	sendBuffer = 256
)

// ClientConn оборачивает websocket-соединение в game.Sender с
// неблокирующей исходящей очередью.
type ClientConn struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func newClientConn(conn *websocket.Conn) *ClientConn {
	return &ClientConn{
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
}

// Enqueue кладёт кадр в очередь без блокировки. false — соединение
// закрыто или очередь переполнена.
func (c *ClientConn) Enqueue(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// Close закрывает соединение; безопасен для повторных вызовов
func (c *ClientConn) Close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// writePump — единственный писатель в websocket: кадры из очереди
// и периодические ping.
func (c *ClientConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// readPump читает кадры и передаёт их обработчику до разрыва соединения
func (c *ClientConn) readPump(handle func(data []byte)) {
	defer c.Close()

	c.conn.SetReadLimit(maxFrameSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logging.Debug("🌐 Соединение разорвано: %v", err)
			}
			return
		}
		handle(data)
	}
}

// WSServer принимает websocket-соединения браузерных клиентов
type WSServer struct {
	hub      *game.Hub
	srv      *http.Server
	upgrader websocket.Upgrader
}

// NewWSServer создаёт сервер поверх игрового цикла
func NewWSServer(hub *game.Hub) *WSServer {
	return &WSServer{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Клиент — браузерная страница с любого origin;
			// аутентификации в протоколе нет
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Start слушает порт и блокирует до Shutdown
func (s *WSServer) Start(port int) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleConn)

	s.srv = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	logging.Info("🌐 WebSocket сервер слушает порт %d", port)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("ошибка websocket-сервера: %w", err)
	}
	return nil
}

// Shutdown останавливает приём новых соединений
func (s *WSServer) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// handleConn обслуживает жизненный цикл одного соединения:
// CONNECTING → OPEN (сессия зарегистрирована, init отправлен) →
// CLOSED (сессия снята, playerLeft разослан).
func (s *WSServer) handleConn(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("🌐 Ошибка апгрейда соединения от %s: %v", r.RemoteAddr, err)
		return
	}

	conn := newClientConn(ws)
	sess := s.hub.Join(conn)
	if sess == nil {
		// Сервер уже останавливается
		conn.Close()
		return
	}

	go conn.writePump()
	conn.readPump(func(data []byte) {
		s.hub.HandleFrame(sess.ID, data)
	})

	// Разрыв соединения — единственный путь завершения сессии
	s.hub.Leave(sess.ID)
}
