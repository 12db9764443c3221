package game

import (
	"context"
	"time"

	"github.com/annel0/blockverse/internal/eventbus"
	"github.com/annel0/blockverse/internal/logging"
	"github.com/annel0/blockverse/internal/protocol"
	"github.com/annel0/blockverse/internal/storage"
	"github.com/annel0/blockverse/internal/vec"
	"github.com/annel0/blockverse/internal/world"
)

const (
	// commandBuffer — буфер очереди команд игрового цикла
	commandBuffer = 1024

	// presenceInterval ограничивает частоту best-effort записей
	// присутствия на поток playerMove.
	presenceInterval = 10 * time.Second

	// eventSource — имя источника в конвертах шины событий
	eventSource = "game-server"
)

type commandKind int

const (
	cmdJoin commandKind = iota
	cmdLeave
	cmdFrame
)

type command struct {
	kind      commandKind
	sender    Sender
	sessionID int64
	frame     []byte
	reply     chan *Session
}

// Hub — единственный секвенсор игрового состояния. Все мутации мира и
// реестра сессий проходят через одну горутину, что даёт всем клиентам
// одинаковый тотальный порядок событий без блокировок на каждом шаге.
// Персистентность и журнал присутствия строго best-effort: они
// запускаются после мутации памяти и никогда не задерживают рассылку.
type Hub struct {
	store    *world.Store
	registry *Registry
	persist  *storage.Adapter
	players  storage.PlayerRepo // nil — журнал присутствия выключен

	commands chan command
	quit     chan struct{}
	done     chan struct{}

	lastPresence map[int64]time.Time
	startedAt    time.Time
}

// NewHub собирает игровой цикл; players может быть nil
func NewHub(store *world.Store, registry *Registry, persist *storage.Adapter, players storage.PlayerRepo) *Hub {
	return &Hub{
		store:        store,
		registry:     registry,
		persist:      persist,
		players:      players,
		commands:     make(chan command, commandBuffer),
		quit:         make(chan struct{}),
		done:         make(chan struct{}),
		lastPresence: make(map[int64]time.Time),
		startedAt:    time.Now(),
	}
}

// Run запускает цикл обработки. Блокирует вызывающую горутину до Stop.
func (h *Hub) Run() {
	defer close(h.done)
	logging.Info("🎮 Игровой цикл запущен")

	for {
		select {
		case cmd := <-h.commands:
			h.handle(cmd)
		case <-h.quit:
			// Дорабатываем уже поставленные команды
			for {
				select {
				case cmd := <-h.commands:
					h.handle(cmd)
				default:
					logging.Info("🎮 Игровой цикл остановлен")
					return
				}
			}
		}
	}
}

// Stop останавливает цикл и дожидается фоновых записей персистентности
func (h *Hub) Stop() {
	close(h.quit)
	<-h.done
	h.persist.Flush()
}

// Uptime возвращает время работы игрового цикла
func (h *Hub) Uptime() time.Duration {
	return time.Since(h.startedAt)
}

// Join регистрирует соединение и возвращает созданную сессию.
// Вызывается транспортом из горутины соединения; сама регистрация,
// отправка init и рассылка playerJoined выполняются в цикле Hub.
func (h *Hub) Join(sender Sender) *Session {
	reply := make(chan *Session, 1)
	select {
	case h.commands <- command{kind: cmdJoin, sender: sender, reply: reply}:
		return <-reply
	case <-h.quit:
		return nil
	}
}

// Leave снимает сессию с учёта. Идемпотентен: повторный вызов для
// того же id ничего не делает.
func (h *Hub) Leave(sessionID int64) {
	select {
	case h.commands <- command{kind: cmdLeave, sessionID: sessionID}:
	case <-h.quit:
	}
}

// HandleFrame передаёт входящий кадр сессии в игровой цикл
func (h *Hub) HandleFrame(sessionID int64, frame []byte) {
	select {
	case h.commands <- command{kind: cmdFrame, sessionID: sessionID, frame: frame}:
	case <-h.quit:
	}
}

func (h *Hub) handle(cmd command) {
	switch cmd.kind {
	case cmdJoin:
		cmd.reply <- h.handleJoin(cmd.sender)
	case cmdLeave:
		h.handleLeave(cmd.sessionID)
	case cmdFrame:
		h.handleFrame(cmd.sessionID, cmd.frame)
	}
}

func (h *Hub) handleJoin(sender Sender) *Session {
	sess := h.registry.Register(sender)

	// Снимок мира собирается до рассылки playerJoined: новичок не
	// должен увидеть самого себя в списке players.
	init := protocol.InitMessage{
		Type:     protocol.TypeInit,
		ClientID: sess.ID,
		Players:  h.registry.States(sess.ID),
		Blocks:   protocol.BlocksToWire(h.store.Snapshot()),
	}
	if data, err := protocol.Encode(init); err == nil {
		if !sender.Enqueue(data) {
			logging.Warn("🎮 Сессия %d: init не доставлен, соединение мертво", sess.ID)
		}
	} else {
		logging.Error("🎮 Ошибка сериализации init для сессии %d: %v", sess.ID, err)
	}

	h.broadcast(protocol.PlayerJoinedMessage{
		Type:   protocol.TypePlayerJoined,
		Player: sess.State(),
	}, sess.ID)

	onlineSessions.Set(float64(h.registry.Count()))
	h.writePresence(sess, true)
	h.publishEvent(eventbus.EventPlayerJoined, sess.State())

	logging.Info("🎮 %s (сессия %d) подключился, онлайн: %d",
		sess.Name, sess.ID, h.registry.Count())
	return sess
}

func (h *Hub) handleLeave(sessionID int64) {
	sess := h.registry.Unregister(sessionID)
	if sess == nil {
		return
	}
	delete(h.lastPresence, sessionID)

	h.broadcast(protocol.PlayerLeftMessage{
		Type:     protocol.TypePlayerLeft,
		ClientID: sessionID,
	}, 0)

	onlineSessions.Set(float64(h.registry.Count()))
	h.writePresence(sess, true)
	h.publishEvent(eventbus.EventPlayerLeft, sess.State())

	logging.Info("🎮 %s (сессия %d) отключился, онлайн: %d",
		sess.Name, sessionID, h.registry.Count())
}

func (h *Hub) handleFrame(sessionID int64, frame []byte) {
	msg, err := protocol.DecodeClientMessage(frame)
	if err != nil {
		// Дефектный кадр отбрасывается, соединение живёт дальше
		malformedFrames.Inc()
		logging.Warn("🎮 Сессия %d: кадр отброшен: %v", sessionID, err)
		return
	}

	switch req := msg.(type) {
	case protocol.PlayerMoveRequest:
		h.handleMove(sessionID, req)
	case protocol.PlaceBlockRequest:
		h.handlePlace(sessionID, req)
	case protocol.RemoveBlockRequest:
		h.handleRemove(sessionID, req)
	}
}

func (h *Hub) handleMove(sessionID int64, req protocol.PlayerMoveRequest) {
	if !h.registry.UpdatePosition(sessionID, req.X, req.Y, req.Z, req.Rotation) {
		// Кадр от уже снятой сессии — гонка с отключением
		return
	}
	framesReceived.WithLabelValues(string(protocol.TypePlayerMove)).Inc()

	h.broadcast(protocol.PlayerMovedMessage{
		Type:     protocol.TypePlayerMoved,
		ClientID: sessionID,
		X:        req.X,
		Y:        req.Y,
		Z:        req.Z,
		Rotation: req.Rotation,
	}, sessionID)

	if sess, ok := h.registry.Get(sessionID); ok {
		h.writePresence(sess, false)
	}
}

func (h *Hub) handlePlace(sessionID int64, req protocol.PlaceBlockRequest) {
	framesReceived.WithLabelValues(string(protocol.TypePlaceBlock)).Inc()
	pos := vec.Vec3{X: req.X, Y: req.Y, Z: req.Z}

	if !h.store.Put(pos, req.BlockType) {
		// Координата занята: проигравший гонку узнает правду из
		// blockPlaced победителя, отдельного отказа не шлём
		blockConflicts.Inc()
		logging.Debug("🎮 Сессия %d: координата %v занята, placeBlock проигнорирован",
			sessionID, pos)
		return
	}

	// Автор получает то же blockPlaced, что и остальные — это его
	// подтверждение предсказания
	h.broadcast(protocol.BlockPlacedMessage{
		Type:      protocol.TypeBlockPlaced,
		X:         req.X,
		Y:         req.Y,
		Z:         req.Z,
		BlockType: req.BlockType,
	}, 0)

	worldBlocks.Set(float64(h.store.Count()))

	blk, _ := h.store.Get(pos)
	h.persist.SaveAsync(blk)
	h.publishEvent(eventbus.EventBlockPlaced, protocol.WireBlock{
		X: req.X, Y: req.Y, Z: req.Z, Type: req.BlockType,
	})
}

func (h *Hub) handleRemove(sessionID int64, req protocol.RemoveBlockRequest) {
	framesReceived.WithLabelValues(string(protocol.TypeRemoveBlock)).Inc()
	pos := vec.Vec3{X: req.X, Y: req.Y, Z: req.Z}

	removed, ok := h.store.Remove(pos)
	if !ok {
		// Блока уже нет — вторая сторона гонки удаления
		blockConflicts.Inc()
		logging.Debug("🎮 Сессия %d: координата %v пуста, removeBlock проигнорирован",
			sessionID, pos)
		return
	}

	h.broadcast(protocol.BlockRemovedMessage{
		Type: protocol.TypeBlockRemoved,
		X:    req.X,
		Y:    req.Y,
		Z:    req.Z,
	}, 0)

	worldBlocks.Set(float64(h.store.Count()))

	h.persist.DeleteAsync(removed.Pos)
	h.publishEvent(eventbus.EventBlockRemoved, protocol.WireBlock{
		X: req.X, Y: req.Y, Z: req.Z, Type: removed.Type,
	})
}

// broadcast кодирует сообщение один раз и раскладывает по исходящим
// очередям всех сессий, кроме except (0 — всем). Отправка
// неблокирующая: переполненная очередь означает мёртвое или
// безнадёжно отставшее соединение, его закрывает транспорт.
func (h *Hub) broadcast(msg interface{}, except int64) {
	data, err := protocol.Encode(msg)
	if err != nil {
		logging.Error("🎮 Ошибка сериализации рассылки: %v", err)
		return
	}

	for _, s := range h.registry.All() {
		if s.ID == except {
			continue
		}
		if !s.sender.Enqueue(data) {
			slowDrops.Inc()
			logging.Warn("🎮 Сессия %d не успевает читать, соединение будет закрыто", s.ID)
			s.sender.Close()
		}
	}
	broadcastsSent.Inc()
}

// writePresence пишет запись «последний раз видели» в фоне.
// Для playerMove записи прореживаются, для join/leave — безусловные.
func (h *Hub) writePresence(sess *Session, force bool) {
	if h.players == nil {
		return
	}
	if !force {
		if last, ok := h.lastPresence[sess.ID]; ok && time.Since(last) < presenceInterval {
			return
		}
	}
	h.lastPresence[sess.ID] = time.Now()

	rec := storage.PlayerRecord{
		SessionID: sess.ID,
		Name:      sess.Name,
		Color:     sess.Color,
		X:         sess.X,
		Y:         sess.Y,
		Z:         sess.Z,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.players.UpsertSeen(ctx, rec); err != nil {
			logging.Debug("💾 Запись присутствия сессии %d не удалась: %v", rec.SessionID, err)
		}
	}()
}

// publishEvent отправляет событие в шину, если она инициализирована
func (h *Hub) publishEvent(eventType string, payload interface{}) {
	ev := eventbus.NewEnvelope(eventSource, eventType, payload)
	if err := eventbus.Publish(context.Background(), ev); err != nil {
		logging.Debug("🪵 Событие %s не опубликовано: %v", eventType, err)
	}
}
