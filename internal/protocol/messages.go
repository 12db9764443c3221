// Package protocol определяет JSON-протокол обмена между сервером и
// браузерным клиентом. Все сообщения — плоские JSON-объекты с
// обязательным полем type; никакой компрессии и бинарных рамок,
// формат читается глазами в devtools.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/annel0/blockverse/internal/world"
)

// MessageType различает сообщения протокола
type MessageType string

// Сообщения сервер → клиент
const (
	TypeInit         MessageType = "init"
	TypePlayerJoined MessageType = "playerJoined"
	TypePlayerMoved  MessageType = "playerMoved"
	TypeBlockPlaced  MessageType = "blockPlaced"
	TypeBlockRemoved MessageType = "blockRemoved"
	TypePlayerLeft   MessageType = "playerLeft"
)

// Запросы клиент → сервер
const (
	TypePlayerMove  MessageType = "playerMove"
	TypePlaceBlock  MessageType = "placeBlock"
	TypeRemoveBlock MessageType = "removeBlock"
)

// PlayerState — снимок видимого состояния игрока, как его получает
// клиент. Позиция дробная, координаты блоков — нет.
type PlayerState struct {
	ID       int64   `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Z        float64 `json:"z"`
	Rotation float64 `json:"rotation"`
	Color    string  `json:"color"`
	Name     string  `json:"name"`
}

// WireBlock — блок в представлении протокола
type WireBlock struct {
	X    int             `json:"x"`
	Y    int             `json:"y"`
	Z    int             `json:"z"`
	Type world.BlockType `json:"type"`
}

// InitMessage — единственное unicast-сообщение: полный снимок мира
// для только что подключившейся сессии.
type InitMessage struct {
	Type     MessageType   `json:"type"`
	ClientID int64         `json:"clientId"`
	Players  []PlayerState `json:"players"`
	Blocks   []WireBlock   `json:"blocks"`
}

// PlayerJoinedMessage рассылается всем, кроме самого новичка
type PlayerJoinedMessage struct {
	Type   MessageType `json:"type"`
	Player PlayerState `json:"player"`
}

// PlayerMovedMessage рассылается всем, кроме автора перемещения
type PlayerMovedMessage struct {
	Type     MessageType `json:"type"`
	ClientID int64       `json:"clientId"`
	X        float64     `json:"x"`
	Y        float64     `json:"y"`
	Z        float64     `json:"z"`
	Rotation float64     `json:"rotation"`
}

// BlockPlacedMessage рассылается всем, включая автора: это же
// сообщение служит клиенту подтверждением его предсказания.
type BlockPlacedMessage struct {
	Type      MessageType     `json:"type"`
	X         int             `json:"x"`
	Y         int             `json:"y"`
	Z         int             `json:"z"`
	BlockType world.BlockType `json:"blockType"`
}

// BlockRemovedMessage рассылается всем, включая автора
type BlockRemovedMessage struct {
	Type MessageType `json:"type"`
	X    int         `json:"x"`
	Y    int         `json:"y"`
	Z    int         `json:"z"`
}

// PlayerLeftMessage рассылается всем оставшимся
type PlayerLeftMessage struct {
	Type     MessageType `json:"type"`
	ClientID int64       `json:"clientId"`
}

// ClientMessage — разобранный запрос клиента
type ClientMessage interface {
	clientMessage()
}

// PlayerMoveRequest — поток позиций; принимается безусловно,
// сервер доверяет координатам клиента.
type PlayerMoveRequest struct {
	Type     MessageType `json:"type"`
	X        float64     `json:"x"`
	Y        float64     `json:"y"`
	Z        float64     `json:"z"`
	Rotation float64     `json:"rotation"`
}

// PlaceBlockRequest — запрос установки блока в пустую координату
type PlaceBlockRequest struct {
	Type      MessageType     `json:"type"`
	X         int             `json:"x"`
	Y         int             `json:"y"`
	Z         int             `json:"z"`
	BlockType world.BlockType `json:"blockType"`
}

// RemoveBlockRequest — запрос удаления существующего блока
type RemoveBlockRequest struct {
	Type MessageType `json:"type"`
	X    int         `json:"x"`
	Y    int         `json:"y"`
	Z    int         `json:"z"`
}

func (PlayerMoveRequest) clientMessage()  {}
func (PlaceBlockRequest) clientMessage()  {}
func (RemoveBlockRequest) clientMessage() {}

// typeProbe вытаскивает поле type до полного разбора
type typeProbe struct {
	Type MessageType `json:"type"`
}

// DecodeClientMessage разбирает входящий кадр в типизированный запрос.
// Любой дефект кадра — не-JSON, неизвестный type, дробные координаты
// блока, неизвестный тип блока — возвращается ошибкой; решение
// «отбросить кадр, соединение не рвать» принимает вызывающая сторона.
func DecodeClientMessage(data []byte) (ClientMessage, error) {
	var probe typeProbe
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("кадр не является JSON-объектом: %w", err)
	}

	switch probe.Type {
	case TypePlayerMove:
		var msg PlayerMoveRequest
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("некорректный playerMove: %w", err)
		}
		return msg, nil

	case TypePlaceBlock:
		var msg PlaceBlockRequest
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("некорректный placeBlock: %w", err)
		}
		if !msg.BlockType.IsValid() {
			return nil, fmt.Errorf("неизвестный тип блока %q", msg.BlockType)
		}
		return msg, nil

	case TypeRemoveBlock:
		var msg RemoveBlockRequest
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("некорректный removeBlock: %w", err)
		}
		return msg, nil

	case "":
		return nil, fmt.Errorf("в кадре отсутствует поле type")

	default:
		return nil, fmt.Errorf("неизвестный тип сообщения %q", probe.Type)
	}
}

// Encode сериализует сообщение сервера в JSON-кадр
func Encode(msg interface{}) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации сообщения: %w", err)
	}
	return data, nil
}

// BlocksToWire переводит снимок мира в представление протокола.
// nil-срез нормализуется в пустой, чтобы в init всегда уходил
// JSON-массив, а не null.
func BlocksToWire(blocks []world.Block) []WireBlock {
	out := make([]WireBlock, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, WireBlock{X: b.Pos.X, Y: b.Pos.Y, Z: b.Pos.Z, Type: b.Type})
	}
	return out
}
