// websocket/read_pump.go
package websocket

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
)

// readPump читает служебные сообщения клиента и отслеживает отключение
func (c *Client) readPump(manager *Manager) {
	defer func() {
		// Отправляем сигнал отключения
		manager.unregister(c)
		c.Socket.Close()
	}()

	// Устанавливаем параметры подключения
	c.Socket.SetReadLimit(maxMessageSize)
	c.Socket.SetReadDeadline(time.Now().Add(pongWait))
	c.Socket.SetPongHandler(func(string) error {
		c.Socket.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				manager.logger.Warn("Ошибка чтения от клиента %d: %v", c.ID, err)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(message, &msg); err != nil {
			manager.logger.Debug("Ошибка декодирования сообщения клиента %d: %v", c.ID, err)
			continue
		}

		if msg.Type == "ping" {
			// Отправляем понг-сообщение обратно клиенту
			if pongData, err := json.Marshal(Message{Type: "pong"}); err == nil {
				manager.clientsMu.RLock()
				if _, ok := manager.Clients[c.ID]; ok {
					select {
					case c.Send <- pongData:
					default:
					}
				}
				manager.clientsMu.RUnlock()
			}
		}
	}
}
