// websocket/connection_handler.go
package websocket

import (
	"net/http"
)

// HandleConnections подключает клиента к потоку событий ETL
func (manager *Manager) HandleConnections(w http.ResponseWriter, r *http.Request) {
	// Устанавливаем WebSocket-соединение
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		manager.logger.Warn("Ошибка при установке WebSocket-соединения: %v", err)
		return
	}

	manager.clientsMu.Lock()
	manager.nextID++
	client := &Client{
		ID:     manager.nextID,
		Socket: conn,
		Send:   make(chan []byte, sendBufferSize),
	}
	manager.clientsMu.Unlock()

	// Регистрируем клиента в менеджере
	if !manager.register(client) {
		conn.Close()
		return
	}
	manager.logger.Info("Подключен наблюдатель ETL с адреса %s", r.RemoteAddr)

	// Запускаем горутины для чтения и отправки сообщений
	go client.writePump()
	go client.readPump(manager)
}
