// websocket/manager.go
package websocket

import (
	"context"
	"encoding/json"

	"github.com/LilVoxy/northwind_dw/ETL/models"
	"github.com/LilVoxy/northwind_dw/ETL/utils"
)

// Создание нового менеджера WebSocket-соединений
func NewManager(logger *utils.ETLLogger) *Manager {
	return &Manager{
		Broadcast:  make(chan []byte, sendBufferSize),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Clients:    make(map[int]*Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run запускает работу менеджера до отмены ctx
func (manager *Manager) Run(ctx context.Context) {
	defer func() {
		close(manager.done)
		manager.clientsMu.Lock()
		for id, client := range manager.Clients {
			close(client.Send)
			delete(manager.Clients, id)
		}
		manager.clientsMu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-manager.Register:
			manager.clientsMu.Lock()
			manager.Clients[client.ID] = client
			manager.clientsMu.Unlock()
			manager.logger.Debug("Клиент %d подписался на события ETL", client.ID)

		case client := <-manager.Unregister:
			manager.clientsMu.Lock()
			if _, ok := manager.Clients[client.ID]; ok {
				delete(manager.Clients, client.ID)
				close(client.Send)
				manager.logger.Debug("Клиент %d отключился", client.ID)
			}
			manager.clientsMu.Unlock()

		case message := <-manager.Broadcast:
			// Рассылаем сообщение всем подключенным клиентам
			manager.broadcast(message)
		}
	}
}

// broadcast отправляет сообщение всем подключенным клиентам. Клиент с
// переполненным буфером отключается.
func (manager *Manager) broadcast(message []byte) {
	manager.clientsMu.Lock()
	defer manager.clientsMu.Unlock()

	for id, client := range manager.Clients {
		select {
		case client.Send <- message:
		default:
			close(client.Send)
			delete(manager.Clients, id)
			manager.logger.Warn("Клиент %d не успевает получать события и отключен", id)
		}
	}
}

// Publish сериализует событие запуска и ставит его в очередь рассылки.
// Если очередь заполнена, событие отбрасывается.
func (manager *Manager) Publish(event models.RunEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		manager.logger.Error("Ошибка кодирования события %s: %v", event.Type, err)
		return
	}

	select {
	case manager.Broadcast <- data:
	default:
		manager.logger.Warn("Очередь событий переполнена, событие %s запуска %s пропущено", event.Type, event.RunID)
	}
}

// ClientCount возвращает число подключенных клиентов
func (manager *Manager) ClientCount() int {
	manager.clientsMu.RLock()
	defer manager.clientsMu.RUnlock()
	return len(manager.Clients)
}

func (manager *Manager) register(client *Client) bool {
	select {
	case manager.Register <- client:
		return true
	case <-manager.done:
		return false
	}
}

func (manager *Manager) unregister(client *Client) {
	select {
	case manager.Unregister <- client:
	case <-manager.done:
	}
}
