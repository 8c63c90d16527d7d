// websocket/types.go
package websocket

import (
	"net/http"
	"sync"

	"github.com/LilVoxy/northwind_dw/ETL/utils"
	"github.com/gorilla/websocket"
)

// Служебное сообщение клиента (ping/pong)
type Message struct {
	Type string `json:"type"`
}

// Клиент WebSocket
type Client struct {
	ID     int
	Socket *websocket.Conn
	Send   chan []byte
}

// Manager рассылает события запусков ETL всем подключенным клиентам
type Manager struct {
	Clients    map[int]*Client
	Broadcast  chan []byte
	Register   chan *Client
	Unregister chan *Client

	clientsMu sync.RWMutex
	nextID    int
	done      chan struct{}
	logger    *utils.ETLLogger
}

// Конфигурация WebSocket-соединения
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // панель мониторинга может открываться с другого адреса
	},
}
