package orderControllers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/oakmart-dev/storefront-api/models"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Feed pushes newly confirmed orders to connected dashboard clients.
// It satisfies the checkout emitter interface, so only the winning
// reconciliation attempt ever broadcasts.
type Feed struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

func NewFeed() *Feed {
	return &Feed{clients: make(map[*websocket.Conn]bool)}
}

func (f *Feed) Handle(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	f.mu.Lock()
	f.clients[conn] = true
	f.mu.Unlock()

	// Drain until the client goes away; the feed is one-directional.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			f.mu.Lock()
			delete(f.clients, conn)
			f.mu.Unlock()
			break
		}
	}
}

func (f *Feed) OrderConfirmed(_ context.Context, order *models.Order) {
	data, err := json.Marshal(order)
	if err != nil {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for client := range f.clients {
		if err := client.WriteMessage(websocket.TextMessage, data); err != nil {
			client.Close()
			delete(f.clients, client)
		}
	}
}
