package debug

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gofiber/websocket/v2"
)

// WebSocketHub fans import progress and log events out to connected
// dashboard clients.
type WebSocketHub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	mu         sync.RWMutex
}

var Hub *WebSocketHub

func init() {
	Hub = &WebSocketHub{
		broadcast:  make(chan []byte, 256),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		clients:    make(map[*websocket.Conn]bool),
	}
	go Hub.run()
}

func (h *WebSocketHub) run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			log.Printf("import dashboard connected, clients: %d", len(h.clients))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			h.mu.Unlock()
			log.Printf("import dashboard disconnected, clients: %d", len(h.clients))

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
					log.Printf("dashboard send error: %v", err)
					client.Close()
					delete(h.clients, client)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// HandleWebSocketFiber registers one dashboard connection and blocks until
// it closes.
func HandleWebSocketFiber(conn *websocket.Conn) {
	Hub.register <- conn
	defer func() {
		Hub.unregister <- conn
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// LogMessage is a log event pushed to the dashboard.
type LogMessage struct {
	Type     string         `json:"type"`
	Source   string         `json:"source"`
	Level    string         `json:"level"`
	Message  string         `json:"message"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ImportProgressMessage reports per-table import progress for one job.
type ImportProgressMessage struct {
	Type     string `json:"type"`
	ImportID string `json:"import_id"`
	Table    string `json:"table"`
	Imported int    `json:"imported"`
	Done     bool   `json:"done"`
}

func send(v any) {
	if Hub == nil || len(Hub.clients) == 0 {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("dashboard marshal error: %v", err)
		return
	}
	select {
	case Hub.broadcast <- data:
	default:
		// channel full, drop message
	}
}

// SendLog pushes one log event to the dashboard.
func SendLog(source, level, message string, metadata map[string]any) {
	send(LogMessage{Type: "log", Source: source, Level: level, Message: message, Metadata: metadata})
}

// SendImportProgress pushes a per-table progress update to the dashboard.
func SendImportProgress(importID, table string, imported int, done bool) {
	send(ImportProgressMessage{Type: "import_progress", ImportID: importID, Table: table, Imported: imported, Done: done})
}
