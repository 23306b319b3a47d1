package realtime

import (
	"sync"

	"rangeapi/models"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var (
	groupClients = make(map[string]map[*websocket.Conn]bool) // Map of group ID to connected clients
	broadcast    = make(chan InstanceUpdate)                 // Broadcast channel for updates
	mutex        sync.Mutex                                  // Mutex to protect groupClients map
)

// InstanceUpdate announces a challenge instance status transition to
// dashboard clients watching a group
type InstanceUpdate struct {
	GroupID  string                   `json:"group_id"`
	Instance models.ChallengeInstance `json:"instance"`
	Event    string                   `json:"event"` // "started", "stopped", "failed", "status"
}

// RegisterClient adds a WebSocket client to a specific group
func RegisterClient(groupID string, conn *websocket.Conn) {
	mutex.Lock()
	if groupClients[groupID] == nil {
		groupClients[groupID] = make(map[*websocket.Conn]bool)
	}
	groupClients[groupID][conn] = true
	mutex.Unlock()
}

// UnregisterClient removes a WebSocket client from a specific group
func UnregisterClient(groupID string, conn *websocket.Conn) {
	mutex.Lock()
	if clients, exists := groupClients[groupID]; exists {
		delete(clients, conn)
		if len(clients) == 0 {
			delete(groupClients, groupID)
		}
	}
	mutex.Unlock()
}

// BroadcastInstanceUpdate sends an update to all clients watching the group
func BroadcastInstanceUpdate(update InstanceUpdate) {
	broadcast <- update
}

func handleBroadcast() {
	for {
		update := <-broadcast
		mutex.Lock()
		if clients, exists := groupClients[update.GroupID]; exists {
			for client := range clients {
				if err := client.WriteJSON(update); err != nil {
					logrus.Warn("WebSocket write error: ", err)
					client.Close()
					delete(clients, client)
				}
			}
		}
		mutex.Unlock()
	}
}

func init() {
	go handleBroadcast()
}
