package challenges

import (
	"net/http"

	"rangeapi/database"
	"rangeapi/models"
	"rangeapi/realtime"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// GroupInstancesWebSocket streams instance status transitions for a group
func GroupInstancesWebSocket(c *gin.Context) {
	groupID := c.Param("group_id")

	var group models.CompetitionGroup
	if err := database.DB.First(&group, "id = ?", groupID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": ErrGroupNotFound})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.Warn("WebSocket upgrade error: ", err)
		return
	}

	realtime.RegisterClient(groupID, conn)
	defer func() {
		realtime.UnregisterClient(groupID, conn)
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
