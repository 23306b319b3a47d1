package progress

import (
	"rangeapi/services"

	"github.com/gin-gonic/gin"
)

var lifecycle *services.Lifecycle

// RegisterRoutes registers all routes related to progress tracking
// r: the RouterGroup to which routes are added
// l: the lifecycle coordinator shared by all handlers
func RegisterRoutes(r *gin.RouterGroup, l *services.Lifecycle) {
	lifecycle = l

	progress := r.Group("/progress")
	{
		progress.POST("/completions", RecordCompletion)
		progress.POST("/questions", RecordQuestionCompletion)
		progress.POST("/reset", ResetUserProgress)
	}

	groups := r.Group("/groups/:group_id")
	{
		groups.GET("/scoreboard", GetScoreboard)
		groups.GET("/scoreboard/export", ExportScoreboard)
	}
}
