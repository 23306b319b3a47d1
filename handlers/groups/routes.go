package groups

import (
	"rangeapi/services"

	"github.com/gin-gonic/gin"
)

var lifecycle *services.Lifecycle

// RegisterRoutes registers all routes related to competition groups
// r: the RouterGroup to which routes are added
// l: the lifecycle coordinator shared by all handlers
func RegisterRoutes(r *gin.RouterGroup, l *services.Lifecycle) {
	lifecycle = l

	groups := r.Group("/groups")
	{
		groups.GET("", GetAllGroups)
		groups.POST("", CreateGroup)
		groups.GET("/mine", GetMyGroups)
		groups.GET("/:group_id", GetGroup)
		groups.DELETE("/:group_id", DeleteGroup)
		groups.POST("/:group_id/users/:user_id", AddUserToGroup)
		groups.DELETE("/:group_id/users/:user_id", RemoveUserFromGroup)
		groups.GET("/:group_id/audit", GetGroupAuditLog)
	}
}
