package codes

import (
	"rangeapi/services"

	"github.com/gin-gonic/gin"
)

var lifecycle *services.Lifecycle

// RegisterRoutes registers all routes related to access codes
// r: the RouterGroup to which routes are added
// l: the lifecycle coordinator shared by all handlers
func RegisterRoutes(r *gin.RouterGroup, l *services.Lifecycle) {
	lifecycle = l

	codes := r.Group("/codes")
	{
		codes.POST("/redeem", RedeemCode)
		codes.POST("/sweep", SweepExpiredCodes)
	}

	groups := r.Group("/groups/:group_id/codes")
	{
		groups.GET("", ListGroupCodes)
		groups.POST("", IssueCode)
		groups.POST("/:code_id/invite", InviteWithCode)
	}
}
