package challenges

import (
	"rangeapi/services"

	"github.com/gin-gonic/gin"
)

var lifecycle *services.Lifecycle

// RegisterRoutes registers all routes related to challenges and instances
// r: the RouterGroup to which routes are added
// l: the lifecycle coordinator shared by all handlers
func RegisterRoutes(r *gin.RouterGroup, l *services.Lifecycle) {
	lifecycle = l

	groups := r.Group("/groups/:group_id/challenges")
	{
		groups.GET("", ListGroupChallenges)
		groups.POST("", CreateChallenge)
		groups.DELETE("/:challenge_id", DeleteChallenge)
	}

	instances := r.Group("/instances")
	{
		instances.GET("", ListMyInstances)
		instances.POST("", StartInstance)
		instances.GET("/:instance_id", GetInstanceStatus)
		instances.POST("/:instance_id/stop", StopInstance)
	}

	// deployment names are the backend's identifiers; staff resolve them here
	r.GET("/deployments/:deployment_name/instance", GetInstanceByDeployment)

	r.GET("/groups/:group_id/instances/ws", GroupInstancesWebSocket)
}
