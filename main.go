package main

import (
	"strings"
	"time"

	"rangeapi/config"
	"rangeapi/database"
	"rangeapi/metrics"
	v1 "rangeapi/routes/v1"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title Range API
// @version 1.0
// @description Challenge instance lifecycle and competition access control API
// @BasePath /api/v1
// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	config.LoadConfig()

	database.InitDB()
	database.InitRedis()

	metrics.StartSystemCollector(15 * time.Second)

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Split(config.AllowedOrigins, ","),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1.Register(r)

	logrus.Info("Starting server on port ", config.ServerPort)
	if err := r.Run(":" + config.ServerPort); err != nil {
		logrus.Fatal("failed to start server: ", err)
	}
}
