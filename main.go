package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/fiap-pos-5mlet-group-114/tech-challenge-3/config"
	"github.com/fiap-pos-5mlet-group-114/tech-challenge-3/router"
	"github.com/fiap-pos-5mlet-group-114/tech-challenge-3/service"
)

func main() {
	// 默认使用 release，避免线上以 debug 模式启动
	if gin.Mode() == gin.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	// 1. Initialize configuration
	if err := config.InitConfig(); err != nil {
		log.Fatalf("Init config failed: %v", err)
	}

	// 2. Initialize logger
	config.InitLogger()

	// 3. Initialize database
	if err := config.InitDB(); err != nil {
		log.Fatalf("Init database failed: %v", err)
	}

	// 4. Reconcile artifact directories (adopt legacy files, warn on stranded runs)
	if err := service.NewReconcileService().Run(context.Background()); err != nil {
		log.Fatalf("Artifact reconciliation failed: %v", err)
	}

	// 5. Setup router
	r := router.SetupRouter()

	// 6. Start server
	port := config.AppConfig.Server.Port
	if port == 0 {
		port = 8080
	}

	fmt.Printf("Server is running on port %d...\n", port)
	if err := r.Run(fmt.Sprintf(":%d", port)); err != nil {
		log.Fatalf("Server run failed: %v", err)
	}
}
