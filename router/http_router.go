package router

import (
	"github.com/gin-gonic/gin"

	v2 "github.com/fiap-pos-5mlet-group-114/tech-challenge-3/handler/v1"
)

func SetupRouter() *gin.Engine {
	trainingController := v2.NewTrainingController()
	modelController := v2.NewModelController()
	datasetController := v2.NewDatasetController()

	r := gin.Default()
	r.Use(gin.Recovery())

	api := r.Group("/api")
	{
		// Training routes
		api.POST("/train", trainingController.Train)
		api.GET("/training-history", trainingController.ListHistory)

		// Model routes
		models := api.Group("/models")
		{
			models.GET("", modelController.GetAllModels)
			models.GET("/:id/metrics", modelController.GetMetrics)
		}
		api.POST("/predict", modelController.Predict)

		// Dataset routes
		datasets := api.Group("/datasets")
		{
			datasets.GET("", datasetController.GetAllDatasets)
			datasets.POST("", datasetController.CreateDataset)
			datasets.POST("/upload", datasetController.UploadDataset)
			datasets.PATCH("/:id", datasetController.UpdateDataset)
			datasets.DELETE("/:id", datasetController.DeleteDataset)

			datasets.GET("/:id/data", datasetController.GetDatasetData)
			datasets.POST("/:id/data", datasetController.AddDatasetData)
			datasets.PATCH("/:id/data/:data_id", datasetController.UpdateDatasetData)
			datasets.DELETE("/:id/data/:data_id", datasetController.DeleteDatasetData)
		}
	}

	return r
}
