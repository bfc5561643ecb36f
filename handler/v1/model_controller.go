package v1

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fiap-pos-5mlet-group-114/tech-challenge-3/dao"
	"github.com/fiap-pos-5mlet-group-114/tech-challenge-3/service"
)

type ModelController struct {
	modelDAO          *dao.ModelDAO
	predictionService *service.PredictionService
}

func NewModelController() *ModelController {
	return &ModelController{
		modelDAO:          dao.NewModelDAO(),
		predictionService: service.NewPredictionService(),
	}
}

// featureVector 与特征装配约定一致的列序 (lat, long, alt, hour, month, day)。
type featureVector struct {
	Lat   float64 `json:"lat"`
	Long  float64 `json:"long"`
	Alt   float64 `json:"alt"`
	Hour  int     `json:"hour"`
	Month int     `json:"month"`
	Day   int     `json:"day"`
}

type predictRequest struct {
	ModelID string          `json:"model_id" binding:"required"`
	Params  []featureVector `json:"params" binding:"required,min=1"`
}

// GetAllModels handles GET /api/models
func (c *ModelController) GetAllModels(ctx *gin.Context) {
	models, err := c.modelDAO.FindAll(ctx.Request.Context())
	if err != nil {
		writeHTTPError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, models)
}

// Predict handles POST /api/predict
func (c *ModelController) Predict(ctx *gin.Context) {
	var req predictRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	features := make([][]float64, len(req.Params))
	for i, p := range req.Params {
		features[i] = []float64{p.Lat, p.Long, p.Alt, float64(p.Hour), float64(p.Month), float64(p.Day)}
	}

	preds, err := c.predictionService.Predict(ctx.Request.Context(), req.ModelID, features)
	if err != nil {
		writeHTTPError(ctx, err)
		return
	}

	result := make([]gin.H, len(preds))
	for i, p := range preds {
		result[i] = gin.H{"mean_temp": p}
	}
	ctx.JSON(http.StatusOK, result)
}

// GetMetrics handles GET /api/models/:id/metrics
func (c *ModelController) GetMetrics(ctx *gin.Context) {
	modelID, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return
	}
	datasetID := strings.TrimSpace(ctx.Query("dataset_id"))
	if datasetID == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "dataset_id is required"})
		return
	}

	batchSize := 0
	if raw := strings.TrimSpace(ctx.Query("batch_size")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "batch_size must be a positive integer"})
			return
		}
		batchSize = parsed
	}

	metrics, err := c.predictionService.Evaluate(ctx.Request.Context(), modelID, datasetID, batchSize)
	if err != nil {
		writeHTTPError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, metrics)
}
