package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fiap-pos-5mlet-group-114/tech-challenge-3/service"
)

type TrainingController struct {
	trainingService *service.TrainingService
}

func NewTrainingController() *TrainingController {
	return &TrainingController{
		trainingService: service.NewTrainingService(),
	}
}

// Train handles POST /api/train
func (c *TrainingController) Train(ctx *gin.Context) {
	var params service.TrainingParams
	if err := ctx.ShouldBindJSON(&params); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	history, err := c.trainingService.RequestTraining(ctx.Request.Context(), params)
	if err != nil {
		var insufficient *service.InsufficientDataError
		switch {
		case errors.Is(err, service.ErrAlreadyTraining):
			ctx.JSON(http.StatusNotAcceptable, gin.H{"message": "Model already training!"})
		case errors.As(err, &insufficient):
			ctx.JSON(http.StatusNotAcceptable, gin.H{"message": insufficient.Error()})
		default:
			writeHTTPError(ctx, err)
		}
		return
	}

	ctx.JSON(http.StatusCreated, history)
}

// ListHistory handles GET /api/training-history
func (c *TrainingController) ListHistory(ctx *gin.Context) {
	histories, err := c.trainingService.ListHistory(ctx.Request.Context())
	if err != nil {
		writeHTTPError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, histories)
}
