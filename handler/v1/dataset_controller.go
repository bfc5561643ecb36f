package v1

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fiap-pos-5mlet-group-114/tech-challenge-3/dao"
	entity2 "github.com/fiap-pos-5mlet-group-114/tech-challenge-3/entity"
	"github.com/fiap-pos-5mlet-group-114/tech-challenge-3/service"
)

type DatasetController struct {
	datasetDAO     *dao.DatasetDAO
	recordDAO      *dao.DataRecordDAO
	importService  *service.ImportService
	datasetService *service.DatasetService
}

func NewDatasetController() *DatasetController {
	return &DatasetController{
		datasetDAO:     dao.NewDatasetDAO(),
		recordDAO:      dao.NewDataRecordDAO(),
		importService:  service.NewImportService(),
		datasetService: service.NewDatasetService(),
	}
}

type datasetPayload struct {
	Description *string `json:"description"`
}

type createRecordPayload struct {
	Lat      float64 `json:"lat"`
	Long     float64 `json:"long"`
	Alt      float64 `json:"alt"`
	Hour     int     `json:"hour" binding:"min=0,max=23"`
	Month    int     `json:"month" binding:"required,min=1,max=12"`
	Day      int     `json:"day" binding:"required,min=1,max=31"`
	MeanTemp float64 `json:"mean_temp"`
}

// updateRecordPayload 字段级部分更新，nil 字段不更新。
type updateRecordPayload struct {
	Lat      *float64 `json:"lat"`
	Long     *float64 `json:"long"`
	Alt      *float64 `json:"alt"`
	Hour     *int     `json:"hour" binding:"omitempty,min=0,max=23"`
	Month    *int     `json:"month" binding:"omitempty,min=1,max=12"`
	Day      *int     `json:"day" binding:"omitempty,min=1,max=31"`
	MeanTemp *float64 `json:"mean_temp"`
}

// GetAllDatasets handles GET /api/datasets
func (c *DatasetController) GetAllDatasets(ctx *gin.Context) {
	datasets, err := c.datasetDAO.FindAll(ctx.Request.Context())
	if err != nil {
		writeHTTPError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, datasets)
}

// CreateDataset handles POST /api/datasets
func (c *DatasetController) CreateDataset(ctx *gin.Context) {
	var payload datasetPayload
	if err := ctx.ShouldBindJSON(&payload); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dataset := &entity2.Dataset{Description: payload.Description}
	if err := c.datasetDAO.Save(ctx.Request.Context(), dataset); err != nil {
		writeHTTPError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dataset)
}

// UpdateDataset handles PATCH /api/datasets/:id
func (c *DatasetController) UpdateDataset(ctx *gin.Context) {
	id, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return
	}

	var payload datasetPayload
	if err := ctx.ShouldBindJSON(&payload); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dataset, err := c.datasetDAO.UpdateDescription(ctx.Request.Context(), id, payload.Description)
	if err != nil {
		writeHTTPError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dataset)
}

// DeleteDataset handles DELETE /api/datasets/:id
func (c *DatasetController) DeleteDataset(ctx *gin.Context) {
	id, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.datasetService.Delete(ctx.Request.Context(), id); err != nil {
		writeHTTPError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// UploadDataset handles POST /api/datasets/upload
func (c *DatasetController) UploadDataset(ctx *gin.Context) {
	file, err := ctx.FormFile("file")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	var description *string
	if value := strings.TrimSpace(ctx.PostForm("description")); value != "" {
		description = &value
	}

	opened, err := file.Open()
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer opened.Close()

	dataset, err := c.importService.ImportCSV(ctx.Request.Context(), opened, description)
	if err != nil {
		writeHTTPError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dataset)
}

// GetDatasetData handles GET /api/datasets/:id/data
func (c *DatasetController) GetDatasetData(ctx *gin.Context) {
	id, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return
	}

	limit, err := parseQueryInt(ctx, "limit", 100)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	offset, err := parseQueryInt(ctx, "offset", 0)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	records, err := c.recordDAO.FindByDatasetID(ctx.Request.Context(), id, limit, offset)
	if err != nil {
		writeHTTPError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, records)
}

// AddDatasetData handles POST /api/datasets/:id/data
func (c *DatasetController) AddDatasetData(ctx *gin.Context) {
	id, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return
	}

	var payload createRecordPayload
	if err := ctx.ShouldBindJSON(&payload); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 外键完整性由这里保证，先确认数据集存在
	if _, err := c.datasetDAO.FindByID(ctx.Request.Context(), id); err != nil {
		writeHTTPError(ctx, err)
		return
	}

	record := &entity2.DataRecord{
		DatasetID: id,
		Lat:       payload.Lat,
		Long:      payload.Long,
		Alt:       payload.Alt,
		Hour:      payload.Hour,
		Month:     payload.Month,
		Day:       payload.Day,
		MeanTemp:  payload.MeanTemp,
	}
	if err := c.recordDAO.Save(ctx.Request.Context(), record); err != nil {
		writeHTTPError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, record)
}

// UpdateDatasetData handles PATCH /api/datasets/:id/data/:data_id
func (c *DatasetController) UpdateDatasetData(ctx *gin.Context) {
	if _, ok := parseUUIDParam(ctx, "id"); !ok {
		return
	}
	dataID, ok := parseUUIDParam(ctx, "data_id")
	if !ok {
		return
	}

	var payload updateRecordPayload
	if err := ctx.ShouldBindJSON(&payload); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]interface{}{}
	if payload.Lat != nil {
		updates["lat"] = *payload.Lat
	}
	if payload.Long != nil {
		updates["long"] = *payload.Long
	}
	if payload.Alt != nil {
		updates["alt"] = *payload.Alt
	}
	if payload.Hour != nil {
		updates["hour"] = *payload.Hour
	}
	if payload.Month != nil {
		updates["month"] = *payload.Month
	}
	if payload.Day != nil {
		updates["day"] = *payload.Day
	}
	if payload.MeanTemp != nil {
		updates["mean_temp"] = *payload.MeanTemp
	}

	record, err := c.recordDAO.UpdateFields(ctx.Request.Context(), dataID, updates)
	if err != nil {
		writeHTTPError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, record)
}

// DeleteDatasetData handles DELETE /api/datasets/:id/data/:data_id
func (c *DatasetController) DeleteDatasetData(ctx *gin.Context) {
	if _, ok := parseUUIDParam(ctx, "id"); !ok {
		return
	}
	dataID, ok := parseUUIDParam(ctx, "data_id")
	if !ok {
		return
	}

	if err := c.recordDAO.DeleteByID(ctx.Request.Context(), dataID); err != nil {
		writeHTTPError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

func parseQueryInt(ctx *gin.Context, name string, fallback int) (int, error) {
	raw := strings.TrimSpace(ctx.Query(name))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", name)
	}
	return value, nil
}
