package v1

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fiap-pos-5mlet-group-114/tech-challenge-3/dao"
	"github.com/fiap-pos-5mlet-group-114/tech-challenge-3/service"
)

// writeHTTPError 把分层错误翻译成 HTTP 状态码。训练拒绝类错误（406）
// 在训练控制器里单独处理，不走这里。
func writeHTTPError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound),
		errors.Is(err, service.ErrDatasetNotFound),
		errors.Is(err, service.ErrModelNotFound),
		errors.Is(err, service.ErrArtifactNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, dao.ErrInvalidID),
		errors.Is(err, dao.ErrNilEntity),
		errors.Is(err, service.ErrInvalidEpochs),
		errors.Is(err, service.ErrInvalidBatch),
		errors.Is(err, service.ErrEmptyCSV),
		errors.Is(err, service.ErrBadCSVHeader),
		errors.Is(err, service.ErrBadCSVNumeric),
		errors.Is(err, service.ErrCSVOutOfRange):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// parseUUIDParam 读取并校验路径里的 uuid 参数。
func parseUUIDParam(ctx *gin.Context, name string) (string, bool) {
	value := strings.TrimSpace(ctx.Param(name))
	if _, err := uuid.Parse(value); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name + ": must be a uuid"})
		return "", false
	}
	return value, true
}
