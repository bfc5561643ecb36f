package dao

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/fiap-pos-5mlet-group-114/tech-challenge-3/config"
	entity2 "github.com/fiap-pos-5mlet-group-114/tech-challenge-3/entity"
)

type TrainingHistoryDAO struct {
	DB *gorm.DB
}

// NewTrainingHistoryDAO 创建 TrainingHistoryDAO，并注入全局数据库连接。
func NewTrainingHistoryDAO() *TrainingHistoryDAO {
	return &TrainingHistoryDAO{
		DB: config.DB,
	}
}

// Save 保存一条训练流水记录。
func (d *TrainingHistoryDAO) Save(ctx context.Context, history *entity2.TrainingHistory) error {
	logger := daoLogger().With("dao", "TrainingHistoryDAO", "method", "Save")
	if history == nil {
		logger.Warn("save training history skipped: history is nil")
		return ErrNilEntity
	}

	dbConn, err := withContext(d.DB, ctx)
	if err != nil {
		logger.Error("save training history failed: with context", "error", err)
		return fmt.Errorf("save training history failed: %w", err)
	}
	if err := dbConn.Create(history).Error; err != nil {
		logger.Error("save training history failed: db create", "error", err)
		return fmt.Errorf("save training history failed: %w", err)
	}
	logger.Info("save training history success", "id", history.ID)
	return nil
}

func (d *TrainingHistoryDAO) FindByID(ctx context.Context, id string) (*entity2.TrainingHistory, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidID
	}

	dbConn, err := withContext(d.DB, ctx)
	if err != nil {
		return nil, fmt.Errorf("find training history by id failed: %w", err)
	}

	var history entity2.TrainingHistory
	err = dbConn.First(&history, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &history, nil
}

func (d *TrainingHistoryDAO) FindAll(ctx context.Context) ([]entity2.TrainingHistory, error) {
	dbConn, err := withContext(d.DB, ctx)
	if err != nil {
		return nil, fmt.Errorf("find training histories failed: %w", err)
	}

	var histories []entity2.TrainingHistory
	err = dbConn.Find(&histories).Error
	if err != nil {
		return nil, fmt.Errorf("query training histories failed: %w", err)
	}
	return histories, nil
}

// FindOngoing 查询 date_end 为空的训练记录；没有时返回 (nil, nil)。
// 该记录就是训练互斥的信号量。
func (d *TrainingHistoryDAO) FindOngoing(ctx context.Context) (*entity2.TrainingHistory, error) {
	dbConn, err := withContext(d.DB, ctx)
	if err != nil {
		return nil, fmt.Errorf("find ongoing training failed: %w", err)
	}

	var histories []entity2.TrainingHistory
	err = dbConn.Where("date_end IS NULL").Limit(1).Find(&histories).Error
	if err != nil {
		return nil, fmt.Errorf("query ongoing training failed: %w", err)
	}
	if len(histories) == 0 {
		return nil, nil
	}
	return &histories[0], nil
}

// Finish 写入结束时间与两条损失序列，释放互斥信号。
func (d *TrainingHistoryDAO) Finish(ctx context.Context, id string, trainLosses, validationLosses []float64) error {
	logger := daoLogger().With("dao", "TrainingHistoryDAO", "method", "Finish")
	if strings.TrimSpace(id) == "" {
		return ErrInvalidID
	}

	dbConn, err := withContext(d.DB, ctx)
	if err != nil {
		logger.Error("finish training history failed: with context", "id", id, "error", err)
		return fmt.Errorf("finish training history failed: %w", err)
	}

	now := time.Now().UTC()
	result := dbConn.Model(&entity2.TrainingHistory{}).Where("id = ?", id).Updates(map[string]interface{}{
		"date_end":                &now,
		"epoch_train_losses":      datatypes.NewJSONSlice(trainLosses),
		"epoch_validation_losses": datatypes.NewJSONSlice(validationLosses),
	})
	if result.Error != nil {
		logger.Error("finish training history failed: db update", "id", id, "error", result.Error)
		return fmt.Errorf("finish training history failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	logger.Info("finish training history success", "id", id, "epochs", len(trainLosses))
	return nil
}

// MarkFailed 训练异常终止时记录失败原因，同样会释放互斥信号。
func (d *TrainingHistoryDAO) MarkFailed(ctx context.Context, id string, message string) error {
	logger := daoLogger().With("dao", "TrainingHistoryDAO", "method", "MarkFailed")
	if strings.TrimSpace(id) == "" {
		return ErrInvalidID
	}

	dbConn, err := withContext(d.DB, ctx)
	if err != nil {
		logger.Error("mark training failed: with context", "id", id, "error", err)
		return fmt.Errorf("mark training failed: %w", err)
	}

	now := time.Now().UTC()
	result := dbConn.Model(&entity2.TrainingHistory{}).Where("id = ?", id).Updates(map[string]interface{}{
		"date_end":      &now,
		"error_message": &message,
	})
	if result.Error != nil {
		logger.Error("mark training failed: db update", "id", id, "error", result.Error)
		return fmt.Errorf("mark training failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	logger.Warn("training marked as failed", "id", id, "reason", message)
	return nil
}
