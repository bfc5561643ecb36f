package dao

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/fiap-pos-5mlet-group-114/tech-challenge-3/config"
	entity2 "github.com/fiap-pos-5mlet-group-114/tech-challenge-3/entity"
)

type DatasetDAO struct {
	DB *gorm.DB
}

func NewDatasetDAO() *DatasetDAO {
	return &DatasetDAO{
		DB: config.DB,
	}
}

func (d *DatasetDAO) Save(ctx context.Context, dataset *entity2.Dataset) error {
	if dataset == nil {
		return ErrNilEntity
	}

	dbConn, err := withContext(d.DB, ctx)
	if err != nil {
		return fmt.Errorf("save dataset failed: %w", err)
	}
	return dbConn.Create(dataset).Error
}

func (d *DatasetDAO) FindByID(ctx context.Context, id string) (*entity2.Dataset, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidID
	}

	dbConn, err := withContext(d.DB, ctx)
	if err != nil {
		return nil, fmt.Errorf("find dataset by id failed: %w", err)
	}

	var dataset entity2.Dataset
	err = dbConn.First(&dataset, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &dataset, nil
}

func (d *DatasetDAO) FindAll(ctx context.Context) ([]entity2.Dataset, error) {
	dbConn, err := withContext(d.DB, ctx)
	if err != nil {
		return nil, fmt.Errorf("find datasets failed: %w", err)
	}

	var datasets []entity2.Dataset
	err = dbConn.Find(&datasets).Error
	if err != nil {
		return nil, fmt.Errorf("query datasets failed: %w", err)
	}
	return datasets, nil
}

// UpdateDescription 更新数据集描述。
func (d *DatasetDAO) UpdateDescription(ctx context.Context, id string, description *string) (*entity2.Dataset, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidID
	}

	dbConn, err := withContext(d.DB, ctx)
	if err != nil {
		return nil, fmt.Errorf("update dataset failed: %w", err)
	}

	result := dbConn.Model(&entity2.Dataset{}).Where("id = ?", id).Update("description", description)
	if result.Error != nil {
		return nil, fmt.Errorf("update dataset failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return d.FindByID(ctx, id)
}

// DeleteByID 删除数据集及其全部观测数据（级联）。
func (d *DatasetDAO) DeleteByID(ctx context.Context, id string) error {
	logger := daoLogger().With("dao", "DatasetDAO", "method", "DeleteByID")
	if strings.TrimSpace(id) == "" {
		return ErrInvalidID
	}

	dbConn, err := withContext(d.DB, ctx)
	if err != nil {
		return fmt.Errorf("delete dataset by id failed: %w", err)
	}

	// sqlite 默认不开外键约束，级联删除在事务里显式执行
	err = dbConn.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("dataset_id = ?", id).Delete(&entity2.DataRecord{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&entity2.Dataset{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		logger.Error("delete dataset failed", "id", id, "error", err)
		return err
	}
	logger.Info("delete dataset success", "id", id)
	return nil
}
