package dao

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/fiap-pos-5mlet-group-114/tech-challenge-3/config"
	entity2 "github.com/fiap-pos-5mlet-group-114/tech-challenge-3/entity"
)

type DataRecordDAO struct {
	DB *gorm.DB
}

func NewDataRecordDAO() *DataRecordDAO {
	return &DataRecordDAO{
		DB: config.DB,
	}
}

func (d *DataRecordDAO) Save(ctx context.Context, record *entity2.DataRecord) error {
	if record == nil {
		return ErrNilEntity
	}

	dbConn, err := withContext(d.DB, ctx)
	if err != nil {
		return fmt.Errorf("save data record failed: %w", err)
	}
	return dbConn.Create(record).Error
}

// SaveAll 批量写入观测数据，CSV 导入走这里。
func (d *DataRecordDAO) SaveAll(ctx context.Context, records []entity2.DataRecord) error {
	if len(records) == 0 {
		return nil
	}

	dbConn, err := withContext(d.DB, ctx)
	if err != nil {
		return fmt.Errorf("save data records failed: %w", err)
	}
	return dbConn.CreateInBatches(records, 500).Error
}

func (d *DataRecordDAO) FindByID(ctx context.Context, id string) (*entity2.DataRecord, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidID
	}

	dbConn, err := withContext(d.DB, ctx)
	if err != nil {
		return nil, fmt.Errorf("find data record by id failed: %w", err)
	}

	var record entity2.DataRecord
	err = dbConn.First(&record, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// FindByDatasetID 分页查询某个数据集下的观测数据。
func (d *DataRecordDAO) FindByDatasetID(ctx context.Context, datasetID string, limit, offset int) ([]entity2.DataRecord, error) {
	if strings.TrimSpace(datasetID) == "" {
		return nil, ErrInvalidID
	}

	dbConn, err := withContext(d.DB, ctx)
	if err != nil {
		return nil, fmt.Errorf("find data records failed: %w", err)
	}

	limit, offset = pagination(limit, offset)
	var records []entity2.DataRecord
	err = dbConn.Where("dataset_id = ?", datasetID).Offset(offset).Limit(limit).Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("query data records failed: %w", err)
	}
	return records, nil
}

// FindAllByDatasetID 不分页拉取全部观测数据，训练装配用。
func (d *DataRecordDAO) FindAllByDatasetID(ctx context.Context, datasetID string) ([]entity2.DataRecord, error) {
	if strings.TrimSpace(datasetID) == "" {
		return nil, ErrInvalidID
	}

	dbConn, err := withContext(d.DB, ctx)
	if err != nil {
		return nil, fmt.Errorf("find data records failed: %w", err)
	}

	var records []entity2.DataRecord
	err = dbConn.Where("dataset_id = ?", datasetID).Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("query data records failed: %w", err)
	}
	return records, nil
}

func (d *DataRecordDAO) CountByDatasetID(ctx context.Context, datasetID string) (int64, error) {
	if strings.TrimSpace(datasetID) == "" {
		return 0, ErrInvalidID
	}

	dbConn, err := withContext(d.DB, ctx)
	if err != nil {
		return 0, fmt.Errorf("count data records failed: %w", err)
	}

	var total int64
	err = dbConn.Model(&entity2.DataRecord{}).Where("dataset_id = ?", datasetID).Count(&total).Error
	if err != nil {
		return 0, fmt.Errorf("count data records failed: %w", err)
	}
	return total, nil
}

// UpdateFields 字段级部分更新。
func (d *DataRecordDAO) UpdateFields(ctx context.Context, id string, updates map[string]interface{}) (*entity2.DataRecord, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidID
	}
	if len(updates) == 0 {
		return nil, ErrNilEntity
	}

	dbConn, err := withContext(d.DB, ctx)
	if err != nil {
		return nil, fmt.Errorf("update data record failed: %w", err)
	}

	result := dbConn.Model(&entity2.DataRecord{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("update data record failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return d.FindByID(ctx, id)
}

func (d *DataRecordDAO) DeleteByID(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalidID
	}

	dbConn, err := withContext(d.DB, ctx)
	if err != nil {
		return fmt.Errorf("delete data record by id failed: %w", err)
	}

	result := dbConn.Delete(&entity2.DataRecord{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("delete data record by id failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
