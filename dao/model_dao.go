package dao

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/fiap-pos-5mlet-group-114/tech-challenge-3/config"
	entity2 "github.com/fiap-pos-5mlet-group-114/tech-challenge-3/entity"
)

type ModelDAO struct {
	DB *gorm.DB
}

func NewModelDAO() *ModelDAO {
	return &ModelDAO{
		DB: config.DB,
	}
}

func (d *ModelDAO) Save(ctx context.Context, model *entity2.Model) error {
	if model == nil {
		return ErrNilEntity
	}

	dbConn, err := withContext(d.DB, ctx)
	if err != nil {
		return fmt.Errorf("save model failed: %w", err)
	}
	return dbConn.Create(model).Error
}

func (d *ModelDAO) FindByID(ctx context.Context, id string) (*entity2.Model, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidID
	}

	dbConn, err := withContext(d.DB, ctx)
	if err != nil {
		return nil, fmt.Errorf("find model by id failed: %w", err)
	}

	var model entity2.Model
	err = dbConn.First(&model, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &model, nil
}

func (d *ModelDAO) FindAll(ctx context.Context) ([]entity2.Model, error) {
	dbConn, err := withContext(d.DB, ctx)
	if err != nil {
		return nil, fmt.Errorf("find models failed: %w", err)
	}

	var models []entity2.Model
	err = dbConn.Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("query models failed: %w", err)
	}
	return models, nil
}

func (d *ModelDAO) DeleteByID(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalidID
	}

	dbConn, err := withContext(d.DB, ctx)
	if err != nil {
		return fmt.Errorf("delete model by id failed: %w", err)
	}

	result := dbConn.Delete(&entity2.Model{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("delete model by id failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
