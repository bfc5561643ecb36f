package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TrainingHistory 训练流水记录。DateEnd 为空表示该次训练仍在进行中，
// 全局任意时刻最多只允许存在一条 DateEnd 为空的记录。
type TrainingHistory struct {
	ID                    string                       `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	DateStart             time.Time                    `gorm:"column:date_start" json:"date_start"`
	DateEnd               *time.Time                   `gorm:"column:date_end" json:"date_end"`
	EpochTrainLosses      datatypes.JSONSlice[float64] `gorm:"column:epoch_train_losses" json:"epoch_train_losses"`
	EpochValidationLosses datatypes.JSONSlice[float64] `gorm:"column:epoch_validation_losses" json:"epoch_validation_losses"`
	ErrorMessage          *string                      `gorm:"column:error_message" json:"error_message,omitempty"`
}

func (TrainingHistory) TableName() string {
	return "trainings_history"
}

func (h *TrainingHistory) BeforeCreate(*gorm.DB) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	if h.DateStart.IsZero() {
		h.DateStart = time.Now().UTC()
	}
	return nil
}

// Ongoing 是否仍在训练中。
func (h *TrainingHistory) Ongoing() bool {
	return h.DateEnd == nil
}
