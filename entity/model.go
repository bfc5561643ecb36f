package entity

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Model 一个命名的权重槽位；权重文件以 <id>.pth 存放在制品目录。
type Model struct {
	ID          string  `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	Description *string `gorm:"column:description" json:"description"`
}

func (Model) TableName() string {
	return "models"
}

func (m *Model) BeforeCreate(*gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
