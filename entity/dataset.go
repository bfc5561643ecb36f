package entity

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Dataset struct {
	ID          string       `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	Description *string      `gorm:"column:description" json:"description"`
	Data        []DataRecord `gorm:"foreignKey:DatasetID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Dataset) TableName() string {
	return "datasets"
}

func (d *Dataset) BeforeCreate(*gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

// DataRecord 单条气象观测数据，归属于一个 Dataset。
type DataRecord struct {
	ID        string  `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	DatasetID string  `gorm:"column:dataset_id;type:varchar(36);index" json:"dataset_id"`
	Lat       float64 `gorm:"column:lat" json:"lat"`
	Long      float64 `gorm:"column:long" json:"long"`
	Alt       float64 `gorm:"column:alt" json:"alt"`
	Hour      int     `gorm:"column:hour" json:"hour"`
	Month     int     `gorm:"column:month" json:"month"`
	Day       int     `gorm:"column:day" json:"day"`
	MeanTemp  float64 `gorm:"column:mean_temp" json:"mean_temp"`
}

func (DataRecord) TableName() string {
	return "datasets_data"
}

func (r *DataRecord) BeforeCreate(*gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
