package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/fiap-pos-5mlet-group-114/tech-challenge-3/entity"
)

var DB *gorm.DB

func InitDB() error {
	if AppConfig == nil {
		return errors.New("app config is not initialized")
	}

	cfg := AppConfig.DB

	var dialector gorm.Dialector
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "sqlite":
		dialector = sqlite.Open(cfg.Path)
	case "mysql":
		loc := url.QueryEscape("Asia/Shanghai")
		dsn := fmt.Sprintf(
			"%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=%s&timeout=5s&readTimeout=10s&writeTimeout=10s",
			cfg.User,
			cfg.Password,
			cfg.Host,
			cfg.Port,
			cfg.DBName,
			loc,
		)
		dialector = mysql.Open(dsn)
	default:
		return fmt.Errorf("unsupported db driver: %s", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		PrepareStmt: true,
		Logger:      logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return fmt.Errorf("connect database failed (driver=%s): %w", cfg.Driver, err)
	}

	if err := db.AutoMigrate(
		&entity.Dataset{},
		&entity.DataRecord{},
		&entity.Model{},
		&entity.TrainingHistory{},
	); err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}

	DB = db
	return nil
}
