package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	DB        DBConfig        `yaml:"db"`
	Artifacts ArtifactsConfig `yaml:"artifacts"`
	Log       LogConfig       `yaml:"log"`
	Training  TrainingConfig  `yaml:"training"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type DBConfig struct {
	Driver   string `yaml:"driver"` // sqlite 或 mysql
	Path     string `yaml:"path"`   // sqlite 数据库文件路径
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
}

type ArtifactsConfig struct {
	ModelsRoot   string `yaml:"models_root"`
	DatasetsRoot string `yaml:"datasets_root"`
}

type LogConfig struct {
	Path string `yaml:"path"`
}

type TrainingConfig struct {
	MinSamples       int     `yaml:"min_samples"`
	DefaultEpochs    int     `yaml:"default_epochs"`
	DefaultBatchSize int     `yaml:"default_batch_size"`
	TrainRatio       float64 `yaml:"train_ratio"`
	LearningRate     float64 `yaml:"learning_rate"`
}

var AppConfig *Config

func InitConfig() error {
	data, err := os.ReadFile("config/config.yaml")
	if err != nil {
		return fmt.Errorf("read config file failed: %v", err)
	}

	AppConfig = &Config{}
	err = yaml.Unmarshal(data, AppConfig)
	if err != nil {
		return fmt.Errorf("unmarshal config failed: %v", err)
	}

	ApplyDefaults(AppConfig)
	return nil
}

// ApplyDefaults 填充缺省配置项
func ApplyDefaults(cfg *Config) {
	if cfg.DB.Driver == "" {
		cfg.DB.Driver = "sqlite"
	}
	if cfg.DB.Path == "" {
		cfg.DB.Path = "database.db"
	}
	if cfg.Artifacts.ModelsRoot == "" {
		cfg.Artifacts.ModelsRoot = "assets/models"
	}
	if cfg.Artifacts.DatasetsRoot == "" {
		cfg.Artifacts.DatasetsRoot = "assets/datasets"
	}
	if cfg.Training.MinSamples <= 0 {
		cfg.Training.MinSamples = 5
	}
	if cfg.Training.DefaultEpochs <= 0 {
		cfg.Training.DefaultEpochs = 20
	}
	if cfg.Training.DefaultBatchSize <= 0 {
		cfg.Training.DefaultBatchSize = 2048
	}
	if cfg.Training.TrainRatio <= 0 || cfg.Training.TrainRatio >= 1 {
		cfg.Training.TrainRatio = 0.8
	}
	if cfg.Training.LearningRate <= 0 {
		cfg.Training.LearningRate = 1e-3
	}
}
