package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gorm.io/gorm"

	"github.com/fiap-pos-5mlet-group-114/tech-challenge-3/config"
	"github.com/fiap-pos-5mlet-group-114/tech-challenge-3/dao"
	entity2 "github.com/fiap-pos-5mlet-group-114/tech-challenge-3/entity"
)

const (
	maxEpochs    = 100
	maxBatchSize = 4096
)

var (
	ErrAlreadyTraining = errors.New("model already training")
	ErrModelNotFound   = errors.New("model not found")
	ErrInvalidEpochs   = fmt.Errorf("epochs must be between 1 and %d", maxEpochs)
	ErrInvalidBatch    = fmt.Errorf("batch_size must be between 1 and %d", maxBatchSize)
)

// InsufficientDataError 数据集样本量不足以训练。
type InsufficientDataError struct {
	Count    int64
	Required int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("Not enough samples in the dataset! %d out of %d required!", e.Count, e.Required)
}

// TrainingParams 一次训练请求的参数。ModelID 非空时以该模型的权重热启动。
type TrainingParams struct {
	DatasetID string  `json:"dataset_id" binding:"required"`
	ModelID   *string `json:"model_id"`
	Epochs    int     `json:"epochs"`
	BatchSize int     `json:"batch_size"`
}

// TrainingService 训练编排状态机。互斥条件是"不存在 date_end 为空的流水记录"，
// 检查与占位插入在同一把锁内完成，保证并发请求只有一个能建立占位。
type TrainingService struct {
	historyDAO *dao.TrainingHistoryDAO
	modelDAO   *dao.ModelDAO
	datasetDAO *dao.DatasetDAO
	recordDAO  *dao.DataRecordDAO
	assembly   *DatasetAssembly
	store      *ArtifactStore

	mu sync.Mutex
	wg sync.WaitGroup
}

func NewTrainingService() *TrainingService {
	return &TrainingService{
		historyDAO: dao.NewTrainingHistoryDAO(),
		modelDAO:   dao.NewModelDAO(),
		datasetDAO: dao.NewDatasetDAO(),
		recordDAO:  dao.NewDataRecordDAO(),
		assembly:   NewDatasetAssembly(),
		store:      NewArtifactStore(),
	}
}

func trainingConfig() config.TrainingConfig {
	if config.AppConfig != nil {
		return config.AppConfig.Training
	}
	cfg := config.Config{}
	config.ApplyDefaults(&cfg)
	return cfg.Training
}

func normalizeParams(params *TrainingParams) error {
	cfg := trainingConfig()
	if params.Epochs == 0 {
		params.Epochs = cfg.DefaultEpochs
	}
	if params.BatchSize == 0 {
		params.BatchSize = cfg.DefaultBatchSize
	}
	if params.Epochs < 1 || params.Epochs > maxEpochs {
		return ErrInvalidEpochs
	}
	if params.BatchSize < 1 || params.BatchSize > maxBatchSize {
		return ErrInvalidBatch
	}
	return nil
}

// RequestTraining 接受或拒绝一次训练请求。接受时同步落库占位记录并调度
// 后台训练，立即返回新建的流水记录；拒绝是终态，不做任何重试。
func (s *TrainingService) RequestTraining(ctx context.Context, params TrainingParams) (*entity2.TrainingHistory, error) {
	logger := serviceLogger().With("service", "TrainingService", "method", "RequestTraining")

	if err := normalizeParams(&params); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ongoing, err := s.historyDAO.FindOngoing(ctx)
	if err != nil {
		return nil, err
	}
	if ongoing != nil {
		logger.Warn("training request rejected: already training", "ongoing_id", ongoing.ID)
		return nil, ErrAlreadyTraining
	}

	if _, err := s.datasetDAO.FindByID(ctx, params.DatasetID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, params.DatasetID)
		}
		return nil, err
	}

	cfg := trainingConfig()
	count, err := s.recordDAO.CountByDatasetID(ctx, params.DatasetID)
	if err != nil {
		return nil, err
	}
	if count < int64(cfg.MinSamples) {
		logger.Warn("training request rejected: insufficient data", "dataset_id", params.DatasetID, "count", count)
		return nil, &InsufficientDataError{Count: count, Required: cfg.MinSamples}
	}

	// 热启动模型必须既有元数据又有权重文件，缺一个都在请求期就拒绝
	if params.ModelID != nil {
		if _, err := s.modelDAO.FindByID(ctx, *params.ModelID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrModelNotFound, *params.ModelID)
			}
			return nil, err
		}
		if !s.store.HasCheckpoint(*params.ModelID) {
			return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, *params.ModelID)
		}
	}

	history := &entity2.TrainingHistory{}
	if err := s.historyDAO.Save(ctx, history); err != nil {
		return nil, err
	}

	logger.Info("training scheduled",
		"history_id", history.ID,
		"dataset_id", params.DatasetID,
		"epochs", params.Epochs,
		"batch_size", params.BatchSize,
	)
	s.wg.Add(1)
	go s.run(history.ID, params)

	return history, nil
}

// ListHistory 返回全部训练流水，存储顺序。
func (s *TrainingService) ListHistory(ctx context.Context) ([]entity2.TrainingHistory, error) {
	return s.historyDAO.FindAll(ctx)
}

// Wait 阻塞到所有后台训练结束。
func (s *TrainingService) Wait() {
	s.wg.Wait()
}
