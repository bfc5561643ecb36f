package service

import (
	"context"
	"math"

	"github.com/fiap-pos-5mlet-group-114/tech-challenge-3/nn"
)

// PredictionService 按模型 ID 加载权重并做批量点预测。
type PredictionService struct {
	store    *ArtifactStore
	assembly *DatasetAssembly
}

func NewPredictionService() *PredictionService {
	return &PredictionService{
		store:    NewArtifactStore(),
		assembly: NewDatasetAssembly(),
	}
}

func (s *PredictionService) loadRegressor(modelID string) (*nn.Regressor, error) {
	raw, err := s.store.ReadCheckpoint(modelID)
	if err != nil {
		return nil, err
	}
	return nn.Load(raw, trainingConfig().LearningRate)
}

// Predict 对一批特征向量做一次前向，按输入顺序返回每个向量的预测均温。
// 特征列顺序必须是 (lat, long, alt, hour, month, day)。
func (s *PredictionService) Predict(ctx context.Context, modelID string, features [][]float64) ([]float64, error) {
	logger := serviceLogger().With("service", "PredictionService", "method", "Predict")

	reg, err := s.loadRegressor(modelID)
	if err != nil {
		return nil, err
	}

	preds, err := reg.Predict(features)
	if err != nil {
		return nil, err
	}
	logger.Info("prediction served", "model_id", modelID, "batch", len(features))
	return preds, nil
}

// EvaluationMetrics 模型在某个数据集上的回归指标。
type EvaluationMetrics struct {
	MSE  float64 `json:"mse"`
	MAE  float64 `json:"mae"`
	MAPE float64 `json:"mape"`
}

// Evaluate 在整个数据集上评估模型，返回 MSE/MAE/MAPE。
func (s *PredictionService) Evaluate(ctx context.Context, modelID, datasetID string, batchSize int) (*EvaluationMetrics, error) {
	if batchSize <= 0 {
		batchSize = trainingConfig().DefaultBatchSize
	}

	reg, err := s.loadRegressor(modelID)
	if err != nil {
		return nil, err
	}
	data, err := s.assembly.Load(ctx, datasetID)
	if err != nil {
		return nil, err
	}

	var mseBatches, maeBatches, mapeBatches []float64
	for start := 0; start < data.Len(); start += batchSize {
		end := start + batchSize
		if end > data.Len() {
			end = data.Len()
		}
		preds, err := reg.Predict(data.Features[start:end])
		if err != nil {
			return nil, err
		}

		var mse, mae, mape float64
		for i, p := range preds {
			target := data.Targets[start+i]
			diff := p - target
			mse += diff * diff
			mae += math.Abs(diff)
			if target != 0 {
				mape += math.Abs(diff / target)
			}
		}
		n := float64(len(preds))
		mseBatches = append(mseBatches, mse/n)
		maeBatches = append(maeBatches, mae/n)
		mapeBatches = append(mapeBatches, mape/n)
	}

	return &EvaluationMetrics{
		MSE:  meanOf(mseBatches),
		MAE:  meanOf(maeBatches),
		MAPE: meanOf(mapeBatches),
	}, nil
}
