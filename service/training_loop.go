package service

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	entity2 "github.com/fiap-pos-5mlet-group-114/tech-challenge-3/entity"
	"github.com/fiap-pos-5mlet-group-114/tech-challenge-3/nn"
)

// run 后台训练入口。任何失败（包括 panic）都会把流水记录标记为失败，
// 保证互斥占位一定被释放，不会留下悬挂的训练中记录。
func (s *TrainingService) run(historyID string, params TrainingParams) {
	defer s.wg.Done()
	logger := serviceLogger().With("service", "TrainingService", "history_id", historyID)
	ctx := context.Background()

	defer func() {
		if r := recover(); r != nil {
			logger.Error("training run panicked", "panic", r)
			if err := s.historyDAO.MarkFailed(ctx, historyID, fmt.Sprintf("panic: %v", r)); err != nil {
				logger.Error("release training claim failed", "error", err)
			}
		}
	}()

	if err := s.executeRun(ctx, historyID, params); err != nil {
		logger.Error("training run failed", "error", err)
		if markErr := s.historyDAO.MarkFailed(ctx, historyID, err.Error()); markErr != nil {
			logger.Error("release training claim failed", "error", markErr)
		}
	}
}

func (s *TrainingService) executeRun(ctx context.Context, historyID string, params TrainingParams) error {
	logger := serviceLogger().With("service", "TrainingService", "history_id", historyID)
	cfg := trainingConfig()

	data, err := s.assembly.Load(ctx, params.DatasetID)
	if err != nil {
		return err
	}
	train, validation := s.assembly.Split(data, cfg.TrainRatio, nil)
	logger.Info("dataset split", "train", train.Len(), "validation", validation.Len())

	var reg *nn.Regressor
	if params.ModelID != nil {
		// 热启动：加载已有权重作为初始参数
		raw, err := s.store.ReadCheckpoint(*params.ModelID)
		if err != nil {
			return err
		}
		reg, err = nn.Load(raw, cfg.LearningRate)
		if err != nil {
			return err
		}
		logger.Info("warm start from checkpoint", "model_id", *params.ModelID)
	} else {
		reg = nn.NewRegressor(cfg.LearningRate, time.Now().UnixNano())
	}

	// 产出永远写到新模型，不原地覆盖输入权重
	outputID := uuid.NewString()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	trainLosses := make([]float64, 0, params.Epochs)
	validationLosses := make([]float64, 0, params.Epochs)

	for epoch := 1; epoch <= params.Epochs; epoch++ {
		epochTrain, err := s.trainEpoch(reg, train, params.BatchSize, rng)
		if err != nil {
			return fmt.Errorf("epoch %d train failed: %w", epoch, err)
		}
		epochValidation, err := s.validateEpoch(reg, validation, params.BatchSize)
		if err != nil {
			return fmt.Errorf("epoch %d validation failed: %w", epoch, err)
		}
		trainLosses = append(trainLosses, epochTrain)
		validationLosses = append(validationLosses, epochValidation)

		// 每个 epoch 都覆盖一次权重文件，进程崩溃最多丢当前 epoch
		raw, err := reg.Save()
		if err != nil {
			return fmt.Errorf("epoch %d serialize checkpoint failed: %w", epoch, err)
		}
		if err := s.store.WriteCheckpoint(outputID, raw); err != nil {
			return fmt.Errorf("epoch %d write checkpoint failed: %w", epoch, err)
		}

		logger.Info("epoch finished",
			"epoch", epoch,
			"train_loss", epochTrain,
			"validation_loss", epochValidation,
		)
	}

	description := fmt.Sprintf("trained on dataset %s", params.DatasetID)
	model := &entity2.Model{ID: outputID, Description: &description}
	if err := s.modelDAO.Save(ctx, model); err != nil {
		return err
	}
	if err := s.historyDAO.Finish(ctx, historyID, trainLosses, validationLosses); err != nil {
		return err
	}

	logger.Info("training run completed", "model_id", outputID, "epochs", params.Epochs)
	return nil
}

// trainEpoch 洗牌后按 batchSize 分批训练，返回各 batch 损失的算术平均。
// 样本数不整除时最后一个 batch 会偏小，均值不按 batch 大小加权。
func (s *TrainingService) trainEpoch(reg *nn.Regressor, train *TabularData, batchSize int, rng *rand.Rand) (float64, error) {
	perm := rng.Perm(train.Len())

	var batchLosses []float64
	for start := 0; start < len(perm); start += batchSize {
		end := start + batchSize
		if end > len(perm) {
			end = len(perm)
		}
		features := make([][]float64, 0, end-start)
		targets := make([]float64, 0, end-start)
		for _, idx := range perm[start:end] {
			features = append(features, train.Features[idx])
			targets = append(targets, train.Targets[idx])
		}
		loss, err := reg.TrainBatch(features, targets)
		if err != nil {
			return 0, err
		}
		batchLosses = append(batchLosses, loss)
	}
	return meanOf(batchLosses), nil
}

// validateEpoch 不洗牌、不更新参数，同样的分批方式计算验证损失。
func (s *TrainingService) validateEpoch(reg *nn.Regressor, validation *TabularData, batchSize int) (float64, error) {
	var batchLosses []float64
	for start := 0; start < validation.Len(); start += batchSize {
		end := start + batchSize
		if end > validation.Len() {
			end = validation.Len()
		}
		loss, err := reg.Loss(validation.Features[start:end], validation.Targets[start:end])
		if err != nil {
			return 0, err
		}
		batchLosses = append(batchLosses, loss)
	}
	return meanOf(batchLosses), nil
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
