package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/fiap-pos-5mlet-group-114/tech-challenge-3/dao"
	entity2 "github.com/fiap-pos-5mlet-group-114/tech-challenge-3/entity"
)

// ReconcileService 启动对账：把制品目录里的遗留文件收编为一等实体，
// 并为缺元数据行的规范文件补建记录。整个过程可重复执行。
type ReconcileService struct {
	datasetDAO *dao.DatasetDAO
	modelDAO   *dao.ModelDAO
	historyDAO *dao.TrainingHistoryDAO
	store      *ArtifactStore
}

func NewReconcileService() *ReconcileService {
	return &ReconcileService{
		datasetDAO: dao.NewDatasetDAO(),
		modelDAO:   dao.NewModelDAO(),
		historyDAO: dao.NewTrainingHistoryDAO(),
		store:      NewArtifactStore(),
	}
}

// Run 执行一轮对账。
func (s *ReconcileService) Run(ctx context.Context) error {
	logger := serviceLogger().With("service", "ReconcileService", "method", "Run")

	if err := s.reconcileModels(ctx); err != nil {
		return err
	}
	if err := s.reconcileDatasets(ctx); err != nil {
		return err
	}

	// 上一个进程异常退出会留下 date_end 为空的占位记录，
	// 这里只告警不自动清理，需要运维手工处理后才能接受新训练
	ongoing, err := s.historyDAO.FindOngoing(ctx)
	if err != nil {
		return err
	}
	if ongoing != nil {
		logger.Warn("stranded training claim detected, new training requests will be rejected until it is cleared manually",
			"history_id", ongoing.ID,
			"date_start", ongoing.DateStart,
		)
	}
	return nil
}

func (s *ReconcileService) reconcileModels(ctx context.Context) error {
	logger := serviceLogger().With("service", "ReconcileService", "method", "reconcileModels")

	adopted, err := s.store.DiscoverUntracked(s.store.ModelsRoot, CheckpointExt)
	if err != nil {
		return err
	}
	for _, file := range adopted {
		if err := s.modelDAO.Save(ctx, &entity2.Model{ID: file.ID}); err != nil {
			return err
		}
		logger.Info("registered adopted checkpoint", "model_id", file.ID)
	}

	ids, err := s.store.ListCanonical(s.store.ModelsRoot, CheckpointExt)
	if err != nil {
		return err
	}
	for _, id := range ids {
		_, err := s.modelDAO.FindByID(ctx, id)
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := s.modelDAO.Save(ctx, &entity2.Model{ID: id}); err != nil {
			return err
		}
		logger.Info("registered orphan checkpoint", "model_id", id)
	}
	return nil
}

func (s *ReconcileService) reconcileDatasets(ctx context.Context) error {
	logger := serviceLogger().With("service", "ReconcileService", "method", "reconcileDatasets")

	adopted, err := s.store.DiscoverUntracked(s.store.DatasetsRoot, DatasetFileExt)
	if err != nil {
		return err
	}
	for _, file := range adopted {
		if err := s.datasetDAO.Save(ctx, &entity2.Dataset{ID: file.ID}); err != nil {
			return err
		}
		logger.Info("registered adopted dataset file", "dataset_id", file.ID)
	}

	ids, err := s.store.ListCanonical(s.store.DatasetsRoot, DatasetFileExt)
	if err != nil {
		return err
	}
	for _, id := range ids {
		_, err := s.datasetDAO.FindByID(ctx, id)
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := s.datasetDAO.Save(ctx, &entity2.Dataset{ID: id}); err != nil {
			return err
		}
		logger.Info("registered orphan dataset file", "dataset_id", id)
	}
	return nil
}
