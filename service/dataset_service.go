package service

import (
	"context"

	"github.com/fiap-pos-5mlet-group-114/tech-challenge-3/dao"
)

// DatasetService 数据集的跨存储操作：元数据行在数据库里，原始文件在制品
// 目录里，删除必须两边一起做。
type DatasetService struct {
	datasetDAO *dao.DatasetDAO
	store      *ArtifactStore
}

func NewDatasetService() *DatasetService {
	return &DatasetService{
		datasetDAO: dao.NewDatasetDAO(),
		store:      NewArtifactStore(),
	}
}

// Delete 删除数据集：级联删掉元数据行与观测数据，再移除原始文件。
// 只删行不删文件会让下一次启动对账把残留的 <id>.csv 重新注册成空数据集。
func (s *DatasetService) Delete(ctx context.Context, id string) error {
	logger := serviceLogger().With("service", "DatasetService", "method", "Delete")

	if err := s.datasetDAO.DeleteByID(ctx, id); err != nil {
		return err
	}
	if err := s.store.RemoveDatasetFile(id); err != nil {
		logger.Error("remove dataset file failed", "dataset_id", id, "error", err)
		return err
	}
	logger.Info("dataset deleted", "dataset_id", id)
	return nil
}
