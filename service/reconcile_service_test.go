package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/fiap-pos-5mlet-group-114/tech-challenge-3/dao"
	"github.com/fiap-pos-5mlet-group-114/tech-challenge-3/service"
)

func TestReconcileAdoptsLegacyFiles(t *testing.T) {
	store := service.NewArtifactStore()
	modelDAO := dao.NewModelDAO()
	datasetDAO := dao.NewDatasetDAO()
	ctx := context.Background()

	assert.NoError(t, os.MkdirAll(store.ModelsRoot, 0o755))
	assert.NoError(t, os.MkdirAll(store.DatasetsRoot, 0o755))
	assert.NoError(t, os.WriteFile(filepath.Join(store.ModelsRoot, "pretrained.pth"), []byte("{}"), 0o644))
	assert.NoError(t, os.WriteFile(filepath.Join(store.DatasetsRoot, "inmet_2020.csv"), []byte("lat\n"), 0o644))

	svc := service.NewReconcileService()
	assert.NoError(t, svc.Run(ctx))

	// 遗留文件都被改名收编且注册了元数据行
	modelIDs, err := store.ListCanonical(store.ModelsRoot, service.CheckpointExt)
	assert.NoError(t, err)
	for _, id := range modelIDs {
		_, err := modelDAO.FindByID(ctx, id)
		assert.NoError(t, err, "every canonical checkpoint must have a model row")
	}

	datasetIDs, err := store.ListCanonical(store.DatasetsRoot, service.DatasetFileExt)
	assert.NoError(t, err)
	for _, id := range datasetIDs {
		_, err := datasetDAO.FindByID(ctx, id)
		assert.NoError(t, err, "every canonical dataset file must have a dataset row")
	}

	// 再跑一遍必须是空操作
	assert.NoError(t, svc.Run(ctx))
	modelIDsAgain, err := store.ListCanonical(store.ModelsRoot, service.CheckpointExt)
	assert.NoError(t, err)
	assert.ElementsMatch(t, modelIDs, modelIDsAgain)
}

func TestReconcileRegistersOrphanCanonicalFile(t *testing.T) {
	store := service.NewArtifactStore()
	modelDAO := dao.NewModelDAO()
	ctx := context.Background()

	// 规范命名但没有元数据行的权重文件
	id := "b2c8f6ae-1d24-4a6a-9a7e-2f90cf7b3a01"
	assert.NoError(t, os.MkdirAll(store.ModelsRoot, 0o755))
	assert.NoError(t, os.WriteFile(store.CheckpointPath(id), []byte("{}"), 0o644))

	_, err := modelDAO.FindByID(ctx, id)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	assert.NoError(t, service.NewReconcileService().Run(ctx))

	_, err = modelDAO.FindByID(ctx, id)
	assert.NoError(t, err)
}
