package service_test

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/fiap-pos-5mlet-group-114/tech-challenge-3/dao"
	"github.com/fiap-pos-5mlet-group-114/tech-challenge-3/entity"
	"github.com/fiap-pos-5mlet-group-114/tech-challenge-3/service"
)

func seedDataset(t *testing.T, n int) *entity.Dataset {
	t.Helper()
	datasetDAO := dao.NewDatasetDAO()
	recordDAO := dao.NewDataRecordDAO()
	ctx := context.Background()

	dataset := &entity.Dataset{}
	assert.NoError(t, datasetDAO.Save(ctx, dataset))
	t.Cleanup(func() { _ = datasetDAO.DeleteByID(ctx, dataset.ID) })

	records := make([]entity.DataRecord, n)
	for i := range records {
		records[i] = entity.DataRecord{
			DatasetID: dataset.ID,
			Lat:       -20 + float64(i),
			Long:      -45 + float64(i),
			Alt:       100 + float64(i*10),
			Hour:      i % 24,
			Month:     i%12 + 1,
			Day:       i%28 + 1,
			MeanTemp:  18 + float64(i%10),
		}
	}
	assert.NoError(t, recordDAO.SaveAll(ctx, records))
	return dataset
}

func TestLoadProjectsColumns(t *testing.T) {
	dataset := seedDataset(t, 3)
	assembly := service.NewDatasetAssembly()

	data, err := assembly.Load(context.Background(), dataset.ID)
	assert.NoError(t, err)
	assert.Equal(t, 3, data.Len())

	for i, row := range data.Features {
		// 列序固定 (lat, long, alt, hour, month, day)
		assert.Len(t, row, 6)
		assert.Equal(t, -20+float64(i), row[0])
		assert.Equal(t, -45+float64(i), row[1])
		assert.Equal(t, 100+float64(i*10), row[2])
	}
	assert.Equal(t, 18.0, data.Targets[0])
}

func TestLoadUnknownDataset(t *testing.T) {
	assembly := service.NewDatasetAssembly()
	_, err := assembly.Load(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, service.ErrDatasetNotFound)
}

func TestSplitPartitionsAreDisjointAndComplete(t *testing.T) {
	assembly := service.NewDatasetAssembly()

	for _, n := range []int{1, 2, 5, 10, 100} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			data := &service.TabularData{}
			for i := 0; i < n; i++ {
				data.Features = append(data.Features, []float64{float64(i), 0, 0, 0, 0, 0})
				data.Targets = append(data.Targets, float64(i))
			}

			rng := rand.New(rand.NewSource(42))
			train, validation := assembly.Split(data, 0.8, rng)

			assert.Equal(t, n, train.Len()+validation.Len(), "partitions must cover every record")
			assert.GreaterOrEqual(t, train.Len(), 1)

			seen := map[float64]bool{}
			for _, target := range train.Targets {
				assert.False(t, seen[target], "record must appear in exactly one partition")
				seen[target] = true
			}
			for _, target := range validation.Targets {
				assert.False(t, seen[target], "record must appear in exactly one partition")
				seen[target] = true
			}
			assert.Len(t, seen, n)
		})
	}
}

func TestSplitRatio(t *testing.T) {
	assembly := service.NewDatasetAssembly()
	data := &service.TabularData{}
	for i := 0; i < 10; i++ {
		data.Features = append(data.Features, []float64{0, 0, 0, 0, 0, 0})
		data.Targets = append(data.Targets, float64(i))
	}

	train, validation := assembly.Split(data, 0.8, rand.New(rand.NewSource(1)))
	assert.Equal(t, 8, train.Len())
	assert.Equal(t, 2, validation.Len())
}
