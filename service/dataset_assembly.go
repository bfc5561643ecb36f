package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"gorm.io/gorm"

	"github.com/fiap-pos-5mlet-group-114/tech-challenge-3/dao"
)

var ErrDatasetNotFound = errors.New("dataset not found")

// TabularData 训练用的成对特征/目标数组。
// 特征列固定为 (lat, long, alt, hour, month, day)，目标为 mean_temp，
// 列顺序必须与训练循环和预测服务保持一致。
type TabularData struct {
	Features [][]float64
	Targets  []float64
}

func (t *TabularData) Len() int {
	return len(t.Targets)
}

type DatasetAssembly struct {
	datasetDAO *dao.DatasetDAO
	recordDAO  *dao.DataRecordDAO
}

func NewDatasetAssembly() *DatasetAssembly {
	return &DatasetAssembly{
		datasetDAO: dao.NewDatasetDAO(),
		recordDAO:  dao.NewDataRecordDAO(),
	}
}

// Load 拉取数据集全部观测数据并投影成特征矩阵与目标向量。
func (a *DatasetAssembly) Load(ctx context.Context, datasetID string) (*TabularData, error) {
	if _, err := a.datasetDAO.FindByID(ctx, datasetID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, datasetID)
		}
		return nil, err
	}

	records, err := a.recordDAO.FindAllByDatasetID(ctx, datasetID)
	if err != nil {
		return nil, err
	}

	data := &TabularData{
		Features: make([][]float64, 0, len(records)),
		Targets:  make([]float64, 0, len(records)),
	}
	for _, r := range records {
		data.Features = append(data.Features, []float64{
			r.Lat,
			r.Long,
			r.Alt,
			float64(r.Hour),
			float64(r.Month),
			float64(r.Day),
		})
		data.Targets = append(data.Targets, r.MeanTemp)
	}
	return data, nil
}

// Split 随机切分训练/验证集。两个分区不重叠且并起来覆盖全部样本。
// rng 传 nil 时用时间种子，每次调用都会重新洗牌。
func (a *DatasetAssembly) Split(data *TabularData, trainRatio float64, rng *rand.Rand) (train, validation *TabularData) {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if trainRatio <= 0 || trainRatio >= 1 {
		trainRatio = 0.8
	}

	n := data.Len()
	indices := rng.Perm(n)

	cut := int(float64(n) * trainRatio)
	if cut < 1 {
		cut = 1
	}
	if cut > n {
		cut = n
	}

	train = &TabularData{
		Features: make([][]float64, 0, cut),
		Targets:  make([]float64, 0, cut),
	}
	validation = &TabularData{
		Features: make([][]float64, 0, n-cut),
		Targets:  make([]float64, 0, n-cut),
	}
	for pos, idx := range indices {
		dst := train
		if pos >= cut {
			dst = validation
		}
		dst.Features = append(dst.Features, data.Features[idx])
		dst.Targets = append(dst.Targets, data.Targets[idx])
	}
	return train, validation
}
