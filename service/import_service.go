package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fiap-pos-5mlet-group-114/tech-challenge-3/dao"
	entity2 "github.com/fiap-pos-5mlet-group-114/tech-challenge-3/entity"
)

var (
	ErrEmptyCSV      = errors.New("csv file has no data rows")
	ErrBadCSVHeader  = errors.New("csv header does not match the expected columns")
	ErrBadCSVNumeric = errors.New("csv field is not numeric")
	ErrCSVOutOfRange = errors.New("csv field is out of range")
)

// csv 表头固定列序，与特征装配保持一致
var csvColumns = []string{"lat", "long", "alt", "hour", "month", "day", "mean_temp"}

// ImportService 把上传的 CSV 收录为数据集：建元数据行、批量写观测数据、
// 原始文件落盘到制品目录。
type ImportService struct {
	datasetDAO *dao.DatasetDAO
	recordDAO  *dao.DataRecordDAO
	store      *ArtifactStore
}

func NewImportService() *ImportService {
	return &ImportService{
		datasetDAO: dao.NewDatasetDAO(),
		recordDAO:  dao.NewDataRecordDAO(),
		store:      NewArtifactStore(),
	}
}

// ImportCSV 解析并入库一个 CSV 数据集，返回新建的数据集行。
func (s *ImportService) ImportCSV(ctx context.Context, r io.Reader, description *string) (*entity2.Dataset, error) {
	logger := serviceLogger().With("service", "ImportService", "method", "ImportCSV")

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv failed: %w", err)
	}

	records, err := parseCSV(raw)
	if err != nil {
		return nil, err
	}

	dataset := &entity2.Dataset{Description: description}
	if err := s.datasetDAO.Save(ctx, dataset); err != nil {
		return nil, err
	}
	for i := range records {
		records[i].DatasetID = dataset.ID
	}
	if err := s.recordDAO.SaveAll(ctx, records); err != nil {
		return nil, err
	}
	if err := s.store.WriteDatasetFile(dataset.ID, raw); err != nil {
		return nil, err
	}

	logger.Info("csv dataset imported", "dataset_id", dataset.ID, "rows", len(records))
	return dataset, nil
}

func parseCSV(raw []byte) ([]entity2.DataRecord, error) {
	reader := csv.NewReader(bytes.NewReader(raw))
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, ErrEmptyCSV
	}
	if err := checkHeader(header); err != nil {
		return nil, err
	}

	var records []entity2.DataRecord
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row failed: %w", err)
		}

		values := make([]float64, len(csvColumns))
		for i := range csvColumns {
			v, err := strconv.ParseFloat(strings.TrimSpace(row[i]), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: column %q value %q", ErrBadCSVNumeric, csvColumns[i], row[i])
			}
			values[i] = v
		}
		record := entity2.DataRecord{
			Lat:      values[0],
			Long:     values[1],
			Alt:      values[2],
			Hour:     int(values[3]),
			Month:    int(values[4]),
			Day:      int(values[5]),
			MeanTemp: values[6],
		}
		// 与 JSON 写入口一样的取值范围约束
		if err := checkRecordRanges(&record); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if len(records) == 0 {
		return nil, ErrEmptyCSV
	}
	return records, nil
}

func checkRecordRanges(r *entity2.DataRecord) error {
	if r.Hour < 0 || r.Hour > 23 {
		return fmt.Errorf("%w: hour %d", ErrCSVOutOfRange, r.Hour)
	}
	if r.Month < 1 || r.Month > 12 {
		return fmt.Errorf("%w: month %d", ErrCSVOutOfRange, r.Month)
	}
	if r.Day < 1 || r.Day > 31 {
		return fmt.Errorf("%w: day %d", ErrCSVOutOfRange, r.Day)
	}
	return nil
}

func checkHeader(header []string) error {
	if len(header) != len(csvColumns) {
		return ErrBadCSVHeader
	}
	for i, want := range csvColumns {
		if strings.ToLower(strings.TrimSpace(header[i])) != want {
			return ErrBadCSVHeader
		}
	}
	return nil
}
