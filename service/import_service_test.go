package service_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fiap-pos-5mlet-group-114/tech-challenge-3/dao"
	"github.com/fiap-pos-5mlet-group-114/tech-challenge-3/service"
)

func TestImportCSV(t *testing.T) {
	svc := service.NewImportService()
	recordDAO := dao.NewDataRecordDAO()
	datasetDAO := dao.NewDatasetDAO()
	store := service.NewArtifactStore()
	ctx := context.Background()

	csvBody := "lat,long,alt,hour,month,day,mean_temp\n" +
		"-23.5,-46.6,760,12,1,15,25.3\n" +
		"-22.9,-43.2,2,3,7,1,21.0\n"
	description := "são paulo + rio"

	dataset, err := svc.ImportCSV(ctx, strings.NewReader(csvBody), &description)
	assert.NoError(t, err)
	t.Cleanup(func() { _ = datasetDAO.DeleteByID(ctx, dataset.ID) })

	assert.NotEmpty(t, dataset.ID)
	if assert.NotNil(t, dataset.Description) {
		assert.Equal(t, description, *dataset.Description)
	}

	count, err := recordDAO.CountByDatasetID(ctx, dataset.ID)
	assert.NoError(t, err)
	assert.EqualValues(t, 2, count)

	records, err := recordDAO.FindAllByDatasetID(ctx, dataset.ID)
	assert.NoError(t, err)
	assert.Equal(t, 12, records[0].Hour)
	assert.Equal(t, 25.3, records[0].MeanTemp)

	// 原始文件按 <id>.csv 落盘
	raw, err := store.ReadDatasetFile(dataset.ID)
	assert.NoError(t, err)
	assert.Equal(t, csvBody, string(raw))
}

func TestImportCSVBadHeader(t *testing.T) {
	svc := service.NewImportService()
	_, err := svc.ImportCSV(context.Background(), strings.NewReader("a,b,c\n1,2,3\n"), nil)
	assert.ErrorIs(t, err, service.ErrBadCSVHeader)
}

func TestImportCSVEmpty(t *testing.T) {
	svc := service.NewImportService()

	_, err := svc.ImportCSV(context.Background(), strings.NewReader(""), nil)
	assert.ErrorIs(t, err, service.ErrEmptyCSV)

	_, err = svc.ImportCSV(context.Background(), strings.NewReader("lat,long,alt,hour,month,day,mean_temp\n"), nil)
	assert.ErrorIs(t, err, service.ErrEmptyCSV)
}

func TestImportCSVOutOfRange(t *testing.T) {
	svc := service.NewImportService()
	ctx := context.Background()

	// JSON 写入口拒绝的取值，CSV 入口也必须拒绝
	for _, body := range []string{
		"lat,long,alt,hour,month,day,mean_temp\n1,2,3,24,1,1,20\n",
		"lat,long,alt,hour,month,day,mean_temp\n1,2,3,12,13,1,20\n",
		"lat,long,alt,hour,month,day,mean_temp\n1,2,3,12,1,32,20\n",
		"lat,long,alt,hour,month,day,mean_temp\n1,2,3,-1,1,1,20\n",
	} {
		_, err := svc.ImportCSV(ctx, strings.NewReader(body), nil)
		assert.ErrorIs(t, err, service.ErrCSVOutOfRange)
	}
}

func TestImportCSVBadNumeric(t *testing.T) {
	svc := service.NewImportService()
	body := "lat,long,alt,hour,month,day,mean_temp\n1,2,3,4,5,6,oops\n"
	_, err := svc.ImportCSV(context.Background(), strings.NewReader(body), nil)
	assert.ErrorIs(t, err, service.ErrBadCSVNumeric)
}
