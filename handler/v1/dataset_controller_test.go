package v1_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fiap-pos-5mlet-group-114/tech-challenge-3/entity"
)

func createDatasetViaAPI(t *testing.T, description string) entity.Dataset {
	t.Helper()

	body, _ := json.Marshal(map[string]string{"description": description})
	w := performRequest(testRouter, http.MethodPost, "/api/datasets", bytes.NewReader(body))
	assert.Equal(t, http.StatusCreated, w.Code)

	var dataset entity.Dataset
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &dataset))
	assert.NotEmpty(t, dataset.ID)

	t.Cleanup(func() {
		performRequest(testRouter, http.MethodDelete, "/api/datasets/"+dataset.ID, nil)
	})
	return dataset
}

func addRecordViaAPI(t *testing.T, datasetID string, meanTemp float64) entity.DataRecord {
	t.Helper()

	body, _ := json.Marshal(map[string]interface{}{
		"lat": -23.5, "long": -46.6, "alt": 760.0,
		"hour": 12, "month": 1, "day": 15,
		"mean_temp": meanTemp,
	})
	w := performRequest(testRouter, http.MethodPost, "/api/datasets/"+datasetID+"/data", bytes.NewReader(body))
	assert.Equal(t, http.StatusCreated, w.Code)

	var record entity.DataRecord
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &record))
	return record
}

func TestDatasetCRUD(t *testing.T) {
	dataset := createDatasetViaAPI(t, "inmet 2020")
	if assert.NotNil(t, dataset.Description) {
		assert.Equal(t, "inmet 2020", *dataset.Description)
	}

	// 列表里必须能看到
	w := performRequest(testRouter, http.MethodGet, "/api/datasets", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var datasets []entity.Dataset
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &datasets))
	found := false
	for _, d := range datasets {
		if d.ID == dataset.ID {
			found = true
		}
	}
	assert.True(t, found)

	// 更新描述
	body, _ := json.Marshal(map[string]string{"description": "inmet 2021"})
	w = performRequest(testRouter, http.MethodPatch, "/api/datasets/"+dataset.ID, bytes.NewReader(body))
	assert.Equal(t, http.StatusOK, w.Code)
	var updated entity.Dataset
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	if assert.NotNil(t, updated.Description) {
		assert.Equal(t, "inmet 2021", *updated.Description)
	}

	// 删除后再查不到
	w = performRequest(testRouter, http.MethodDelete, "/api/datasets/"+dataset.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = performRequest(testRouter, http.MethodPatch, "/api/datasets/"+dataset.ID, bytes.NewReader(body))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDatasetInvalidID(t *testing.T) {
	w := performRequest(testRouter, http.MethodDelete, "/api/datasets/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDatasetDataSubResource(t *testing.T) {
	dataset := createDatasetViaAPI(t, "records")
	record := addRecordViaAPI(t, dataset.ID, 25.3)
	assert.NotEmpty(t, record.ID)
	assert.Equal(t, dataset.ID, record.DatasetID)

	w := performRequest(testRouter, http.MethodGet, "/api/datasets/"+dataset.ID+"/data", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var records []entity.DataRecord
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
	assert.Len(t, records, 1)
	assert.Equal(t, 25.3, records[0].MeanTemp)

	// 部分更新只动给出的字段
	body, _ := json.Marshal(map[string]interface{}{"mean_temp": 19.1})
	w = performRequest(testRouter, http.MethodPatch,
		fmt.Sprintf("/api/datasets/%s/data/%s", dataset.ID, record.ID), bytes.NewReader(body))
	assert.Equal(t, http.StatusOK, w.Code)
	var patched entity.DataRecord
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &patched))
	assert.Equal(t, 19.1, patched.MeanTemp)
	assert.Equal(t, record.Hour, patched.Hour)

	w = performRequest(testRouter, http.MethodDelete,
		fmt.Sprintf("/api/datasets/%s/data/%s", dataset.ID, record.ID), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = performRequest(testRouter, http.MethodGet, "/api/datasets/"+dataset.ID+"/data", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	records = nil
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
	assert.Empty(t, records)
}

func TestAddDataValidation(t *testing.T) {
	dataset := createDatasetViaAPI(t, "validation")

	// month 超界
	body, _ := json.Marshal(map[string]interface{}{
		"lat": 0.0, "long": 0.0, "alt": 0.0,
		"hour": 12, "month": 13, "day": 1, "mean_temp": 20.0,
	})
	w := performRequest(testRouter, http.MethodPost, "/api/datasets/"+dataset.ID+"/data", bytes.NewReader(body))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAddDataUnknownDataset(t *testing.T) {
	body, _ := json.Marshal(map[string]interface{}{
		"lat": 0.0, "long": 0.0, "alt": 0.0,
		"hour": 12, "month": 1, "day": 1, "mean_temp": 20.0,
	})
	w := performRequest(testRouter, http.MethodPost,
		"/api/datasets/0b6f3c9e-6f9d-4f40-9f51-0a4c8b1a2d33/data", bytes.NewReader(body))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUploadDataset(t *testing.T) {
	csvBody := []byte("lat,long,alt,hour,month,day,mean_temp\n-23.5,-46.6,760,12,1,15,25.3\n")
	w := performMultipartUpload(t, testRouter, "/api/datasets/upload", "inmet.csv", csvBody,
		map[string]string{"description": "upload test"})
	assert.Equal(t, http.StatusCreated, w.Code)

	var dataset entity.Dataset
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &dataset))
	assert.NotEmpty(t, dataset.ID)
	t.Cleanup(func() {
		performRequest(testRouter, http.MethodDelete, "/api/datasets/"+dataset.ID, nil)
	})

	records := fetchRecords(t, dataset.ID)
	assert.Len(t, records, 1)
	assert.Equal(t, 25.3, records[0].MeanTemp)
}

func TestUploadDatasetBadHeader(t *testing.T) {
	w := performMultipartUpload(t, testRouter, "/api/datasets/upload", "bad.csv",
		[]byte("a,b,c\n1,2,3\n"), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func fetchRecords(t *testing.T, datasetID string) []entity.DataRecord {
	t.Helper()
	w := performRequest(testRouter, http.MethodGet, "/api/datasets/"+datasetID+"/data", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var records []entity.DataRecord
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
	return records
}
