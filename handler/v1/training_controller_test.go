package v1_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fiap-pos-5mlet-group-114/tech-challenge-3/entity"
)

// waitForTraining 轮询流水直到占位被释放。
func waitForTraining(t *testing.T, historyID string) entity.TrainingHistory {
	t.Helper()

	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		w := performRequest(testRouter, http.MethodGet, "/api/training-history", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var histories []entity.TrainingHistory
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &histories))
		for _, h := range histories {
			if h.ID == historyID && h.DateEnd != nil {
				return h
			}
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("training %s did not finish in time", historyID)
	return entity.TrainingHistory{}
}

func TestTrainUnknownDataset(t *testing.T) {
	body, _ := json.Marshal(map[string]interface{}{
		"dataset_id": "5f1c8e2a-9b47-4d6e-8a3f-1c2d3e4f5a6b",
	})
	w := performRequest(testRouter, http.MethodPost, "/api/train", bytes.NewReader(body))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTrainMissingDatasetID(t *testing.T) {
	w := performRequest(testRouter, http.MethodPost, "/api/train", bytes.NewReader([]byte(`{}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTrainInsufficientData(t *testing.T) {
	dataset := createDatasetViaAPI(t, "too small")
	addRecordViaAPI(t, dataset.ID, 20.0)
	addRecordViaAPI(t, dataset.ID, 21.0)

	body, _ := json.Marshal(map[string]interface{}{"dataset_id": dataset.ID})
	w := performRequest(testRouter, http.MethodPost, "/api/train", bytes.NewReader(body))
	assert.Equal(t, http.StatusNotAcceptable, w.Code)

	var resp map[string]string
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Not enough samples in the dataset! 2 out of 5 required!", resp["message"])
}

func TestTrainFullFlow(t *testing.T) {
	dataset := createDatasetViaAPI(t, "full flow")
	for i := 0; i < 6; i++ {
		addRecordViaAPI(t, dataset.ID, 18.0+float64(i))
	}

	seen := map[string]bool{}
	w := performRequest(testRouter, http.MethodGet, "/api/models", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var before []entity.Model
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &before))
	for _, m := range before {
		seen[m.ID] = true
	}

	body, _ := json.Marshal(map[string]interface{}{
		"dataset_id": dataset.ID,
		"epochs":     2,
		"batch_size": 4,
	})
	w = performRequest(testRouter, http.MethodPost, "/api/train", bytes.NewReader(body))
	assert.Equal(t, http.StatusCreated, w.Code)

	var history entity.TrainingHistory
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	assert.NotEmpty(t, history.ID)
	assert.Nil(t, history.DateEnd, "the endpoint must return before the run ends")

	done := waitForTraining(t, history.ID)
	assert.Nil(t, done.ErrorMessage)
	assert.Len(t, []float64(done.EpochTrainLosses), 2)
	assert.Len(t, []float64(done.EpochValidationLosses), 2)

	// 训练产出的模型必须出现在列表里并且能做预测
	w = performRequest(testRouter, http.MethodGet, "/api/models", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var models []entity.Model
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &models))
	var modelID string
	for _, m := range models {
		if !seen[m.ID] {
			modelID = m.ID
		}
	}
	assert.NotEmpty(t, modelID, "training must register exactly one new model")

	predictBody, _ := json.Marshal(map[string]interface{}{
		"model_id": modelID,
		"params": []map[string]interface{}{
			{"lat": -23.5, "long": -46.6, "alt": 760.0, "hour": 12, "month": 1, "day": 15},
			{"lat": -22.9, "long": -43.2, "alt": 2.0, "hour": 3, "month": 7, "day": 1},
		},
	})
	w = performRequest(testRouter, http.MethodPost, "/api/predict", bytes.NewReader(predictBody))
	assert.Equal(t, http.StatusOK, w.Code)

	var preds []map[string]float64
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &preds))
	assert.Len(t, preds, 2)

	// 评估指标端点复用同一个数据集
	w = performRequest(testRouter, http.MethodGet,
		"/api/models/"+modelID+"/metrics?dataset_id="+dataset.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var metrics map[string]float64
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &metrics))
	assert.Contains(t, metrics, "mse")
	assert.Contains(t, metrics, "mae")
}
