package v1_test

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/fiap-pos-5mlet-group-114/tech-challenge-3/config"
	"github.com/fiap-pos-5mlet-group-114/tech-challenge-3/router"
)

var testRouter *gin.Engine

func TestMain(m *testing.M) {
	tmpDir, err := os.MkdirTemp("", "handler_test_*")
	if err != nil {
		panic(err)
	}

	// 测试用临时 sqlite 数据库与制品目录
	config.AppConfig = &config.Config{
		DB: config.DBConfig{Driver: "sqlite", Path: filepath.Join(tmpDir, "test.db")},
		Artifacts: config.ArtifactsConfig{
			ModelsRoot:   filepath.Join(tmpDir, "models"),
			DatasetsRoot: filepath.Join(tmpDir, "datasets"),
		},
		Log: config.LogConfig{Path: filepath.Join(tmpDir, "logs")},
	}
	config.ApplyDefaults(config.AppConfig)

	if err := config.InitDB(); err != nil {
		panic(err)
	}
	if sqlDB, err := config.DB.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}

	// 设置 Gin 为测试模式
	gin.SetMode(gin.TestMode)
	testRouter = router.SetupRouter()

	code := m.Run()
	_ = os.RemoveAll(tmpDir)
	os.Exit(code)
}

// performRequest 执行请求的辅助函数
func performRequest(r http.Handler, method, path string, body io.Reader) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func performMultipartUpload(t *testing.T, r http.Handler, path string, fileName string, fileBody []byte, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		t.Fatalf("create multipart file failed: %v", err)
	}
	if _, err := part.Write(fileBody); err != nil {
		t.Fatalf("write multipart file failed: %v", err)
	}
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatalf("write multipart field failed: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer failed: %v", err)
	}

	req, _ := http.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
