package service

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/fiap-pos-5mlet-group-114/tech-challenge-3/config"
)

const (
	CheckpointExt  = "pth"
	DatasetFileExt = "csv"
)

var ErrArtifactNotFound = errors.New("artifact file not found")

// ArtifactStore 负责 uuid -> 文件路径 的映射与制品文件读写。
// 权重文件放 ModelsRoot/<id>.pth，原始数据集放 DatasetsRoot/<id>.csv。
type ArtifactStore struct {
	ModelsRoot   string
	DatasetsRoot string
}

func NewArtifactStore() *ArtifactStore {
	store := &ArtifactStore{
		ModelsRoot:   "assets/models",
		DatasetsRoot: "assets/datasets",
	}
	if config.AppConfig != nil {
		if root := strings.TrimSpace(config.AppConfig.Artifacts.ModelsRoot); root != "" {
			store.ModelsRoot = root
		}
		if root := strings.TrimSpace(config.AppConfig.Artifacts.DatasetsRoot); root != "" {
			store.DatasetsRoot = root
		}
	}
	return store
}

func (s *ArtifactStore) CheckpointPath(modelID string) string {
	return filepath.Join(s.ModelsRoot, fmt.Sprintf("%s.%s", modelID, CheckpointExt))
}

func (s *ArtifactStore) DatasetFilePath(datasetID string) string {
	return filepath.Join(s.DatasetsRoot, fmt.Sprintf("%s.%s", datasetID, DatasetFileExt))
}

// WriteCheckpoint 写入（覆盖）权重文件。训练循环每个 epoch 都会覆盖一次。
func (s *ArtifactStore) WriteCheckpoint(modelID string, data []byte) error {
	return writeArtifact(s.CheckpointPath(modelID), data)
}

func (s *ArtifactStore) ReadCheckpoint(modelID string) ([]byte, error) {
	return readArtifact(s.CheckpointPath(modelID), modelID)
}

func (s *ArtifactStore) WriteDatasetFile(datasetID string, data []byte) error {
	return writeArtifact(s.DatasetFilePath(datasetID), data)
}

func (s *ArtifactStore) ReadDatasetFile(datasetID string) ([]byte, error) {
	return readArtifact(s.DatasetFilePath(datasetID), datasetID)
}

func (s *ArtifactStore) HasCheckpoint(modelID string) bool {
	_, err := os.Stat(s.CheckpointPath(modelID))
	return err == nil
}

// RemoveDatasetFile 删除原始数据集文件。文件本来就不存在时不算错误，
// 删除元数据行和删除文件必须一起发生，否则启动对账会把孤儿文件当成新数据集。
func (s *ArtifactStore) RemoveDatasetFile(datasetID string) error {
	if err := os.Remove(s.DatasetFilePath(datasetID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove artifact failed: %w", err)
	}
	return nil
}

func writeArtifact(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create artifact directory failed: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write artifact failed: %w", err)
	}
	return nil
}

func readArtifact(path, id string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, id)
		}
		return nil, fmt.Errorf("read artifact failed: %w", err)
	}
	return data, nil
}

// AdoptedFile 启动对账时被收编的遗留文件。
type AdoptedFile struct {
	ID   string
	Path string
}

// DiscoverUntracked 扫描 dir 下扩展名为 ext 的文件，文件名不是合法 uuid 的
// 视为遗留文件：铸一个新 uuid 并原地改名成 <uuid>.<ext>。对已经是规范命名的
// 文件不做任何事，因此重复执行是幂等的。
func (s *ArtifactStore) DiscoverUntracked(dir, ext string) ([]AdoptedFile, error) {
	logger := serviceLogger().With("service", "ArtifactStore", "method", "DiscoverUntracked")

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan artifact directory failed: %w", err)
	}

	var adopted []AdoptedFile
	suffix := "." + ext
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), suffix) {
			continue
		}
		base := strings.TrimSuffix(entry.Name(), suffix)
		if isCanonicalUUID(base) {
			continue
		}

		id := uuid.NewString()
		oldPath := filepath.Join(dir, entry.Name())
		newPath := filepath.Join(dir, id+suffix)
		if err := os.Rename(oldPath, newPath); err != nil {
			return adopted, fmt.Errorf("adopt artifact %q failed: %w", entry.Name(), err)
		}
		logger.Info("adopted untracked artifact", "from", entry.Name(), "id", id)
		adopted = append(adopted, AdoptedFile{ID: id, Path: newPath})
	}
	return adopted, nil
}

// ListCanonical 返回 dir 下所有规范命名文件的 uuid。
func (s *ArtifactStore) ListCanonical(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan artifact directory failed: %w", err)
	}

	var ids []string
	suffix := "." + ext
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), suffix) {
			continue
		}
		base := strings.TrimSuffix(entry.Name(), suffix)
		if isCanonicalUUID(base) {
			ids = append(ids, base)
		}
	}
	return ids, nil
}

// isCanonicalUUID 要求解析后再格式化能还原原串，排除大写或去横线变体
func isCanonicalUUID(s string) bool {
	parsed, err := uuid.Parse(s)
	if err != nil {
		return false
	}
	return parsed.String() == s
}
