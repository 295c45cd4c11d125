package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndReloadRoundTrip(t *testing.T) {
	modelsPath := t.TempDir()

	cfg, err := New("test model", WithModelsPath(modelsPath), WithScheduler("DDIM"))
	require.NoError(t, err)
	assert.Equal(t, "test model", cfg.ModelName)

	cfg.NumTrainEpochs = 250
	cfg.TrainLora = true
	cfg.LearningRate = 3e-6
	trainDataDir := "/data/train"
	cfg.TrainDataDir = &trainDataDir
	cfg.Revision = 3

	require.NoError(t, cfg.Save(false))

	loaded, err := FromFile("test model", WithModelsPath(modelsPath))
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestSaveBackupWritesRevisionStampedCopy(t *testing.T) {
	modelsPath := t.TempDir()

	cfg, err := New("backup-model", WithModelsPath(modelsPath))
	require.NoError(t, err)
	cfg.Revision = 7

	require.NoError(t, cfg.Save(true))

	backupFile := filepath.Join(cfg.ModelDir, "backups", "db_config_7.json")
	_, err = os.Stat(backupFile)
	require.NoError(t, err)

	// the primary config file is untouched by a backup save
	_, err = os.Stat(filepath.Join(cfg.ModelDir, ConfigFileName))
	assert.True(t, os.IsNotExist(err))
}

func TestFromFileMissingModelReturnsNil(t *testing.T) {
	modelsPath := t.TempDir()

	cfg, err := FromFile("no-such-model", WithModelsPath(modelsPath))
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestFromFileCorruptJSONReturnsNil(t *testing.T) {
	modelsPath := t.TempDir()
	modelDir := filepath.Join(modelsPath, "broken")
	require.NoError(t, os.MkdirAll(modelDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(modelDir, ConfigFileName), []byte("{not json"), 0o644))

	cfg, err := FromFile("broken", WithModelsPath(modelsPath))
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestFromFileEmptyModelName(t *testing.T) {
	cfg, err := FromFile("")
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestFromFileMigratesLegacyConfig(t *testing.T) {
	modelsPath := t.TempDir()
	modelDir := filepath.Join(modelsPath, "legacy")
	require.NoError(t, os.MkdirAll(modelDir, 0o755))

	legacy := `{
		"deis_train_scheduler": true,
		"optimizer": "8Bit Adam",
		"db_train_batch_size": 2,
		"attention": "flash_attention"
	}`
	require.NoError(t, os.WriteFile(filepath.Join(modelDir, ConfigFileName), []byte(legacy), 0o644))

	cfg, err := FromFile("legacy", WithModelsPath(modelsPath))
	require.NoError(t, err)
	assert.Equal(t, "DDPM", cfg.NoiseScheduler)
	assert.Equal(t, "8bit AdamW", cfg.Optimizer)
	assert.Equal(t, 2, cfg.TrainBatchSize)
	attentions := ListAttentions()
	assert.Equal(t, attentions[len(attentions)-1], cfg.Attention)
}

func TestFromFileToleratesStaleDeisFlag(t *testing.T) {
	modelsPath := t.TempDir()
	modelDir := filepath.Join(modelsPath, "legacy-off")
	require.NoError(t, os.MkdirAll(modelDir, 0o755))

	legacy := `{
		"deis_train_scheduler": false,
		"num_train_epochs": 80
	}`
	require.NoError(t, os.WriteFile(filepath.Join(modelDir, ConfigFileName), []byte(legacy), 0o644))

	cfg, err := FromFile("legacy-off", WithModelsPath(modelsPath))
	require.NoError(t, err)
	assert.Equal(t, "DDPM", cfg.NoiseScheduler)
	assert.Equal(t, 80, cfg.NumTrainEpochs)
}

func TestLoadFromFileUpdatesInPlace(t *testing.T) {
	modelsPath := t.TempDir()

	cfg, err := New("refresh-model", WithModelsPath(modelsPath), WithScheduler("DDIM"))
	require.NoError(t, err)
	cfg.NumTrainEpochs = 42
	require.NoError(t, cfg.Save(false))

	cfg.NumTrainEpochs = 1
	require.NoError(t, cfg.Refresh())
	assert.Equal(t, 42, cfg.NumTrainEpochs)
}

func TestNewSanitizesModelName(t *testing.T) {
	modelsPath := t.TempDir()

	cfg, err := New("my/model:v1?", WithModelsPath(modelsPath))
	require.NoError(t, err)
	assert.Equal(t, "mymodelv1", cfg.ModelName)

	workingDir := filepath.Join(modelsPath, "mymodelv1", "working")
	info, err := os.Stat(workingDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, workingDir, cfg.PretrainedModelNameOrPath)
}

func TestNewRejectsEmptyModelName(t *testing.T) {
	_, err := New("///")
	assert.Error(t, err)
}

func TestPretrainedPath(t *testing.T) {
	modelsPath := t.TempDir()

	cfg, err := New("lora-model", WithModelsPath(modelsPath), WithSrc("/ckpt/base.safetensors"))
	require.NoError(t, err)

	assert.Equal(t, cfg.PretrainedModelNameOrPath, cfg.PretrainedPath())

	cfg.TrainLora = true
	assert.Equal(t, "/ckpt/base.safetensors", cfg.PretrainedPath())
}
