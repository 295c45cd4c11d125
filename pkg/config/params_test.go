package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateParamRenamesKey(t *testing.T) {
	key, value := ValidateParam("weight_decay", 0.05)
	assert.Equal(t, "adam_weight_decay", key)
	assert.Equal(t, 0.05, value)
}

func TestValidateParamRemapsValue(t *testing.T) {
	key, value := ValidateParam("optimizer", "8Bit Adam")
	assert.Equal(t, "optimizer", key)
	assert.Equal(t, "8bit AdamW", value)

	key, value = ValidateParam("save_safetensors", false)
	assert.Equal(t, "save_safetensors", key)
	assert.Equal(t, true, value)
}

func TestValidateParamRenamesKeyAndValue(t *testing.T) {
	key, value := ValidateParam("deis_train_scheduler", true)
	assert.Equal(t, "noise_scheduler", key)
	assert.Equal(t, "DDPM", value)
}

func TestValidateParamPassesUnknownThrough(t *testing.T) {
	key, value := ValidateParam("num_train_epochs", 100.0)
	assert.Equal(t, "num_train_epochs", key)
	assert.Equal(t, 100.0, value)

	key, value = ValidateParam("optimizer", "Lion")
	assert.Equal(t, "optimizer", key)
	assert.Equal(t, "Lion", value)
}

func TestValidateParamIdempotent(t *testing.T) {
	cases := []struct {
		key   string
		value interface{}
	}{
		{"weight_decay", 0.05},
		{"deis_train_scheduler", true},
		{"optimizer", "8Bit Adam"},
		{"save_safetensors", false},
		{"attention", "xformers"},
	}
	for _, tc := range cases {
		key1, value1 := ValidateParam(tc.key, tc.value)
		key2, value2 := ValidateParam(key1, value1)
		assert.Equal(t, key1, key2, "key %s not stable", tc.key)
		assert.Equal(t, value1, value2, "value for %s not stable", tc.key)
	}
}

func TestLoadParamsStripsLegacyPrefix(t *testing.T) {
	cfg := Defaults()
	err := cfg.LoadParams(map[string]interface{}{
		"db_num_train_epochs": 150.0,
	})
	require.NoError(t, err)
	assert.Equal(t, 150, cfg.NumTrainEpochs)
}

func TestLoadParamsMigratesDeisScheduler(t *testing.T) {
	cfg := Defaults()
	err := cfg.LoadParams(map[string]interface{}{
		"deis_train_scheduler": true,
	})
	require.NoError(t, err)
	assert.Equal(t, "DDPM", cfg.NoiseScheduler)
}

func TestLoadParamsDropsUnmappedLegacyValue(t *testing.T) {
	// deis_train_scheduler=false renames to noise_scheduler but the table
	// only remaps the true value; the stale bool must not abort the load.
	cfg := Defaults()
	err := cfg.LoadParams(map[string]interface{}{
		"deis_train_scheduler": false,
		"train_batch_size":     2.0,
	})
	require.NoError(t, err)
	assert.Equal(t, "DDPM", cfg.NoiseScheduler)
	assert.Equal(t, 2, cfg.TrainBatchSize)
}

func TestLoadParamsReplacesFlashAttention(t *testing.T) {
	cfg := Defaults()
	err := cfg.LoadParams(map[string]interface{}{
		"attention": "flash_attention",
	})
	require.NoError(t, err)
	attentions := ListAttentions()
	assert.Equal(t, attentions[len(attentions)-1], cfg.Attention)
}

func TestLoadParamsIgnoresUnknownKeys(t *testing.T) {
	cfg := Defaults()
	err := cfg.LoadParams(map[string]interface{}{
		"some_removed_setting": 42.0,
	})
	require.NoError(t, err)
}

func TestLoadParamsCoercesNumbers(t *testing.T) {
	cfg := Defaults()
	err := cfg.LoadParams(map[string]interface{}{
		"train_batch_size": 4.0,
		"learning_rate":    2e-6,
		"seed":             99.0,
	})
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.TrainBatchSize)
	assert.Equal(t, 2e-6, cfg.LearningRate)
	assert.Equal(t, int64(99), cfg.Seed)
}

func TestLoadParamsClampsToBounds(t *testing.T) {
	cfg := Defaults()
	err := cfg.LoadParams(map[string]interface{}{
		"num_train_epochs": 999999.0,
		"lora_unet_rank":   1.0,
	})
	require.NoError(t, err)
	assert.Equal(t, 10000, cfg.NumTrainEpochs)
	assert.Equal(t, 2, cfg.LoraUnetRank)
}

func TestLoadParamsSetsOptionalFields(t *testing.T) {
	cfg := Defaults()
	err := cfg.LoadParams(map[string]interface{}{
		"train_data_dir": "/data/images",
		"snr_gamma":      nil,
	})
	require.NoError(t, err)
	require.NotNil(t, cfg.TrainDataDir)
	assert.Equal(t, "/data/images", *cfg.TrainDataDir)
	assert.Nil(t, cfg.SnrGamma)
}

func TestLoadParamsUpgradesSchedulerAndResaves(t *testing.T) {
	modelsPath := t.TempDir()
	cfg, err := New("upgrade-test", WithModelsPath(modelsPath))
	require.NoError(t, err)

	err = cfg.LoadParams(map[string]interface{}{
		"scheduler": "unipc",
	})
	require.NoError(t, err)
	assert.Equal(t, "UniPCMultistep", cfg.Scheduler)

	// swap triggers an immediate re-save so the file on disk converges
	data, err := os.ReadFile(filepath.Join(cfg.ModelDir, ConfigFileName))
	require.NoError(t, err)
	var onDisk map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &onDisk))
	assert.Equal(t, "UniPCMultistep", onDisk["scheduler"])
}

func TestLoadParamsSchedulerAlreadyCurrent(t *testing.T) {
	cfg := Defaults()
	err := cfg.LoadParams(map[string]interface{}{
		"scheduler": "DDIM",
	})
	require.NoError(t, err)
	assert.Equal(t, "DDIM", cfg.Scheduler)
}

func TestGet(t *testing.T) {
	cfg := Defaults()

	value, ok := cfg.Get("optimizer")
	require.True(t, ok)
	assert.Equal(t, "8bit AdamW", value)

	value, ok = cfg.Get("mixed_precision")
	require.True(t, ok)
	assert.Equal(t, "no", value)

	value, ok = cfg.Get("checkpoint")
	require.True(t, ok)
	assert.Nil(t, value)

	_, ok = cfg.Get("no_such_key")
	assert.False(t, ok)
}
