package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/sirupsen/logrus"
)

// ControlNetConfig is the reduced schema used by Fine-Tune and ControlNet
// runs. It shares the model directory with the main config but persists
// under its own prefix.
type ControlNetConfig struct {
	ConfigPrefix              string   `json:"config_prefix"`
	AdamBeta1                 float64  `json:"adam_beta1"`
	AdamBeta2                 float64  `json:"adam_beta2"`
	AdamEpsilon               float64  `json:"adam_epsilon"`
	AdamWeightDecay           float64  `json:"adam_weight_decay"`
	Attention                 string   `json:"attention"`
	CacheLatents              bool     `json:"cache_latents"`
	CenterCrop                bool     `json:"center_crop"`
	CheckpointsTotalLimit     *int     `json:"checkpoints_total_limit"`
	ControlnetModelNameOrPath *string  `json:"controlnet_model_name_or_path"`
	Epoch                     int      `json:"epoch"`
	GradientAccumulationSteps int      `json:"gradient_accumulation_steps"`
	GradientCheckpointing     bool     `json:"gradient_checkpointing"`
	GradientSetToNone         bool     `json:"gradient_set_to_none"`
	GraphSmoothing            float64  `json:"graph_smoothing"`
	InputPertubation          float64  `json:"input_pertubation"`
	LearningRate              float64  `json:"learning_rate"`
	LifetimeRevision          int      `json:"lifetime_revision"`
	LocalRank                 int      `json:"local_rank"`
	LrNumCycles               int      `json:"lr_num_cycles"`
	LrPower                   float64  `json:"lr_power"`
	LrScheduler               string   `json:"lr_scheduler"`
	LrWarmupSteps             int      `json:"lr_warmup_steps"`
	MaxGradNorm               float64  `json:"max_grad_norm"`
	MaxTrainSamples           *int     `json:"max_train_samples"`
	MixedPrecision            *string  `json:"mixed_precision"`
	ModelDir                  string   `json:"model_dir"`
	ModelName                 string   `json:"model_name"`
	NumTrainEpochs            int      `json:"num_train_epochs"`
	NumSaveSamples            int      `json:"num_save_samples"`
	OffsetNoise               float64  `json:"offset_noise"`
	Optimizer                 string   `json:"optimizer"`
	PretrainedModelNameOrPath *string  `json:"pretrained_model_name_or_path"`
	ProportionEmptyPrompts    float64  `json:"proportion_empty_prompts"`
	RandomFlip                bool     `json:"random_flip"`
	Resolution                int      `json:"resolution"`
	SaveCkptDuring            bool     `json:"save_ckpt_during"`
	SaveEmbeddingEvery        int      `json:"save_embedding_every"`
	SavePreviewEvery          int      `json:"save_preview_every"`
	Snapshot                  *string  `json:"snapshot"`
	ScaleLr                   bool     `json:"scale_lr"`
	Seed                      *int64   `json:"seed"`
	SnrGamma                  *float64 `json:"snr_gamma"`
	Src                       string   `json:"src"`
	TrainBatchSize            int      `json:"train_batch_size"`
	TrainDataDir              *string  `json:"train_data_dir"`
	UseEma                    bool     `json:"use_ema"`
	UseDirTags                bool     `json:"use_dir_tags"`
	V2                        bool     `json:"v2"`
}

// ControlNetDefaults returns a ControlNet config with every field at its
// default value.
func ControlNetDefaults() *ControlNetConfig {
	snrGamma := 5.0
	return &ControlNetConfig{
		ConfigPrefix:              "finetune",
		AdamBeta1:                 0.9,
		AdamBeta2:                 0.999,
		AdamEpsilon:               1e-8,
		AdamWeightDecay:           1e-2,
		Attention:                 "xformers",
		CacheLatents:              true,
		Epoch:                     100,
		GradientAccumulationSteps: 1,
		GraphSmoothing:            0.1,
		InputPertubation:          0.1,
		LearningRate:              1e-5,
		LocalRank:                 -1,
		LrNumCycles:               1,
		LrPower:                   1.0,
		LrScheduler:               "linear_with_warmup",
		LrWarmupSteps:             500,
		MaxGradNorm:               1.0,
		ModelDir:                  "sd-model",
		ModelName:                 "sd",
		NumTrainEpochs:            100,
		NumSaveSamples:            4,
		Optimizer:                 "adamw",
		Resolution:                512,
		SaveCkptDuring:            true,
		SaveEmbeddingEvery:        25,
		SavePreviewEvery:          5,
		SnrGamma:                  &snrGamma,
	}
}

func (c *ControlNetConfig) fileName() string {
	prefix := c.ConfigPrefix
	if prefix == "" {
		prefix = "finetune"
	}
	return prefix + "_config.json"
}

// Save writes the config to <model_dir>/<prefix>_config.json.
func (c *ControlNetConfig) Save() error {
	if c.ModelDir == "" {
		return fmt.Errorf("config has no model directory")
	}
	c.ModelDir = normalizePathSeps(c.ModelDir)
	if err := os.MkdirAll(c.ModelDir, 0o755); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(filepath.Join(c.ModelDir, c.fileName()), data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

var controlNetFieldIndex = buildJSONFieldIndex(reflect.TypeOf(ControlNetConfig{}))

// LoadParams applies a key/value dictionary onto the config through the same
// migration table the main config uses. Unknown keys are ignored.
func (c *ControlNetConfig) LoadParams(params map[string]interface{}) error {
	for key, value := range params {
		key = strings.Replace(key, "db_", "", 1)
		newKey, newValue := ValidateParam(key, value)
		i, ok := controlNetFieldIndex[newKey]
		if !ok {
			continue
		}
		field := reflect.ValueOf(c).Elem().Field(i)
		if err := assignValue(field, newKey, newValue, nil); err != nil {
			if newKey != key {
				if DebugLog != nil {
					DebugLog("dropping unmapped legacy value for %s: %v", key, err)
				}
				continue
			}
			return err
		}
	}
	return nil
}

// ControlNetFromFile loads a ControlNet config from modelDir. File and parse
// errors are logged and reported as a nil config.
func ControlNetFromFile(modelDir string) (*ControlNetConfig, error) {
	cfg := ControlNetDefaults()
	params, err := readParams(filepath.Join(modelDir, cfg.fileName()))
	if err != nil {
		logrus.Errorf("exception loading finetune config: %v", err)
		return nil, err
	}
	if err := cfg.LoadParams(params); err != nil {
		logrus.Errorf("exception loading finetune config: %v", err)
		return nil, err
	}
	cfg.ModelDir = modelDir
	return cfg, nil
}
