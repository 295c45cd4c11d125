package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DebugLog, when set, receives verbose trace output from this package.
var DebugLog func(string, ...interface{})

// TrainingConfig is the full hyperparameter set for one model, persisted as
// db_config.json in the model directory. Field names on disk match the
// historical format, so configs written by older releases load unchanged
// (modulo the migrations in params.go).
type TrainingConfig struct {
	// General
	TrainMode           string `json:"train_mode"`
	ControlnetModelName string `json:"controlnet_model_name"`
	NumTrainEpochs      int    `json:"num_train_epochs"`
	TrainBatchSize      int    `json:"train_batch_size"`
	Resolution          int    `json:"resolution"`

	// Advanced
	GradientAccumulationSteps int    `json:"gradient_accumulation_steps"`
	SampleBatchSize           int    `json:"sample_batch_size"`
	PretrainedVaeNameOrPath   string `json:"pretrained_vae_name_or_path"`
	NoiseScheduler            string `json:"noise_scheduler"`
	TrainEMA                  bool   `json:"train_ema"`
	TrainLora                 bool   `json:"train_lora"`
	TrainOft                  bool   `json:"train_oft"`

	// Training data
	ConceptsList         []Concept `json:"concepts_list"`
	ConceptsPath         string    `json:"concepts_path"`
	DisableClassMatching bool      `json:"disable_class_matching"`
	TrainDataDir         *string   `json:"train_data_dir"`
	UseDirTags           bool      `json:"use_dir_tags"`

	// Performance
	Attention             string  `json:"attention"`
	MixedPrecision        *string `json:"mixed_precision"`
	MaxGradNorm           float64 `json:"max_grad_norm"`
	GradientCheckpointing bool    `json:"gradient_checkpointing"`
	GradientSetToNone     bool    `json:"gradient_set_to_none"`
	CacheLatents          bool    `json:"cache_latents"`
	CPUOnly               bool    `json:"cpu_only"`

	// Optimizer
	Optimizer       string  `json:"optimizer"`
	AdamBeta1       float64 `json:"adam_beta1"`
	AdamBeta2       float64 `json:"adam_beta2"`
	AdamEpsilon     float64 `json:"adam_epsilon"`
	AdamWeightDecay float64 `json:"adam_weight_decay"`

	// Learning rate
	LrScheduler         string  `json:"lr_scheduler"`
	LrWarmupSteps       int     `json:"lr_warmup_steps"`
	LearningRate        float64 `json:"learning_rate"`
	LearningRateTxt     float64 `json:"learning_rate_txt"`
	LearningRateLora    float64 `json:"learning_rate_lora"`
	LearningRateLoraTxt float64 `json:"learning_rate_lora_txt"`
	LearningRateMin     float64 `json:"learning_rate_min"`
	LrFactor            float64 `json:"lr_factor"`
	LrNumCycles         int     `json:"lr_num_cycles"`
	LrPower             float64 `json:"lr_power"`
	LrScalePos          float64 `json:"lr_scale_pos"`

	// Text encoder
	StopTextEncoder         float64 `json:"stop_text_encoder"`
	ClipSkip                int     `json:"clip_skip"`
	TencWeightDecay         float64 `json:"tenc_weight_decay"`
	TencGradClipNorm        float64 `json:"tenc_grad_clip_norm"`
	TrainUnfrozen           bool    `json:"train_unfrozen"`
	FreezeClipNormalization bool    `json:"freeze_clip_normalization"`

	// LoRA
	LoraModelName string  `json:"lora_model_name"`
	LoraTxtRank   int     `json:"lora_txt_rank"`
	LoraTxtWeight float64 `json:"lora_txt_weight"`
	LoraUnetRank  int     `json:"lora_unet_rank"`
	LoraWeight    float64 `json:"lora_weight"`

	// OFT
	OftModelName string  `json:"oft_model_name"`
	OftEps       float64 `json:"oft_eps"`
	OftRank      int     `json:"oft_rank"`
	OftCoft      bool    `json:"oft_coft"`

	// Dreambooth
	PriorLossScale         bool    `json:"prior_loss_scale"`
	PriorLossTarget        int     `json:"prior_loss_target"`
	PriorLossWeight        float64 `json:"prior_loss_weight"`
	PriorLossWeightMin     float64 `json:"prior_loss_weight_min"`
	ProportionEmptyPrompts float64 `json:"proportion_empty_prompts"`
	SplitLoss              bool    `json:"split_loss"`
	TrainUnet              bool    `json:"train_unet"`

	// Model bookkeeping, not shown in the UI
	Epoch                     int    `json:"epoch"`
	LifetimeRevision          int    `json:"lifetime_revision"`
	ModelDir                  string `json:"model_dir"`
	ModelName                 string `json:"model_name"`
	ModelPath                 string `json:"model_path"`
	PretrainedModelNameOrPath string `json:"pretrained_model_name_or_path"`
	Revision                  int    `json:"revision"`
	Scheduler                 string `json:"scheduler"`
	Src                       string `json:"src"`
	V2                        bool   `json:"v2"`

	// Preprocessing
	DynamicImgNorm   bool    `json:"dynamic_img_norm"`
	Hflip            bool    `json:"hflip"`
	InputPertubation float64 `json:"input_pertubation"`
	OffsetNoise      float64 `json:"offset_noise"`
	MaxTokenLength   int     `json:"max_token_length"`
	PadTokens        bool    `json:"pad_tokens"`
	ShuffleTags      bool    `json:"shuffle_tags"`
	StrictTokens     bool    `json:"strict_tokens"`

	// Samples, saving
	Checkpoint            *string  `json:"checkpoint"`
	CheckpointsTotalLimit *int     `json:"checkpoints_total_limit"`
	MaxTrainSamples       *int     `json:"max_train_samples"`
	DisableLogging        bool     `json:"disable_logging"`
	GraphSmoothing        float64  `json:"graph_smoothing"`
	NumSaveSamples        int      `json:"num_save_samples"`
	SanityPrompt          string   `json:"sanity_prompt"`
	SaveOnCancel          bool     `json:"save_on_cancel"`
	SaveEmbeddingEvery    int      `json:"save_embedding_every"`
	SavePreviewEvery      int      `json:"save_preview_every"`
	Seed                  int64    `json:"seed"`
	SimulateTraining      bool     `json:"simulate_training"`
	SnrGamma              *float64 `json:"snr_gamma"`
	Tomesd                bool     `json:"tomesd"`
}

// Defaults returns a config with every field at its default value, not yet
// bound to a model directory.
func Defaults() *TrainingConfig {
	mixedPrecision := "no"
	checkpointsTotalLimit := 0
	snrGamma := 5.0
	return &TrainingConfig{
		TrainMode:      "Default",
		NumTrainEpochs: 100,
		TrainBatchSize: 1,
		Resolution:     512,

		GradientAccumulationSteps: 1,
		SampleBatchSize:           1,
		NoiseScheduler:            "DDPM",

		ConceptsList: []Concept{},

		Attention:             "xformers",
		MixedPrecision:        &mixedPrecision,
		MaxGradNorm:           1.0,
		GradientCheckpointing: true,
		GradientSetToNone:     true,
		CacheLatents:          true,

		Optimizer:       "8bit AdamW",
		AdamBeta1:       0.9,
		AdamBeta2:       0.999,
		AdamEpsilon:     1e-8,
		AdamWeightDecay: 0.01,

		LrScheduler:         "constant_with_warmup",
		LrWarmupSteps:       500,
		LearningRate:        5e-6,
		LearningRateTxt:     5e-6,
		LearningRateLora:    5e-5,
		LearningRateLoraTxt: 5e-5,
		LearningRateMin:     1e-6,
		LrFactor:            0.5,
		LrNumCycles:         1,
		LrPower:             1.0,
		LrScalePos:          0.5,

		StopTextEncoder:  1.0,
		ClipSkip:         1,
		TencWeightDecay:  0.01,
		TencGradClipNorm: 0.0,
		TrainUnfrozen:    true,

		LoraTxtRank:   4,
		LoraTxtWeight: 1.0,
		LoraUnetRank:  4,
		LoraWeight:    1.0,

		OftEps:  0.1,
		OftRank: 4,
		OftCoft: true,

		PriorLossTarget:    100,
		PriorLossWeight:    0.75,
		PriorLossWeightMin: 0.1,
		SplitLoss:          true,
		TrainUnet:          true,

		Scheduler: "ddim",

		InputPertubation: 0.1,
		MaxTokenLength:   75,
		PadTokens:        true,
		ShuffleTags:      true,

		CheckpointsTotalLimit: &checkpointsTotalLimit,
		GraphSmoothing:        0.1,
		NumSaveSamples:        4,
		SaveOnCancel:          true,
		SaveEmbeddingEvery:    25,
		SavePreviewEvery:      5,
		Seed:                  420420,
		SnrGamma:              &snrGamma,
		Tomesd:                true,
	}
}

// Option overrides a default when constructing a config.
type Option func(*options)

type options struct {
	modelsPath string
	resolution int
	v2         *bool
	src        string
	scheduler  string
	params     map[string]interface{}
}

// WithModelsPath overrides the models root the config is stored under.
func WithModelsPath(path string) Option {
	return func(o *options) { o.modelsPath = path }
}

// WithResolution sets the max input resolution.
func WithResolution(resolution int) Option {
	return func(o *options) { o.resolution = resolution }
}

// WithV2 marks the base model as a V2 checkpoint.
func WithV2(v2 bool) Option {
	return func(o *options) { o.v2 = &v2 }
}

// WithSrc records the source checkpoint the model was extracted from.
func WithSrc(src string) Option {
	return func(o *options) { o.src = src }
}

// WithScheduler sets the inference scheduler name.
func WithScheduler(scheduler string) Option {
	return func(o *options) { o.scheduler = scheduler }
}

// WithParams merges arbitrary key/value overrides through the same loader
// used when reading configs from disk, migrations included.
func WithParams(params map[string]interface{}) Option {
	return func(o *options) { o.params = params }
}

// SanitizeName strips characters that cannot appear in a model directory
// name.
func SanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if r == '.' || r == '_' || r == '-' || r == ' ' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// New builds a config for modelName from defaults plus overrides, and
// creates the model's working directory under the models path.
func New(modelName string, opts ...Option) (*TrainingConfig, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	cfg := Defaults()

	modelName = SanitizeName(modelName)
	if modelName == "" {
		return nil, fmt.Errorf("invalid model name")
	}

	modelsPath := o.modelsPath
	if modelsPath == "" {
		modelsPath = DefaultModelsPath()
	}
	if DebugLog != nil {
		DebugLog("using models path: %s", modelsPath)
	}

	modelDir := filepath.Join(modelsPath, modelName)
	workingDir := filepath.Join(modelDir, "working")
	if err := os.MkdirAll(workingDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create working directory: %w", err)
	}

	cfg.ModelName = modelName
	cfg.ModelDir = modelDir
	cfg.PretrainedModelNameOrPath = workingDir

	if !cfg.TrainLora {
		cfg.LoraModelName = ""
	}

	if o.resolution != 0 {
		cfg.Resolution = o.resolution
	}
	if o.v2 != nil {
		cfg.V2 = *o.v2
	}
	if o.src != "" {
		cfg.Src = o.src
	}
	if o.scheduler != "" {
		cfg.Scheduler = o.scheduler
	}
	if o.params != nil {
		if err := cfg.LoadParams(o.params); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// PretrainedPath returns the checkpoint path training should start from.
// LoRA runs train on top of the source checkpoint.
func (c *TrainingConfig) PretrainedPath() string {
	if c.TrainLora {
		return c.Src
	}
	return c.PretrainedModelNameOrPath
}

// Concepts reconciles the configured concepts into exactly the requested
// count. Concepts come from the external concepts file when one is set and
// no fixed count is requested, otherwise from the stored list. Invalid
// entries are dropped, empty class dirs are assigned under the model dir,
// and the result is padded with empty concepts or truncated so that
// len(result) == required whenever required >= 0.
func (c *TrainingConfig) Concepts(required int) []Concept {
	var source []Concept
	if c.ConceptsPath != "" && required < 0 {
		loaded, err := ConceptsFromFile(c.ConceptsPath)
		if err != nil {
			if DebugLog != nil {
				DebugLog("failed to load concepts from %s: %v", c.ConceptsPath, err)
			}
			source = c.ConceptsList
		} else {
			source = loaded
		}
	} else {
		source = c.ConceptsList
	}

	concepts := []Concept{}
	for _, concept := range source {
		if !concept.IsValid() {
			continue
		}
		if concept.ClassDataDir == "" {
			concept.ClassDataDir = filepath.Join(c.ModelDir, fmt.Sprintf("classifiers_%d", len(concepts)))
		}
		concepts = append(concepts, concept)
	}

	if required < 0 {
		return concepts
	}
	for len(concepts) < required {
		concepts = append(concepts, NewConcept())
	}
	return concepts[:required]
}
