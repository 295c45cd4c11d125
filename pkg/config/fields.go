package config

// FieldMeta carries the UI and validation metadata for one config key:
// display title, help text, group heading, numeric bounds and step size,
// and the allowed choices for enumerated fields.
type FieldMeta struct {
	Key          string
	Title        string
	Description  string
	Group        string
	Min          *float64
	Max          *float64
	Step         float64
	Choices      []string
	CustomType   string
	Advanced     bool
	ToggleFields []string
}

func bound(v float64) *float64 {
	return &v
}

// Fields lists every UI-visible config key in display order. Keys without an
// entry here (the model bookkeeping fields) are persisted but never shown.
var Fields = []FieldMeta{
	// General
	{Key: "train_mode", Title: "Train Mode", Description: "The training mode to use.", Group: "General",
		Choices: []string{"Default", "Fine-Tune", "ControlNet"}},
	{Key: "controlnet_model_name", Title: "Controlnet Model", Description: "[ControlNet] Controlnet model name.",
		Group: "General", CustomType: "controlnet_modelSelect"},
	{Key: "num_train_epochs", Title: "Epochs", Description: "Number of training epochs.", Group: "General",
		Min: bound(1), Max: bound(10000)},
	{Key: "train_batch_size", Title: "Batch Size", Description: "Batch size for the training dataloader.",
		Group: "General", Min: bound(1), Max: bound(1000)},
	{Key: "resolution", Title: "Max Resolution", Description: "Maximum resolution for input images.",
		Group: "General", Min: bound(8), Max: bound(4096), Step: 8},

	// Advanced
	{Key: "gradient_accumulation_steps", Title: "Grad Steps",
		Description: "Number of update steps to accumulate before performing a backward/update pass.",
		Group:       "Advanced", Min: bound(1), Max: bound(1000)},
	{Key: "sample_batch_size", Title: "Sample Batch Size", Description: "Sample batch size.", Group: "Advanced",
		Min: bound(1), Max: bound(1000)},
	{Key: "pretrained_vae_name_or_path", Title: "Custom VAE",
		Description: "Custom VAE to use for training and image generation.", Group: "Advanced",
		CustomType: "vae_modelSelect"},
	{Key: "noise_scheduler", Title: "Noise Scheduler", Description: "Noise scheduler used during training.",
		Group: "Advanced", Choices: []string{"DDPM", "DDIM", "PNDM"}},
	{Key: "train_ema", Title: "Use EMA",
		Description: "[Default, Fine-Tune] Whether to use Estimated Moving Averages when training.",
		Group:       "Advanced"},
	{Key: "train_lora", Title: "Use LoRA", Description: "[Default, Fine-Tune] Use LoRA.", Group: "Advanced",
		Advanced:     true,
		ToggleFields: []string{"lora_model_name", "lora_unet_rank", "lora_weight", "lora_txt_weight", "lora_txt_rank"}},
	{Key: "train_oft", Title: "Use OFT", Description: "[Default, Fine-Tune] Use OFT.", Group: "Advanced"},

	// Training data
	{Key: "concepts_list", Title: "Concepts List", Description: "[Default] Concepts list.", Group: "Training Data",
		CustomType: "ConceptsList"},
	{Key: "concepts_path", Title: "Concepts Path", Description: "[Default] Path to a JSON concepts file.",
		Group: "Training Data", CustomType: "FileBrowser"},
	{Key: "disable_class_matching", Title: "Disable Class Matching", Description: "[Default] Disable class matching.",
		Group: "Training Data"},
	{Key: "train_data_dir", Title: "Train Data Directory",
		Description: "[Fine-Tune, ControlNet] A folder containing the training data.", Group: "Training Data",
		CustomType: "FileBrowser"},
	{Key: "use_dir_tags", Title: "Use Directory Tags",
		Description: "[Fine-Tune, ControlNet] Whether to use the directory name as the tag. Will be appended if not found in the caption.",
		Group:       "Training Data"},

	// Performance
	{Key: "attention", Title: "Attention", Description: "Attention model.", Group: "Performance",
		Choices: ListAttentions()},
	{Key: "mixed_precision", Title: "Mixed Precision", Description: "Whether to use mixed precision.",
		Group: "Performance", Choices: ListPrecisions()},
	{Key: "max_grad_norm", Title: "Max Grad Norm",
		Description: "Max gradient norm for clipping. Gradients exceeding this threshold are clipped to this value.",
		Group:       "Performance", Min: bound(0), Max: bound(1), Step: 0.01},
	{Key: "gradient_checkpointing", Title: "Gradient Checkpointing",
		Description: "Use gradient checkpointing to reduce VRAM usage at the cost of slower training speed.",
		Group:       "Performance"},
	{Key: "gradient_set_to_none", Title: "Gradient Set To None",
		Description: "Set gradients to None when zeroing to slightly improve training speed and reduce memory usage.",
		Group:       "Performance"},
	{Key: "cache_latents", Title: "Cache Latents",
		Description: "Caches latents to improve training speed, but slightly increases VRAM usage.",
		Group:       "Performance"},
	{Key: "cpu_only", Title: "CPU Only",
		Description: "Train using CPU only. Not recommended unless you've tried all other alternatives.",
		Group:       "Performance"},

	// Optimizer
	{Key: "optimizer", Title: "Optimizer", Description: "Optimizer.", Group: "Optimizer",
		Choices: ListOptimizers()},
	{Key: "adam_beta1", Title: "Adam Beta 1",
		Description: "The exponential decay rate for the first moment estimates in the Adam optimizer.",
		Group:       "Optimizer", Min: bound(0), Max: bound(1), Step: 0.01},
	{Key: "adam_beta2", Title: "Adam Beta 2",
		Description: "The exponential decay rate for the second-moment estimates in the Adam optimizer.",
		Group:       "Optimizer", Min: bound(0), Max: bound(1), Step: 0.001},
	{Key: "adam_epsilon", Title: "Adam Epsilon",
		Description: "A small constant for numerical stability in the Adam optimizer.",
		Group:       "Optimizer", Min: bound(1e-9), Max: bound(1e-7), Step: 1e-8},
	{Key: "adam_weight_decay", Title: "Adam Weight Decay",
		Description: "Weight decay coefficient used in the Adam optimizer to avoid overfitting.",
		Group:       "Optimizer", Min: bound(0.001), Max: bound(0.1), Step: 0.01},

	// Learning rate
	{Key: "lr_scheduler", Title: "Scheduler", Description: "Learning rate scheduler.", Group: "Learning Rate",
		Choices: ListSchedulers()},
	{Key: "lr_warmup_steps", Title: "LR Warmup Steps",
		Description: "Number of steps for the warmup in the lr scheduler.", Group: "Learning Rate",
		Min: bound(0), Max: bound(10000)},
	{Key: "learning_rate", Title: "Learning Rate", Description: "Initial learning rate.", Group: "Learning Rate",
		Min: bound(1e-7), Max: bound(1e-5), Step: 1e-6},
	{Key: "learning_rate_txt", Title: "Text Learning Rate", Description: "[Default] Text learning rate.",
		Group: "Learning Rate", Min: bound(1e-7), Max: bound(1e-5), Step: 1e-6},
	{Key: "learning_rate_lora", Title: "LoRA Learning Rate", Description: "[lora] LoRA learning rate.",
		Group: "Learning Rate", Min: bound(1e-6), Max: bound(1e-4), Step: 1e-5},
	{Key: "learning_rate_lora_txt", Title: "LoRA Text Learning Rate", Description: "[lora] LoRA txt learning rate.",
		Group: "Learning Rate", Min: bound(1e-6), Max: bound(1e-4), Step: 1e-5},
	{Key: "learning_rate_min", Title: "Minimum Learning Rate", Description: "Minimum learning rate.",
		Group: "Learning Rate", Min: bound(1e-7), Max: bound(1e-5), Step: 1e-6},
	{Key: "lr_factor", Title: "Factor", Description: "Learning rate factor.", Group: "Learning Rate",
		Min: bound(0), Max: bound(1), Step: 0.1},
	{Key: "lr_num_cycles", Title: "Cycles", Description: "Learning rate cycles.", Group: "Learning Rate",
		Min: bound(0), Max: bound(10)},
	{Key: "lr_power", Title: "Power", Description: "Learning rate power.", Group: "Learning Rate",
		Min: bound(0), Max: bound(1), Step: 0.1},
	{Key: "lr_scale_pos", Title: "Scale Position", Description: "Learning rate scale position.",
		Group: "Learning Rate", Min: bound(0), Max: bound(1), Step: 0.1},

	// Text encoder
	{Key: "stop_text_encoder", Title: "Txt Training Percent",
		Description: "[Default] Percentage of total training to train text encoder for.", Group: "Text Encoder",
		Min: bound(0), Max: bound(1), Step: 0.01},
	{Key: "clip_skip", Title: "Clip Skip", Description: "[Default] Number of CLIP normalization layers to skip.",
		Group: "Text Encoder", Min: bound(0), Max: bound(4)},
	{Key: "tenc_weight_decay", Title: "Tenc Weight Decay", Description: "[Default] Text encoder weight decay.",
		Group: "Text Encoder", Min: bound(0), Max: bound(1), Step: 0.01},
	{Key: "tenc_grad_clip_norm", Title: "Tenc Grad Clip Norm",
		Description: "[Default] Text encoder gradient clipping norm.", Group: "Text Encoder",
		Min: bound(0), Max: bound(1), Step: 0.01},
	{Key: "train_unfrozen", Title: "Train Unfrozen", Description: "[Default] Train unfrozen.", Group: "Text Encoder"},
	{Key: "freeze_clip_normalization", Title: "Freeze Clip Normalization",
		Description: "Freeze clip normalization.", Group: "Text Encoder"},

	// LoRA
	{Key: "lora_model_name", Title: "LoRA Model Name", Description: "[lora] LoRA model name.", Group: "LoRA",
		CustomType: "loras_modelSelect"},
	{Key: "lora_txt_rank", Title: "LoRA Text Rank", Description: "[lora] LoRA text rank.", Group: "LoRA",
		Min: bound(2), Max: bound(16)},
	{Key: "lora_txt_weight", Title: "LoRA Text Weight", Description: "[lora] LoRA text weight.", Group: "LoRA",
		Min: bound(-3), Max: bound(3), Step: 0.1},
	{Key: "lora_unet_rank", Title: "LoRA UNet Rank", Description: "[lora] LoRA UNet rank.", Group: "LoRA",
		Min: bound(2), Max: bound(16)},
	{Key: "lora_weight", Title: "LoRA Weight", Description: "[lora] LoRA weight.", Group: "LoRA",
		Min: bound(-3), Max: bound(3), Step: 0.1},

	// OFT
	{Key: "oft_model_name", Title: "OFT Model Name", Description: "[oft] OFT model name.", Group: "OFT",
		CustomType: "ofts_modelSelect"},
	{Key: "oft_eps", Title: "OFT Epsilon",
		Description: "[oft] The control strength of COFT. The freedom of rotation. Only has an effect when COFT is enabled.",
		Group:       "OFT", Min: bound(0), Max: bound(1), Step: 0.01},
	{Key: "oft_rank", Title: "OFT Rank",
		Description: "[oft] The factor to divide the orthogonal matrix to smaller blocks.", Group: "OFT",
		Min: bound(2), Max: bound(16)},
	{Key: "oft_coft", Title: "Use COFT", Description: "[oft] Whether to use the constrained variant of OFT.",
		Group: "OFT"},

	// Dreambooth
	{Key: "prior_loss_scale", Title: "Prior Loss Scale", Description: "[Default] Prior loss scale.",
		Group: "Dreambooth"},
	{Key: "prior_loss_target", Title: "Prior Loss Target", Description: "[Default] Prior loss target.",
		Group: "Dreambooth", Min: bound(0), Max: bound(1000)},
	{Key: "prior_loss_weight", Title: "Prior Loss Weight", Description: "[Default] Prior loss weight.",
		Group: "Dreambooth", Min: bound(0), Max: bound(1), Step: 0.1},
	{Key: "prior_loss_weight_min", Title: "Prior Loss Minimum", Description: "[Default] Minimum prior loss weight.",
		Group: "Dreambooth", Min: bound(0), Max: bound(1), Step: 0.1},
	{Key: "proportion_empty_prompts", Title: "Pct Empty Prompts",
		Description: "[ControlNet] Proportion of image prompts to be replaced with empty strings.",
		Group:       "Dreambooth", Min: bound(0), Max: bound(1), Step: 0.1},
	{Key: "split_loss", Title: "Split Loss", Description: "[Default] Split loss.", Group: "Dreambooth"},
	{Key: "train_unet", Title: "Train UNet", Description: "[Default] Train UNet.", Group: "Dreambooth"},

	// Preprocessing
	{Key: "dynamic_img_norm", Title: "Dynamic Image Normalization", Description: "Dynamic image normalization.",
		Group: "Preprocessing"},
	{Key: "hflip", Title: "Horizontal Flip", Description: "Randomly flip images horizontally.",
		Group: "Preprocessing"},
	{Key: "input_pertubation", Title: "Input Pertubation",
		Description: "Magnitude of random fluctuations applied to the input for data augmentation. Recommended value is 0.1.",
		Group:       "Preprocessing", Min: bound(0), Max: bound(1), Step: 0.1},
	{Key: "offset_noise", Title: "Offset Noise",
		Description: "Level of random noise added to the offset of the input, a form of regularization against overfitting.",
		Group:       "Preprocessing", Min: bound(0), Max: bound(1), Step: 0.1},
	{Key: "max_token_length", Title: "Max Token Length",
		Description: "Maximum number of tokens that can be processed in a single sequence.", Group: "Preprocessing",
		Min: bound(75), Max: bound(1000), Step: 75},
	{Key: "pad_tokens", Title: "Pad Tokens",
		Description: "Pad shorter sequences with special tokens to match the max token length.",
		Group:       "Preprocessing"},
	{Key: "shuffle_tags", Title: "Shuffle Tags",
		Description: "Randomize the order of tags, which can improve model generalization.", Group: "Preprocessing"},
	{Key: "strict_tokens", Title: "Strict Tokens",
		Description: "Follow a strict tokenization mode, which can be helpful for specific use cases but might limit the model's flexibility.",
		Group:       "Preprocessing"},

	// Saving
	{Key: "checkpoint", Title: "Snapshot",
		Description: "Resume training from a previous checkpoint. Use 'latest' for the latest checkpoint in the output directory, or specify a revision.",
		Group:       "Saving", CustomType: "snapshot_modelSelect"},
	{Key: "checkpoints_total_limit", Title: "Checkpoints Total Limit",
		Description: "[Fine-Tune] Max number of checkpoints to store.", Group: "Saving",
		Min: bound(0), Max: bound(100)},
	{Key: "max_train_samples", Title: "Max Train Samples",
		Description: "[Fine-Tune, ControlNet] Truncate the number of training examples to this value if set.",
		Group:       "Saving", Min: bound(0), Max: bound(10000)},
	{Key: "disable_logging", Title: "Disable Logging", Description: "Disable log parsing.", Group: "Saving"},
	{Key: "graph_smoothing", Title: "Graph Smoothing", Description: "The scale of graph smoothing.",
		Group: "Saving", Min: bound(0), Max: bound(1), Step: 0.1},
	{Key: "num_save_samples", Title: "Num Save Samples",
		Description: "[Fine-Tune, ControlNet] Number of samples to save.", Group: "Saving",
		Min: bound(0), Max: bound(1000)},
	{Key: "sanity_prompt", Title: "Sanity Prompt", Description: "Sanity prompt.", Group: "Saving"},
	{Key: "save_on_cancel", Title: "Save on Cancel", Description: "Save checkpoint when training is canceled.",
		Group: "Saving"},
	{Key: "save_embedding_every", Title: "Save Weights Frequency",
		Description: "Save a checkpoint of the training state every X epochs.", Group: "Saving",
		Min: bound(0), Max: bound(1000)},
	{Key: "save_preview_every", Title: "Save Preview Frequency", Description: "Save preview every.",
		Group: "Saving", Min: bound(0), Max: bound(1000)},
	{Key: "seed", Title: "Seed", Description: "Seed for reproducibility, sanity prompt.", Group: "Saving",
		Min: bound(-1), Max: bound(21474836147)},
	{Key: "simulate_training", Title: "Simulate Training", Description: "Simulate training.", Group: "Saving"},
	{Key: "snr_gamma", Title: "SNR Gamma",
		Description: "SNR weighting gamma to be used if rebalancing the loss. Recommended value is 5.0.",
		Group:       "Saving", Min: bound(0), Max: bound(10), Step: 0.1},
	{Key: "tomesd", Title: "Use TomeSD", Description: "Apply TomeSD when generating images.", Group: "Saving"},
}

var fieldIndex = func() map[string]*FieldMeta {
	idx := make(map[string]*FieldMeta, len(Fields))
	for i := range Fields {
		idx[Fields[i].Key] = &Fields[i]
	}
	return idx
}()

// FieldByKey returns the metadata for a key, or nil for hidden keys.
func FieldByKey(key string) *FieldMeta {
	return fieldIndex[key]
}

// Groups returns the group headings in display order.
func Groups() []string {
	seen := map[string]bool{}
	groups := []string{}
	for _, f := range Fields {
		if !seen[f.Group] {
			seen[f.Group] = true
			groups = append(groups, f.Group)
		}
	}
	return groups
}

// FieldsInGroup returns the fields under one group heading, in display order.
func FieldsInGroup(group string) []FieldMeta {
	fields := []FieldMeta{}
	for _, f := range Fields {
		if f.Group == group {
			fields = append(fields, f)
		}
	}
	return fields
}

// Clamp forces a numeric value into the field's declared bounds. Fields
// without bounds pass through unchanged.
func (f *FieldMeta) Clamp(value float64) float64 {
	if f.Min != nil && value < *f.Min {
		value = *f.Min
	}
	if f.Max != nil && value > *f.Max {
		value = *f.Max
	}
	return value
}

// HasChoice reports whether value is one of the field's declared choices.
// Fields without choices accept any value.
func (f *FieldMeta) HasChoice(value string) bool {
	if len(f.Choices) == 0 {
		return true
	}
	for _, c := range f.Choices {
		if c == value {
			return true
		}
	}
	return false
}
