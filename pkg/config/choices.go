package config

// ListPrecisions returns the mixed precision modes supported by training.
func ListPrecisions() []string {
	return []string{"no", "fp16", "bf16"}
}

// ListAttentions returns the attention implementations supported by
// training. The last entry is the preferred replacement for removed ones.
func ListAttentions() []string {
	return []string{"default", "xformers", "sdp"}
}

// ListOptimizers returns the optimizer names the trainer understands.
func ListOptimizers() []string {
	return []string{
		"8bit AdamW",
		"AdamW",
		"AdamW Dadaptation",
		"Adan Dadaptation",
		"AdaFactor",
		"Lion",
		"Lion Dadaptation",
		"SGD Dadaptation",
		"Torch AdamW",
	}
}

// ListSchedulers returns the learning rate scheduler names.
func ListSchedulers() []string {
	return []string{
		"constant",
		"constant_with_warmup",
		"cosine",
		"cosine_annealing",
		"cosine_annealing_with_restarts",
		"cosine_with_restarts",
		"linear",
		"linear_with_warmup",
		"polynomial",
		"rex",
	}
}

// SchedulerNames returns the inference noise scheduler names. Configs written
// by older releases stored short lowercase names ("ddim"); loading upgrades
// those by case-insensitive substring match against this list.
func SchedulerNames() []string {
	return []string{
		"DDIM",
		"DDPM",
		"DEISMultistep",
		"DPMSolverMultistep",
		"DPMSolverSinglestep",
		"EulerAncestralDiscrete",
		"EulerDiscrete",
		"HeunDiscrete",
		"KDPM2Ancestral",
		"KDPM2Discrete",
		"LMSDiscrete",
		"PNDM",
		"UniPCMultistep",
	}
}
