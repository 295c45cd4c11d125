package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Concept describes a single training subject: a directory of instance
// images, optional class regularization data, and the prompts used for both.
type Concept struct {
	InstanceDataDir     string  `json:"instance_data_dir"`
	ClassDataDir        string  `json:"class_data_dir"`
	InstancePrompt      string  `json:"instance_prompt"`
	ClassPrompt         string  `json:"class_prompt"`
	InstanceToken       string  `json:"instance_token"`
	ClassToken          string  `json:"class_token"`
	NumClassImagesPer   int     `json:"num_class_images_per"`
	ClassNegativePrompt string  `json:"class_negative_prompt"`
	ClassGuidanceScale  float64 `json:"class_guidance_scale"`
	ClassInferSteps     int     `json:"class_infer_steps"`
	SaveSamplePrompt    string  `json:"save_sample_prompt"`
	SaveSampleNegative  string  `json:"save_sample_negative_prompt"`
	SaveSampleTemplate  string  `json:"save_sample_template"`
	NumSaveSamples      int     `json:"n_save_sample"`
	SampleSeed          int64   `json:"sample_seed"`
	SaveGuidanceScale   float64 `json:"save_guidance_scale"`
	SaveInferSteps      int     `json:"save_infer_steps"`
}

// NewConcept returns a concept with the generation defaults filled in.
func NewConcept() Concept {
	return Concept{
		NumClassImagesPer:  1,
		ClassGuidanceScale: 7.5,
		ClassInferSteps:    40,
		NumSaveSamples:     1,
		SampleSeed:         -1,
		SaveGuidanceScale:  7.5,
		SaveInferSteps:     40,
	}
}

// ConceptFromMap builds a concept from a decoded JSON object. Unknown keys
// are ignored.
func ConceptFromMap(input map[string]interface{}) (Concept, error) {
	c := NewConcept()
	if input == nil {
		return c, nil
	}
	data, err := json.Marshal(input)
	if err != nil {
		return c, fmt.Errorf("failed to encode concept dict: %w", err)
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("failed to decode concept dict: %w", err)
	}
	return c, nil
}

// IsValid reports whether the concept points at usable instance data.
func (c Concept) IsValid() bool {
	if c.InstanceDataDir == "" {
		return false
	}
	info, err := os.Stat(c.InstanceDataDir)
	return err == nil && info.IsDir()
}

// ConceptsFromFile reads a concepts list from a JSON file. If the path does
// not point at a file, it is treated as a raw JSON string instead. Relative
// instance data dirs are rebuilt against the file's parent directory so a
// concepts file can travel with its images. Invalid concepts are dropped.
func ConceptsFromFile(conceptsPath string) ([]Concept, error) {
	conceptsStr := conceptsPath
	fromDisk := false
	if info, err := os.Stat(conceptsPath); err == nil && !info.IsDir() {
		data, err := os.ReadFile(conceptsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open concepts file: %w", err)
		}
		conceptsStr = string(data)
		fromDisk = true
	}

	var raw []map[string]interface{}
	if err := json.Unmarshal([]byte(conceptsStr), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse concepts: %w", err)
	}

	concepts := []Concept{}
	for _, entry := range raw {
		if fromDisk {
			if dir, ok := entry["instance_data_dir"].(string); ok && dir != "" && !filepath.IsAbs(dir) {
				rebuilt := filepath.Join(filepath.Dir(conceptsPath), dir)
				if DebugLog != nil {
					DebugLog("rebuilding portable concepts path: %s", rebuilt)
				}
				entry["instance_data_dir"] = rebuilt
			}
		}
		concept, err := ConceptFromMap(entry)
		if err != nil {
			if DebugLog != nil {
				DebugLog("skipping malformed concept: %v", err)
			}
			continue
		}
		if concept.IsValid() {
			concepts = append(concepts, concept)
		}
	}
	return concepts, nil
}
