package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeInstanceDir(t *testing.T, name string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	return dir
}

func TestConceptIsValid(t *testing.T) {
	valid := NewConcept()
	valid.InstanceDataDir = makeInstanceDir(t, "instance")
	assert.True(t, valid.IsValid())

	empty := NewConcept()
	assert.False(t, empty.IsValid())

	missing := NewConcept()
	missing.InstanceDataDir = filepath.Join(t.TempDir(), "does-not-exist")
	assert.False(t, missing.IsValid())
}

func TestConceptFromMapIgnoresUnknownKeys(t *testing.T) {
	concept, err := ConceptFromMap(map[string]interface{}{
		"instance_prompt": "photo of sks dog",
		"removed_setting": true,
		"class_data_dir":  "/data/class",
		"sample_seed":     7.0,
	})
	require.NoError(t, err)
	assert.Equal(t, "photo of sks dog", concept.InstancePrompt)
	assert.Equal(t, "/data/class", concept.ClassDataDir)
	assert.Equal(t, int64(7), concept.SampleSeed)
	// defaults survive keys the input does not mention
	assert.Equal(t, 7.5, concept.ClassGuidanceScale)
}

func TestConceptsFromFileRaw(t *testing.T) {
	instanceDir := makeInstanceDir(t, "subject")
	raw, err := json.Marshal([]map[string]interface{}{
		{"instance_data_dir": instanceDir, "instance_prompt": "a sks person"},
		{"instance_data_dir": "", "instance_prompt": "dropped"},
	})
	require.NoError(t, err)

	concepts, err := ConceptsFromFile(string(raw))
	require.NoError(t, err)
	require.Len(t, concepts, 1)
	assert.Equal(t, "a sks person", concepts[0].InstancePrompt)
}

func TestConceptsFromFileRebuildsRelativePaths(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "images"), 0o755))

	data, err := json.Marshal([]map[string]interface{}{
		{"instance_data_dir": "images", "instance_prompt": "portable"},
	})
	require.NoError(t, err)
	conceptsFile := filepath.Join(dir, "concepts.json")
	require.NoError(t, os.WriteFile(conceptsFile, data, 0o644))

	concepts, err := ConceptsFromFile(conceptsFile)
	require.NoError(t, err)
	require.Len(t, concepts, 1)
	assert.Equal(t, filepath.Join(dir, "images"), concepts[0].InstanceDataDir)
}

func TestConceptsFromFileBadJSON(t *testing.T) {
	_, err := ConceptsFromFile("not json at all")
	assert.Error(t, err)
}

func TestConceptsPadsToRequiredCount(t *testing.T) {
	modelsPath := t.TempDir()
	cfg, err := New("concept-model", WithModelsPath(modelsPath))
	require.NoError(t, err)

	valid := NewConcept()
	valid.InstanceDataDir = makeInstanceDir(t, "valid")
	invalid := NewConcept() // empty data dir, dropped during reconciliation
	cfg.ConceptsList = []Concept{valid, invalid}

	concepts := cfg.Concepts(4)
	require.Len(t, concepts, 4)
	assert.True(t, concepts[0].IsValid())
	for _, c := range concepts[1:] {
		assert.False(t, c.IsValid())
	}
}

func TestConceptsTruncatesToRequiredCount(t *testing.T) {
	modelsPath := t.TempDir()
	cfg, err := New("concept-model", WithModelsPath(modelsPath))
	require.NoError(t, err)

	var list []Concept
	for i := 0; i < 4; i++ {
		c := NewConcept()
		c.InstanceDataDir = makeInstanceDir(t, "subject")
		list = append(list, c)
	}
	cfg.ConceptsList = list

	concepts := cfg.Concepts(2)
	require.Len(t, concepts, 2)
	for _, c := range concepts {
		assert.True(t, c.IsValid())
	}
}

func TestConceptsAssignsClassDirs(t *testing.T) {
	modelsPath := t.TempDir()
	cfg, err := New("concept-model", WithModelsPath(modelsPath))
	require.NoError(t, err)

	first := NewConcept()
	first.InstanceDataDir = makeInstanceDir(t, "one")
	second := NewConcept()
	second.InstanceDataDir = makeInstanceDir(t, "two")
	second.ClassDataDir = "/data/existing"
	cfg.ConceptsList = []Concept{first, second}

	concepts := cfg.Concepts(-1)
	require.Len(t, concepts, 2)
	assert.Equal(t, filepath.Join(cfg.ModelDir, "classifiers_0"), concepts[0].ClassDataDir)
	assert.Equal(t, "/data/existing", concepts[1].ClassDataDir)
}

func TestConceptsFromExternalFile(t *testing.T) {
	modelsPath := t.TempDir()
	cfg, err := New("concept-model", WithModelsPath(modelsPath))
	require.NoError(t, err)

	instanceDir := makeInstanceDir(t, "external")
	data, err := json.Marshal([]map[string]interface{}{
		{"instance_data_dir": instanceDir, "instance_prompt": "from file"},
	})
	require.NoError(t, err)
	conceptsFile := filepath.Join(t.TempDir(), "concepts.json")
	require.NoError(t, os.WriteFile(conceptsFile, data, 0o644))
	cfg.ConceptsPath = conceptsFile

	concepts := cfg.Concepts(-1)
	require.Len(t, concepts, 1)
	assert.Equal(t, "from file", concepts[0].InstancePrompt)

	// a fixed count always reads the stored list instead
	assert.Len(t, cfg.Concepts(2), 2)
	assert.False(t, cfg.Concepts(2)[0].IsValid())
}
