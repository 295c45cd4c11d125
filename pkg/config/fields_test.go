package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldByKey(t *testing.T) {
	field := FieldByKey("learning_rate")
	require.NotNil(t, field)
	assert.Equal(t, "Learning Rate", field.Title)
	assert.Equal(t, "Learning Rate", field.Group)

	assert.Nil(t, FieldByKey("model_dir"), "bookkeeping keys have no ui metadata")
}

func TestEveryFieldKeyExistsOnConfig(t *testing.T) {
	cfg := Defaults()
	for _, field := range Fields {
		_, ok := cfg.Get(field.Key)
		assert.True(t, ok, "field %s has no matching config key", field.Key)
	}
}

func TestGroupsOrdered(t *testing.T) {
	groups := Groups()
	require.NotEmpty(t, groups)
	assert.Equal(t, "General", groups[0])

	total := 0
	for _, group := range groups {
		fields := FieldsInGroup(group)
		assert.NotEmpty(t, fields)
		total += len(fields)
	}
	assert.Equal(t, len(Fields), total)
}

func TestClamp(t *testing.T) {
	field := FieldByKey("num_train_epochs")
	require.NotNil(t, field)
	assert.Equal(t, 1.0, field.Clamp(-5))
	assert.Equal(t, 10000.0, field.Clamp(99999))
	assert.Equal(t, 100.0, field.Clamp(100))

	unbounded := &FieldMeta{Key: "x"}
	assert.Equal(t, 12345.0, unbounded.Clamp(12345))
}

func TestHasChoice(t *testing.T) {
	field := FieldByKey("train_mode")
	require.NotNil(t, field)
	assert.True(t, field.HasChoice("Fine-Tune"))
	assert.False(t, field.HasChoice("db"))

	free := FieldByKey("sanity_prompt")
	require.NotNil(t, free)
	assert.True(t, free.HasChoice("anything"))
}

func TestDefaultsRespectBounds(t *testing.T) {
	cfg := Defaults()
	for _, field := range Fields {
		value, ok := cfg.Get(field.Key)
		require.True(t, ok)
		n, ok := value.(float64)
		if !ok {
			continue
		}
		assert.Equal(t, n, field.Clamp(n), "default for %s out of bounds", field.Key)
	}
}
