package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParams(t *testing.T) {
	params, err := parseParams([]string{"num_train_epochs=150", "train_lora=true", "sanity_prompt=a photo of x"})
	require.NoError(t, err)
	assert.Equal(t, 150.0, params["num_train_epochs"])
	assert.Equal(t, true, params["train_lora"])
	assert.Equal(t, "a photo of x", params["sanity_prompt"])

	_, err = parseParams([]string{"noequals"})
	assert.Error(t, err)

	_, err = parseParams([]string{"=5"})
	assert.Error(t, err)
}

func TestValidateChoices(t *testing.T) {
	require.NoError(t, validateChoices(map[string]interface{}{"optimizer": "Lion"}))

	// legacy spellings migrate before the choice check
	require.NoError(t, validateChoices(map[string]interface{}{"db_optimizer": "8Bit Adam"}))
	require.NoError(t, validateChoices(map[string]interface{}{"deis_train_scheduler": true}))

	// fields without a choice list accept anything
	require.NoError(t, validateChoices(map[string]interface{}{"sanity_prompt": "whatever"}))

	err := validateChoices(map[string]interface{}{"train_mode": "turbo"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "train_mode")
}
