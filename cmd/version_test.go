package cmd

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestPrintVersionInfo(t *testing.T) {
	var buf bytes.Buffer
	oldOutput := color.Output
	oldNoColor := color.NoColor
	color.Output = &buf
	color.NoColor = true
	defer func() {
		color.Output = oldOutput
		color.NoColor = oldNoColor
	}()

	printVersionInfo()

	out := buf.String()
	assert.Contains(t, out, Version)
	assert.Contains(t, out, BuildDate)
}
