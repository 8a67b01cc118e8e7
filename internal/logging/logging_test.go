// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zerolog.Level
		wantErr bool
	}{
		{"", zerolog.InfoLevel, false},
		{"debug", zerolog.DebugLevel, false},
		{" WARN ", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"loud", zerolog.InfoLevel, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSetupFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := Setup(&buf, "warn")
	require.NoError(t, err)

	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestSetupUnknownLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := Setup(&buf, "loud")
	require.Error(t, err)
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	l := Component(zerolog.New(&buf), "fetcher")
	l.Info().Msg("hello")

	assert.Contains(t, buf.String(), `"component":"fetcher"`)
}
