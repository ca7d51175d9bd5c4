package observability

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
		{"INFO", zerolog.InfoLevel},
		{"unknown", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, parseLevel(tt.input))
		})
	}
}

func TestNewLogger(t *testing.T) {
	t.Run("json format", func(t *testing.T) {
		logger := NewLogger(LoggingConfig{Level: "debug", Format: "json", Output: "stderr"})
		assert.Equal(t, zerolog.DebugLevel, logger.GetLevel())
	})

	t.Run("console format", func(t *testing.T) {
		logger := NewLogger(LoggingConfig{Level: "warn", Format: "console", Output: "stdout"})
		assert.Equal(t, zerolog.WarnLevel, logger.GetLevel())
	})

	t.Run("defaults applied for unknown values", func(t *testing.T) {
		logger := NewLogger(LoggingConfig{Level: "bogus", Output: "bogus"})
		assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
	})
}

func TestDefaultLoggingConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultLoggingConfig()
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "stderr", cfg.Output)
}

func TestLoggerContextHelpers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		with   func(zerolog.Logger) zerolog.Logger
		expect []string
	}{
		{
			name:   "run context",
			with:   func(l zerolog.Logger) zerolog.Logger { return WithRunContext(l, "run-1") },
			expect: []string{`"run_id":"run-1"`},
		},
		{
			name:   "stage context",
			with:   func(l zerolog.Logger) zerolog.Logger { return WithStageContext(l, "keywords") },
			expect: []string{`"stage":"keywords"`},
		},
		{
			name:   "search context",
			with:   func(l zerolog.Logger) zerolog.Logger { return WithSearchContext(l, "arxiv", `all:"nlp"`) },
			expect: []string{`"source":"arxiv"`, `"query":"all:\"nlp\""`},
		},
		{
			name:   "paper context",
			with:   func(l zerolog.Logger) zerolog.Logger { return WithPaperContext(l, "2301.00001") },
			expect: []string{`"paper_id":"2301.00001"`},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			logger := tt.with(zerolog.New(&buf))
			logger.Info().Msg("event")
			for _, field := range tt.expect {
				assert.Contains(t, buf.String(), field)
			}
		})
	}
}
