package keywords

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citeright/citeright/internal/domain"
	"github.com/citeright/citeright/internal/llm"
)

// fakeLLM returns a scripted response or error and records the last
// request for prompt assertions.
type fakeLLM struct {
	response string
	err      error
	lastReq  llm.Request
	calls    int
}

func (f *fakeLLM) Complete(_ context.Context, req llm.Request) (*llm.Response, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Response{Content: f.response, Model: "fake-model"}, nil
}

func (f *fakeLLM) Provider() string { return "fake" }
func (f *fakeLLM) Model() string    { return "fake-model" }

func newTestDeriver(client llm.Client) *Deriver {
	return NewDeriver(client, Config{}, zerolog.Nop())
}

func TestDeriver_Derive(t *testing.T) {
	t.Parallel()

	t.Run("comma-separated response", func(t *testing.T) {
		t.Parallel()

		fake := &fakeLLM{response: "machine learning, federated learning , privacy,, healthcare"}
		deriver := newTestDeriver(fake)

		terms, err := deriver.Derive(context.Background(), "Federated Learning in Hospitals", "Privacy-preserving model training")
		require.NoError(t, err)
		assert.Equal(t, []string{"machine learning", "federated learning", "privacy", "healthcare"}, terms)

		assert.Contains(t, fake.lastReq.Prompt, "Federated Learning in Hospitals")
		assert.Contains(t, fake.lastReq.Prompt, "Privacy-preserving model training")
		assert.Equal(t, DefaultTemperature, fake.lastReq.Temperature)
	})

	t.Run("numbered line response", func(t *testing.T) {
		t.Parallel()

		fake := &fakeLLM{response: "1. machine learning\n2. deep learning\n3. transfer learning"}
		deriver := newTestDeriver(fake)

		terms, err := deriver.Derive(context.Background(), "Title", "Problem")
		require.NoError(t, err)
		assert.Equal(t, []string{"machine learning", "deep learning", "transfer learning"}, terms)
	})

	t.Run("bulleted line response", func(t *testing.T) {
		t.Parallel()

		fake := &fakeLLM{response: "• graph networks\n- molecule generation\n* drug discovery\nplain term"}
		deriver := newTestDeriver(fake)

		terms, err := deriver.Derive(context.Background(), "Title", "Problem")
		require.NoError(t, err)
		assert.Equal(t, []string{"graph networks", "molecule generation", "drug discovery", "plain term"}, terms)
	})

	t.Run("duplicate terms are removed preserving order", func(t *testing.T) {
		t.Parallel()

		fake := &fakeLLM{response: "Machine Learning, healthcare, machine  learning, Healthcare"}
		deriver := newTestDeriver(fake)

		terms, err := deriver.Derive(context.Background(), "Title", "Problem")
		require.NoError(t, err)
		assert.Equal(t, []string{"machine learning", "healthcare"}, terms)
	})

	t.Run("model failure falls back to trimmed title", func(t *testing.T) {
		t.Parallel()

		fake := &fakeLLM{err: errors.New("provider down")}
		deriver := newTestDeriver(fake)

		terms, err := deriver.Derive(context.Background(), "  Graph Neural Networks  ", "Problem")
		require.NoError(t, err)
		assert.Equal(t, []string{"Graph Neural Networks"}, terms)
	})

	t.Run("blank response falls back to trimmed title", func(t *testing.T) {
		t.Parallel()

		fake := &fakeLLM{response: "   \n  "}
		deriver := newTestDeriver(fake)

		terms, err := deriver.Derive(context.Background(), "Graph Neural Networks", "Problem")
		require.NoError(t, err)
		assert.Equal(t, []string{"Graph Neural Networks"}, terms)
	})

	t.Run("empty title is invalid input", func(t *testing.T) {
		t.Parallel()

		fake := &fakeLLM{response: "unused"}
		deriver := newTestDeriver(fake)

		_, err := deriver.Derive(context.Background(), "   ", "Problem")
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInvalidInput))
		assert.Zero(t, fake.calls, "no model call for invalid input")
	})

	t.Run("empty problem is invalid input", func(t *testing.T) {
		t.Parallel()

		fake := &fakeLLM{response: "unused"}
		deriver := newTestDeriver(fake)

		_, err := deriver.Derive(context.Background(), "Title", "")
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	})
}

func TestStripListMarker(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		line string
		want string
	}{
		{name: "numbered", line: "1. machine learning", want: "machine learning"},
		{name: "double digit numbered", line: "12. deep learning", want: "deep learning"},
		{name: "bullet dot", line: "• term", want: "term"},
		{name: "dash", line: "- term", want: "term"},
		{name: "asterisk", line: "* term", want: "term"},
		{name: "plain line unchanged", line: "just a term", want: "just a term"},
		{name: "dot in term not numbering", line: "v2. release notes", want: "v2. release notes"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, stripListMarker(tt.line))
		})
	}
}
