package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunIDContext(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	assert.Equal(t, "", RunIDFromContext(ctx))

	ctx = WithRunID(ctx, "run-123")
	assert.Equal(t, "run-123", RunIDFromContext(ctx))
}

func TestStageContext(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	assert.Equal(t, "", StageFromContext(ctx))

	ctx = WithStage(ctx, "aggregate")
	assert.Equal(t, "aggregate", StageFromContext(ctx))
}
