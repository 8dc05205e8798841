package ctxkeys

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunID(t *testing.T) {
	_, ok := RunID(context.Background())
	assert.False(t, ok)

	_, ok = RunID(WithRunID(context.Background(), ""))
	assert.False(t, ok, "empty run id is treated as absent")

	id, ok := RunID(WithRunID(context.Background(), "3f2c"))
	assert.True(t, ok)
	assert.Equal(t, "3f2c", id)
}

func TestCommand(t *testing.T) {
	ctx := WithCommand(WithRunID(context.Background(), "r1"), "rollback")

	cmd, ok := Command(ctx)
	assert.True(t, ok)
	assert.Equal(t, "rollback", cmd)

	id, ok := RunID(ctx)
	assert.True(t, ok)
	assert.Equal(t, "r1", id)
}
