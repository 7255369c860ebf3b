package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithOwnerID(t *testing.T) {
	ctx := WithOwnerID(context.Background(), "alice@example.com")
	assert.Equal(t, "alice@example.com", GetOwnerID(ctx))
}

func TestWithTaskID(t *testing.T) {
	ctx := WithTaskID(context.Background(), "k3j9x2")
	assert.Equal(t, "k3j9x2", GetTaskID(ctx))
}

func TestContextIDs_NotPresent(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetOwnerID(ctx))
	assert.Empty(t, GetTaskID(ctx))
}

func TestContextIDs_Both(t *testing.T) {
	ctx := WithTaskID(WithOwnerID(context.Background(), "owner-1"), "task-1")

	assert.Equal(t, "owner-1", GetOwnerID(ctx))
	assert.Equal(t, "task-1", GetTaskID(ctx))
}
