package testutil_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/molscope/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molscope/internal/testutil"
)

func TestMockLogger(t *testing.T) {
	logger := testutil.NewMockLogger()

	logger.Info("test info", logging.String("key", "value"))

	messages := logger.GetMessages()
	require.Len(t, messages, 1)
	assert.Equal(t, "info", messages[0].Level)
	assert.Equal(t, "test info", messages[0].Message)
	v, ok := messages[0].Field("key")
	assert.True(t, ok)
	assert.Equal(t, "value", v)

	logger.Clear()
	assert.Len(t, logger.GetMessages(), 0)

	logger.Error("test error")
	assert.True(t, logger.HasMessage("error", "test error"))
	assert.False(t, logger.HasMessage("info", "test info"))
	assert.Equal(t, 1, logger.CountLevel("error"))
}

func TestMockLogger_ChildrenShareRecord(t *testing.T) {
	root := testutil.NewMockLogger()
	ctx := logging.WithRequestID(context.Background(), "r1")

	root.Named("viewer").Named("session").
		With(logging.String(logging.FieldSessionID, "s1")).
		WithContext(ctx).
		WithError(errors.New("boom")).
		Warn("load rejected")

	entry, ok := root.Find("warn", "load rejected")
	require.True(t, ok)
	assert.Equal(t, "viewer.session", entry.Logger)
	id, _ := entry.Field(logging.FieldRequestID)
	assert.Equal(t, "r1", id)
	sess, _ := entry.Field(logging.FieldSessionID)
	assert.Equal(t, "s1", sess)
	e, _ := entry.Field("error")
	assert.Equal(t, "boom", e)
}

func TestMolBlock_Layout(t *testing.T) {
	rec := testutil.TwoAtomRecord(2)
	lines := strings.Split(rec, "\n")
	require.GreaterOrEqual(t, len(lines), 7)
	assert.Equal(t, "  2  1", lines[3][:6])
	assert.Equal(t, "C", lines[4][31:32])
	assert.Equal(t, "  1  2  2", lines[6][:9])
}

//Personal.AI order the ending
