package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldsAppearInOutput(t *testing.T) {
	var buf bytes.Buffer
	log := New("test", &buf)

	log.WithField("user_id", 42).WithError(errors.New("boom")).Info("something happened")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "test", entry["component"])
	assert.Equal(t, float64(42), entry["user_id"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "something happened", entry["msg"])
}

func TestWithFieldsDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	log := New("test", &buf)

	child := log.WithFields(map[string]interface{}{"request_id": "abc"})
	child.Info("child")
	log.Info("parent")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var parent map[string]interface{}
	require.NoError(t, json.Unmarshal(lines[1], &parent))
	_, ok := parent["request_id"]
	assert.False(t, ok, "parent logger must not inherit child fields")
}
