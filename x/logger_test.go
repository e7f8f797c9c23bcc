/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package x

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_AuditI(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf, "endpoint")

	l.AuditI("/graphql", "method", "POST", "status_code", 200, "dangling")
	l.Sync()

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "/graphql", line["endpoint"])
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "POST", line["method"])
	assert.EqualValues(t, 200, line["status_code"])
	assert.NotContains(t, line, "dangling")
	assert.Contains(t, line, "time")
}

func TestLogger_AuditE(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf, "")

	l.AuditE("failed", "reason", "because")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "failed", line["msg"])
	assert.Equal(t, "error", line["level"])
}

func TestLogger_Nil(t *testing.T) {
	var l *Logger
	l.AuditI("ignored")
	l.AuditE("ignored")
	l.Sync()
	assert.NoError(t, l.Close())
}

func TestInitLogger_File(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.log")
	l, err := InitLogger(&LoggerConf{Output: out, MessageKey: "endpoint"})
	require.NoError(t, err)

	l.AuditI("/one")
	l.AuditI("/two")
	require.NoError(t, l.Close())

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], `"endpoint":"/two"`)
}

func TestInitLogger_Errors(t *testing.T) {
	_, err := InitLogger(nil)
	require.Error(t, err)

	_, err = InitLogger(&LoggerConf{Output: filepath.Join(t.TempDir(), "missing", "out.log")})
	require.Error(t, err)
}
