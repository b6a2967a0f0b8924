// Copyright 2026 The SOFS Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sofslog

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func resetDefaultOutput(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		SetFormat("text")
		SetLevel(LevelInfo)
		SetOutput(os.Stderr)
	})
}

func TestLogging_RespectsLevel(t *testing.T) {
	resetDefaultOutput(t)
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(LevelWarn)

	Debugf("should not appear")
	Infof("should not appear either")
	Warnf("danger: %d", 7)

	out := buf.String()
	assert.NotContains(t, out, "should not appear")
	assert.Contains(t, out, "danger: 7")
	assert.Contains(t, out, "WARNING")
}

func TestLogging_JSONFormat(t *testing.T) {
	resetDefaultOutput(t)
	var buf bytes.Buffer
	SetOutput(&buf)
	SetFormat("json")
	SetLevel(LevelTrace)

	Tracef("hello %s", "world")

	out := buf.String()
	assert.Contains(t, out, `"msg":"hello world"`)
	assert.Contains(t, out, `"TRACE"`)
}

func TestLogging_ErrorfFormatsWithoutArgs(t *testing.T) {
	resetDefaultOutput(t)
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(LevelError)

	Errorf("plain message with %% in it")

	assert.Contains(t, buf.String(), "plain message with %% in it")
}
