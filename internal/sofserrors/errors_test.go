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

package sofserrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_UsesStableMessageByDefault(t *testing.T) {
	err := New(ENOSPC, "")
	assert.Equal(t, "no space left on device", err.Error())
	assert.True(t, Is(err, ENOSPC))
	assert.False(t, Is(err, EACCES))
}

func TestNew_OverridesMessage(t *testing.T) {
	err := New(EINVAL, "cluster %d out of range", 7)
	assert.Equal(t, "cluster 7 out of range", err.Error())
}

func TestWrap_ChainsCause(t *testing.T) {
	cause := errors.New("disk on fire")
	err := Wrap(EIOREAD, cause)
	assert.Contains(t, err.Error(), "disk on fire")
	assert.Equal(t, cause, errors.Unwrap(err))
	assert.True(t, Is(err, EIOREAD))
}

func TestDiagnostic_Format(t *testing.T) {
	err := New(ENOENT, "")
	got := Diagnostic("fsck", err)
	assert.Equal(t, fmt.Sprintf("fsck: error #%d - no such directory entry", int(ENOENT)), got)
}
