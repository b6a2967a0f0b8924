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

package sofscore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sofs14/sofs/internal/bufcache"
	"github.com/sofs14/sofs/internal/sofsclock"
	"github.com/sofs14/sofs/internal/sofsdisk"
)

func createSizedFile(path string, size int64) (*os.File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	if err := f.Truncate(size); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// newTestImage creates an nBlocks-block file backed FileSystem, formats it
// with opts and returns it ready for use. t.TempDir cleans the backing file
// up automatically.
func newTestImage(t *testing.T, nBlocks uint32, opts FormatOptions) *FileSystem {
	t.Helper()

	path := t.TempDir() + "/image.sofs"
	f, err := createSizedFile(path, int64(nBlocks)*sofsdisk.BlockSize)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	dev := bufcache.NewLocalFileDevice()
	require.NoError(t, dev.OpenDevice(path, 4))
	t.Cleanup(func() { dev.CloseDevice() })

	clk := sofsclock.NewSimulatedClock(time.Unix(1_700_000_000, 0))
	fs := New(dev, clk)
	require.NoError(t, fs.Format(context.Background(), opts))
	return fs
}
