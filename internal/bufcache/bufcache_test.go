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

package bufcache

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sofs14/sofs/internal/sofsdisk"
)

func makeSizedFile(t *testing.T, nBlocks int) string {
	t.Helper()
	path := t.TempDir() + "/dev.img"
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, f.Truncate(int64(nBlocks)*sofsdisk.BlockSize))
	return path
}

func TestLocalFileDevice_OpenRejectsBadSize(t *testing.T) {
	path := t.TempDir() + "/dev.img"
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, f.Truncate(sofsdisk.BlockSize+1))
	require.NoError(t, f.Close())

	dev := NewLocalFileDevice()
	err = dev.OpenDevice(path, 4)
	require.Error(t, err)
}

func TestLocalFileDevice_BlockAndClusterRoundTrip(t *testing.T) {
	path := makeSizedFile(t, 16)
	dev := NewLocalFileDevice()
	require.NoError(t, dev.OpenDevice(path, 4))
	defer dev.CloseDevice()

	size, err := dev.Size()
	require.NoError(t, err)
	assert.EqualValues(t, 16*sofsdisk.BlockSize, size)

	var block [sofsdisk.BlockSize]byte
	block[0] = 0xAB
	block[sofsdisk.BlockSize-1] = 0xCD
	require.NoError(t, dev.WriteBlock(2, block))

	got, err := dev.ReadBlock(2)
	require.NoError(t, err)
	assert.Equal(t, block, got)

	var cluster [sofsdisk.ClusterSize]byte
	cluster[0] = 1
	cluster[sofsdisk.ClusterSize-1] = 2
	require.NoError(t, dev.WriteCluster(8, cluster))

	gotCluster, err := dev.ReadCluster(8)
	require.NoError(t, err)
	assert.Equal(t, cluster, gotCluster)
}

func TestLocalFileDevice_OpsFailWhenNotOpen(t *testing.T) {
	dev := NewLocalFileDevice()
	_, err := dev.Size()
	require.Error(t, err)
	_, err = dev.ReadBlock(0)
	require.Error(t, err)
	err = dev.CloseDevice()
	require.Error(t, err)
}
