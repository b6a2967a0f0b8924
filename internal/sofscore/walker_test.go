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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sofs14/sofs/internal/sofsdisk"
)

func TestWalker_DirectReferences(t *testing.T) {
	fs := newTestImage(t, 4096, FormatOptions{ITotal: 64, Quiet: true})

	n, err := fs.allocInode(sofsdisk.TypeFile)
	require.NoError(t, err)

	for i := uint64(0); i < sofsdisk.NDirect; i++ {
		lcn, err := fs.handleFileCluster(n, i, opAlloc)
		require.NoError(t, err)
		assert.NotEqual(t, sofsdisk.NullCluster, lcn)
	}

	st, err := fs.StatInode(n)
	require.NoError(t, err)
	assert.EqualValues(t, sofsdisk.NDirect, st.CluCount)
}

func TestWalker_SingleIndirectAllocatesIndirectionCluster(t *testing.T) {
	fs := newTestImage(t, 4096, FormatOptions{ITotal: 64, Quiet: true})
	n, err := fs.allocInode(sofsdisk.TypeFile)
	require.NoError(t, err)

	idx := uint64(sofsdisk.NDirect + 3)
	lcn, err := fs.handleFileCluster(n, idx, opAlloc)
	require.NoError(t, err)
	assert.NotEqual(t, sofsdisk.NullCluster, lcn)

	got, err := fs.handleFileCluster(n, idx, opGet)
	require.NoError(t, err)
	assert.Equal(t, lcn, got)

	// CluCount must count the indirection cluster itself plus the leaf.
	st, err := fs.StatInode(n)
	require.NoError(t, err)
	assert.EqualValues(t, 2, st.CluCount)
}

func TestWalker_DoubleIndirectRoundTrip(t *testing.T) {
	fs := newTestImage(t, 8192, FormatOptions{ITotal: 64, Quiet: true})
	n, err := fs.allocInode(sofsdisk.TypeFile)
	require.NoError(t, err)

	idx := uint64(sofsdisk.NDirect) + sofsdisk.RPC + 10
	lcn, err := fs.handleFileCluster(n, idx, opAlloc)
	require.NoError(t, err)
	assert.NotEqual(t, sofsdisk.NullCluster, lcn)

	got, err := fs.handleFileCluster(n, idx, opGet)
	require.NoError(t, err)
	assert.Equal(t, lcn, got)

	// Freeing the sole double-indirect leaf must bubble up and release
	// both the inner and outer indirection clusters.
	_, err = fs.handleFileCluster(n, idx, opFreeAndClean)
	require.NoError(t, err)

	st, err := fs.StatInode(n)
	require.NoError(t, err)
	assert.EqualValues(t, 0, st.CluCount)
}

func TestWalker_RejectsOutOfRangeIndex(t *testing.T) {
	fs := newTestImage(t, 100, FormatOptions{ITotal: 8, Quiet: true})
	n, err := fs.allocInode(sofsdisk.TypeFile)
	require.NoError(t, err)

	_, err = fs.handleFileCluster(n, sofsdisk.MaxFileClusters, opGet)
	require.Error(t, err)
}
