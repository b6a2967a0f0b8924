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
	"github.com/sofs14/sofs/internal/sofserrors"
)

func TestInodeAlloc_RoundTrip(t *testing.T) {
	fs := newTestImage(t, 4096, FormatOptions{ITotal: 64, Quiet: true})

	sbBefore, err := fs.Superblock()
	require.NoError(t, err)

	n, err := fs.allocInode(sofsdisk.TypeFile)
	require.NoError(t, err)
	assert.NotEqual(t, uint32(0), n, "root inode must never be re-handed out")

	st, err := fs.StatInode(n)
	require.NoError(t, err)
	assert.Equal(t, sofsdisk.TypeFile, st.Type)
	assert.EqualValues(t, 0, st.RefCount)

	sbMid, err := fs.Superblock()
	require.NoError(t, err)
	assert.Equal(t, sbBefore.IFree-1, sbMid.IFree)

	require.NoError(t, fs.freeInode(n))

	sbAfter, err := fs.Superblock()
	require.NoError(t, err)
	assert.Equal(t, sbBefore.IFree, sbAfter.IFree)
}

// TestInodeAlloc_ReallocReclaimsFreeAndDirtyClusters exercises the
// free-and-dirty path: freeInode leaves D/CluCount/Size on n untouched, so
// the cluster n held at the time of freeing must still be reclaimed the
// next time n comes back off the free list.
func TestInodeAlloc_ReallocReclaimsFreeAndDirtyClusters(t *testing.T) {
	fs := newTestImage(t, 4096, FormatOptions{ITotal: 64, Quiet: true})

	n, err := fs.allocInode(sofsdisk.TypeFile)
	require.NoError(t, err)
	_, err = fs.handleFileCluster(n, 0, opAlloc)
	require.NoError(t, err)

	// freeInode appends at the tail and allocInode takes the head, so empty
	// the free list first to make n the next inode handed out.
	sb, err := fs.Superblock()
	require.NoError(t, err)
	for i := uint32(0); i < sb.IFree; i++ {
		_, err := fs.allocInode(sofsdisk.TypeFile)
		require.NoError(t, err)
	}

	sbBefore, err := fs.Superblock()
	require.NoError(t, err)

	require.NoError(t, fs.freeInode(n))

	n2, err := fs.allocInode(sofsdisk.TypeFile)
	require.NoError(t, err)
	require.Equal(t, n, n2, "the freed inode must be the next one handed out")

	st, err := fs.StatInode(n2)
	require.NoError(t, err)
	assert.EqualValues(t, 0, st.CluCount, "the stale cluster reference must not survive reallocation")
	assert.EqualValues(t, 0, st.Size)

	sbAfter, err := fs.Superblock()
	require.NoError(t, err)
	assert.Equal(t, sbBefore.DZoneFree+1, sbAfter.DZoneFree, "the orphaned cluster must be reclaimed, not leaked")
}

func TestInodeAlloc_FreeRejectsStillReferenced(t *testing.T) {
	fs := newTestImage(t, 100, FormatOptions{ITotal: 8, Quiet: true})
	n, err := fs.allocInode(sofsdisk.TypeFile)
	require.NoError(t, err)

	in, err := fs.getInode(n)
	require.NoError(t, err)
	in.RefCount = 1
	require.NoError(t, fs.persistInode(n, in))

	err = fs.freeInode(n)
	require.Error(t, err)
}

func TestInodeAlloc_ExhaustsInodeTable(t *testing.T) {
	fs := newTestImage(t, 100, FormatOptions{ITotal: 8, Quiet: true})
	sb, err := fs.Superblock()
	require.NoError(t, err)

	for i := uint32(0); i < sb.IFree; i++ {
		_, err := fs.allocInode(sofsdisk.TypeFile)
		require.NoError(t, err)
	}

	_, err = fs.allocInode(sofsdisk.TypeFile)
	require.Error(t, err)
	assert.True(t, sofserrors.Is(err, sofserrors.ENOSPC))
}

func TestCleanInode_VerifiesClusterOwnership(t *testing.T) {
	fs := newTestImage(t, 4096, FormatOptions{ITotal: 64, Quiet: true})

	n, err := fs.allocInode(sofsdisk.TypeFile)
	require.NoError(t, err)
	lcn, err := fs.handleFileCluster(n, 0, opAlloc)
	require.NoError(t, err)

	// Tamper with the cluster's stat field so it no longer matches n.
	require.NoError(t, fs.dataSlot.Load(lcn))
	dc, err := fs.dataSlot.Get()
	require.NoError(t, err)
	dc.Stat = n + 1
	require.NoError(t, fs.dataSlot.Store())

	err = fs.cleanInode(n)
	require.Error(t, err)
	assert.True(t, sofserrors.Is(err, sofserrors.EWGINODENB))
}

func TestCleanInode_ReleasesOwnedClusters(t *testing.T) {
	fs := newTestImage(t, 4096, FormatOptions{ITotal: 64, Quiet: true})

	n, err := fs.allocInode(sofsdisk.TypeFile)
	require.NoError(t, err)
	for i := uint64(0); i < 3; i++ {
		_, err := fs.handleFileCluster(n, i, opAlloc)
		require.NoError(t, err)
	}

	sbBefore, err := fs.Superblock()
	require.NoError(t, err)

	require.NoError(t, fs.cleanInode(n))

	st, err := fs.StatInode(n)
	require.NoError(t, err)
	assert.EqualValues(t, 0, st.CluCount)

	sbAfter, err := fs.Superblock()
	require.NoError(t, err)
	assert.Equal(t, sbBefore.DZoneFree+3, sbAfter.DZoneFree)
}
