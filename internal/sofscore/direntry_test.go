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
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sofs14/sofs/internal/sofsdisk"
	"github.com/sofs14/sofs/internal/sofserrors"
)

// makeChildFile allocates a file inode, gives it one reference and a
// directory entry named name under nDir.
func makeChildFile(t *testing.T, fs *FileSystem, nDir uint32, name string) uint32 {
	t.Helper()
	n, err := fs.allocInode(sofsdisk.TypeFile)
	require.NoError(t, err)
	in, err := fs.getInode(n)
	require.NoError(t, err)
	in.RefCount = 1
	in.Mode = sofsdisk.ModeFile | 0o644
	require.NoError(t, fs.persistInode(n, in))
	require.NoError(t, fs.addDirEntry(nDir, name, n))
	return n
}

func TestDirEntry_AddLookupRemove(t *testing.T) {
	fs := newTestImage(t, 4096, FormatOptions{ITotal: 64, Quiet: true})

	n := makeChildFile(t, fs, 0, "hello.txt")

	got, found, err := fs.lookupDirEntry(0, "hello.txt")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, n, got)

	require.NoError(t, fs.removeOrDetach(0, "hello.txt", dirRemove, 0, 0))

	_, found, err = fs.lookupDirEntry(0, "hello.txt")
	require.NoError(t, err)
	assert.False(t, found)

	// RefCount hit 0: the inode must have been freed.
	_, err = fs.StatInode(n)
	require.Error(t, err)
}

func TestDirEntry_GrowsBeyondOneCluster(t *testing.T) {
	fs := newTestImage(t, 8192, FormatOptions{ITotal: 128, Quiet: true})

	total := sofsdisk.DPC + 5
	for i := 0; i < total; i++ {
		makeChildFile(t, fs, 0, fmt.Sprintf("f%03d", i))
	}

	for i := 0; i < total; i++ {
		_, found, err := fs.lookupDirEntry(0, fmt.Sprintf("f%03d", i))
		require.NoError(t, err)
		assert.True(t, found)
	}

	report, err := fs.Check(context.Background())
	require.NoError(t, err)
	assert.True(t, report.OK(), "%v", report.Errors)
}

func TestDirEntry_RemoveNonexistentFails(t *testing.T) {
	fs := newTestImage(t, 100, FormatOptions{ITotal: 8, Quiet: true})
	err := fs.removeOrDetach(0, "nope", dirRemove, 0, 0)
	require.Error(t, err)
	assert.True(t, sofserrors.Is(err, sofserrors.ENOENT))
}

func TestDirEntry_RemoveNonEmptyDirectoryFails(t *testing.T) {
	fs := newTestImage(t, 4096, FormatOptions{ITotal: 64, Quiet: true})

	nSub, err := fs.allocInode(sofsdisk.TypeDir)
	require.NoError(t, err)
	subIn, err := fs.getInode(nSub)
	require.NoError(t, err)
	subIn.RefCount = 2
	subIn.Mode = sofsdisk.ModeDir | 0o755
	require.NoError(t, fs.persistInode(nSub, subIn))

	lcn, err := fs.handleFileCluster(nSub, 0, opAlloc)
	require.NoError(t, err)
	require.NoError(t, fs.dataSlot.Load(lcn))
	dc, err := fs.dataSlot.Get()
	require.NoError(t, err)
	entries := make([]sofsdisk.DirEntry, sofsdisk.DPC)
	entries[0] = sofsdisk.MakeDirEntry(".", nSub)
	entries[1] = sofsdisk.MakeDirEntry("..", 0)
	for i := 2; i < sofsdisk.DPC; i++ {
		entries[i] = sofsdisk.DirEntry{NInode: sofsdisk.NullInode}
	}
	dc.PutDirEntries(entries)
	require.NoError(t, fs.dataSlot.Store())
	require.NoError(t, fs.addDirEntry(0, "sub", nSub))

	makeChildFile(t, fs, nSub, "occupied")

	err = fs.removeOrDetach(0, "sub", dirRemove, 0, 0)
	require.Error(t, err)
	assert.True(t, sofserrors.Is(err, sofserrors.ENOTEMPTY))
}

func TestDirEntry_DetachKeepsInodeAlive(t *testing.T) {
	fs := newTestImage(t, 4096, FormatOptions{ITotal: 64, Quiet: true})
	n := makeChildFile(t, fs, 0, "open.txt")

	in, err := fs.getInode(n)
	require.NoError(t, err)
	in.RefCount = 2
	require.NoError(t, fs.persistInode(n, in))

	require.NoError(t, fs.removeOrDetach(0, "open.txt", dirDetach, 0, 0))

	_, found, err := fs.lookupDirEntry(0, "open.txt")
	require.NoError(t, err)
	assert.False(t, found)

	st, err := fs.StatInode(n)
	require.NoError(t, err)
	assert.EqualValues(t, 1, st.RefCount)
}
