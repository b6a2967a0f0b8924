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

	"github.com/sofs14/sofs/internal/sofsdisk"
	"github.com/sofs14/sofs/internal/sofserrors"
	"github.com/sofs14/sofs/internal/sofslog"
)

// FormatOptions configures Format.
type FormatOptions struct {
	VolumeName string
	// ITotal is the requested inode count; 0 selects the default
	// (nTotal/8), matching mkfs's -i flag default.
	ITotal   uint32
	ZeroMode bool
	Quiet    bool
}

const defaultVolumeName = "SOFS14"

// Format lays out a fresh superblock, inode table, root directory and
// free-cluster backbone across an already-open device whose size is a
// positive multiple of BlockSize. ctx is polled while writing the inode
// table and the free-cluster backbone, the two steps whose cost scales
// with device size; cancellation leaves the image mid-format, still
// carrying the formatting magic, so it must be reformatted before use.
func (fs *FileSystem) Format(ctx context.Context, opts FormatOptions) error {
	size, err := fs.dev.Size()
	if err != nil {
		return err
	}
	if size <= 0 || size%sofsdisk.BlockSize != 0 {
		return sofserrors.New(sofserrors.EINVAL, "device size %d is not a positive multiple of %d", size, sofsdisk.BlockSize)
	}
	nTotal := uint32(size / sofsdisk.BlockSize)

	itotal := opts.ITotal
	if itotal == 0 {
		itotal = nTotal / 8
	}
	if itotal == 0 {
		return sofserrors.New(sofserrors.EINVAL, "device too small to host any inodes")
	}

	// Step 1: geometry, with the adjustment that makes the data zone
	// consume exactly the remaining blocks.
	iBlkTotal := ceilDiv(itotal, sofsdisk.IPB)
	if nTotal <= 1+iBlkTotal {
		return sofserrors.New(sofserrors.EINVAL, "device too small for %d inodes", itotal)
	}
	nClustTotal := (nTotal - 1 - iBlkTotal) / sofsdisk.BlocksPerCluster
	if nClustTotal < 2 {
		return sofserrors.New(sofserrors.EINVAL, "device too small to host a data zone")
	}
	iBlkTotal = nTotal - 1 - nClustTotal*sofsdisk.BlocksPerCluster
	itotal = iBlkTotal * sofsdisk.IPB

	name := opts.VolumeName
	if name == "" {
		name = defaultVolumeName
	}

	if !opts.Quiet {
		sofslog.Infof("sofscore: formatting %d blocks: %d inodes, %d data clusters", nTotal, itotal, nClustTotal)
	}

	// Step 2: superblock, with the intentionally-wrong formatting magic.
	sb, err := fs.loadSuperblock()
	if err != nil {
		return err
	}
	*sb = sofsdisk.Superblock{
		Magic:   sofsdisk.FormattingMagic,
		Version: sofsdisk.VersionNumber,
		NTotal:  nTotal,
		MStat:   sofsdisk.PRU,

		ITableStart: 1,
		ITableSize:  iBlkTotal,
		ITotal:      itotal,
		IFree:       itotal - 1,
		IHead:       1,
		ITail:       itotal - 1,

		DZoneStart: 1 + iBlkTotal,
		DZoneTotal: nClustTotal,
		DZoneFree:  nClustTotal - 1,

		DHead: 1,
		DTail: nClustTotal - 1,
	}
	sb.SetVolumeName(name)
	sb.DZoneRetriev.Idx = sofsdisk.DZoneCacheSize
	sb.DZoneInsert.Idx = 0
	if err := fs.storeSuperblock(); err != nil {
		return err
	}

	now := uint32(fs.clock.Now().Unix())
	uid, gid := uint32(os.Getuid()), uint32(os.Getgid())

	// Step 3: root directory inode.
	root := sofsdisk.Inode{
		Mode:     sofsdisk.ModeDir | 0o777,
		RefCount: 2,
		Owner:    uid,
		Group:    gid,
		Size:     uint32(sofsdisk.DPC * sofsdisk.DirEntrySize),
		CluCount: 1,
	}
	root.SetATime(now)
	root.SetMTime(now)
	for i := range root.D {
		root.D[i] = sofsdisk.NullCluster
	}
	root.D[0] = 0
	root.I1 = sofsdisk.NullCluster
	root.I2 = sofsdisk.NullCluster
	if err := fs.persistInode(0, &root); err != nil {
		return err
	}

	// Step 4: every other inode starts free, doubly-linked in order.
	for n := uint32(1); n < itotal; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		var in sofsdisk.Inode
		in.Mode = sofsdisk.ModeFree
		for i := range in.D {
			in.D[i] = sofsdisk.NullCluster
		}
		in.I1 = sofsdisk.NullCluster
		in.I2 = sofsdisk.NullCluster
		if n > 1 {
			in.SetPrev(n - 1)
		} else {
			in.SetPrev(sofsdisk.NullInode)
		}
		if n < itotal-1 {
			in.SetNext(n + 1)
		} else {
			in.SetNext(sofsdisk.NullInode)
		}
		if err := fs.persistInode(n, &in); err != nil {
			return err
		}
	}

	// Step 5: LCN 0 is the root directory's own content cluster.
	if err := fs.indirSlot.Load(0); err != nil {
		return err
	}
	rootCluster, err := fs.indirSlot.Get()
	if err != nil {
		return err
	}
	rootCluster.Prev = sofsdisk.NullCluster
	rootCluster.Next = sofsdisk.NullCluster
	rootCluster.Stat = 0
	entries := make([]sofsdisk.DirEntry, sofsdisk.DPC)
	entries[0] = sofsdisk.MakeDirEntry(".", 0)
	entries[1] = sofsdisk.MakeDirEntry("..", 0)
	for i := 2; i < sofsdisk.DPC; i++ {
		entries[i] = sofsdisk.DirEntry{NInode: sofsdisk.NullInode}
	}
	rootCluster.PutDirEntries(entries)
	if err := fs.indirSlot.Store(); err != nil {
		return err
	}

	// Step 6: the free-cluster backbone, LCN 1..nClustTotal-1.
	var zeroBody [sofsdisk.BSLPC]byte
	for lcn := uint32(1); lcn < nClustTotal; lcn++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fs.dataSlot.Load(lcn); err != nil {
			return err
		}
		dc, err := fs.dataSlot.Get()
		if err != nil {
			return err
		}
		if lcn > 1 {
			dc.Prev = lcn - 1
		} else {
			dc.Prev = sofsdisk.NullCluster
		}
		if lcn < nClustTotal-1 {
			dc.Next = lcn + 1
		} else {
			dc.Next = sofsdisk.NullCluster
		}
		dc.Stat = sofsdisk.NullInode
		if opts.ZeroMode {
			dc.Body = zeroBody
		}
		if err := fs.dataSlot.Store(); err != nil {
			return err
		}
	}

	// Step 7: the image is now well-formed; lift the formatting magic.
	sb, err = fs.loadSuperblock()
	if err != nil {
		return err
	}
	sb.Magic = sofsdisk.MagicNumber
	if err := fs.storeSuperblock(); err != nil {
		return err
	}

	// Step 8: any consistency failure aborts formatting.
	report, err := fs.Check(ctx)
	if err != nil {
		return err
	}
	if !report.OK() {
		return sofserrors.Wrap(sofserrors.EBADSB, report.Errors[0])
	}

	if !opts.Quiet {
		sofslog.Infof("sofscore: format complete")
	}
	return nil
}

func ceilDiv(a, b uint32) uint32 {
	return (a + b - 1) / b
}
