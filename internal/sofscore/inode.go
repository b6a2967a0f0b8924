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
	"github.com/sofs14/sofs/internal/sofsdisk"
	"github.com/sofs14/sofs/internal/sofserrors"
)

// loadInodeBlock ensures the inode-table block containing n is staged.
func (fs *FileSystem) loadInodeBlock(n uint32) error {
	blockIdx, _ := InodeCoord(n)
	return fs.iBlockSlot.Load(blockIdx)
}

// getInode loads n's containing block and decodes n's record.
func (fs *FileSystem) getInode(n uint32) (*sofsdisk.Inode, error) {
	if err := fs.validateInodeNumber(n); err != nil {
		return nil, err
	}
	if err := fs.loadInodeBlock(n); err != nil {
		return nil, err
	}
	block, err := fs.iBlockSlot.Get()
	if err != nil {
		return nil, err
	}
	_, off := InodeCoord(n)
	return sofsdisk.DecodeInode(block[off*sofsdisk.InodeSize : (off+1)*sofsdisk.InodeSize])
}

// putInode encodes in into n's slot of the currently staged block. The
// block must already be the one containing n (call getInode(n) first).
func (fs *FileSystem) putInode(n uint32, in *sofsdisk.Inode) error {
	block, err := fs.iBlockSlot.Get()
	if err != nil {
		return err
	}
	_, off := InodeCoord(n)
	copy(block[off*sofsdisk.InodeSize:(off+1)*sofsdisk.InodeSize], sofsdisk.EncodeInode(in))
	return nil
}

// persistInodeBlock writes the currently staged inode-table block back.
func (fs *FileSystem) persistInodeBlock() error {
	return fs.iBlockSlot.Store()
}

func (fs *FileSystem) validateInodeNumber(n uint32) error {
	sb, err := fs.loadSuperblock()
	if err != nil {
		return err
	}
	if n >= sb.ITotal {
		return sofserrors.New(sofserrors.EINVAL, "inode number %d out of range (iTotal=%d)", n, sb.ITotal)
	}
	return nil
}

// InodeStat is the read-only bundle of inode fields exposed to callers
// that only need to inspect an inode, grounded on the gcsfuse inode
// interface's Attributes(ctx) accessor (fs/inode/inode.go).
type InodeStat struct {
	Number   uint32
	Mode     uint16
	Type     sofsdisk.InodeType
	RefCount uint16
	Owner    uint32
	Group    uint32
	Size     uint32
	CluCount uint32
	ATime    uint32
	MTime    uint32
}

// StatInode returns a read-only snapshot of an in-use inode's metadata.
func (fs *FileSystem) StatInode(n uint32) (InodeStat, error) {
	in, err := fs.getInode(n)
	if err != nil {
		return InodeStat{}, err
	}
	if in.IsFree() {
		return InodeStat{}, sofserrors.New(sofserrors.EBADINUSEINODE, "inode %d is free", n)
	}
	typ, ok := in.Type()
	if !ok {
		return InodeStat{}, sofserrors.New(sofserrors.EBADINUSEINODE, "inode %d has illegal type bits", n)
	}
	return InodeStat{
		Number:   n,
		Mode:     in.Mode,
		Type:     typ,
		RefCount: in.RefCount,
		Owner:    in.Owner,
		Group:    in.Group,
		Size:     in.Size,
		CluCount: in.CluCount,
		ATime:    in.ATime(),
		MTime:    in.MTime(),
	}, nil
}

// TouchInode stamps aTime and, if modified is true, mTime with the
// current clock time, grounded on gcsproxy.MutableContent's mtime
// bookkeeping in WriteAt/Truncate.
func (fs *FileSystem) TouchInode(n uint32, modified bool) error {
	in, err := fs.getInode(n)
	if err != nil {
		return err
	}
	if in.IsFree() {
		return sofserrors.New(sofserrors.EBADINUSEINODE, "inode %d is free", n)
	}
	now := uint32(fs.clock.Now().Unix())
	in.SetATime(now)
	if modified {
		in.SetMTime(now)
	}
	if err := fs.putInode(n, in); err != nil {
		return err
	}
	return fs.persistInodeBlock()
}
