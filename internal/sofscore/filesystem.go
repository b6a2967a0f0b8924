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

// Package sofscore is the SOFS core: the superblock/inode/cluster
// accessors, the inode allocator, the cluster allocator, the file-cluster
// walker, the access check, the directory-entry operations, the
// consistency checkers and the formatter.
package sofscore

import (
	"github.com/sofs14/sofs/internal/bufcache"
	"github.com/sofs14/sofs/internal/sofsclock"
	"github.com/sofs14/sofs/internal/sofsdisk"
)

// FileSystem is the single logical task driving one SOFS image: it owns
// the device and the four accessor slots, and every exported method on it runs
// synchronously to completion before returning. There is no internal
// locking because there is, by construction, only ever one of these
// driving one device.
type FileSystem struct {
	dev   bufcache.Device
	clock sofsclock.Clock

	sbSlot     *slot[struct{}, sofsdisk.Superblock]
	iBlockSlot *slot[uint32, [sofsdisk.BlockSize]byte]
	indirSlot  *slot[uint32, sofsdisk.DataCluster]
	dataSlot   *slot[uint32, sofsdisk.DataCluster]
}

// New wires a FileSystem on top of an already-open device.
func New(dev bufcache.Device, clock sofsclock.Clock) *FileSystem {
	fs := &FileSystem{dev: dev, clock: clock}

	fs.sbSlot = newSlot(
		func(struct{}) (sofsdisk.Superblock, error) {
			raw, err := dev.ReadBlock(0)
			if err != nil {
				return sofsdisk.Superblock{}, err
			}
			sb, err := sofsdisk.DecodeSuperblock(raw[:])
			if err != nil {
				return sofsdisk.Superblock{}, err
			}
			return *sb, nil
		},
		func(_ struct{}, sb sofsdisk.Superblock) error {
			var raw [sofsdisk.BlockSize]byte
			copy(raw[:], sofsdisk.EncodeSuperblock(&sb))
			return dev.WriteBlock(0, raw)
		},
	)

	fs.iBlockSlot = newSlot(
		func(blockIdx uint32) ([sofsdisk.BlockSize]byte, error) {
			return dev.ReadBlock(1 + blockIdx)
		},
		func(blockIdx uint32, data [sofsdisk.BlockSize]byte) error {
			return dev.WriteBlock(1+blockIdx, data)
		},
	)

	fs.indirSlot = newSlot(fs.loadCluster, fs.storeCluster)
	fs.dataSlot = newSlot(fs.loadCluster, fs.storeCluster)

	return fs
}

func (fs *FileSystem) loadCluster(lcn uint32) (sofsdisk.DataCluster, error) {
	raw, err := fs.dev.ReadCluster(fs.pbnOfLCN(lcn))
	if err != nil {
		return sofsdisk.DataCluster{}, err
	}
	dc, err := sofsdisk.DecodeDataCluster(raw[:])
	if err != nil {
		return sofsdisk.DataCluster{}, err
	}
	return *dc, nil
}

func (fs *FileSystem) storeCluster(lcn uint32, dc sofsdisk.DataCluster) error {
	var raw [sofsdisk.ClusterSize]byte
	copy(raw[:], sofsdisk.EncodeDataCluster(&dc))
	return fs.dev.WriteCluster(fs.pbnOfLCN(lcn), raw)
}

// pbnOfLCN converts a logical cluster number to the PBN of its first
// block; it requires the superblock to already be loaded.
func (fs *FileSystem) pbnOfLCN(lcn uint32) uint32 {
	sb, _ := fs.sbSlot.Get()
	return sb.DZoneStart + lcn*sofsdisk.BlocksPerCluster
}

// InodeCoord converts an inode number to (blockIndex, offsetInBlock).
// Valid when n < iTotal.
func InodeCoord(n uint32) (blockIndex uint32, offsetInBlock uint32) {
	return n / sofsdisk.IPB, n % sofsdisk.IPB
}

// ByteCoord converts a byte-in-file position to (clustInd, offset).
// Valid when p < MaxFileClusters*BSLPC.
func ByteCoord(p uint64) (clustInd uint64, offset uint64) {
	return p / sofsdisk.BSLPC, p % sofsdisk.BSLPC
}
