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

package sofsdisk

import (
	"bytes"
	"fmt"
)

// FCNode is the fixed-capacity reference cache shared by the retrieval and
// insertion data-cluster caches. For the
// retrieval cache, Idx is the index of the next cluster to hand out
// (Idx == DZoneCacheSize means empty). For the insertion cache, Idx is the
// index of the next free slot (Idx == 0 means empty).
type FCNode struct {
	Idx   uint32
	Cache [DZoneCacheSize]uint32
}

// Superblock occupies block 0, padded to exactly BlockSize bytes.
type Superblock struct {
	Magic   uint32
	Version uint32
	Name    [24]byte
	NTotal  uint32
	MStat   uint32

	ITableStart uint32
	ITableSize  uint32
	ITotal      uint32
	IFree       uint32
	IHead       uint32
	ITail       uint32

	DZoneStart uint32
	DZoneTotal uint32
	DZoneFree  uint32

	DZoneRetriev FCNode
	DZoneInsert  FCNode

	DHead uint32
	DTail uint32

	_ [BlockSize - 492]byte
}

// VolumeName returns the NUL-terminated volume name as a Go string.
func (sb *Superblock) VolumeName() string {
	n := bytes.IndexByte(sb.Name[:], 0)
	if n < 0 {
		n = len(sb.Name)
	}
	return string(sb.Name[:n])
}

// SetVolumeName truncates name to 23 bytes (leaving room for the NUL
// terminator) and stores it.
func (sb *Superblock) SetVolumeName(name string) {
	b := []byte(name)
	if len(b) > len(sb.Name)-1 {
		b = b[:len(sb.Name)-1]
	}
	sb.Name = [24]byte{}
	copy(sb.Name[:], b)
}

// Inode is the fixed-size per-file metadata record; IPB of these fit in one
// block. V1/V2 are a tagged-union variant context: when
// ModeFree is clear they hold (aTime, mTime); when set they hold
// (prev, next) inode numbers for the free double-linked list.
type Inode struct {
	Mode     uint16
	RefCount uint16
	Owner    uint32
	Group    uint32
	Size     uint32
	CluCount uint32
	V1       uint32
	V2       uint32
	D        [NDirect]uint32
	I1       uint32
	I2       uint32
}

func (in *Inode) IsFree() bool { return in.Mode&ModeFree != 0 }

func (in *Inode) Type() (InodeType, bool) {
	switch in.Mode & modeTypeMask {
	case ModeDir:
		return TypeDir, true
	case ModeFile:
		return TypeFile, true
	case ModeSymlink:
		return TypeSymlink, true
	default:
		return 0, false
	}
}

// ATime/MTime are only meaningful when the inode is in use.
func (in *Inode) ATime() uint32 { return in.V1 }
func (in *Inode) MTime() uint32 { return in.V2 }
func (in *Inode) SetATime(t uint32) { in.V1 = t }
func (in *Inode) SetMTime(t uint32) { in.V2 = t }

// Prev/Next are only meaningful when the inode carries the free-flag.
func (in *Inode) Prev() uint32     { return in.V1 }
func (in *Inode) Next() uint32     { return in.V2 }
func (in *Inode) SetPrev(n uint32) { in.V1 = n }
func (in *Inode) SetNext(n uint32) { in.V2 = n }

// Perm returns the nine low mode bits.
func (in *Inode) Perm() uint16 { return in.Mode & ModePermMask }

// AllRefs returns every content/indirection reference slot of the inode,
// direct references first, then I1, then I2 — the order handleFileCluster
// and cleanInode walk them in.
func (in *Inode) AllRefs() []uint32 {
	refs := make([]uint32, 0, NDirect+2)
	refs = append(refs, in.D[:]...)
	refs = append(refs, in.I1, in.I2)
	return refs
}

// ClusterHeader precedes every data cluster's body.
type ClusterHeader struct {
	Prev uint32
	Next uint32
	Stat uint32
}

// DataCluster is a full cluster: header plus BSLPC content bytes,
// reinterpreted per use as raw bytes, directory entries, or an LCN array.
type DataCluster struct {
	ClusterHeader
	Body [BSLPC]byte
}

// AsDirEntries reinterprets the cluster body as the fixed DPC array of
// directory entries.
func (dc *DataCluster) AsDirEntries() []DirEntry {
	entries := make([]DirEntry, DPC)
	for i := 0; i < DPC; i++ {
		entries[i] = decodeDirEntry(dc.Body[i*DirEntrySize : (i+1)*DirEntrySize])
	}
	return entries
}

// PutDirEntries writes back DPC directory entries into the cluster body.
func (dc *DataCluster) PutDirEntries(entries []DirEntry) {
	if len(entries) != DPC {
		panic(fmt.Sprintf("sofsdisk: expected %d directory entries, got %d", DPC, len(entries)))
	}
	for i, e := range entries {
		encodeDirEntry(dc.Body[i*DirEntrySize:(i+1)*DirEntrySize], e)
	}
}

// AsRefs reinterprets the cluster body as the fixed RPC array of LCNs (used
// by single- and double-indirection clusters).
func (dc *DataCluster) AsRefs() []uint32 {
	refs := make([]uint32, RPC)
	for i := 0; i < RPC; i++ {
		refs[i] = ByteOrder.Uint32(dc.Body[i*4 : i*4+4])
	}
	return refs
}

// PutRefs writes back the RPC array of LCNs into the cluster body.
func (dc *DataCluster) PutRefs(refs []uint32) {
	if len(refs) != RPC {
		panic(fmt.Sprintf("sofsdisk: expected %d references, got %d", RPC, len(refs)))
	}
	for i, r := range refs {
		ByteOrder.PutUint32(dc.Body[i*4:i*4+4], r)
	}
}

// DirEntry is one slot of a directory's content. Name is the fixed,
// NUL-padded on-disk byte array (NameString returns it as a Go string);
// its clean/in-use states are queried with the IsClean/IsInUse helpers
// below.
type DirEntry struct {
	Name   [MaxName + 1]byte
	NInode uint32
}

// NameString returns the raw name bytes as a Go string up to the first NUL.
func (e DirEntry) NameString() string {
	n := bytes.IndexByte(e.Name[:], 0)
	if n < 0 {
		n = len(e.Name)
	}
	return string(e.Name[:n])
}

// IsClean reports the all-zero, NInode==NullInode state.
func (e DirEntry) IsClean() bool {
	if e.NInode != NullInode {
		return false
	}
	for _, b := range e.Name {
		if b != 0 {
			return false
		}
	}
	return true
}

// IsInUse reports whether the entry names a live inode: not clean and
// NInode != NullInode. A tombstoned entry (see Tombstone) also satisfies
// this, since tombstoning only mangles the name and leaves NInode in
// place; distinguishing the two is the caller's job, not this helper's.
func (e DirEntry) IsInUse() bool {
	return !e.IsClean() && e.NInode != NullInode
}

// MakeDirEntry builds an in-use entry for name/inode.
func MakeDirEntry(name string, inode uint32) DirEntry {
	var e DirEntry
	copy(e.Name[:MaxName], name)
	e.NInode = inode
	return e
}

// Tombstone swaps the first and last name bytes of an in-use entry,
// producing a "deleted-but-named" entry: still readable for debugging,
// and no longer matched by a lookup of the old name unless its first and
// last bytes are equal (such a name is left unchanged).
func (e DirEntry) Tombstone() DirEntry {
	name := e.NameString()
	if len(name) == 0 {
		return e
	}
	b := []byte(name)
	b[0], b[len(b)-1] = b[len(b)-1], b[0]
	var out DirEntry
	copy(out.Name[:MaxName], b)
	out.NInode = e.NInode
	return out
}

// Clean zeroes an entry entirely (the DETACH display state).
func (e DirEntry) Clean() DirEntry {
	return DirEntry{NInode: NullInode}
}

func decodeDirEntry(b []byte) DirEntry {
	var e DirEntry
	copy(e.Name[:], b[:MaxName+1])
	e.NInode = ByteOrder.Uint32(b[MaxName+1:])
	return e
}

func encodeDirEntry(b []byte, e DirEntry) {
	copy(b[:MaxName+1], e.Name[:])
	ByteOrder.PutUint32(b[MaxName+1:], e.NInode)
}
