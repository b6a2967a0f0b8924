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
	"encoding/binary"
)

// Every on-disk type here is built entirely out of fixed-size fields
// (uintN and arrays of them), so encoding/binary can (de)serialize it
// directly — the same technique the unixv1 reference formatter in the
// examples pack uses for its superblock/inode/bitmap region.

// EncodeSuperblock renders sb into exactly BlockSize bytes.
func EncodeSuperblock(sb *Superblock) []byte {
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, ByteOrder, sb); err != nil {
		panic(err) // fixed-size struct, cannot fail
	}
	return buf.Bytes()
}

// DecodeSuperblock parses exactly BlockSize bytes into a Superblock.
func DecodeSuperblock(b []byte) (*Superblock, error) {
	var sb Superblock
	if err := binary.Read(bytes.NewReader(b), ByteOrder, &sb); err != nil {
		return nil, err
	}
	return &sb, nil
}

// EncodeInode renders in into exactly InodeSize bytes.
func EncodeInode(in *Inode) []byte {
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, ByteOrder, in); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// DecodeInode parses exactly InodeSize bytes into an Inode.
func DecodeInode(b []byte) (*Inode, error) {
	var in Inode
	if err := binary.Read(bytes.NewReader(b), ByteOrder, &in); err != nil {
		return nil, err
	}
	return &in, nil
}

// EncodeDataCluster renders dc into exactly ClusterSize bytes.
func EncodeDataCluster(dc *DataCluster) []byte {
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, ByteOrder, dc); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// DecodeDataCluster parses exactly ClusterSize bytes into a DataCluster.
func DecodeDataCluster(b []byte) (*DataCluster, error) {
	var dc DataCluster
	if err := binary.Read(bytes.NewReader(b), ByteOrder, &dc); err != nil {
		return nil, err
	}
	return &dc, nil
}
