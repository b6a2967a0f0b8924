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

// Package bufcache is the buffer-cache client the SOFS core consumes.
// The core never touches a device directly: every mutation goes through
// this minimal interface. Only a local-file backed
// implementation is provided here — a real deployment would swap this out
// for whatever block-device/byte-channel client the host environment
// supplies, exactly as gcsfuse's internal/gcloud/gcs.Bucket is an
// interface the file system layer consumes without knowing whether the
// concrete backing store is real GCS or a fake.
package bufcache

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/sofs14/sofs/internal/sofsdisk"
	"github.com/sofs14/sofs/internal/sofserrors"
)

// Device is the synchronous block/cluster I/O surface the SOFS core is
// built on.
type Device interface {
	// OpenDevice opens the backing store at path. numSlots is advisory
	// (buffer-pool sizing in a richer buffer cache); the local-file
	// implementation ignores it.
	OpenDevice(path string, numSlots int) error
	CloseDevice() error

	ReadBlock(pbn uint32) ([sofsdisk.BlockSize]byte, error)
	WriteBlock(pbn uint32, data [sofsdisk.BlockSize]byte) error

	ReadCluster(firstBlockPBN uint32) ([sofsdisk.ClusterSize]byte, error)
	WriteCluster(firstBlockPBN uint32, data [sofsdisk.ClusterSize]byte) error

	// Size returns the device length in bytes.
	Size() (int64, error)
}

// LocalFileDevice implements Device over an *os.File backing store whose
// length must be a multiple of the block size.
type LocalFileDevice struct {
	mu   sync.Mutex
	f    *os.File
	open bool
}

var _ Device = (*LocalFileDevice)(nil)

func NewLocalFileDevice() *LocalFileDevice {
	return &LocalFileDevice{}
}

func (d *LocalFileDevice) OpenDevice(path string, _ int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return sofserrors.Wrap(sofserrors.EDEVNOTOPEN, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return sofserrors.Wrap(sofserrors.EDEVNOTOPEN, err)
	}
	if info.Size() <= 0 || info.Size()%sofsdisk.BlockSize != 0 {
		f.Close()
		return sofserrors.New(sofserrors.EINVAL,
			"device size %d is not a positive multiple of block size %d",
			info.Size(), sofsdisk.BlockSize)
	}

	d.f = f
	d.open = true
	return nil
}

func (d *LocalFileDevice) CloseDevice() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.open {
		return sofserrors.New(sofserrors.EDEVNOTOPEN, "")
	}
	err := d.f.Close()
	d.open = false
	d.f = nil
	if err != nil {
		return sofserrors.Wrap(sofserrors.EIOWRITE, err)
	}
	return nil
}

func (d *LocalFileDevice) Size() (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.open {
		return 0, sofserrors.New(sofserrors.EDEVNOTOPEN, "")
	}
	info, err := d.f.Stat()
	if err != nil {
		return 0, sofserrors.Wrap(sofserrors.EIOSEEK, err)
	}
	return info.Size(), nil
}

func (d *LocalFileDevice) ReadBlock(pbn uint32) ([sofsdisk.BlockSize]byte, error) {
	var out [sofsdisk.BlockSize]byte

	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.open {
		return out, sofserrors.New(sofserrors.EDEVNOTOPEN, "")
	}
	if _, err := d.f.ReadAt(out[:], int64(pbn)*sofsdisk.BlockSize); err != nil && err != io.EOF {
		return out, sofserrors.Wrap(sofserrors.EIOREAD, err)
	}
	return out, nil
}

func (d *LocalFileDevice) WriteBlock(pbn uint32, data [sofsdisk.BlockSize]byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.open {
		return sofserrors.New(sofserrors.EDEVNOTOPEN, "")
	}
	if _, err := d.f.WriteAt(data[:], int64(pbn)*sofsdisk.BlockSize); err != nil {
		return sofserrors.Wrap(sofserrors.EIOWRITE, err)
	}
	return nil
}

func (d *LocalFileDevice) ReadCluster(firstBlockPBN uint32) ([sofsdisk.ClusterSize]byte, error) {
	var out [sofsdisk.ClusterSize]byte

	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.open {
		return out, sofserrors.New(sofserrors.EDEVNOTOPEN, "")
	}
	if _, err := d.f.ReadAt(out[:], int64(firstBlockPBN)*sofsdisk.BlockSize); err != nil && err != io.EOF {
		return out, sofserrors.Wrap(sofserrors.EIOREAD, err)
	}
	return out, nil
}

func (d *LocalFileDevice) WriteCluster(firstBlockPBN uint32, data [sofsdisk.ClusterSize]byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.open {
		return sofserrors.New(sofserrors.EDEVNOTOPEN, "")
	}
	if _, err := d.f.WriteAt(data[:], int64(firstBlockPBN)*sofsdisk.BlockSize); err != nil {
		return sofserrors.Wrap(sofserrors.EIOWRITE, err)
	}
	return nil
}

func (d *LocalFileDevice) String() string {
	return fmt.Sprintf("LocalFileDevice{open=%v}", d.open)
}
