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

package sofscfg

import "fmt"

const (
	// MaxVolumeNameLen matches the superblock's fixed Name field.
	MaxVolumeNameLen = 23
)

// Validate checks the fields mkfs/fsck can catch before ever opening the
// device, the way cfg.validate does for gcsfuse's flag set.
func (c *Config) Validate() error {
	if c.Device == "" {
		return fmt.Errorf("device path must not be empty")
	}
	if len(c.VolumeName) > MaxVolumeNameLen {
		return fmt.Errorf("volume name %q is longer than %d bytes", c.VolumeName, MaxVolumeNameLen)
	}
	return nil
}
