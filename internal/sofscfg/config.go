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

// Package sofscfg holds the typed configuration shared by the mkfs and fsck
// command-line tools, bound from flags through viper/pflag the way
// gcsfuse's cfg package binds its own Config.
package sofscfg

// Config is the configuration mkfs and fsck build up from flags. fsck
// only ever reads Device and Quiet; the rest are mkfs-only.
type Config struct {
	// Device is the path to the block device or regular file to operate on.
	Device string `mapstructure:"device"`

	// VolumeName is stamped into the superblock by mkfs. Empty selects
	// the default.
	VolumeName string `mapstructure:"volume-name"`

	// ITotal is the requested inode count (mkfs's -i flag). Zero selects
	// the default of nTotal/8.
	ITotal uint32 `mapstructure:"inodes"`

	// ZeroMode, when set, makes mkfs zero every free data cluster's body
	// instead of leaving it as-is (mkfs's -z flag).
	ZeroMode bool `mapstructure:"zero"`

	// Quiet suppresses mkfs/fsck's informational logging (the -q flag).
	Quiet bool `mapstructure:"quiet"`
}

// DefaultVolumeName is the superblock volume name mkfs stamps when -n is
// not given, matching the formatter's own FormatOptions default.
const DefaultVolumeName = "SOFS14"

// Default returns the configuration mkfs and fsck start from before flags
// are applied, mirroring cfg.GetDefaultLoggingConfig's role for gcsfuse.
func Default() Config {
	return Config{
		VolumeName: DefaultVolumeName,
		ITotal:     0,
		ZeroMode:   false,
		Quiet:      false,
	}
}
