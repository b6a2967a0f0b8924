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

import (
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// BindMkfsFlags registers mkfs's flag set and binds every flag into
// viper, mirroring cfg.BindFlags's flagSet/viper.BindPFlag pairing.
func BindMkfsFlags(flagSet *pflag.FlagSet) error {
	flagSet.StringP("volume-name", "n", DefaultVolumeName, "volume name stamped into the superblock")
	flagSet.Uint32P("inodes", "i", 0, "inode count; 0 selects the default of nTotal/8")
	flagSet.BoolP("zero", "z", false, "zero every free data cluster's body while formatting")
	flagSet.BoolP("quiet", "q", false, "suppress informational logging")

	for _, name := range []string{"volume-name", "inodes", "zero", "quiet"} {
		if err := viper.BindPFlag(name, flagSet.Lookup(name)); err != nil {
			return err
		}
	}
	return nil
}

// BindFsckFlags registers fsck's flag set.
func BindFsckFlags(flagSet *pflag.FlagSet) error {
	flagSet.BoolP("quiet", "q", false, "do not print the message for a clean volume")
	return viper.BindPFlag("quiet", flagSet.Lookup("quiet"))
}

// decodeHook is the decode hook Decode hands to viper, in the place where
// gcsfuse's hookFunc adapts its own Octal/LogSeverity/Protocol types. It
// only converts strings to time.Duration, which no Config field uses;
// ITotal is filled from the flag's string value by viper's weakly typed
// decoding, not by this hook.
func decodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.StringToTimeDurationHookFunc()
}

// Decode unmarshals viper's current state into cfg, applying decodeHook the
// way gcsfuse's config.go composes mapstructure.ComposeDecodeHookFunc.
func Decode(v *viper.Viper, cfg *Config) error {
	return v.Unmarshal(cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(decodeHook())))
}
