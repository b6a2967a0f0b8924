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
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValidOnceDeviceIsSet(t *testing.T) {
	cfg := Default()
	assert.Equal(t, DefaultVolumeName, cfg.VolumeName)
	assert.Zero(t, cfg.ITotal)

	cfg.Device = ""
	require.Error(t, cfg.Validate())

	cfg.Device = "/tmp/sofs.img"
	require.NoError(t, cfg.Validate())
}

func TestValidate_RejectsOverlongVolumeName(t *testing.T) {
	cfg := Default()
	cfg.Device = "/tmp/sofs.img"
	cfg.VolumeName = strings.Repeat("x", MaxVolumeNameLen+1)
	require.Error(t, cfg.Validate())
}

func TestBindMkfsFlags_DecodesIntoConfig(t *testing.T) {
	fs := pflag.NewFlagSet("mkfs", pflag.ContinueOnError)
	require.NoError(t, BindMkfsFlags(fs))
	require.NoError(t, fs.Parse([]string{"-n", "BUILDVOL", "-i", "256", "-z", "-q"}))

	v := viper.GetViper()
	cfg := Default()
	require.NoError(t, Decode(v, &cfg))

	assert.Equal(t, "BUILDVOL", cfg.VolumeName)
	assert.EqualValues(t, 256, cfg.ITotal)
	assert.True(t, cfg.ZeroMode)
	assert.True(t, cfg.Quiet)
}

func TestBindFsckFlags_OnlyBindsQuiet(t *testing.T) {
	fs := pflag.NewFlagSet("fsck", pflag.ContinueOnError)
	require.NoError(t, BindFsckFlags(fs))
	assert.Nil(t, fs.Lookup("volume-name"))
	assert.NotNil(t, fs.Lookup("quiet"))
}
