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

// Command fsck runs the on-disk consistency checkers against an existing
// SOFS image and reports every violation it finds.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sofs14/sofs/internal/bufcache"
	"github.com/sofs14/sofs/internal/sofsclock"
	"github.com/sofs14/sofs/internal/sofscfg"
	"github.com/sofs14/sofs/internal/sofscore"
	"github.com/sofs14/sofs/internal/sofserrors"
)

var rootCmd = &cobra.Command{
	Use:   "fsck device",
	Short: "Check a SOFS volume's on-disk consistency",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := sofscfg.Default()
		if err := sofscfg.Decode(viper.GetViper(), &cfg); err != nil {
			return err
		}
		cfg.Device = args[0]
		if err := cfg.Validate(); err != nil {
			return err
		}
		return runFsck(cmd.Context(), cfg)
	},
}

func runFsck(ctx context.Context, cfg sofscfg.Config) error {
	dev := bufcache.NewLocalFileDevice()
	if err := dev.OpenDevice(cfg.Device, 4); err != nil {
		return err
	}
	defer dev.CloseDevice()

	fs := sofscore.New(dev, sofsclock.RealClock{})
	report, err := fs.Check(ctx)
	if err != nil {
		return err
	}
	if report.OK() {
		if !cfg.Quiet {
			fmt.Println("fsck: clean")
		}
		return nil
	}
	for _, e := range report.Errors {
		fmt.Fprintln(os.Stderr, sofserrors.Diagnostic("fsck", e))
	}
	return fmt.Errorf("fsck: %d inconsistencies found", len(report.Errors))
}

func init() {
	if err := sofscfg.BindFsckFlags(rootCmd.Flags()); err != nil {
		panic(err)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, sofserrors.Diagnostic("fsck", err))
		os.Exit(1)
	}
}
