// Copyright 2025 walteh LLC
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

package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/walteh/blamefmt/cmd/blamefmt/commands"
	"github.com/walteh/blamefmt/cmd/blamefmt/opts"
)

// newRootCmd builds the command tree. Running the root command formats.
func newRootCmd(o *opts.RootOpts) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "blamefmt [path]",
		Short: "Run a code formatter without taking over git blame",
		Long: `blamefmt formats a repository and commits every edit under the name of
the person who last touched the lines it changes. Running it without a
subcommand is the same as "blamefmt format".`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			o.Logger = setupLogging(o.Flags.Debug)
			cmd.SetContext(o.Logger.WithContext(cmd.Context()))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return commands.RunFormat(cmd, o, args)
		},
	}

	addRootFlags(rootCmd, o)

	rootCmd.AddCommand(commands.NewFormatCmd(o))
	rootCmd.AddCommand(commands.NewPlanCmd(o))
	rootCmd.AddCommand(commands.NewRestoreCmd(o))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command, o *opts.RootOpts) {
	o.Flags.Register(cmd.PersistentFlags())
}

// setupLogging configures zerolog based on flags. The console output is
// mirrored into zerolog, so stderr only gets warnings unless debugging.
func setupLogging(debug bool) zerolog.Logger {
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &log
	return log
}
