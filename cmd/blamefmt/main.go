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
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"gitlab.com/tozd/go/errors"

	"github.com/walteh/blamefmt/cmd/blamefmt/opts"
	"github.com/walteh/blamefmt/pkg/operation"

	_ "github.com/walteh/blamefmt/pkg/vcs/gitcli"
	_ "github.com/walteh/blamefmt/pkg/vcs/gogit"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	o := &opts.RootOpts{Stdout: os.Stdout, Stderr: os.Stderr}
	rootCmd := newRootCmd(o)
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(ctx)
	return exitCode(err)
}

// exitCode prints err unless the summary already reported it
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, operation.ErrPartialFailure):
		return 1
	default:
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		return 1
	}
}
