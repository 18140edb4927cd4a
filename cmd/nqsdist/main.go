// Copyright 2026 go-nqs Authors
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

// nqsdist evaluates RBM wavefunctions and the Hilbert-space distance between
// an operator applied to a reference wavefunction and a candidate.
//
// Usage:
//
//	nqsdist info
//	nqsdist vector --config run.yaml
//	nqsdist distance --gradient
//	nqsdist train --steps 500 --history runs/
//
// Settings come from defaults, an optional YAML file (--config), a .env file
// in the working directory and NQS_* environment variables.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/ajroetker/go-nqs/nqs/config"
)

// app is the state shared by the subcommands of one invocation.
type app struct {
	configPath string
	logLevel   string
	trace      bool

	cfg      config.Config
	logger   *slog.Logger
	shutdown func(context.Context) error
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "nqsdist",
		Short: "Evaluate RBM wavefunctions and Hilbert-space distances",
		Long: `nqsdist evaluates restricted-Boltzmann-machine wavefunctions over spin
configurations and estimates the distance between an operator applied to a
reference wavefunction and a candidate, optionally fitting the candidate by
gradient descent.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.shutdown != nil {
				return a.shutdown(cmd.Context())
			}
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "YAML configuration file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&a.trace, "trace", false, "print OpenTelemetry spans to stderr")

	root.AddCommand(
		newInfoCmd(a),
		newVectorCmd(a),
		newDistanceCmd(a),
		newTrainCmd(a),
	)
	return root
}

// setup loads .env and the configuration, then installs the logger and, with
// --trace, a stdout span exporter.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env: %w", err)
	}
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	a.cfg = cfg
	a.logger = cfg.Log.NewLogger(cmd.ErrOrStderr())
	slog.SetDefault(a.logger)

	if a.trace {
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(cmd.ErrOrStderr()), stdouttrace.WithPrettyPrint())
		if err != nil {
			return fmt.Errorf("create span exporter: %w", err)
		}
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithSyncer(exporter),
			sdktrace.WithSampler(sdktrace.AlwaysSample()),
		)
		otel.SetTracerProvider(tp)
		a.shutdown = tp.Shutdown
	}
	return nil
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
