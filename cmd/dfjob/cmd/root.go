// Licensed to the Apache Software Foundation (ASF) under one or more
// contributor license agreements.  See the NOTICE file distributed with
// this work for additional information regarding copyright ownership.
// The ASF licenses this file to You under the Apache License, Version 2.0
// (the "License"); you may not use this file except in compliance with
// the License.  You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cmd contains the dfjob commands.
package cmd

import (
	"context"

	"github.com/nicku33/beam/graph"
	"github.com/nicku33/beam/graphx"
	"github.com/nicku33/beam/internal/errors"
	"github.com/nicku33/beam/log"
	"github.com/nicku33/beam/options/jobopts"
	"github.com/nicku33/beam/runners/dataflow/dataflowlib"
	"github.com/spf13/cobra"

	// Pipelines, configurations and jobs may live on any of these.
	_ "github.com/nicku33/beam/io/filesystem/gcs"
	_ "github.com/nicku33/beam/io/filesystem/local"
	_ "github.com/nicku33/beam/io/filesystem/memfs"
	_ "github.com/nicku33/beam/io/filesystem/s3"
)

type globals struct {
	config    string
	logLevel  string
	logFormat string
	job       *jobopts.Flags
}

// NewRoot returns the dfjob command tree.
func NewRoot() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:               "dfjob",
		Short:             "dfjob translates pipeline descriptions to Dataflow jobs",
		SilenceUsage:      true,
		PersistentPreRunE: g.setup,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&g.config, "config", "", "YAML job configuration file (optional).")
	pf.StringVar(&g.logLevel, "log_level", "info", "Minimum log severity: debug, info, warn or error.")
	pf.StringVar(&g.logFormat, "log_format", "text", "Log format: text or json.")
	g.job = jobopts.BindFlags(pf)

	root.AddCommand(newTranslateCmd(g), newValidateCmd(g), newKindsCmd())
	return root
}

func (g *globals) setup(cmd *cobra.Command, _ []string) error {
	sev, err := log.ParseSeverity(g.logLevel)
	if err != nil {
		return err
	}
	switch g.logFormat {
	case "text":
		log.SetLogger(log.NewStructural(cmd.ErrOrStderr(), false, sev))
	case "json":
		log.SetLogger(log.NewStructural(cmd.ErrOrStderr(), true, sev))
	default:
		return errors.Errorf("invalid --log_format %q; want text or json", g.logFormat)
	}
	return nil
}

// translate loads the pipeline at path and the job configuration, and
// translates the pipeline.
func (g *globals) translate(ctx context.Context, path string) (*graph.Pipeline, *dataflowlib.JobSpecification, error) {
	d, p, err := graphx.Load(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := g.job.Resolve(ctx, g.config)
	if err != nil {
		return nil, nil, err
	}
	opts, err := cfg.JobOptions(d.Name)
	if err != nil {
		return nil, nil, errors.Wrap(err, "invalid job configuration")
	}
	spec, err := dataflowlib.Translate(ctx, p, opts, dataflowlib.DefaultRegistry())
	if err != nil {
		return nil, nil, err
	}
	return p, spec, nil
}
