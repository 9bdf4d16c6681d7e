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

package cmd

import (
	"fmt"

	"github.com/nicku33/beam/io/filesystem"
	"github.com/nicku33/beam/log"
	"github.com/nicku33/beam/runners/dataflow/dataflowlib"
	"github.com/spf13/cobra"
)

func newTranslateCmd(g *globals) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "translate <pipeline>",
		Short: "Translate a pipeline description to a Dataflow job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, spec, err := g.translate(ctx, args[0])
			if err != nil {
				return err
			}
			str, err := dataflowlib.JobToString(spec.Job)
			if err != nil {
				return err
			}
			if output == "" {
				fmt.Fprintln(cmd.OutOrStdout(), str)
				return nil
			}
			if err := filesystem.WriteFile(ctx, output, []byte(str+"\n")); err != nil {
				return err
			}
			log.Infof(ctx, "Wrote job %v with %d steps to %v", spec.Job.Name, len(spec.Job.Steps), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Job document location; stdout if empty.")
	return cmd
}

func newValidateCmd(g *globals) *cobra.Command {
	var printJob bool
	cmd := &cobra.Command{
		Use:   "validate <pipeline>",
		Short: "Check that a pipeline description translates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, spec, err := g.translate(ctx, args[0])
			if err != nil {
				return err
			}
			for _, t := range p.Transforms() {
				if name, ok := spec.StepName(t); ok {
					log.Infof(ctx, "%v: %v", name, t)
				}
			}
			for _, v := range p.Values() {
				text, err := dataflowlib.WindowingStrategyText(v.WindowingStrategy)
				if err != nil {
					return err
				}
				log.Debugf(ctx, "Windowing strategy of %v:\n%v", v, text)
			}
			if printJob {
				dataflowlib.PrintJob(ctx, spec.Job)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Job %v is valid: %d steps\n", spec.Job.Name, len(spec.Job.Steps))
			return nil
		},
	}
	cmd.Flags().BoolVar(&printJob, "print", false, "Log the translated job.")
	return cmd
}

func newKindsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List the transform kinds that can be translated",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, k := range dataflowlib.DefaultRegistry().Kinds() {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		},
	}
}
