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

package dataflowlib

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/nicku33/beam/graph"
	"github.com/nicku33/beam/internal/errors"
	"github.com/nicku33/beam/log"
	df "google.golang.org/api/dataflow/v1b3"
)

// SDK identity reported to the service.
const (
	SdkName    = "Apache Beam SDK for Go"
	SdkVersion = "2.45.0"
)

// JobOptions capture the execution environment of a job. They are copied
// into the job envelope as given.
type JobOptions struct {
	// Name is the job name. It is lower cased in the job.
	Name string
	// Experiments are additional experiments.
	Experiments []string
	// Options are free form pipeline options, reported to the service as
	// part of the SDK pipeline options.
	Options map[string]any

	Streaming           bool
	Project             string
	Region              string
	Zone                string
	Network             string
	Subnetwork          string
	UsePublicIPs        *bool // nil leaves the service default.
	NumWorkers          int64
	DiskSizeGb          int64
	DiskType            string
	MachineType         string
	Labels              map[string]string
	ServiceAccountEmail string
	WorkerRegion        string
	WorkerZone          string
	Packages            []string // Package URLs staged for the workers.

	// Autoscaling settings
	Algorithm     string // NONE or THROUGHPUT_BASED
	MaxNumWorkers int64

	TempLocation string

	// ClientRequestID identifies the job submission to the service. A random
	// id is used when empty.
	ClientRequestID string
}

// HasExperiment returns true iff the experiment is enabled, either as a bare
// name or with a "name=value" setting.
func (o *JobOptions) HasExperiment(name string) bool {
	for _, e := range o.Experiments {
		if e == name || strings.HasPrefix(e, name+"=") {
			return true
		}
	}
	return false
}

// JobSpecification is a translated job together with the step name assigned
// to each primitive transform.
type JobSpecification struct {
	Job       *df.Job
	StepNames map[*graph.Transform]string
}

// StepName returns the step name of t.
func (s *JobSpecification) StepName(t *graph.Transform) (string, bool) {
	name, ok := s.StepNames[t]
	return name, ok
}

var autoscalingAlgorithms = map[string]string{
	"NONE":             "AUTOSCALING_ALGORITHM_NONE",
	"THROUGHPUT_BASED": "AUTOSCALING_ALGORITHM_BASIC",
}

// Translate translates a pipeline to a Dataflow job, dispatching every
// primitive transform to its handler in reg. Translation fails as a whole:
// no partial job is returned.
func Translate(ctx context.Context, p *graph.Pipeline, opts *JobOptions, reg *Registry) (*JobSpecification, error) {
	if p == nil || opts == nil || reg == nil {
		return nil, errors.New("translate needs a pipeline, options and a registry")
	}
	if err := validateWorkerSettings(ctx, opts); err != nil {
		return nil, errors.Wrap(ErrInvalidConfiguration, err.Error())
	}

	job, err := newJob(opts)
	if err != nil {
		return nil, err
	}

	x := newTranslator(ctx, p, opts, reg)
	steps, err := x.run()
	if err != nil {
		return nil, errors.SetTopLevelMsgf(err, "failed to translate pipeline %q", opts.Name)
	}
	job.Steps = steps
	log.Debugf(ctx, "Translated %d steps for job %v", len(steps), job.Name)

	return &JobSpecification{Job: job, StepNames: x.stepNames}, nil
}

func newJob(opts *JobOptions) (*df.Job, error) {
	jobType := "JOB_TYPE_BATCH"
	apiJobType := "FNAPI_BATCH"
	if opts.Streaming {
		jobType = "JOB_TYPE_STREAMING"
		apiJobType = "FNAPI_STREAMING"
	}

	sdkOptions, err := newMsg(pipelineOptions{
		DisplayData: printOptions(opts),
		Options:     sdkPipelineOptions(opts),
	})
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidConfiguration, "pipeline options failed to serialize to JSON: %v", err)
	}
	agent, err := newMsg(userAgent{Name: SdkName, Version: SdkVersion})
	if err != nil {
		return nil, err
	}
	ver, err := newMsg(version{JobType: apiJobType, Major: "6"})
	if err != nil {
		return nil, err
	}

	return &df.Job{
		ProjectId:       opts.Project,
		Name:            strings.ToLower(opts.Name),
		Type:            jobType,
		ClientRequestId: clientRequestID(opts),
		Environment: &df.Environment{
			ServiceAccountEmail: opts.ServiceAccountEmail,
			UserAgent:           agent,
			Version:             ver,
			SdkPipelineOptions:  sdkOptions,
			WorkerPools:         []*df.WorkerPool{newWorkerPool(opts)},
			WorkerRegion:        opts.WorkerRegion,
			WorkerZone:          opts.WorkerZone,
			TempStoragePrefix:   opts.TempLocation,
			Experiments:         opts.Experiments,
		},
		Labels: opts.Labels,
		Steps:  make([]*df.Step, 0),
	}, nil
}

func newWorkerPool(opts *JobOptions) *df.WorkerPool {
	wp := &df.WorkerPool{
		Kind:        "harness",
		Packages:    packages(opts.Packages),
		NumWorkers:  opts.NumWorkers,
		MachineType: opts.MachineType,
		Zone:        opts.Zone,
		Network:     opts.Network,
		Subnetwork:  opts.Subnetwork,
		AutoscalingSettings: &df.AutoscalingSettings{
			MaxNumWorkers: opts.MaxNumWorkers,
		},
	}
	if !opts.Streaming {
		wp.DiskType = opts.DiskType
	}
	if opts.UsePublicIPs != nil {
		if *opts.UsePublicIPs {
			wp.IpConfiguration = "WORKER_IP_PUBLIC"
		} else {
			wp.IpConfiguration = "WORKER_IP_PRIVATE"
		}
	}
	if opts.Streaming && !opts.HasExperiment("enable_windmill_service") {
		// Use separate data disk for streaming.
		wp.DataDisks = []*df.Disk{{DiskType: opts.DiskType}}
	}
	if opts.DiskSizeGb > 0 {
		wp.DiskSizeGb = opts.DiskSizeGb
	}
	if opts.Algorithm != "" {
		if alg, ok := autoscalingAlgorithms[opts.Algorithm]; ok {
			wp.AutoscalingSettings.Algorithm = alg
		} else {
			wp.AutoscalingSettings.Algorithm = opts.Algorithm
		}
	}
	return wp
}

func packages(urls []string) []*df.Package {
	var ret []*df.Package
	for _, url := range urls {
		ret = append(ret, &df.Package{
			Name:     url[strings.LastIndexAny(url, "/")+1:],
			Location: url,
		})
	}
	return ret
}

// sdkPipelineOptions merges the free form options with the named ones. Named
// options win.
func sdkPipelineOptions(opts *JobOptions) map[string]any {
	ret := make(map[string]any, len(opts.Options)+6)
	for k, v := range opts.Options {
		ret[k] = v
	}
	ret["jobName"] = opts.Name
	ret["project"] = opts.Project
	ret["region"] = opts.Region
	ret["streaming"] = opts.Streaming
	if len(opts.Experiments) > 0 {
		ret["experiments"] = opts.Experiments
	}
	if opts.TempLocation != "" {
		ret["tempLocation"] = opts.TempLocation
	}
	return ret
}

func printOptions(opts *JobOptions) []*displayData {
	var ret []*displayData
	addIfNonEmpty := func(name string, value string) {
		if value != "" {
			ret = append(ret, newDisplayData(name, "", "options", value))
		}
	}

	addIfNonEmpty("name", opts.Name)
	addIfNonEmpty("experiments", strings.Join(opts.Experiments, ","))
	addIfNonEmpty("project", opts.Project)
	addIfNonEmpty("region", opts.Region)
	addIfNonEmpty("zone", opts.Zone)
	addIfNonEmpty("worker_region", opts.WorkerRegion)
	addIfNonEmpty("worker_zone", opts.WorkerZone)
	addIfNonEmpty("network", opts.Network)
	addIfNonEmpty("subnetwork", opts.Subnetwork)
	addIfNonEmpty("machine_type", opts.MachineType)
	addIfNonEmpty("temp_location", opts.TempLocation)
	return ret
}

func validateWorkerSettings(ctx context.Context, opts *JobOptions) error {
	if opts.Zone != "" && opts.WorkerRegion != "" {
		return errors.New("cannot use option zone with workerRegion; prefer either workerZone or workerRegion")
	}
	if opts.Zone != "" && opts.WorkerZone != "" {
		return errors.New("cannot use option zone with workerZone; prefer workerZone")
	}
	if opts.WorkerZone != "" && opts.WorkerRegion != "" {
		return errors.New("workerRegion and workerZone options are mutually exclusive")
	}

	hasExperimentWorkerRegion := opts.HasExperiment("worker_region")
	if hasExperimentWorkerRegion && opts.WorkerRegion != "" {
		return errors.New("experiment worker_region and option workerRegion are mutually exclusive")
	}
	if hasExperimentWorkerRegion && opts.WorkerZone != "" {
		return errors.New("experiment worker_region and option workerZone are mutually exclusive")
	}
	if hasExperimentWorkerRegion && opts.Zone != "" {
		return errors.New("experiment worker_region and option Zone are mutually exclusive")
	}

	if opts.Zone != "" {
		log.Warn(ctx, "Option --zone is deprecated. Please use --worker_zone instead.")
	}

	numWorkers := opts.NumWorkers
	maxNumWorkers := opts.MaxNumWorkers
	if numWorkers < 0 {
		return fmt.Errorf("num_workers (%d) cannot be negative", numWorkers)
	}
	if maxNumWorkers < 0 {
		return fmt.Errorf("max_num_workers (%d) cannot be negative", maxNumWorkers)
	}
	if numWorkers > 0 && maxNumWorkers > 0 && numWorkers > maxNumWorkers {
		return fmt.Errorf("num_workers (%d) cannot exceed max_num_workers (%d)", numWorkers, maxNumWorkers)
	}
	if opts.DiskSizeGb < 0 {
		return fmt.Errorf("disk_size_gb (%d) cannot be negative", opts.DiskSizeGb)
	}
	return nil
}

func clientRequestID(opts *JobOptions) string {
	if opts.ClientRequestID != "" {
		return opts.ClientRequestID
	}
	return uuid.NewString()
}
