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

// Package jobopts contains the job configuration: where workers run, how many
// there are and how the job is labeled. A configuration is read from a YAML
// file and overridden by command line flags.
package jobopts

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/nicku33/beam/internal/errors"
	"github.com/nicku33/beam/io/filesystem"
	"github.com/nicku33/beam/log"
	"github.com/nicku33/beam/runners/dataflow/dataflowlib"
	"gopkg.in/yaml.v3"
)

// Config is the job configuration.
type Config struct {
	JobName      string   `yaml:"job_name"`
	Project      string   `yaml:"project"`
	Region       string   `yaml:"region"`
	Streaming    bool     `yaml:"streaming"`
	Experiments  []string `yaml:"experiments"`
	TempLocation string   `yaml:"temp_location"`

	// ClientRequestID pins the job's client request id, making repeated
	// translations byte-identical.
	ClientRequestID string `yaml:"client_request_id"`

	Zone         string `yaml:"zone"` // Deprecated: use WorkerZone.
	WorkerRegion string `yaml:"worker_region"`
	WorkerZone   string `yaml:"worker_zone"`
	Network      string `yaml:"network"`
	Subnetwork   string `yaml:"subnetwork"`
	UsePublicIPs *bool  `yaml:"use_public_ips"`

	NumWorkers           int64  `yaml:"num_workers"`
	MaxNumWorkers        int64  `yaml:"max_num_workers"`
	AutoscalingAlgorithm string `yaml:"autoscaling_algorithm"`
	MachineType          string `yaml:"worker_machine_type"`
	DiskType             string `yaml:"disk_type"`
	// DiskSize is a size such as 250GB. A plain number is in gigabytes.
	DiskSize            string `yaml:"disk_size"`
	ServiceAccountEmail string `yaml:"service_account_email"`

	Labels   map[string]string `yaml:"labels"`
	Packages []string          `yaml:"packages"`
	// Options are free-form pipeline options passed to the workers.
	Options map[string]any `yaml:"options"`
}

// Load reads a YAML configuration from any registered file system.
func Load(ctx context.Context, path string) (*Config, error) {
	data, err := filesystem.ReadFile(ctx, path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading configuration %v", path)
	}
	c, err := Decode(data)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding configuration %v", path)
	}
	log.Debugf(ctx, "Loaded configuration from %v", path)
	return c, nil
}

// Decode decodes a YAML configuration. Unknown keys are errors.
func Decode(data []byte) (*Config, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var c Config
	if err := dec.Decode(&c); err != nil && err != io.EOF {
		return nil, err
	}
	return &c, nil
}

var unique int32

// Name returns the configured job name or, if not present, def. If both are
// empty, a fresh name is generated.
func (c *Config) Name(def string) string {
	switch {
	case c.JobName != "":
		return c.JobName
	case def != "":
		return def
	default:
		id := atomic.AddInt32(&unique, 1)
		return fmt.Sprintf("go-job-%v-%v", id, time.Now().UnixNano())
	}
}

// JobOptions checks the syntax of the configuration and converts it to
// translator options. Semantic worker checks are left to the translator.
func (c *Config) JobOptions(name string) (*dataflowlib.JobOptions, error) {
	if c.NumWorkers < 0 {
		return nil, errors.Errorf("num_workers (%d) cannot be negative", c.NumWorkers)
	}
	if c.MaxNumWorkers < 0 {
		return nil, errors.Errorf("max_num_workers (%d) cannot be negative", c.MaxNumWorkers)
	}
	switch c.AutoscalingAlgorithm {
	case "", "NONE", "THROUGHPUT_BASED":
	default:
		return nil, errors.Errorf("invalid autoscaling_algorithm %q; want NONE or THROUGHPUT_BASED", c.AutoscalingAlgorithm)
	}
	diskSize, err := ParseDiskSize(c.DiskSize)
	if err != nil {
		return nil, err
	}

	return &dataflowlib.JobOptions{
		Name:                c.Name(name),
		Experiments:         c.Experiments,
		Options:             c.Options,
		Streaming:           c.Streaming,
		Project:             c.Project,
		Region:              c.Region,
		Zone:                c.Zone,
		Network:             c.Network,
		Subnetwork:          c.Subnetwork,
		UsePublicIPs:        c.UsePublicIPs,
		NumWorkers:          c.NumWorkers,
		DiskSizeGb:          diskSize,
		DiskType:            c.DiskType,
		MachineType:         c.MachineType,
		Labels:              c.Labels,
		ServiceAccountEmail: c.ServiceAccountEmail,
		WorkerRegion:        c.WorkerRegion,
		WorkerZone:          c.WorkerZone,
		Packages:            c.Packages,
		Algorithm:           c.AutoscalingAlgorithm,
		MaxNumWorkers:       c.MaxNumWorkers,
		TempLocation:        c.TempLocation,
		ClientRequestID:     c.ClientRequestID,
	}, nil
}

// ParseDiskSize returns a disk size in gigabytes, rounded up. The size is
// either a plain number of gigabytes or a size such as 250GB or 1TiB.
func ParseDiskSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n < 0 {
			return 0, errors.Errorf("disk_size (%d) cannot be negative", n)
		}
		return n, nil
	}
	b, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid disk_size %q", s)
	}
	return int64(math.Ceil(float64(b) / humanize.GByte)), nil
}
