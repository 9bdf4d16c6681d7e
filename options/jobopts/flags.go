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

package jobopts

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/nicku33/beam/internal/errors"
	"github.com/spf13/pflag"
)

// Flags are the command line flags of a configuration. Flags set on the
// command line take precedence over the configuration file.
type Flags struct {
	fs  *pflag.FlagSet
	cfg Config

	labels         string
	usePublicIPs   optionalBool
	noUsePublicIPs bool
	options        map[string]string
	gce            bool
}

// BindFlags registers the configuration flags on fs.
func BindFlags(fs *pflag.FlagSet) *Flags {
	f := &Flags{fs: fs}
	c := &f.cfg

	fs.StringVar(&c.JobName, "job_name", "", "Job name (optional).")
	fs.StringVar(&c.Project, "project", "", "Google Cloud project.")
	fs.StringVar(&c.Region, "region", "", "Google Cloud region of the job.")
	fs.BoolVar(&c.Streaming, "streaming", false, "Translate as a streaming job.")
	fs.StringSliceVar(&c.Experiments, "experiments", nil, "Comma-separated list of experiments (optional).")
	fs.StringVar(&c.TempLocation, "temp_location", "", "Temp location (optional).")
	fs.StringVar(&c.ClientRequestID, "client_request_id", "", "Client request id of the job; random when unset (optional).")

	fs.StringVar(&c.Zone, "zone", "", "GCP zone (optional, deprecated: use --worker_zone).")
	fs.StringVar(&c.WorkerRegion, "worker_region", "", "Region of the workers (optional).")
	fs.StringVar(&c.WorkerZone, "worker_zone", "", "Zone of the workers (optional).")
	fs.StringVar(&c.Network, "network", "", "GCP network (optional).")
	fs.StringVar(&c.Subnetwork, "subnetwork", "", "GCP subnetwork (optional).")
	fs.Var(&f.usePublicIPs, "use_public_ips", "Whether workers use public IP addresses (optional).")
	fs.Lookup("use_public_ips").NoOptDefVal = "true"
	fs.BoolVar(&f.noUsePublicIPs, "no_use_public_ips", false, "Workers must not use public IP addresses (optional).")

	fs.Int64Var(&c.NumWorkers, "num_workers", 0, "Number of workers (optional).")
	fs.Int64Var(&c.MaxNumWorkers, "max_num_workers", 0, "Maximum number of workers during scaling (optional).")
	fs.StringVar(&c.AutoscalingAlgorithm, "autoscaling_algorithm", "", "Autoscaling mode to use: NONE or THROUGHPUT_BASED (optional).")
	fs.StringVar(&c.MachineType, "worker_machine_type", "", "GCE machine type (optional).")
	fs.StringVar(&c.DiskType, "disk_type", "", "Worker disk type (optional).")
	fs.StringVar(&c.DiskSize, "disk_size", "", "Worker disk size, such as 250GB or a number of gigabytes (optional).")
	fs.StringVar(&c.ServiceAccountEmail, "service_account_email", "", "Service account email (optional).")

	fs.StringVar(&f.labels, "labels", "", "JSON-formatted map[string]string of job labels (optional).")
	fs.StringSliceVar(&c.Packages, "packages", nil, "Comma-separated list of package URLs staged for the workers (optional).")
	fs.StringToStringVar(&f.options, "option", nil, "Pipeline option as key=value. May be repeated (optional).")
	fs.BoolVar(&f.gce, "gce_metadata", false, "Read an unset project and region from the GCE metadata server (optional).")
	return f
}

// Resolve returns the configuration file at path, which may be empty,
// overridden by the flags set on the command line.
func (f *Flags) Resolve(ctx context.Context, path string) (*Config, error) {
	ret := &Config{}
	if path != "" {
		c, err := Load(ctx, path)
		if err != nil {
			return nil, err
		}
		ret = c
	}
	if err := f.apply(ret); err != nil {
		return nil, err
	}
	if f.gce {
		if err := fillFromGCE(ctx, ret); err != nil {
			return nil, err
		}
	}
	return ret, nil
}

func (f *Flags) apply(c *Config) error {
	changed := f.fs.Changed
	setString := func(name string, dst *string, src string) {
		if changed(name) {
			*dst = src
		}
	}
	setString("job_name", &c.JobName, f.cfg.JobName)
	setString("project", &c.Project, f.cfg.Project)
	setString("region", &c.Region, f.cfg.Region)
	setString("temp_location", &c.TempLocation, f.cfg.TempLocation)
	setString("client_request_id", &c.ClientRequestID, f.cfg.ClientRequestID)
	setString("zone", &c.Zone, f.cfg.Zone)
	setString("worker_region", &c.WorkerRegion, f.cfg.WorkerRegion)
	setString("worker_zone", &c.WorkerZone, f.cfg.WorkerZone)
	setString("network", &c.Network, f.cfg.Network)
	setString("subnetwork", &c.Subnetwork, f.cfg.Subnetwork)
	setString("autoscaling_algorithm", &c.AutoscalingAlgorithm, f.cfg.AutoscalingAlgorithm)
	setString("worker_machine_type", &c.MachineType, f.cfg.MachineType)
	setString("disk_type", &c.DiskType, f.cfg.DiskType)
	setString("disk_size", &c.DiskSize, f.cfg.DiskSize)
	setString("service_account_email", &c.ServiceAccountEmail, f.cfg.ServiceAccountEmail)

	if changed("streaming") {
		c.Streaming = f.cfg.Streaming
	}
	if changed("num_workers") {
		c.NumWorkers = f.cfg.NumWorkers
	}
	if changed("max_num_workers") {
		c.MaxNumWorkers = f.cfg.MaxNumWorkers
	}
	if changed("experiments") {
		c.Experiments = f.cfg.Experiments
	}
	if changed("packages") {
		c.Packages = f.cfg.Packages
	}

	switch {
	case changed("use_public_ips") && changed("no_use_public_ips"):
		return errors.New("--use_public_ips and --no_use_public_ips are mutually exclusive")
	case changed("use_public_ips"):
		v := bool(f.usePublicIPs)
		c.UsePublicIPs = &v
	case changed("no_use_public_ips"):
		v := !f.noUsePublicIPs
		c.UsePublicIPs = &v
	}

	if f.labels != "" {
		var labels map[string]string
		if err := json.Unmarshal([]byte(f.labels), &labels); err != nil {
			return errors.Wrapf(err, "error reading --labels flag as JSON")
		}
		if c.Labels == nil {
			c.Labels = make(map[string]string)
		}
		for k, v := range labels {
			c.Labels[k] = v
		}
	}
	if len(f.options) > 0 {
		if c.Options == nil {
			c.Options = make(map[string]any)
		}
		for k, v := range f.options {
			c.Options[k] = v
		}
	}
	return nil
}

// optionalBool is a boolean flag that also accepts --name without a value.
type optionalBool bool

func (b *optionalBool) String() string {
	return strconv.FormatBool(bool(*b))
}

func (b *optionalBool) Set(s string) error {
	v, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	*b = optionalBool(v)
	return nil
}

func (b *optionalBool) Type() string {
	return "bool"
}
