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
	"strings"

	"cloud.google.com/go/compute/metadata"
	"github.com/nicku33/beam/internal/errors"
	"github.com/nicku33/beam/log"
)

type gceMetadata interface {
	ProjectID() (string, error)
	Zone() (string, error)
}

var onGCE = metadata.OnGCE

var gceMd gceMetadata = metadata.NewClient(nil)

// fillFromGCE sets an unset project and region from the metadata server of
// the GCE instance, if any.
func fillFromGCE(ctx context.Context, c *Config) error {
	if c.Project != "" && c.Region != "" {
		return nil
	}
	if !onGCE() {
		log.Warn(ctx, "Not running on GCE, ignoring --gce_metadata")
		return nil
	}
	if c.Project == "" {
		project, err := gceMd.ProjectID()
		if err != nil {
			return errors.Wrap(err, "failed to read project from GCE metadata")
		}
		c.Project = project
		log.Infof(ctx, "Using project %v from GCE metadata", project)
	}
	if c.Region == "" {
		zone, err := gceMd.Zone()
		if err != nil {
			return errors.Wrap(err, "failed to read zone from GCE metadata")
		}
		c.Region = zoneToRegion(zone)
		log.Infof(ctx, "Using region %v of zone %v from GCE metadata", c.Region, zone)
	}
	return nil
}

// zoneToRegion returns the region of a zone such as us-central1-a.
func zoneToRegion(zone string) string {
	if i := strings.LastIndex(zone, "-"); i > 0 {
		return zone[:i]
	}
	return zone
}
