// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1
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
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"toolbox/connectors/base"
	"toolbox/connectors/config"
)

var (
	activeFormat   = color.New(color.FgGreen, color.Bold).SprintFunc()
	mutedFormat    = color.New(color.FgHiBlack).SprintFunc()
	goodFormat     = color.New(color.FgGreen).SprintFunc()
	criticalFormat = color.New(color.FgHiRed).SprintFunc()
)

// printValue writes v as JSON or YAML.
func printValue(w io.Writer, format string, v interface{}) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q (want table, json or yaml)", format)
	}
}

// printProfiles renders the profile list. The table marks the active
// profile and redacts passwords; json and yaml print the stored values.
func printProfiles(w io.Writer, format string, profiles []config.ConnectionProfile, activeID string, now time.Time) error {
	if format != "table" {
		if profiles == nil {
			profiles = []config.ConnectionProfile{}
		}
		return printValue(w, format, profiles)
	}

	if len(profiles) == 0 {
		fmt.Fprintln(w, "No connection profiles. Add one with: toolbox config add")
		return nil
	}

	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\tID\tNAME\tDATABASE\tURI\tUPDATED")
	for _, p := range profiles {
		marker := ""
		if p.ID == activeID {
			marker = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			marker, p.ID, p.Name, p.Database, base.RedactURI(p.URI), humanize.RelTime(p.UpdatedAt, now, "ago", "from now"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	for i, line := range lines {
		switch {
		case i == 0:
			line = mutedFormat(line)
		case strings.HasPrefix(line, "*"):
			line = activeFormat(line)
		}
		fmt.Fprintln(w, line)
	}
	return nil
}

// printProfile renders one profile as labelled lines.
func printProfile(w io.Writer, p config.ConnectionProfile, active bool, now time.Time) {
	name := p.Name
	if active {
		name = activeFormat(p.Name + " (active)")
	}
	fmt.Fprintf(w, "Name:        %s\n", name)
	fmt.Fprintf(w, "ID:          %s\n", p.ID)
	fmt.Fprintf(w, "URI:         %s\n", base.RedactURI(p.URI))
	fmt.Fprintf(w, "Database:    %s\n", p.Database)
	if p.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", p.Description)
	}
	fmt.Fprintf(w, "Created:     %s\n", humanize.RelTime(p.CreatedAt, now, "ago", "from now"))
	fmt.Fprintf(w, "Updated:     %s\n", humanize.RelTime(p.UpdatedAt, now, "ago", "from now"))
}

// printHealth renders the result of a connection test.
func printHealth(w io.Writer, target base.Target, status base.HealthStatus) {
	state := goodFormat("healthy")
	if !status.Healthy {
		state = criticalFormat("unhealthy")
	}
	fmt.Fprintf(w, "Target:   %s (%s)\n", target.Redacted(), target.Source)
	fmt.Fprintf(w, "Database: %s\n", target.Database)
	fmt.Fprintf(w, "Status:   %s\n", state)
	fmt.Fprintf(w, "Latency:  %s\n", status.Latency.Round(time.Microsecond))
	if status.Error != "" {
		fmt.Fprintf(w, "Error:    %s\n", status.Error)
	}

	keys := make([]string, 0, len(status.Details))
	for k := range status.Details {
		if k == "uri" || k == "database" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %s: %s\n", k, status.Details[k])
	}
}
