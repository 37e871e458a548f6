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
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"toolbox/connectors/config"
	"toolbox/shared/logger"
)

// Version info (set by ldflags)
var version = "dev"

// cli holds the global flags shared by every subcommand.
type cli struct {
	settingsFile string
	configPaths  []string
	debug        bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		// Error already printed by cobra
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	rootCmd := &cobra.Command{
		Use:   "toolbox",
		Short: "MongoDB developer toolbox",
		Long: `toolbox manages named MongoDB connection profiles and serves a small
HTTP API for document operations against the active connection.

  toolbox serve                  Run the HTTP API
  toolbox config list            List connection profiles
  toolbox config add ...         Add a connection profile
  toolbox config use <id>        Make a profile the active connection
  toolbox config test [id]       Connect to a profile or the resolved target`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().StringVar(&c.settingsFile, "settings", "", "settings file (default ./toolbox.yaml or ~/.config/toolbox/toolbox.yaml)")
	rootCmd.PersistentFlags().StringSliceVar(&c.configPaths, "config-path", nil, "connection profile file candidates, in priority order")
	rootCmd.PersistentFlags().BoolVar(&c.debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(
		newServeCmd(c),
		newConfigCmd(c),
	)
	return rootCmd
}

// loadSettings applies the global flags on top of the loaded settings.
func (c *cli) loadSettings() (*config.Settings, error) {
	s, err := config.LoadSettings(config.SettingsOptions{ConfigFile: c.settingsFile})
	if err != nil {
		return nil, fmt.Errorf("error loading settings: %w", err)
	}
	if len(c.configPaths) > 0 {
		s.ConfigPaths = c.configPaths
	}
	if c.debug {
		s.Log.Level = string(logger.DEBUG)
	}
	return s, nil
}

func newStore(s *config.Settings) *config.Store {
	return config.NewStore(config.StoreOptions{
		Paths:    s.ConfigPaths,
		LockPath: s.LockPath,
		Logger:   logger.New("store"),
	})
}
