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
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"toolbox/connectors/base"
	"toolbox/connectors/config"
	"toolbox/connectors/mongodb"
	"toolbox/shared/logger"
)

// configEnv is what every config subcommand needs.
type configEnv struct {
	settings *config.Settings
	store    *config.Store
}

func newConfigCmd(c *cli) *cobra.Command {
	env := &configEnv{}

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage MongoDB connection profiles",
		Long: `Manage the connection profiles stored in .mongodb-configs.json.

The file is read from the working directory first, then the home directory.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.loadSettings()
			if err != nil {
				return err
			}
			// Keep stdout for command output.
			logger.SetOutput(cmd.ErrOrStderr())
			if c.debug {
				logger.SetLevel(logger.DEBUG)
			} else {
				logger.SetLevel(logger.WARN)
			}
			env.settings = s
			env.store = newStore(s)
			return nil
		},
	}

	cmd.AddCommand(
		newConfigListCmd(env),
		newConfigActiveCmd(env),
		newConfigLocationCmd(env),
		newConfigAddCmd(env),
		newConfigUpdateCmd(env),
		newConfigDeleteCmd(env),
		newConfigUseCmd(env),
		newConfigTestCmd(env),
	)
	return cmd
}

func newConfigListCmd(env *configEnv) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List connection profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			profiles := env.store.List()
			activeID := ""
			if active := env.store.Active(); active != nil {
				activeID = active.ID
			}
			return printProfiles(cmd.OutOrStdout(), output, profiles, activeID, time.Now())
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "output format: table, json or yaml")
	return cmd
}

func newConfigActiveCmd(env *configEnv) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "active",
		Short: "Show the active connection profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			active := env.store.Active()
			if active == nil {
				if output == "table" {
					fmt.Fprintln(cmd.OutOrStdout(), "No connection profiles. Add one with: toolbox config add")
					return nil
				}
				return printValue(cmd.OutOrStdout(), output, nil)
			}
			if output == "table" {
				printProfile(cmd.OutOrStdout(), *active, true, time.Now())
				return nil
			}
			return printValue(cmd.OutOrStdout(), output, active)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "output format: table, json or yaml")
	return cmd
}

func newConfigLocationCmd(env *configEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "location",
		Short: "Show which file backs the profile store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if path, ok := env.store.Location(); ok {
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "No configuration file yet. Candidates:")
			for _, p := range env.store.Paths() {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", p)
			}
			return nil
		},
	}
}

func newConfigAddCmd(env *configEnv) *cobra.Command {
	var in config.ProfileInput
	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Add a connection profile",
		Example: `  toolbox config add --name dev --uri mongodb://localhost:27017 --database test`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			added, err := env.store.Add(in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added connection %s (%s)\n", added.Name, added.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "profile name")
	cmd.Flags().StringVar(&in.URI, "uri", "", "MongoDB connection string")
	cmd.Flags().StringVar(&in.Database, "database", "", "database name")
	cmd.Flags().StringVar(&in.Description, "description", "", "optional description")
	return cmd
}

func newConfigUpdateCmd(env *configEnv) *cobra.Command {
	var name, uri, database, description string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update fields of a connection profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch := config.ProfilePatch{}
			flags := cmd.Flags()
			if flags.Changed("name") {
				patch.Name = &name
			}
			if flags.Changed("uri") {
				patch.URI = &uri
			}
			if flags.Changed("database") {
				patch.Database = &database
			}
			if flags.Changed("description") {
				patch.Description = &description
			}
			if patch.IsEmpty() {
				return fmt.Errorf("nothing to update: pass at least one of --name, --uri, --database, --description")
			}

			updated, err := env.store.Update(args[0], patch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated connection %s (%s)\n", updated.Name, updated.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "profile name")
	cmd.Flags().StringVar(&uri, "uri", "", "MongoDB connection string")
	cmd.Flags().StringVar(&database, "database", "", "database name")
	cmd.Flags().StringVar(&description, "description", "", "description")
	return cmd
}

func newConfigDeleteCmd(env *configEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a connection profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := env.store.Delete(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted connection %s\n", args[0])
			return nil
		},
	}
}

func newConfigUseCmd(env *configEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "use <id>",
		Short: "Make a connection profile active",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := env.store.SetActive(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Active connection is now %s\n", args[0])
			return nil
		},
	}
}

func newConfigTestCmd(env *configEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "test [id]",
		Short: "Connect to a profile, or to the resolved target when no id is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			var target base.Target
			if len(args) == 1 {
				profile, err := env.store.Get(args[0])
				if err != nil {
					return err
				}
				target = profile.Target()
			} else {
				resolver, err := newResolver(ctx, env.settings, env.store)
				if err != nil {
					return err
				}
				if target, err = resolver.Resolve(ctx); err != nil {
					return err
				}
			}

			client, err := mongodb.Dial(ctx, target.URI, env.settings.ConnectTimeout)
			if err != nil {
				return err
			}
			defer func() { _ = client.Disconnect(context.Background()) }()

			status := client.HealthCheck(ctx, target.Database)
			printHealth(cmd.OutOrStdout(), target, status)
			if !status.Healthy {
				return fmt.Errorf("connection unhealthy: %s", status.Error)
			}
			return nil
		},
	}
}
