package commands

import (
	"fmt"

	"github.com/firebolt-db/firebolt-cli/internal/api"
	"github.com/firebolt-db/firebolt-cli/internal/cli/config"
	"github.com/firebolt-db/firebolt-cli/internal/cli/output"
	"github.com/firebolt-db/firebolt-cli/pkg/render"
	"github.com/spf13/cobra"
)

// NewDatabaseCommand creates the database command group.
func NewDatabaseCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "database",
		Short: "Manage databases",
		Long:  `Create, drop and inspect the databases of the account.`,
	}

	cmd.AddCommand(newDatabaseCreateCommand())
	cmd.AddCommand(newDatabaseDropCommand())
	cmd.AddCommand(newDatabaseListCommand())
	cmd.AddCommand(newDatabaseDescribeCommand())

	return cmd
}

var databaseHeaders = []string{"name", "description", "region", "data_size", "create_time", "create_actor"}

// databaseValues lists a database in the order of databaseHeaders.
func databaseValues(db *api.Database, region string) []any {
	return []any{db.Name, db.Description, region, db.DataSizeFull, db.CreateTime.String(), db.CreateActor}
}

func wantJSON(flag bool, r *output.Renderer) bool {
	return flag || r.EffectiveMode() == output.ModeJSON
}

func newDatabaseCreateCommand() *cobra.Command {
	var name, region, description string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx := NewCommandContext(cmd)
			client, err := cmdCtx.APIClient()
			if err != nil {
				return err
			}
			db, err := client.CreateDatabase(cmd.Context(), name, region, description)
			if err != nil {
				return withExitCode(ExitUsage, err)
			}

			asJSON = wantJSON(asJSON, cmdCtx.Renderer)
			if !asJSON {
				cmdCtx.Renderer.Success(fmt.Sprintf("Database %s is successfully created", db.Name))
			}
			return render.KeyValues(cmdCtx.Renderer.Writer(), databaseHeaders, databaseValues(db, region), asJSON)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Name of the new database")
	cmd.Flags().StringVar(&region, "region", config.DefaultRegion, "Region for the new database")
	cmd.Flags().StringVar(&description, "description", "", "Database description")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newDatabaseDropCommand() *cobra.Command {
	var name string
	var yes bool

	cmd := &cobra.Command{
		Use:   "drop",
		Short: "Delete a database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cmdCtx := NewCommandContext(cmd)
			client, err := cmdCtx.APIClient()
			if err != nil {
				return err
			}
			db, err := client.GetDatabaseByName(ctx, name)
			if err != nil {
				return withExitCode(ExitDataErr, err)
			}

			if !yes {
				ok, err := confirm(cmd, fmt.Sprintf("Do you really want to drop the database %s?", db.Name))
				if err != nil {
					return err
				}
				if !ok {
					cmdCtx.Renderer.Info("Drop request is aborted")
					return nil
				}
			}

			if err := client.DeleteDatabase(ctx, db.ID.DatabaseID); err != nil {
				return withExitCode(ExitDataErr, err)
			}
			cmdCtx.Renderer.Success(fmt.Sprintf("Drop request for database %s is successfully sent", db.Name))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Name of the database")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Drop without asking for confirmation")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newDatabaseListCommand() *cobra.Command {
	var nameContains string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List databases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cmdCtx := NewCommandContext(cmd)
			client, err := cmdCtx.APIClient()
			if err != nil {
				return err
			}
			databases, err := client.ListDatabases(ctx, nameContains)
			if err != nil {
				return withExitCode(ExitDataErr, err)
			}
			keys := make([]api.RegionKey, len(databases))
			for i, db := range databases {
				keys[i] = db.ComputeRegionID
			}
			regions, err := client.RegionNames(ctx, keys)
			if err != nil {
				return withExitCode(ExitDataErr, err)
			}

			rows := make([][]any, len(databases))
			for i, db := range databases {
				rows[i] = []any{db.Name, regions[db.ComputeRegionID.RegionID], db.Description}
			}
			return render.Records(cmdCtx.Renderer.Writer(), []string{"name", "region", "description"}, rows,
				wantJSON(asJSON, cmdCtx.Renderer))
		},
	}

	cmd.Flags().StringVar(&nameContains, "name-contains", "", "Only list databases whose name contains this text")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")

	return cmd
}

func newDatabaseDescribeCommand() *cobra.Command {
	var name string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Show the details of a database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cmdCtx := NewCommandContext(cmd)
			client, err := cmdCtx.APIClient()
			if err != nil {
				return err
			}
			db, err := client.GetDatabaseByName(ctx, name)
			if err != nil {
				return withExitCode(ExitDataErr, err)
			}
			region, err := client.RegionName(ctx, db.ComputeRegionID)
			if err != nil {
				return withExitCode(ExitDataErr, err)
			}
			return render.KeyValues(cmdCtx.Renderer.Writer(), databaseHeaders, databaseValues(db, region),
				wantJSON(asJSON, cmdCtx.Renderer))
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Name of the database")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}
