package commands

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/firebolt-db/firebolt-cli/internal/api"
	"github.com/firebolt-db/firebolt-cli/internal/cli/output"
	"github.com/firebolt-db/firebolt-cli/pkg/render"
	"github.com/spf13/cobra"
)

// engineSpecs are the accepted instance types.
var engineSpecs = func() []string {
	var specs []string
	for prefix, n := range map[string]int{"C": 7, "S": 6, "B": 7, "M": 7} {
		for i := 1; i <= n; i++ {
			specs = append(specs, fmt.Sprintf("%s%d", prefix, i))
		}
	}
	slices.Sort(specs)
	return specs
}()

var warmUpMethods = map[string]string{
	"min": api.WarmUpMinimal,
	"ind": api.WarmUpIndexes,
	"all": api.WarmUpAll,
}

// Bounds of engine create parameters.
const (
	maxEngineScale    = 128
	maxAutoStopMinute = 30 * 24 * 60
)

// NewEngineCommand creates the engine command group.
func NewEngineCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "engine",
		Short: "Manage engines",
		Long:  `Create, start, stop and inspect the engines of the account.`,
	}

	cmd.AddCommand(newEngineLifecycleCommand(startAction))
	cmd.AddCommand(newEngineLifecycleCommand(stopAction))
	cmd.AddCommand(newEngineLifecycleCommand(restartAction))
	cmd.AddCommand(newEngineStatusCommand())
	cmd.AddCommand(newEngineCreateCommand())
	cmd.AddCommand(newEngineDropCommand())
	cmd.AddCommand(newEngineListCommand())

	return cmd
}

// lifecycleAction describes one state transition of an engine.
type lifecycleAction struct {
	name  string
	short string
	// accepted states before the request, after waiting, and right after
	// the request with --nowait.
	initial     api.StatusSet
	final       api.StatusSet
	finalNoWait api.StatusSet

	wrongState    string // name, current state
	failure       string // name, status
	success       string // name
	successNoWait string // name

	request func(c *api.Client, ctx context.Context, id string) (*api.Engine, error)
}

var startAction = lifecycleAction{
	name:          "start",
	short:         "Start an existing engine",
	initial:       api.NewStatusSet(api.EngineStatusStopped, api.EngineStatusStopping, api.EngineStatusFailed),
	final:         api.NewStatusSet(api.EngineStatusRunning),
	finalNoWait:   api.NewStatusSet(api.EngineStatusStarting, api.EngineStatusStartingInitializing),
	wrongState:    "Engine %s is not in a stopped state, the current engine state is %s",
	failure:       "Engine %s failed to start. Engine status: %s.",
	success:       "Engine %s is successfully started",
	successNoWait: "Start request for engine %s is successfully sent",
	request:       (*api.Client).StartEngine,
}

var stopAction = lifecycleAction{
	name:          "stop",
	short:         "Stop a running engine",
	initial:       api.NewStatusSet(api.EngineStatusRunning, api.EngineStatusStarting),
	final:         api.NewStatusSet(api.EngineStatusStopped),
	finalNoWait:   api.NewStatusSet(api.EngineStatusStopping, api.EngineStatusStopped),
	wrongState:    "Engine %s is not in a running or starting state, the current engine state is %s",
	failure:       "Engine %s failed to stop. Engine status: %s.",
	success:       "Engine %s is successfully stopped",
	successNoWait: "Stop request for engine %s is successfully sent",
	request:       (*api.Client).StopEngine,
}

var restartAction = lifecycleAction{
	name:          "restart",
	short:         "Restart a running or failed engine",
	initial:       api.NewStatusSet(api.EngineStatusRunning, api.EngineStatusFailed),
	final:         api.NewStatusSet(api.EngineStatusRunning),
	finalNoWait:   api.NewStatusSet(api.EngineStatusRestarting, api.EngineStatusRestartingInitializing),
	wrongState:    "Engine %s is not in a running or failed state, the current engine state is %s",
	failure:       "Engine %s failed to restart. Engine status: %s.",
	success:       "Engine %s is successfully restarted",
	successNoWait: "Restart request for engine %s is successfully sent",
	request:       (*api.Client).RestartEngine,
}

func newEngineLifecycleCommand(action lifecycleAction) *cobra.Command {
	var name string
	var noWait bool

	cmd := &cobra.Command{
		Use:   action.name,
		Short: action.short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx := NewCommandContext(cmd)
			client, err := cmdCtx.APIClient()
			if err != nil {
				return err
			}
			msg, err := runEngineAction(cmd.Context(), cmdCtx, client, action, name, noWait)
			if err != nil {
				return withExitCode(ExitDataErr, err)
			}
			cmdCtx.Renderer.Success(msg)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Name of the engine")
	cmd.Flags().BoolVar(&noWait, "nowait", false,
		fmt.Sprintf("Return right after the %s request is sent", action.name))
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

// runEngineAction checks the engine state, sends the request and, unless
// noWait is set, waits for the engine to settle. It returns the message to
// print on success.
func runEngineAction(ctx context.Context, cmdCtx *CommandContext, client *api.Client, action lifecycleAction, name string, noWait bool) (string, error) {
	engine, err := client.GetEngineByName(ctx, name)
	if err != nil {
		return "", err
	}
	if !action.initial.Has(engine.CurrentStatusSummary) {
		return "", fmt.Errorf(action.wrongState, engine.Name, engine.CurrentStatusSummary.Short())
	}

	id := engine.ID.EngineID
	engine, err = action.request(client, ctx, id)
	if err != nil {
		return "", err
	}
	cmdCtx.Logger.Debug("engine request sent", "action", action.name, "engine", name,
		"status", engine.CurrentStatusSummary.Short())

	if noWait {
		switch {
		case action.finalNoWait.Has(engine.CurrentStatusSummary):
			return fmt.Sprintf(action.successNoWait, engine.Name), nil
		case action.final.Has(engine.CurrentStatusSummary):
			return fmt.Sprintf(action.success, engine.Name), nil
		}
		return "", fmt.Errorf(action.failure, engine.Name, engine.CurrentStatusSummary.Short())
	}

	if !action.final.Has(engine.CurrentStatusSummary) {
		waitCtx, cancel := context.WithTimeout(ctx, cmdCtx.Cfg.WaitTimeout)
		defer cancel()

		var last atomic.Pointer[api.Engine]
		label := fmt.Sprintf("Waiting for engine %s to %s", engine.Name, action.name)
		err = cmdCtx.Renderer.Spin(waitCtx, label, func(ctx context.Context) error {
			e, err := client.WaitForStatus(ctx, id, cmdCtx.Cfg.PollInterval, action.final)
			if e != nil {
				last.Store(e)
			}
			return err
		})
		if err != nil && !errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		if e := last.Load(); e != nil {
			engine = e
		}
	}

	if action.final.Has(engine.CurrentStatusSummary) {
		return fmt.Sprintf(action.success, engine.Name), nil
	}
	return "", fmt.Errorf(action.failure, engine.Name, engine.CurrentStatusSummary.Short())
}

func newEngineStatusCommand() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the status of an engine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx := NewCommandContext(cmd)
			client, err := cmdCtx.APIClient()
			if err != nil {
				return err
			}
			engine, err := client.GetEngineByName(cmd.Context(), name)
			if err != nil {
				return withExitCode(ExitDataErr, err)
			}
			cmdCtx.Renderer.Printf("Engine %s current status is: %s\n",
				engine.Name, styledStatus(cmdCtx.Renderer, engine.CurrentStatusSummary))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Name of the engine")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

// styledStatus colours a status by its lifecycle phase.
func styledStatus(r *output.Renderer, s api.EngineStatus) string {
	st := r.Styles()
	switch s {
	case api.EngineStatusRunning:
		return st.StatusRunning.Render(s.Short())
	case api.EngineStatusStopped, api.EngineStatusDeleted:
		return st.StatusStopped.Render(s.Short())
	case api.EngineStatusFailed:
		return st.StatusFailed.Render(s.Short())
	default:
		return st.StatusPending.Render(s.Short())
	}
}

// EngineCreateOptions holds options for engine create.
type EngineCreateOptions struct {
	Name         string
	DatabaseName string
	Spec         string
	Region       string
	Description  string
	Type         string
	Scale        int
	AutoStop     int
	WarmUp       string
	JSON         bool
}

func newEngineCreateCommand() *cobra.Command {
	opts := &EngineCreateOptions{}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an engine and attach it to a database",
		Long: `Create an engine with the requested parameters and attach it to a
database as its default engine. If attaching fails the new engine is
deleted again.`,
		Example: `  firebolt engine create --name analytics_ro --database-name analytics \
    --spec B2 --region us-east-1 --scale 2 --auto-stop 60`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEngineCreate(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "Name of the new engine")
	cmd.Flags().StringVar(&opts.DatabaseName, "database-name", "", "Database the engine is attached to")
	cmd.Flags().StringVar(&opts.Spec, "spec", "", "Engine spec, one of "+strings.Join(engineSpecs, ", "))
	cmd.Flags().StringVar(&opts.Region, "region", "", "Region to create the engine in")
	cmd.Flags().StringVar(&opts.Description, "description", "", "Engine description")
	cmd.Flags().StringVar(&opts.Type, "type", "ro", "Engine type: rw for general purpose, ro for data analytics")
	cmd.Flags().IntVar(&opts.Scale, "scale", 1, fmt.Sprintf("Number of instances (1-%d)", maxEngineScale))
	cmd.Flags().IntVar(&opts.AutoStop, "auto-stop", 20,
		fmt.Sprintf("Stop the engine after this many idle minutes (1-%d)", maxAutoStopMinute))
	cmd.Flags().StringVar(&opts.WarmUp, "warmup", "ind", "Warm-up method: min, ind (preload indexes), all (preload all data)")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Print the result as JSON")
	for _, f := range []string{"name", "database-name", "spec", "region"} {
		_ = cmd.MarkFlagRequired(f)
	}

	_ = cmd.RegisterFlagCompletionFunc("spec", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return engineSpecs, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("type", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"ro", "rw"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("warmup", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"min", "ind", "all"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// toInput validates the options and converts them to an API request.
func (o *EngineCreateOptions) toInput() (api.CreateEngineInput, error) {
	spec := strings.ToUpper(o.Spec)
	if !slices.Contains(engineSpecs, spec) {
		return api.CreateEngineInput{}, fmt.Errorf("invalid spec %q, expected one of %s", o.Spec, strings.Join(engineSpecs, ", "))
	}
	engineType := strings.ToLower(o.Type)
	if engineType != "ro" && engineType != "rw" {
		return api.CreateEngineInput{}, fmt.Errorf("invalid type %q, expected ro or rw", o.Type)
	}
	if o.Scale < 1 || o.Scale > maxEngineScale {
		return api.CreateEngineInput{}, fmt.Errorf("scale must be between 1 and %d, got %d", maxEngineScale, o.Scale)
	}
	if o.AutoStop < 1 || o.AutoStop > maxAutoStopMinute {
		return api.CreateEngineInput{}, fmt.Errorf("auto-stop must be between 1 and %d minutes, got %d", maxAutoStopMinute, o.AutoStop)
	}
	warmUp, ok := warmUpMethods[o.WarmUp]
	if !ok {
		return api.CreateEngineInput{}, fmt.Errorf("invalid warmup %q, expected min, ind or all", o.WarmUp)
	}

	return api.CreateEngineInput{
		Name:        o.Name,
		Description: o.Description,
		Region:      o.Region,
		Spec:        spec,
		Scale:       o.Scale,
		AutoStop:    time.Duration(o.AutoStop) * time.Minute,
		ReadOnly:    engineType == "ro",
		WarmUp:      warmUp,
	}, nil
}

func runEngineCreate(cmd *cobra.Command, opts *EngineCreateOptions) error {
	ctx := cmd.Context()
	cmdCtx := NewCommandContext(cmd)

	input, err := opts.toInput()
	if err != nil {
		return withExitCode(ExitUsage, err)
	}
	client, err := cmdCtx.APIClient()
	if err != nil {
		return err
	}

	database, err := client.GetDatabaseByName(ctx, opts.DatabaseName)
	if err != nil {
		return withExitCode(ExitUsage, err)
	}
	engine, err := client.CreateEngine(ctx, input)
	if err != nil {
		return withExitCode(ExitUsage, err)
	}
	if err := client.AttachEngine(ctx, database.ID.DatabaseID, engine.ID.EngineID, true); err != nil {
		if _, delErr := client.DeleteEngine(ctx, engine.ID.EngineID); delErr != nil {
			cmdCtx.Logger.Warn("failed to delete engine after attach failure",
				"engine", engine.Name, "error", delErr)
		}
		return withExitCode(ExitUsage, err)
	}

	asJSON := wantJSON(opts.JSON, cmdCtx.Renderer)
	if !asJSON {
		cmdCtx.Renderer.Success(fmt.Sprintf("Engine %s is successfully created and attached to the %s",
			engine.Name, database.Name))
	}
	return render.KeyValues(cmdCtx.Renderer.Writer(),
		[]string{"name", "description", "is_read_only", "auto_stop", "preset", "warm_up", "create_time", "attached_to_database"},
		[]any{
			engine.Name,
			engine.Description,
			engine.Settings.IsReadOnly,
			engine.Settings.AutoStopDelayDuration,
			engine.Settings.Preset,
			engine.Settings.WarmUp,
			engine.CreateTime.String(),
			database.Name,
		},
		asJSON)
}

func newEngineDropCommand() *cobra.Command {
	var name string
	var yes bool

	cmd := &cobra.Command{
		Use:   "drop",
		Short: "Delete an engine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cmdCtx := NewCommandContext(cmd)
			client, err := cmdCtx.APIClient()
			if err != nil {
				return err
			}
			engine, err := client.GetEngineByName(ctx, name)
			if err != nil {
				return withExitCode(ExitDataErr, err)
			}

			if !yes {
				ok, err := confirm(cmd, fmt.Sprintf("Do you really want to drop the engine %s?", engine.Name))
				if err != nil {
					return err
				}
				if !ok {
					cmdCtx.Renderer.Info("Drop request is aborted")
					return nil
				}
			}

			if _, err := client.DeleteEngine(ctx, engine.ID.EngineID); err != nil {
				return withExitCode(ExitDataErr, err)
			}
			cmdCtx.Renderer.Success(fmt.Sprintf("Drop request for engine %s is successfully sent", engine.Name))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Name of the engine")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Drop without asking for confirmation")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newEngineListCommand() *cobra.Command {
	var nameContains string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List engines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cmdCtx := NewCommandContext(cmd)
			client, err := cmdCtx.APIClient()
			if err != nil {
				return err
			}

			engines, err := client.ListEngines(ctx, nameContains)
			if err != nil {
				return withExitCode(ExitDataErr, err)
			}
			keys := make([]api.RegionKey, len(engines))
			for i, e := range engines {
				keys[i] = e.ComputeRegionID
			}
			regions, err := client.RegionNames(ctx, keys)
			if err != nil {
				return withExitCode(ExitDataErr, err)
			}

			rows := make([][]any, len(engines))
			for i, e := range engines {
				rows[i] = []any{e.Name, e.CurrentStatusSummary.Short(), regions[e.ComputeRegionID.RegionID]}
			}
			return render.Records(cmdCtx.Renderer.Writer(), []string{"name", "status", "region"}, rows,
				wantJSON(asJSON, cmdCtx.Renderer))
		},
	}

	cmd.Flags().StringVar(&nameContains, "name-contains", "", "Only list engines whose name contains this text")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")

	return cmd
}

// confirm asks a yes/no question on the command's streams. Anything but
// y or yes is a no.
func confirm(cmd *cobra.Command, question string) (bool, error) {
	p := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
	answer, err := p.ask(question+" [y/N]", "")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
