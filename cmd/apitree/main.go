// Command apitree is a thin CLI consumer of the apitree library: it
// never imports anything apitree/* itself depends on the other way
// around, the same one-directional cmd/-consumes-library boundary a
// well-factored CLI entry point keeps.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aledsdavies/apitree/build"
	"github.com/aledsdavies/apitree/instance"
)

var (
	dirFlag    string
	configFlag string
	lazyFlag   bool
	debugFlag  bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "apitree:", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "apitree",
	Short: "Inspect and drive a hierarchical module-loading API tree",
	Long: `apitree builds the same API tree the library assembles at runtime
from a directory of YAML module files, then lets you inspect or call
into it without writing a host program.`,
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the API tree and print its shape",
	RunE:  runBuild,
}

var callCmd = &cobra.Command{
	Use:   "call <dotted.path> [args...]",
	Short: "Call a leaf in the built API tree",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCall,
}

var hooksCmd = &cobra.Command{
	Use:   "hooks",
	Short: "Show the hook configuration that would be active for this instance",
	RunE:  runHooks,
}

func init() {
	for _, cmd := range []*cobra.Command{buildCmd, callCmd, hooksCmd} {
		cmd.Flags().StringVar(&dirFlag, "dir", "", "root folder (overrides config file)")
		cmd.Flags().StringVar(&configFlag, "config", "", "path to a YAML config file")
		cmd.Flags().BoolVar(&lazyFlag, "lazy", false, "use lazy materialization")
		cmd.Flags().BoolVar(&debugFlag, "debug", false, "enable diagnostics")
	}
	rootCmd.AddCommand(buildCmd, callCmd, hooksCmd)
}

func newInstance() (*instance.Instance, error) {
	cfg, err := loadConfig(configFlag)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var opts []instance.Option
	if configFlag != "" {
		opts = append(opts, instance.WithConfig(cfg))
	}
	if dirFlag != "" {
		opts = append(opts, instance.WithDir(dirFlag))
	}
	if lazyFlag {
		opts = append(opts, instance.WithLazy())
	}
	opts = append(opts, instance.WithDebug(debugFlag))
	opts = append(opts, instance.WithSource(build.NewFSSource(yamlLoader, ".yaml", ".yml")))

	return instance.New(opts...)
}

func runBuild(cmd *cobra.Command, args []string) error {
	inst, err := newInstance()
	if err != nil {
		return err
	}
	defer inst.Shutdown(context.Background())

	if debugFlag {
		for _, line := range inst.Trace() {
			fmt.Fprintln(cmd.ErrOrStderr(), "trace:", line)
		}
	}

	out, err := json.MarshalIndent(inst.Describe(true), "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func runCall(cmd *cobra.Command, args []string) error {
	inst, err := newInstance()
	if err != nil {
		return err
	}
	defer inst.Shutdown(context.Background())

	path := args[0]
	callArgs := make([]any, 0, len(args)-1)
	for _, a := range args[1:] {
		callArgs = append(callArgs, parseArg(a))
	}

	result, err := inst.Call(context.Background(), path, callArgs...)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Printf("%v\n", result)
		return nil
	}
	fmt.Println(string(out))
	return nil
}

func runHooks(cmd *cobra.Command, args []string) error {
	inst, err := newInstance()
	if err != nil {
		return err
	}
	defer inst.Shutdown(context.Background())

	for _, info := range inst.Hooks().List() {
		fmt.Printf("%-8s pattern=%-20s priority=%d id=%s\n", info.Type, info.Pattern, info.Priority, info.ID)
	}
	return nil
}

// parseArg does a best-effort conversion of a CLI string argument to a
// bool, int64, float64, or plain string, since the shell can only ever
// hand the CLI strings.
func parseArg(s string) any {
	if b, err := strconv.ParseBool(s); err == nil && (s == "true" || s == "false") {
		return b
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return strings.TrimSpace(s)
}
