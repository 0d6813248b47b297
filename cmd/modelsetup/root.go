package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"modelsetup/internal/common/executil"
	"modelsetup/internal/common/fsutil"
	"modelsetup/internal/config"
	"modelsetup/internal/discover"
	"modelsetup/internal/logging"
	"modelsetup/internal/manifest"
	"modelsetup/internal/registry"
)

// app carries the resolved configuration shared by subcommands.
type app struct {
	cfg config.Config
	log zerolog.Logger
	out io.Writer
}

func buildRootCmd(out io.Writer) *cobra.Command {
	a := &app{cfg: config.Default(), out: out}
	var cfgPath string

	root := &cobra.Command{
		Use:           "modelsetup",
		Short:         "Discover ollama models and write a models.json manifest",
		Long:          "Discover models installed by ollama, resolve each to its file on disk and write a manifest\nthat the chat client reads when it is started without a model path.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          func(cmd *cobra.Command, args []string) error { return a.generate(cmd.Context()) },
	}
	root.SetOut(out)
	root.SetErr(out)

	// Persistent flags -> Config
	pf := root.PersistentFlags()
	pf.StringVar(&cfgPath, "config", "", "Config file (.yaml, .yml, .json or .toml)")
	pf.String("ollama-bin", a.cfg.OllamaBin, "ollama executable (defaults MODELSETUP_OLLAMA_BIN or ollama)")
	pf.StringP("output", "o", a.cfg.Output, "Manifest path; extension selects json, yaml or toml (defaults MODELSETUP_OUTPUT or models.json)")
	pf.String("log-level", a.cfg.LogLevel, "Log level: debug|info|warn|error (defaults MODELSETUP_LOG_LEVEL or info)")
	pf.Int("timeout", a.cfg.CommandTimeoutSec, "Per-command timeout in seconds, 0 disables (defaults MODELSETUP_TIMEOUT_SEC)")
	pf.String("metrics-file", a.cfg.MetricsFile, "Write run metrics in Prometheus text format to this file")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if cfgPath != "" {
			p, err := fsutil.ExpandHome(cfgPath)
			if err != nil {
				return err
			}
			fileCfg, err := config.Load(p)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			a.cfg = a.cfg.Merge(fileCfg)
		}
		a.cfg = a.cfg.Merge(changedFlags(cmd))
		if f := cmd.Flags().Lookup("timeout"); f != nil && f.Changed {
			// an explicit 0 must win over a config file value
			n, _ := cmd.Flags().GetInt("timeout")
			a.cfg.CommandTimeoutSec = n
		}
		if err := a.cfg.Validate(); err != nil {
			return err
		}
		a.log = logging.New(a.out, a.cfg.LogLevel)
		return nil
	}

	generateCmd := &cobra.Command{
		Use:     "generate",
		Aliases: []string{"gen"},
		Short:   "Discover models and write the manifest (default command)",
		Example: "  modelsetup generate\n  modelsetup generate -o ~/.config/chat/models.yaml",
		Args:    cobra.NoArgs,
		RunE:    func(cmd *cobra.Command, args []string) error { return a.generate(cmd.Context()) },
	}

	showCmd := &cobra.Command{
		Use:     "show [manifest]",
		Aliases: []string{"ls"},
		Short:   "Print the models listed in an existing manifest",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfg.Output
			if len(args) == 1 {
				path = args[0]
			}
			return a.show(path)
		},
	}

	root.AddCommand(generateCmd, showCmd)

	// completion command
	completionCmd := &cobra.Command{Use: "completion", Short: "Generate the autocompletion script for the specified shell"}
	completionCmd.AddCommand(&cobra.Command{Use: "bash", Short: "Bash completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenBashCompletion(cmd.OutOrStdout()) }})
	completionCmd.AddCommand(&cobra.Command{Use: "zsh", Short: "Zsh completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenZshCompletion(cmd.OutOrStdout()) }})
	completionCmd.AddCommand(&cobra.Command{Use: "fish", Short: "Fish completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenFishCompletion(cmd.OutOrStdout(), true) }})
	completionCmd.AddCommand(&cobra.Command{Use: "powershell", Short: "PowerShell completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenPowerShellCompletionWithDesc(cmd.OutOrStdout()) }})
	root.AddCommand(completionCmd)
	root.CompletionOptions.DisableDefaultCmd = true

	return root
}

// changedFlags collects flags the user set explicitly.
func changedFlags(cmd *cobra.Command) config.Config {
	var c config.Config
	fs := cmd.Flags()
	if fs.Changed("ollama-bin") {
		c.OllamaBin, _ = fs.GetString("ollama-bin")
	}
	if fs.Changed("output") {
		c.Output, _ = fs.GetString("output")
	}
	if fs.Changed("log-level") {
		c.LogLevel, _ = fs.GetString("log-level")
	}
	if fs.Changed("metrics-file") {
		c.MetricsFile, _ = fs.GetString("metrics-file")
	}
	return c
}

func (a *app) generate(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	output, err := fsutil.ExpandHome(a.cfg.Output)
	if err != nil {
		return err
	}
	runner := &executil.Runner{Timeout: a.cfg.CommandTimeout(), Log: a.log}
	p := &discover.Pipeline{
		Source: registry.NewOllama(a.cfg.OllamaBin, runner, a.log),
		Output: output,
		Log:    a.log,
		Out:    a.out,
	}
	if a.cfg.MetricsFile != "" {
		p.Metrics = discover.NewMetrics()
	}
	_, runErr := p.Run(ctx)
	if p.Metrics != nil {
		mf, err := fsutil.ExpandHome(a.cfg.MetricsFile)
		if err == nil {
			err = p.Metrics.WriteTextfile(mf)
		}
		if err != nil {
			a.log.Warn().Err(err).Str("path", a.cfg.MetricsFile).Msg("could not write metrics file")
		}
	}
	return runErr
}

func (a *app) show(path string) error {
	p, err := fsutil.ExpandHome(path)
	if err != nil {
		return err
	}
	m, err := manifest.Read(p)
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}
	if len(m.Models) == 0 {
		fmt.Fprintf(a.out, "No models in %s. Run 'modelsetup generate' to refresh it.\n", path)
		return nil
	}
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSIZE\tPATH")
	for _, r := range m.Models {
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.Name, r.Size, r.Path)
	}
	return w.Flush()
}
