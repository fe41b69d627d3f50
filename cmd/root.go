package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"setup-project/internal/config"
	"setup-project/internal/installer"
	"setup-project/internal/logger"
)

// version is overridden at build time with -ldflags "-X setup-project/cmd.version=...".
var version = "dev"

// options holds the flags that are not layered through viper.
type options struct {
	configPath string
	debug      bool
	force      bool
}

// NewRootCmd builds the setup-project command tree. Running it without a subcommand
// makes sure the generator is installed and generates project files with the
// configured action.
func NewRootCmd() *cobra.Command {
	opts := &options{}
	v := config.NewViper()

	rootCmd := &cobra.Command{
		Use:   "setup-project",
		Short: "Fetch the project generator and generate project files",
		Long: `setup-project downloads a prebuilt premake release into Vendor/Premake/Bin
when it is missing and runs it to generate the project's build files.

Settings come from setup.yaml in the project root, SETUP_* environment
variables and the flags below, in increasing order of precedence.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := newSession(cmd, opts, v)
			if err != nil {
				return err
			}
			defer s.close()
			return s.prov.EnsureAndRun(cmd.Context(), s.spec, s.install, s.cfg.Action)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", config.DefaultConfigFile, "Path to configuration file (relative paths resolve against the project root)")
	flags.BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	flags.BoolVar(&opts.force, "force", false, "Reinstall even when the executable is present")
	flags.StringP("project", "p", ".", "Project root")
	flags.String("platform", "", "Target platform (linux, macosx, windows); defaults to the host")
	flags.String("tool-version", "", "Tool version to install")
	flags.String("release-base-url", "", "Base URL of the release downloads")
	flags.String("sha256", "", "Expected SHA-256 of the release archive")
	flags.Duration("download-timeout", 0, "Download timeout (default 5m)")
	flags.Bool("strict-version", false, "Reinstall when the installed version differs")
	flags.String("log-file", "", "Log file (default setup.log in the project root)")

	for _, key := range []string{
		"project", "platform", "tool-version", "release-base-url", "sha256",
		"download-timeout", "strict-version", "log-file",
	} {
		// Lookup only fails for an unregistered flag.
		_ = v.BindPFlag(key, flags.Lookup(key))
	}

	rootCmd.AddCommand(
		newEnsureCmd(opts, v),
		newGenerateCmd(opts, v),
		newURLCmd(opts, v),
		newCleanCmd(opts, v),
		newVersionCmd(),
	)
	return rootCmd
}

// Execute runs the command tree. Errors the provisioner already logged are not
// printed a second time.
func Execute() error {
	err := NewRootCmd().Execute()
	if err != nil && !reported(err) {
		color.New(color.FgRed).Fprintf(os.Stderr, "[ERROR] %v\n", err)
	}
	return err
}

func reported(err error) bool {
	return errors.Is(err, installer.ErrConfiguration) ||
		errors.Is(err, installer.ErrDownload) ||
		errors.Is(err, installer.ErrExtraction) ||
		errors.Is(err, installer.ErrToolInvocation)
}

// loadConfig reads the config file and layers environment and flags over it.
// The project root in the result is absolute.
func loadConfig(cmd *cobra.Command, opts *options, v *viper.Viper) (config.Config, error) {
	project := v.GetString("project")
	if project == "" {
		project = "."
	}

	// An explicit --config must exist; the default one is optional.
	required := cmd.Flags().Changed("config")
	path := opts.configPath
	if !filepath.IsAbs(path) {
		path = filepath.Join(project, path)
	}

	cfg, err := config.LoadConfig(path, required)
	if err != nil {
		return config.Config{}, err
	}
	config.ApplyOverrides(&cfg, v)

	root, err := filepath.Abs(cfg.Project)
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to resolve project root %s: %w", cfg.Project, err)
	}
	cfg.Project = root
	return cfg, nil
}

// session is everything a provisioning command needs.
type session struct {
	cfg     config.Config
	log     *logger.Logger
	prov    *installer.Provisioner
	spec    installer.ToolSpec
	install installer.LocalInstallation
}

func newSession(cmd *cobra.Command, opts *options, v *viper.Viper) (*session, error) {
	cfg, err := loadConfig(cmd, opts, v)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(logger.Options{
		Debug:    opts.debug,
		FilePath: cfg.LogPath(),
		Stdout:   cmd.OutOrStdout(),
		Stderr:   cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, err
	}
	log.Debug("Project root: %s", cfg.Project)

	spec := installer.NewToolSpec(cfg.Tool)
	install, err := installer.NewLocalInstallation(cfg.Project, cfg.Tool, spec)
	if err != nil {
		log.Error("Invalid configuration: %v", err)
		_ = log.Close()
		return nil, err
	}

	prov := installer.New(log)
	prov.WorkDir = cfg.Project
	prov.Force = opts.force
	prov.StrictVersion = cfg.StrictVersion
	prov.DownloadTimeout = cfg.DownloadTimeout

	return &session{cfg: cfg, log: log, prov: prov, spec: spec, install: install}, nil
}

func (s *session) close() {
	if err := s.log.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to close log file: %v\n", err)
	}
}
