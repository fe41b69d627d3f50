package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"setup-project/internal/installer"
)

// newEnsureCmd installs the tool if it is missing, without running it.
func newEnsureCmd(opts *options, v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "ensure",
		Short: "Install the generator if it is missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := newSession(cmd, opts, v)
			if err != nil {
				return err
			}
			defer s.close()

			_, err = s.prov.Ensure(cmd.Context(), s.spec, s.install)
			return err
		},
	}
}

// newGenerateCmd installs the tool if needed and runs it with the given actions,
// falling back to the configured ones.
func newGenerateCmd(opts *options, v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:     "generate [action...]",
		Short:   "Generate project files (default action from config, e.g. vs2022)",
		// Tool flags go after "--" so cobra leaves them alone.
		Example: "  setup-project generate\n  setup-project generate gmake2\n  setup-project generate -- --os=linux gmake2",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, opts, v)
			if err != nil {
				return err
			}
			defer s.close()

			if len(args) == 0 {
				args = s.cfg.Action
			}
			return s.prov.EnsureAndRun(cmd.Context(), s.spec, s.install, args)
		},
	}
}

// newURLCmd prints the package name and download URL. It touches neither the
// network nor the filesystem beyond reading the config file.
func newURLCmd(opts *options, v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "url",
		Short: "Print the release package name and download URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, opts, v)
			if err != nil {
				return err
			}

			spec := installer.NewToolSpec(cfg.Tool)
			pkg, err := spec.PackageName()
			if err != nil {
				return err
			}
			url, err := spec.DownloadURL()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, pkg)
			fmt.Fprintln(out, url)
			return nil
		},
	}
}

// newCleanCmd removes the installed tool so the next run downloads it again.
func newCleanCmd(opts *options, v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove the installed generator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := newSession(cmd, opts, v)
			if err != nil {
				return err
			}
			defer s.close()

			return s.prov.Uninstall(s.install)
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the setup-project version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "setup-project %s\n", version)
		},
	}
}
