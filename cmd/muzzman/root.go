package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var socketFlag string
	var configFlag string
	var jsonFlag bool
	var verboseFlag bool

	ctx := newCommandContext(&socketFlag, &configFlag, &jsonFlag, &verboseFlag)

	rootCmd := &cobra.Command{
		Use:           "muzzman",
		Short:         "Control a running muzzman daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return ctx.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&socketFlag, "socket", "", "Path to the muzzman daemon socket")
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "Machine readable output where supported")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Log daemon calls to stderr")

	rootCmd.AddCommand(newLoadModuleCommand(ctx))
	rootCmd.AddCommand(newGetModulesCommand(ctx))
	rootCmd.AddCommand(newGetDefaultLocationCommand(ctx))
	rootCmd.AddCommand(newGetLocationCommand(ctx))
	rootCmd.AddCommand(newCreateLocationCommand(ctx))
	rootCmd.AddCommand(newResolvCommand(ctx))
	rootCmd.AddCommand(newGetElementCommand(ctx))
	rootCmd.AddCommand(newDestroyElementCommand(ctx))
	rootCmd.AddCommand(newDaemonCommand(ctx))
	rootCmd.AddCommand(newLogsCommand(ctx))
	rootCmd.AddCommand(newTestNotifyCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}
