package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"andy.dev/hedge/cmd/internal/app"
	"andy.dev/hedge/cmd/internal/config"
	"andy.dev/hedge/cmd/internal/flags"
	"andy.dev/hedge/cmd/internal/logging"
)

const VersionDev = "dev"

// Cmd represents the base command when called without any subcommands
type Cmd struct {
	// Version params.
	appVersion string
	commitHash string

	flagsApp   *flags.App
	flagsHedge *flags.Hedge
	flagsHTTP  *flags.HTTP
}

func NewCmd(appVersion, commitHash string) *cobra.Command {
	c := &Cmd{
		appVersion: appVersion,
		commitHash: commitHash,

		flagsApp:   flags.NewApp(),
		flagsHedge: flags.NewHedge(),
		flagsHTTP:  flags.NewHTTP(),
	}

	rootCmd := &cobra.Command{
		Use:   "hedgefetch [flags] URL...",
		Short: "Fetch URLs with hedged requests",
		RunE:  c.run,
	}

	// Disable sorting
	rootCmd.PersistentFlags().SortFlags = false
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true

	appFlagSet := c.flagsApp.NewFlagSet()
	hedgeFlagSet := c.flagsHedge.NewFlagSet()
	httpFlagSet := c.flagsHTTP.NewFlagSet()

	rootCmd.PersistentFlags().AddFlagSet(appFlagSet)
	rootCmd.Flags().AddFlagSet(hedgeFlagSet)
	rootCmd.Flags().AddFlagSet(httpFlagSet)

	// Beautify help and usage.
	helpFunc := func(cmd *cobra.Command) {
		out := cmd.OutOrStdout()

		fmt.Fprintln(out, "Fetch URLs, sending a new attempt whenever the previous one is slow.")
		fmt.Fprintln(out, "\nUsage:")
		fmt.Fprintln(out, "  hedgefetch [flags] URL...")

		fmt.Fprintln(out, "\nGeneral Flags:")
		appFlagSet.SetOutput(out)
		appFlagSet.PrintDefaults()

		fmt.Fprintln(out, "\nHedge Flags:\n"+
			"A new attempt starts every --interval until one succeeds or --max-attempts were started.\n"+
			"An attempt failing within --guard-band of the next start launches it immediately.")
		hedgeFlagSet.SetOutput(out)
		hedgeFlagSet.PrintDefaults()

		fmt.Fprintln(out, "\nHTTP Flags:")
		httpFlagSet.SetOutput(out)
		httpFlagSet.PrintDefaults()
	}

	rootCmd.SetUsageFunc(func(cmd *cobra.Command) error {
		helpFunc(cmd)
		return nil
	})
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, _ []string) {
		helpFunc(cmd)
	})

	return rootCmd
}

func (c *Cmd) run(cmd *cobra.Command, args []string) error {
	// Show version.
	if c.flagsApp.Version {
		c.printVersion(cmd)

		return nil
	}

	// If no urls were passed, show help.
	if len(args) == 0 {
		return cmd.Help()
	}

	if c.flagsApp.Config != "" {
		f, err := config.Load(c.flagsApp.Config)
		if err != nil {
			return err
		}

		if err = f.Apply(cmd.Flags(), c.flagsApp.GetApp(), c.flagsHedge.GetHedge(), c.flagsHTTP.GetHTTP()); err != nil {
			return fmt.Errorf("failed to apply config file: %w", err)
		}
	}

	// Init logger.
	logger, err := logging.NewLogger(cmd.ErrOrStderr(), c.flagsApp.LogLevel, c.flagsApp.Verbose, c.flagsApp.LogJSON)
	if err != nil {
		return err
	}

	// Init app.
	fetcher, err := app.NewFetcher(c.flagsHedge.GetHedge(), c.flagsHTTP.GetHTTP(), cmd.OutOrStdout(), logger)
	if err != nil {
		return err
	}

	return fetcher.Run(cmd.Context(), args)
}

func (c *Cmd) printVersion(cmd *cobra.Command) {
	version := c.appVersion
	if c.appVersion == VersionDev {
		version += " (" + c.commitHash + ")"
	}

	fmt.Fprintf(cmd.OutOrStdout(), "version: %s\n", version)
}
