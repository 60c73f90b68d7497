package cmd

import (
	"fmt"
	"os"

	"github.com/prometheus/common/version"
	"github.com/spf13/cobra"

	"github.com/openshift-assisted/ecs-rebalancer/internal/config"
	"github.com/openshift-assisted/ecs-rebalancer/internal/log"
)

const appName = "ecs-rebalancer"

var (
	cfgFile string
	conf    *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:           appName,
	Short:         "Keep an ECS service running one task per registered container instance",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		conf, err = config.Parse(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to parse config %s: %w", cfgFile, err)
		}

		// Init logger
		err = log.Init(conf.Logs)
		if err != nil {
			return fmt.Errorf("failed to init logger: %w", err)
		}

		logger := log.Logger()

		// Dump generic information
		logger.V(1).Info("Starting "+appName,
			"command", cmd.Name(),
			"version", version.Info(),
			"buildContext", version.BuildContext(),
		)
		logger.V(1).Info("Using config", "config", fmt.Sprintf("%+v", *conf))

		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file, environment variables take precedence")
}
