package cmd

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/taskwatch/internal/config"
)

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "taskwatch",
		Short: "Deadline monitor and assignment advisor for team tasks",
		Long: `Taskwatch watches a team's tasks and meetings, notifies about approaching
and missed deadlines, recommends who should take a task, and flags overdue
work and overloaded employees.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(cmd)
		},
	}

	// Global flags
	root.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/taskwatch/config.yaml)")
	root.PersistentFlags().String("store", "", "dataset file (overrides store.path)")
	root.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (overrides logging.level)")

	root.AddCommand(
		newWatchCmd(),
		newCheckCmd(),
		newRecommendCmd(),
		newAssignCmd(),
		newAnomaliesCmd(),
		newTaskCmd(),
		newConfigCmd(),
	)
	return root
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func initConfig(cmd *cobra.Command) error {
	// API keys may live in a .env file next to the dataset
	_ = godotenv.Load()

	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	cfgFile, _ := cmd.Flags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath("$HOME/.config/taskwatch")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("TASKWATCH")
	// Replace dots with underscores for nested keys in env vars
	// e.g., TASKWATCH_STORE_PATH for store.path
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		// A missing default config is fine; an explicit one must exist.
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound || cfgFile != "" {
			return fmt.Errorf("read config: %w", err)
		}
	}

	if s, _ := cmd.Flags().GetString("store"); s != "" {
		viper.Set("store.path", s)
	}
	if l, _ := cmd.Flags().GetString("log-level"); l != "" {
		viper.Set("logging.level", l)
	}
	return nil
}
