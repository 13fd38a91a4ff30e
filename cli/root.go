package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "bastion",
	Short: "Bastion - doctrine-driven Kingdom Wars tower bot",
	Long: `Bastion plays Kingdom Wars: each turn it negotiates alliances against the
biggest threat, then splits its coins between upgrades, armor and attacks.

The strategy is a doctrine, a set of tunable thresholds. Built-in doctrines can
be listed with "bastion doctrines list"; custom ones are YAML files.

Example:
  bastion serve --addr :8000 --doctrine balanced`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .bastion.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("doctrine", "", "built-in doctrine name")
	rootCmd.PersistentFlags().String("doctrine-file", "", "YAML doctrine file, overrides --doctrine")
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("strategy.doctrine", rootCmd.PersistentFlags().Lookup("doctrine"))
	_ = viper.BindPFlag("strategy.doctrine_file", rootCmd.PersistentFlags().Lookup("doctrine-file"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		cwd, err := os.Getwd()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error getting working directory:", err)
			os.Exit(1)
		}

		viper.AddConfigPath(cwd)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".bastion")
	}

	viper.SetEnvPrefix("BASTION")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
