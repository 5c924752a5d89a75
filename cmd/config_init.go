package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/holdings-cli/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration helpers",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config.yaml with the defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		if _, err := os.Stat("config.yaml"); err == nil && !force {
			return eris.New("config.yaml already exists (use --force to overwrite)")
		}

		v := viper.New()
		config.ApplyDefaults(v)

		data, err := yaml.Marshal(v.AllSettings())
		if err != nil {
			return eris.Wrap(err, "config init: marshal defaults")
		}
		if err := os.WriteFile("config.yaml", data, 0o644); err != nil {
			return eris.Wrap(err, "config init: write config.yaml")
		}

		fmt.Println("Wrote config.yaml")
		return nil
	},
}

func init() {
	configInitCmd.Flags().Bool("force", false, "overwrite an existing config.yaml")
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
