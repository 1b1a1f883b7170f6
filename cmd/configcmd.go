package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/darion/resultfetch/config"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the resultfetch configuration file.",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a commented default config.yaml.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		path := cfgFile
		if path == "" {
			path = "config.yaml"
		}
		if err := config.WriteDefault(path); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println("wrote", path)
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		mustSetup()
		out, err := jsoniter.MarshalIndent(config.AllSettings(), "", "  ")
		if err != nil {
			log.Error("failed to render the configuration.", slog.String("err", err.Error()))
			os.Exit(1)
		}
		fmt.Println(string(out))
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Persist one key into the config file, e.g. worker.max_workers 10.",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		mustSetup()
		if err := config.Set(args[0], args[1]); err != nil {
			log.Error("failed to update the configuration.", slog.String("err", err.Error()))
			os.Exit(1)
		}
		log.Info("config updated.", slog.String("key", args[0]), slog.String("value", args[1]))
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}
