package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"studysync/internal/api"
	"studysync/internal/config"
	"studysync/internal/tui"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		cfgPath string
		server  string
		token   string
	)

	root := &cobra.Command{
		Use:          "studysync",
		Short:        "Study dashboard with live task sync",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cfgPath, server, token)
			if err != nil {
				return err
			}
			return tui.Run(cfg)
		},
	}

	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	root.PersistentFlags().StringVar(&server, "server", "", "server base URL (overrides config)")
	root.PersistentFlags().StringVar(&token, "token", "", "access token (overrides config)")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newAttachCmd(&cfgPath, &server, &token))
	return root
}

func loadConfig(path, server, token string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if server != "" {
		cfg.ServerURL = server
	}
	if token != "" {
		cfg.Token = token
	}
	return cfg, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("studysync", version)
		},
	}
}

// attach uploads a file to a task from the shell, for anything too big
// to paste into the dashboard.
func newAttachCmd(cfgPath, server, token *string) *cobra.Command {
	return &cobra.Command{
		Use:   "attach <task-id> <file>",
		Short: "Attach a file to a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*cfgPath, *server, *token)
			if err != nil {
				return err
			}

			f, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer f.Close()

			client := api.New(cfg.ServerURL, cfg.Token)
			a, err := client.UploadAttachment(context.Background(), args[0], filepath.Base(args[1]), f)
			if err != nil {
				return err
			}
			fmt.Printf("attached %s (%d bytes)\n", a.Filename, a.Size)
			return nil
		},
	}
}
