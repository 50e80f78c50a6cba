package main

import (
	"net/http"
	"strings"

	"github.com/spf13/cobra"
)

type commandContext struct {
	configFlag *string
	serverFlag *string

	config *cliConfig
}

func (c *commandContext) ensureConfig() (*cliConfig, error) {
	if c.config != nil {
		return c.config, nil
	}
	cfg, err := loadCLIConfig(*c.configFlag)
	if err != nil {
		return nil, err
	}
	if s := strings.TrimRight(strings.TrimSpace(*c.serverFlag), "/"); s != "" {
		cfg.Server = s
	}
	c.config = &cfg
	return c.config, nil
}

func (c *commandContext) client() (*apiClient, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return &apiClient{base: cfg.Server, http: &http.Client{Timeout: cfg.Timeout}}, nil
}

func newRootCommand() *cobra.Command {
	var configFlag, serverFlag string
	ctx := &commandContext{configFlag: &configFlag, serverFlag: &serverFlag}

	rootCmd := &cobra.Command{
		Use:           "reelmate",
		Short:         "Operate ReelMate video generation jobs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&serverFlag, "server", "", "API base URL (overrides config)")

	rootCmd.AddCommand(newSubmitCommand(ctx))
	rootCmd.AddCommand(newStatusCommand(ctx))
	rootCmd.AddCommand(newListCommand(ctx))
	rootCmd.AddCommand(newCancelCommand(ctx))
	rootCmd.AddCommand(newRetryCommand(ctx))
	rootCmd.AddCommand(newEstimateCommand(ctx))
	rootCmd.AddCommand(newCatalogCommands(ctx)...)
	rootCmd.AddCommand(newDownloadCommands(ctx)...)

	return rootCmd
}
