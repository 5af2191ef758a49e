package cmd

import (
	"fmt"

	"github.com/dayuer/slackbridge/internal/config"
	"github.com/dayuer/slackbridge/internal/redis"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show slackbridge configuration status",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file path (default ~/.slackbridge/config.json)")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		path = config.GetConfigPath()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	fmt.Println("🔌 slackbridge Status")
	fmt.Println()
	fmt.Printf("Config: %s\n", path)

	fmt.Println("\nCredentials:")
	if cfg.Slack.AppToken != "" {
		fmt.Println("  App token: ✓")
	} else {
		fmt.Printf("  App token: missing (set %s)\n", config.EnvAppToken)
	}
	if cfg.Slack.BotToken != "" {
		fmt.Println("  Bot token: ✓")
	} else {
		fmt.Printf("  Bot token: missing (set %s)\n", config.EnvBotToken)
	}
	if len(cfg.Slack.AllowFrom) > 0 {
		fmt.Printf("  Allow-list: %d user(s)\n", len(cfg.Slack.AllowFrom))
	}

	fmt.Println("\nEnvelope cache:")
	if cfg.Redis.URL == "" {
		fmt.Println("  Redis: not configured (duplicates not suppressed)")
	} else if redis.Init(redis.Config(cfg.Redis)) {
		fmt.Println("  Redis: ✓")
		redis.Close()
	} else {
		fmt.Println("  Redis: unreachable")
	}

	fmt.Println("\nRules:")
	if cfg.Rules.Path == "" {
		fmt.Println("  Built-in echo rule")
	} else {
		fmt.Printf("  %s\n", cfg.Rules.Path)
	}

	return nil
}
