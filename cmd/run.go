package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dayuer/slackbridge/internal/bridge"
	"github.com/dayuer/slackbridge/internal/config"
	"github.com/dayuer/slackbridge/internal/redis"
	"github.com/dayuer/slackbridge/internal/rules"
	"github.com/dayuer/slackbridge/internal/slack"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Socket Mode bridge",
	RunE:  runBridge,
}

var configPath string

func init() {
	runCmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file path (default ~/.slackbridge/config.json)")
	rootCmd.AddCommand(runCmd)
}

func runBridge(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ruleSet, err := rules.Load(cfg.Rules.Path)
	if err != nil {
		return err
	}

	if redis.Init(redis.Config(cfg.Redis)) {
		defer redis.Close()
	}

	client := slack.NewClient(cfg.Slack.AppToken, cfg.Slack.BotToken, "")
	forwarder := bridge.NewForwarder(client, ruleSet, cfg.Slack.AllowFrom)
	br := bridge.NewFromConfig(cfg, client, forwarder)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\nShutting down...")
		cancel()
	}()

	log.Println("[Bridge] Starting Socket Mode bridge...")
	if err := br.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
