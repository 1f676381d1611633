package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dbin-w/courtwatch/internal/core"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the watch daemon",
	Long: `Watch the configured export directory for changes to today's JSON file
and run the analyze-and-deliver pipeline for each new tennis workout.

The daemon runs until interrupted. The event being handled when the
interrupt arrives is allowed to finish.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Handler == nil || WatchSrc == nil {
			return fmt.Errorf("watch pipeline not initialized")
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		events, err := WatchSrc.Events(ctx)
		if err != nil {
			return fmt.Errorf("starting watch source: %w", err)
		}

		fmt.Fprintf(os.Stderr, "守护进程已启动, 监听目录: %s\n", Config.WatchDir)
		if Analyzer != nil && !Analyzer.Available() {
			fmt.Fprintln(os.Stderr, "警告: 未配置 API 密钥, 分析服务不可用")
		}

		// Bridge watcher events into the handler's single consumer loop.
		handlerEvents := make(chan core.ChangeEvent)
		go func() {
			defer close(handlerEvents)
			for ev := range events {
				select {
				case handlerEvents <- core.ChangeEvent{Path: ev.Path, Write: ev.Write}:
				case <-ctx.Done():
					return
				}
			}
		}()

		Handler.Run(ctx, handlerEvents)
		fmt.Fprintln(os.Stderr, "守护进程已停止")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
