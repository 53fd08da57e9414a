package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"stockwatch/internal/checker"
	"stockwatch/internal/config"
	"stockwatch/internal/models"
	"stockwatch/internal/urlutil"
)

// newCheckCmd creates the check command
func newCheckCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "check <url>",
		Short: "Classify one product page and print its status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if timeout > 0 {
				cfg.PageTimeout = timeout
			}
			if err := urlutil.Validate(args[0]); err != nil {
				return err
			}
			chk := checker.New(checker.NewHTTPFetcher(cfg.UserAgent), checker.DefaultMarkers, cfg.PageTimeout, nil, zerolog.Nop())
			return checkOne(cmd.Context(), cmd.OutOrStdout(), chk, args[0])
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Page load timeout (overrides PAGE_TIMEOUT)")
	return cmd
}

type stockChecker interface {
	Check(ctx context.Context, url string) models.StockStatus
}

func checkOne(ctx context.Context, w io.Writer, chk stockChecker, url string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	status := chk.Check(ctx, url)
	statusStr := status.String()
	switch status {
	case models.InStock:
		statusStr = green(statusStr)
	case models.OutOfStock:
		statusStr = yellow(statusStr)
	case models.CheckFailed:
		statusStr = red(statusStr)
	}

	fmt.Fprintf(w, "%s (%s)\n", urlutil.DeriveTitle(url), statusStr)
	fmt.Fprintf(w, "  URL:  %s\n", url)
	if status == models.CheckFailed {
		return fmt.Errorf("could not classify %s", url)
	}
	return nil
}
