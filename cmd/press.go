package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"go-campaign-site/internal/aggregate"
	"go-campaign-site/internal/fetch"
	"go-campaign-site/internal/logx"
)

var pressCmd = &cobra.Command{
	Use:   "press",
	Short: "Fetch configured press sources once and print what was found",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(cfg.Press.Sources) == 0 {
			return errors.New("no press.sources configured")
		}
		cl, err := fetch.New(fetch.Options{Retry: cfg.Press.Retry, UserAgent: userAgent})
		if err != nil {
			return fmt.Errorf("press client: %w", err)
		}
		defer cl.CloseIdle()

		rl, err := loadRules(cfg)
		if err != nil {
			return err
		}
		run := aggregate.New(cfg.Press, cl, rl)
		if err := run.Run(cmd.Context()); err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, st := range run.Statuses() {
			if st.Error != "" {
				fmt.Fprintf(out, "x %s  %s  error=%s\n", st.Name, st.URL, st.Error)
				continue
			}
			src := st.FeedURL
			if src == "" {
				src = "page"
			}
			fmt.Fprintf(out, "+ %s  %s  feed=%s items=%d\n", st.Name, st.URL, src, st.Items)
		}
		items := run.Items()
		for _, it := range items {
			fmt.Fprintf(out, "- %s  %s  [%s] %s\n", it.PublishedAt.Format("2006-01-02"), it.Outlet, it.Kind, it.Title)
		}
		if len(items) == 0 {
			logx.Warnf("未从任何来源解析到报道，请检查 press.sources 与 feed_suffix。")
		}
		return nil
	},
}
