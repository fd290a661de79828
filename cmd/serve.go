package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"go-campaign-site/internal/imageurl"
	"go-campaign-site/internal/logx"
	"go-campaign-site/internal/site"
	"go-campaign-site/internal/visuals"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the campaign site",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		d, err := build(ctx, cfg)
		if err != nil {
			return err
		}
		defer d.Close()

		opts := site.Options{
			Content: d.repo,
			Visuals: visuals.Flags{
				BackgroundAnimation: cfg.Features.BackgroundAnimation,
				TimingStrategy:      cfg.Features.TimingStrategy,
			},
			Images: imageurl.Builder{
				BaseURL:   cfg.Images.BaseURL,
				ProjectID: cfg.ContentStore.ProjectID,
				Dataset:   cfg.ContentStore.Dataset,
			},
			Location: cfg.Location(),
		}
		if cfg.Server.Watch {
			opts.TemplatesDir = cfg.Server.TemplatesDir
		}
		if d.press != nil {
			opts.Press = d.press
			interval := time.Duration(cfg.Press.RefreshMinutes) * time.Minute
			go d.press.Start(ctx, interval)
		}
		srv, err := site.New(opts)
		if err != nil {
			return err
		}
		if opts.TemplatesDir != "" {
			go func() {
				if err := srv.Views().Watch(ctx); err != nil {
					logx.Warnf("模板热加载未开启：%v", err)
				}
			}()
		}

		addr := cfg.Server.Addr
		if serveAddr != "" {
			addr = serveAddr
		}
		errCh := make(chan error, 1)
		go func() { errCh <- srv.Listen(addr) }()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}
		logx.Infof("收到退出信号，正在关闭站点")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
}
