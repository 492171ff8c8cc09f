package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rahul/scout/internal/gateway"
	"github.com/rahul/scout/internal/observability"
	"github.com/spf13/cobra"
)

func newServeCmd(configPath *string) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and enabled chat gateways",
		RunE: func(cmd *cobra.Command, args []string) error {
			observability.PrintBanner(os.Stdout)

			a, err := newApp(*configPath, os.Stdout)
			if err != nil {
				return err
			}
			defer a.Close()
			if addr == "" {
				addr = a.cfg.App.Addr
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var reports gateway.ReportReader
			if a.reports != nil {
				reports = a.reports
			}
			srv := gateway.NewHTTPServer(a.assistant, reports, a.logger)
			go func() {
				if err := srv.Start(addr); err != nil {
					log.Printf("%s[ FAIL ] HTTP gateway: %v%s", observability.ColorNeonMag, err, observability.ColorReset)
					stop()
				}
			}()

			var messengers []gateway.Messenger
			if tg, ok := a.cfg.GetTelegramConfig(); ok {
				m, err := gateway.NewTelegramGateway(tg.Token, a.assistant)
				if err != nil {
					return err
				}
				messengers = append(messengers, m)
			}
			if dc, ok := a.cfg.GetDiscordConfig(); ok {
				m, err := gateway.NewDiscordGateway(dc.Token, a.assistant)
				if err != nil {
					return err
				}
				messengers = append(messengers, m)
			}
			for _, m := range messengers {
				go func(m gateway.Messenger) {
					if err := m.Start(); err != nil {
						log.Printf("%s[ FAIL ] chat gateway: %v%s", observability.ColorNeonMag, err, observability.ColorReset)
						stop()
					}
				}(m)
			}

			go func() {
				ticker := time.NewTicker(30 * time.Second)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
						observability.Heartbeat()
					}
				}
			}()

			<-ctx.Done()

			for _, m := range messengers {
				if err := m.Stop(); err != nil {
					log.Printf("Warning: failed to stop gateway: %v", err)
				}
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Printf("Warning: HTTP shutdown: %v", err)
			}
			log.Printf("%s[ EXIT ] scout stopped.%s", observability.ColorNeonMag, observability.ColorReset)
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides app.addr)")
	return cmd
}
