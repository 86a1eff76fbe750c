package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/fable/internal/logging"
	"github.com/aretw0/fable/pkg/adapters/httpapi"
	"github.com/aretw0/fable/pkg/adapters/memory"
	"github.com/aretw0/fable/pkg/adapters/redis"
	"github.com/aretw0/fable/pkg/ports"
)

var serveCmd = &cobra.Command{
	Use:   "serve [flow-file...]",
	Short: "Start the HTTP session server",
	Long:  `Starts the fable engine in server mode, exposing flows and sessions over a JSON API. Flow files given as arguments are loaded into the store at startup.`,
	Run: func(cmd *cobra.Command, args []string) {
		port, _ := cmd.Flags().GetString("port")
		redisAddr, _ := cmd.Flags().GetString("redis")
		level, _ := cmd.Flags().GetString("log-level")

		logger := logging.New(logging.ParseLevel(level))

		var store ports.FlowStore
		if redisAddr != "" {
			store = redis.New(redisAddr, "", 0)
			logger.Info("using redis flow store", "addr", redisAddr)
		} else {
			store = memory.NewStore()
		}

		for _, path := range args {
			def, err := loadFlow([]string{path})
			if err != nil {
				fmt.Printf("Error loading %s: %v\n", path, err)
				os.Exit(1)
			}
			if err := store.Save(cmd.Context(), def); err != nil {
				fmt.Printf("Error storing %s: %v\n", path, err)
				os.Exit(1)
			}
			logger.Info("flow loaded", "flow", def.ID, "file", path)
		}

		server := httpapi.NewServer(store, httpapi.WithLogger(logger))
		srv := &http.Server{
			Addr:    ":" + port,
			Handler: server.Handler(),
		}

		serverErrors := make(chan error, 1)
		go func() {
			fmt.Printf("Starting fable server on %s\n", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)

		case sig := <-shutdown:
			fmt.Printf("\nStart shutdown... Signal: %v\n", sig)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				fmt.Printf("Graceful shutdown did not complete in %v: %v\n", 5*time.Second, err)
				if err := srv.Close(); err != nil {
					fmt.Printf("Error killing server: %v\n", err)
				}
			}
			fmt.Println("fable server stopped gracefully")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().String("redis", "", "Redis address for the flow store (default: in-memory)")
}
