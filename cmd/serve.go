package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/salesprep-cli/internal/server"
)

var (
	serveAddr        string
	serveMaxUploadMB int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the cleaning pipeline over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		if err := c.Validate(); err != nil {
			return err
		}
		sc := server.Config{Addr: c.Server.Addr, MaxUploadMB: c.Server.MaxUploadMB}
		if cmd.Flags().Changed("addr") {
			sc.Addr = serveAddr
		}
		if cmd.Flags().Changed("max-upload-mb") {
			sc.MaxUploadMB = serveMaxUploadMB
		}
		srv, err := server.New(sc, c.Settings(), logger)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return srv.ListenAndServe(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address (overrides server.addr)")
	serveCmd.Flags().IntVar(&serveMaxUploadMB, "max-upload-mb", 32, "maximum upload size in MiB (overrides server.max_upload_mb)")
}
