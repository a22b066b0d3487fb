// Package cli implements the esign command-line tool.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/turtacn/esign/internal/config"
	"github.com/turtacn/esign/internal/domain/models"
	"github.com/turtacn/esign/internal/infrastructure/monitoring"
	"github.com/turtacn/esign/pkg/errors"
	"github.com/turtacn/esign/pkg/logger"
	"github.com/turtacn/esign/sdk/go/esign"
)

type rootOptions struct {
	configFile string
}

// NewRootCommand builds the esign command tree.
// NewRootCommand 构建 esign 命令树。
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "esign",
		Short: "A CLI for the e-signature open API.",
		Long: `esign signs and sends open API requests, manages access tokens and calls the
file and sign flow endpoints. Configuration is read from --config, ./config.yaml or
/etc/esign/config.yaml and can be overridden with ESIGN_* environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default ./config.yaml or /etc/esign/config.yaml)")

	rootCmd.AddCommand(
		newSignCommand(opts),
		newTokenCommand(opts),
		newCallCommand(opts),
		newFilesCommand(opts),
		newFlowsCommand(opts),
	)
	return rootCmd
}

// Execute is the main entry point for the CLI application. Domain errors are printed
// with their response code.
// Execute 是 CLI 应用程序的主入口点。
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		if de, ok := errors.AsDomainError(err); ok {
			fmt.Fprintf(os.Stderr, "request rejected: code=%d message=%s\n", de.ResponseCode(), de.Message())
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func loadConfig(opts *rootOptions) (*config.Config, error) {
	startup, err := monitoring.NewZapLogger(&config.LogConfig{Level: "warn", Format: "console"})
	if err != nil {
		startup = logger.NewNoopLogger()
	}
	return config.LoadConfig(opts.configFile, startup)
}

// newClient builds an SDK client from configuration. Its metrics stay in the client's
// own registry since the CLI never serves them.
func newClient(ctx context.Context, opts *rootOptions) (*esign.Client, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	return esign.New(ctx, cfg)
}

// withClient runs fn with a client and closes it afterwards.
func withClient(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, client *esign.Client) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	client, err := newClient(ctx, opts)
	if err != nil {
		return err
	}
	defer client.Close(context.Background())
	return fn(ctx, client)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printResult(w io.Writer, result *models.Result) error {
	if result.IsNoContent() {
		_, err := fmt.Fprintln(w, "(no content)")
		return err
	}
	return printCollection(w, result.Data())
}

func printCollection(w io.Writer, data *models.Collection) error {
	if data == nil {
		_, err := fmt.Fprintln(w, "(no content)")
		return err
	}
	raw := data.Raw()
	if len(raw) == 0 {
		_, err := fmt.Fprintln(w, "null")
		return err
	}
	return printJSON(w, raw)
}
