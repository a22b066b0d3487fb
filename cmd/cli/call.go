package cli

import (
	"context"
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/turtacn/esign/internal/domain/models"
	"github.com/turtacn/esign/pkg/errors"
	"github.com/turtacn/esign/sdk/go/esign"
)

// newCallCommand sends an arbitrary request through the full pipeline.
func newCallCommand(root *rootOptions) *cobra.Command {
	var data string

	cmd := &cobra.Command{
		Use:   "call METHOD URL",
		Short: "Send a signed request and print the decoded data",
		Example: `  esign call GET /v1/signflows/abc/signers
  esign call POST /v1/files/createByTemplate --data '{"name":"doc","templateId":"tpl1"}'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			method, ok := models.ParseMethod(args[0])
			if !ok {
				return errors.ErrInvalidRequest("unsupported method " + args[0])
			}

			var body interface{}
			if data != "" {
				if !json.Valid([]byte(data)) {
					return errors.ErrInvalidRequest("--data is not valid JSON")
				}
				body = json.RawMessage(data)
			}

			return withClient(cmd, root, func(ctx context.Context, client *esign.Client) error {
				result, err := client.API.Call(ctx, method, args[1], body)
				if err != nil {
					return err
				}
				return printResult(cmd.OutOrStdout(), result)
			})
		},
	}
	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON request body")
	return cmd
}
