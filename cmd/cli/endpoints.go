package cli

import (
	"context"
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/turtacn/esign/pkg/errors"
	"github.com/turtacn/esign/sdk/go/esign"
)

func newFilesCommand(root *rootOptions) *cobra.Command {
	filesCmd := &cobra.Command{
		Use:   "files",
		Short: "File endpoints",
	}

	var templateID, name, fields string
	createCmd := &cobra.Command{
		Use:   "create-by-template",
		Short: "Create a file from a template",
		RunE: func(cmd *cobra.Command, args []string) error {
			var formFields interface{}
			if fields != "" {
				if !json.Valid([]byte(fields)) {
					return errors.ErrInvalidRequest("--fields is not valid JSON")
				}
				formFields = json.RawMessage(fields)
			}
			return withClient(cmd, root, func(ctx context.Context, client *esign.Client) error {
				data, err := client.Files.CreateByTemplateID(ctx, templateID, name, formFields)
				if err != nil {
					return err
				}
				return printCollection(cmd.OutOrStdout(), data)
			})
		},
	}
	createCmd.Flags().StringVar(&templateID, "template-id", "", "template id")
	createCmd.Flags().StringVar(&name, "name", "", "file name")
	createCmd.Flags().StringVar(&fields, "fields", "", `simple form fields as JSON, e.g. '[{"party":"A"}]'`)
	_ = createCmd.MarkFlagRequired("template-id")
	_ = createCmd.MarkFlagRequired("name")

	filesCmd.AddCommand(createCmd)
	return filesCmd
}

func newFlowsCommand(root *rootOptions) *cobra.Command {
	flowsCmd := &cobra.Command{
		Use:   "flows",
		Short: "Sign flow endpoints",
	}

	signersCmd := &cobra.Command{
		Use:   "signers FLOW_ID",
		Short: "List the signers of a sign flow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, root, func(ctx context.Context, client *esign.Client) error {
				data, err := client.SignFlows.QuerySigners(ctx, args[0])
				if err != nil {
					return err
				}
				return printCollection(cmd.OutOrStdout(), data)
			})
		},
	}

	voucherCmd := &cobra.Command{
		Use:   "voucher FLOW_ID",
		Short: "Fetch the evidence voucher of a sign flow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, root, func(ctx context.Context, client *esign.Client) error {
				data, err := client.SignFlows.GetVoucher(ctx, args[0])
				if err != nil {
					return err
				}
				return printCollection(cmd.OutOrStdout(), data)
			})
		},
	}

	flowsCmd.AddCommand(signersCmd, voucherCmd)
	return flowsCmd
}
