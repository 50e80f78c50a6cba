package main

import (
	"fmt"
	"net/http"
	"net/url"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newDownloadCommands(ctx *commandContext) []*cobra.Command {
	var artifactsOut string
	artifacts := &cobra.Command{
		Use:   "artifacts <job-id>",
		Short: "Download the artifacts of a completed job as a zip",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := artifactsOut
			if out == "" {
				out = fmt.Sprintf("job-%s.zip", args[0])
			}
			return download(cmd, ctx, jobPath(args[0], "/artifacts.zip"), nil, out)
		},
	}
	artifacts.Flags().StringVarP(&artifactsOut, "output", "o", "", "Output file")

	var userID, campaignID, status, exportOut string
	var limit int
	export := &cobra.Command{
		Use:   "export",
		Short: "Export the job history as an XLSX workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			return download(cmd, ctx, "/v1/videos/jobs/export", listQuery(userID, campaignID, status, limit), exportOut)
		},
	}
	export.Flags().StringVarP(&userID, "user", "u", "", "Filter by user id")
	export.Flags().StringVar(&campaignID, "campaign", "", "Filter by campaign id")
	export.Flags().StringVar(&status, "status", "", "Filter by status")
	export.Flags().IntVar(&limit, "limit", 0, "Maximum number of jobs")
	export.Flags().StringVarP(&exportOut, "output", "o", "reelmate-jobs.xlsx", "Output file")

	return []*cobra.Command{artifacts, export}
}

func download(cmd *cobra.Command, ctx *commandContext, path string, query url.Values, out string) error {
	client, err := ctx.client()
	if err != nil {
		return err
	}
	data, _, err := client.do(cmd.Context(), http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%s)\n", out, humanize.Bytes(uint64(len(data))))
	return nil
}
