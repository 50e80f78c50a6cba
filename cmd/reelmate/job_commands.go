package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"reelmate/internal/domain"
	"reelmate/internal/tracker"
)

type jobRow struct {
	ID         string            `json:"id"`
	UserID     string            `json:"user_id"`
	CampaignID string            `json:"campaign_id"`
	JobType    string            `json:"job_type"`
	Status     string            `json:"status"`
	Progress   int               `json:"progress"`
	Output     *domain.JobOutput `json:"output"`
	Error      *string           `json:"error_message"`
	CreatedAt  time.Time         `json:"created_at"`
}

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var (
		userID, campaignID, avatarID, voiceID string
		jobType, quality, aspect, scriptFile  string
	)
	cmd := &cobra.Command{
		Use:   "submit [script]",
		Short: "Submit a video generation job",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			script, err := readScript(cmd.InOrStdin(), args, scriptFile)
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if userID == "" {
				userID = cfg.UserID
			}
			if userID == "" {
				return errors.New("--user is required (or set user_id in the config file)")
			}
			body := map[string]any{
				"user_id":   userID,
				"script":    script,
				"avatar_id": avatarID,
				"voice_id":  voiceID,
			}
			if campaignID != "" {
				body["campaign_id"] = campaignID
			}
			if jobType != "" {
				body["job_type"] = jobType
			}
			settings := map[string]string{}
			if quality != "" {
				settings["quality"] = quality
			}
			if aspect != "" {
				settings["aspect_ratio"] = aspect
			}
			if len(settings) > 0 {
				body["generation_settings"] = settings
			}

			client, err := ctx.client()
			if err != nil {
				return err
			}
			var resp struct {
				JobID  string `json:"job_id"`
				Status string `json:"status"`
			}
			if err := client.postJSON(cmd.Context(), "/v1/videos/generate", body, &resp); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Job %s %s\n", resp.JobID, resp.Status)
			return nil
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "Owning user id")
	cmd.Flags().StringVar(&campaignID, "campaign", "", "Campaign id")
	cmd.Flags().StringVar(&avatarID, "avatar", "1", "Avatar id")
	cmd.Flags().StringVar(&voiceID, "voice", "1", "Voice id")
	cmd.Flags().StringVar(&jobType, "type", "", "Job type (ai-generated, avatar-video, voiceover)")
	cmd.Flags().StringVar(&quality, "quality", "", "Quality (standard, hd, 4k)")
	cmd.Flags().StringVar(&aspect, "aspect", "", "Aspect ratio (9:16, 16:9, 1:1)")
	cmd.Flags().StringVarP(&scriptFile, "file", "f", "", "Read the script from a file (- for stdin)")
	return cmd
}

func readScript(stdin io.Reader, args []string, file string) (string, error) {
	var script string
	switch {
	case file == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", err
		}
		script = string(data)
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read script: %w", err)
		}
		script = string(data)
	case len(args) == 1:
		script = args[0]
	}
	if strings.TrimSpace(script) == "" {
		return "", errors.New("a script is required (argument or --file)")
	}
	return script, nil
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status <job-id>",
		Short: "Show the status of a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			var view tracker.StatusView
			if err := client.getJSON(cmd.Context(), jobPath(args[0], "/status"), nil, &view); err != nil {
				return err
			}
			return printStatus(cmd.OutOrStdout(), &view, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print raw JSON")
	return cmd
}

func printStatus(w io.Writer, view *tracker.StatusView, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	}
	rows := [][]string{
		{"Job", view.ID},
		{"Status", string(view.Status)},
		{"Progress", fmt.Sprintf("%d%%", view.Progress)},
	}
	if view.EstimatedTimeRemainingSeconds != nil {
		rows = append(rows, []string{"ETA", (time.Duration(*view.EstimatedTimeRemainingSeconds) * time.Second).String()})
	}
	if out := view.Output; out != nil {
		rows = append(rows,
			[]string{"Video", out.VideoURL},
			[]string{"Duration", fmt.Sprintf("%ds", out.DurationSeconds)},
			[]string{"Size", humanize.Bytes(uint64(out.FileSizeBytes))},
			[]string{"Cost", strconv.FormatFloat(out.Cost, 'f', 4, 64)},
		)
	}
	if view.Error != "" {
		rows = append(rows, []string{"Error", view.Error})
	}
	_, err := fmt.Fprint(w, renderTable([]string{"Field", "Value"}, rows, nil))
	return err
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var userID, campaignID, status string
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			var resp struct {
				Items []jobRow `json:"items"`
			}
			if err := client.getJSON(cmd.Context(), "/v1/videos/jobs", listQuery(userID, campaignID, status, limit), &resp); err != nil {
				return err
			}
			if len(resp.Items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No jobs")
				return nil
			}
			rows := make([][]string, 0, len(resp.Items))
			for _, j := range resp.Items {
				cost, size := "-", "-"
				if j.Output != nil {
					cost = strconv.FormatFloat(j.Output.Cost, 'f', 4, 64)
					size = humanize.Bytes(uint64(j.Output.FileSizeBytes))
				}
				rows = append(rows, []string{
					j.ID, j.UserID, j.JobType, j.Status, cost, size,
					humanize.Time(j.CreatedAt),
				})
			}
			fmt.Fprint(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "User", "Type", "Status", "Cost", "Size", "Created"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "Filter by user id")
	cmd.Flags().StringVar(&campaignID, "campaign", "", "Filter by campaign id")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of jobs")
	return cmd
}

func listQuery(userID, campaignID, status string, limit int) url.Values {
	q := url.Values{}
	if userID != "" {
		q.Set("user_id", userID)
	}
	if campaignID != "" {
		q.Set("campaign_id", campaignID)
	}
	if status != "" {
		q.Set("status", status)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return q
}

func newCancelCommand(ctx *commandContext) *cobra.Command {
	return newTransitionCommand(ctx, "cancel", "Cancel a pending or processing job")
}

func newRetryCommand(ctx *commandContext) *cobra.Command {
	return newTransitionCommand(ctx, "retry", "Re-queue a failed or cancelled job")
}

func newTransitionCommand(ctx *commandContext, action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <job-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			var view tracker.StatusView
			if err := client.postJSON(cmd.Context(), jobPath(args[0], "/"+action), nil, &view); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Job %s %s\n", view.ID, view.Status)
			return nil
		},
	}
}

func newEstimateCommand(ctx *commandContext) *cobra.Command {
	var jobType, quality string
	var duration int
	cmd := &cobra.Command{
		Use:   "estimate [script]",
		Short: "Estimate the cost of a job",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			q.Set("job_type", jobType)
			q.Set("quality", quality)
			switch {
			case duration > 0:
				q.Set("duration", strconv.Itoa(duration))
			case len(args) == 1:
				q.Set("script", args[0])
			default:
				return errors.New("pass --duration or a script")
			}
			client, err := ctx.client()
			if err != nil {
				return err
			}
			var resp struct {
				JobType         string  `json:"job_type"`
				Quality         string  `json:"quality"`
				DurationSeconds int     `json:"duration_seconds"`
				Cost            float64 `json:"cost"`
			}
			if err := client.getJSON(cmd.Context(), "/v1/pricing/estimate", q, &resp); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %ds: %s\n", resp.JobType, resp.Quality, resp.DurationSeconds,
				strconv.FormatFloat(resp.Cost, 'f', 4, 64))
			return nil
		},
	}
	cmd.Flags().StringVar(&jobType, "type", string(domain.JobTypeAvatarVideo), "Job type")
	cmd.Flags().StringVar(&quality, "quality", string(domain.QualityStandard), "Quality")
	cmd.Flags().IntVar(&duration, "duration", 0, "Duration in seconds")
	return cmd
}
