package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"reelmate/internal/domain"
)

func newCatalogCommands(ctx *commandContext) []*cobra.Command {
	avatars := &cobra.Command{
		Use:   "avatars",
		Short: "List available avatars",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			var resp struct {
				Items []domain.Avatar `json:"items"`
			}
			if err := client.getJSON(cmd.Context(), "/v1/avatars", nil, &resp); err != nil {
				return err
			}
			rows := make([][]string, 0, len(resp.Items))
			for _, a := range resp.Items {
				premium := ""
				if a.PremiumOnly {
					premium = "yes"
				}
				rows = append(rows, []string{a.ID, a.Name, a.Gender, a.Style, premium})
			}
			fmt.Fprint(cmd.OutOrStdout(), renderTable([]string{"ID", "Name", "Gender", "Style", "Premium"}, rows, nil))
			return nil
		},
	}
	voices := &cobra.Command{
		Use:   "voices",
		Short: "List available voices",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			var resp struct {
				Items []domain.Voice `json:"items"`
			}
			if err := client.getJSON(cmd.Context(), "/v1/voices", nil, &resp); err != nil {
				return err
			}
			rows := make([][]string, 0, len(resp.Items))
			for _, v := range resp.Items {
				rows = append(rows, []string{v.ID, v.DisplayName, v.Language, v.Accent, v.Tone})
			}
			fmt.Fprint(cmd.OutOrStdout(), renderTable([]string{"ID", "Name", "Language", "Accent", "Tone"}, rows, nil))
			return nil
		},
	}
	return []*cobra.Command{avatars, voices}
}
