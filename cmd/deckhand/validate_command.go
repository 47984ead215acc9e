package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"deckhand/internal/order"
)

func newValidateCommand(ctx *commandContext) *cobra.Command {
	var orderPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Parse an order file and report its contents",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			ord, err := order.Load(orderPath, cfg.Paths.CacheDir)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Order: %s\n", orderPath)
			fmt.Fprintf(out, "Quantity: %d  Bracket: %d  Stock: %s  Foil: %s\n",
				ord.Details.Quantity, ord.Details.Bracket, ord.Details.Stock, yesNo(ord.Details.Foil))

			rows := make([][]string, 0, ord.Count())
			cached := 0
			for _, collection := range []*order.CardImageCollection{ord.Fronts, ord.Backs} {
				for _, img := range collection.Cards() {
					inCache := fileExists(img.LocalPath)
					if inCache {
						cached++
					}
					rows = append(rows, []string{
						img.DisplayName(),
						img.Name,
						string(img.Face),
						formatSlots(img.Slots),
						yesNo(inCache),
					})
				}
			}
			fmt.Fprintln(out, renderTable([]string{"Card", "File", "Face", "Slots", "Cached"}, rows))
			fmt.Fprintf(out, "%d images (%d fronts, %d backs), %d already cached\n",
				ord.Count(), ord.Fronts.Count(), ord.Backs.Count(), cached)
			return nil
		},
	}

	cmd.Flags().StringVarP(&orderPath, "order", "o", "cards.xml", "Order file to validate")
	return cmd
}

func formatSlots(slots []int) string {
	parts := make([]string, len(slots))
	for i, slot := range slots {
		parts[i] = fmt.Sprintf("%d", slot)
	}
	return strings.Join(parts, ", ")
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
