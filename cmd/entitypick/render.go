package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sinharash/entitypick/internal/catalog"
	"github.com/sinharash/entitypick/internal/output"
	"github.com/sinharash/entitypick/internal/template"
)

func newRenderCmd() *cobra.Command {
	var flagRecord string

	cmd := &cobra.Command{
		Use:   "render <template>",
		Short: "Preview a display template against a JSON record",
		Long: `Render evaluates a display template against a record read from a JSON
file (or stdin with -) and prints the resulting label. Useful while
authoring templates: rendering never fails, missing fields come out
empty and malformed placeholders render literally.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			var data []byte
			var err error
			if flagRecord == "-" || flagRecord == "" {
				data, err = io.ReadAll(os.Stdin)
			} else {
				data, err = os.ReadFile(flagRecord)
			}
			if err != nil {
				return err
			}

			var rec catalog.Record
			if err := json.Unmarshal(data, &rec); err != nil {
				return fmt.Errorf("parsing record JSON: %w", err)
			}
			if err := rec.Validate(); err != nil {
				output.Warn("record has no usable identity", "err", err)
			}

			output.Println(template.Render(args[0], rec))
			return nil
		},
	}

	cmd.Flags().StringVar(&flagRecord, "record", "-", "path to a JSON record file, or - for stdin")

	return cmd
}
