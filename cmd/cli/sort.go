package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/flowbaker/sortinghat/pkg/domain"
	"github.com/flowbaker/sortinghat/pkg/sorting"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type sortOptions struct {
	text    string
	url     string
	image   string
	caption string
	output  string
}

type sortRunner interface {
	Run(ctx context.Context, input domain.ClassificationInput) (sorting.Outcome, error)
}

func NewSortCommand() *cobra.Command {
	var opts sortOptions

	cmd := &cobra.Command{
		Use:   "sort",
		Short: "Sort a single subject and print the result",
		Example: `  sortinghat sort --text "A dragon guarding a library"
  sortinghat sort --url https://example.com
  sortinghat sort --image cat.jpg --caption "my cat" --output cat-house.png`,
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := opts.input()
			if err != nil {
				return err
			}

			container, err := loadContainer(cmd.Context(), cmd)
			if err != nil {
				return err
			}

			return runSort(cmd.Context(), container.GetOrchestrator(), input, opts.output, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.text, "text", "", "Description of the subject")
	cmd.Flags().StringVar(&opts.url, "url", "", "Website to sort by its URL")
	cmd.Flags().StringVar(&opts.image, "image", "", "Path to an image to sort")
	cmd.Flags().StringVar(&opts.caption, "caption", "", "Optional caption for --image")
	cmd.Flags().StringVar(&opts.output, "output", "", "Write the transformed image to this path")

	cmd.MarkFlagsMutuallyExclusive("text", "url", "image")
	cmd.MarkFlagsOneRequired("text", "url", "image")

	return cmd
}

func (o sortOptions) input() (domain.ClassificationInput, error) {
	switch {
	case o.image != "":
		data, err := os.ReadFile(o.image)
		if err != nil {
			return domain.ClassificationInput{}, fmt.Errorf("failed to read image: %w", err)
		}
		return domain.NewImageInput(data, http.DetectContentType(data), o.caption), nil
	case o.url != "":
		return domain.NewURLInput(o.url), nil
	default:
		return domain.NewTextInput(o.text), nil
	}
}

func runSort(ctx context.Context, runner sortRunner, input domain.ClassificationInput, output string, out io.Writer) error {
	outcome, err := runner.Run(ctx, input)
	if err != nil {
		return err
	}

	if output != "" && len(outcome.Transformation.ImageData) > 0 {
		if err := os.WriteFile(output, outcome.Transformation.ImageData, 0o644); err != nil {
			return fmt.Errorf("failed to write transformed image: %w", err)
		}

		log.Info().
			Str("path", output).
			Bool("is_original", outcome.Transformation.IsOriginal).
			Msg("Wrote image")
	}

	// Image bytes go to --output, never to the terminal
	outcome.Transformation.ImageData = nil

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")

	return encoder.Encode(outcome)
}
