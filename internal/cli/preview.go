package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/Trinity/internal/engine"
)

// BuildPreview строит раскладку локально, без обращения к API.
func BuildPreview(text string, now time.Time, fireTimes int) PreviewResponse {
	return engine.NewView(engine.BuildLayout(text), now, fireTimes)
}

// NewPreviewCmd создаёт команду предпросмотра раскладки YAML-файла.
func NewPreviewCmd(clientFn func() *Client, outputFn func() *Output, fireTimesFn func() int) *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "preview FILE",
		Short: "Show the level layout of a process definition",
		Long: "Parses the YAML file (\"-\" for stdin) and prints steps grouped into swimlanes by level.\n" +
			"Runs locally unless --remote is set.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			text, err := readDefinitionFile(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}

			var preview PreviewResponse
			if remote {
				p, err := clientFn().Preview(text)
				if err != nil {
					return err
				}
				preview = *p
			} else {
				preview = BuildPreview(text, time.Now(), fireTimesFn())
			}

			printPreview(out, &preview)
			if preview.Error != "" {
				return errors.New("definition could not be parsed")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&remote, "remote", false, "Build the layout on the API server")

	return cmd
}

// NewValidateCmd создаёт команду строгой проверки YAML-файла.
func NewValidateCmd(outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Strictly validate a process definition",
		Long: "Fails on malformed YAML, empty or duplicate step IDs, unknown step types,\n" +
			"dangling depends_on references, dependency cycles and invalid triggers.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			text, err := readDefinitionFile(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}

			parsed := engine.Parse(text)
			if parsed.Err != nil {
				return fmt.Errorf("parse %s: %w", args[0], parsed.Err)
			}
			if err := engine.Validate(&parsed.Definition); err != nil {
				return err
			}

			stats := engine.LayoutSteps(parsed.Steps).Stats()
			if out.JSONMode() {
				out.JSON(map[string]any{
					"valid":       true,
					"step_count":  stats.StepCount,
					"level_count": stats.LevelCount,
				})
				return nil
			}
			out.Success(fmt.Sprintf("%s is valid: %d steps, %d levels", args[0], stats.StepCount, stats.LevelCount))
			return nil
		},
	}
}

func printPreview(out *Output, p *PreviewResponse) {
	if out.JSONMode() {
		out.JSON(p)
		return
	}
	out.Text(RenderSwimlanes(p))
}

// readDefinitionFile читает YAML из файла или stdin ("-").
func readDefinitionFile(path string, stdin io.Reader) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read definition file: %w", err)
	}
	return string(data), nil
}
