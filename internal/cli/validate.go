package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/lodestar/internal/compiler"
)

// ValidationResult is the output of the validate command.
type ValidationResult struct {
	Valid  bool                       `json:"valid"`
	Graphs int                        `json:"graphs"`
	Files  int                        `json:"files"`
	Errors []compiler.ValidationError `json:"errors,omitempty"`
	Cycles []compiler.ChainCycle      `json:"cycles,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [content-dir]",
		Short: "Validate content graphs",
		Long: `Validate CUE and YAML content graphs without touching a save.

Every graph is checked: start nodes and choice targets resolve, chained
graphs exist, requirement and outcome kinds are known, and every node is
reachable. Chain cycles between graphs are reported for information.

The content directory defaults to --content.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := rootOpts.Config.ContentDir
			if len(args) == 1 {
				dir = args[0]
			}
			return runValidate(rootOpts, dir, cmd)
		},
	}
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(cmd, opts)

	content, err := loadContent(formatter, dir)
	if err != nil {
		return err
	}

	result := ValidationResult{
		Valid:  true,
		Graphs: len(content.Graphs),
		Files:  content.Files,
		Errors: content.Validate(nil),
		Cycles: compiler.AnalyzeChains(content.Graphs),
	}
	for _, c := range result.Cycles {
		formatter.VerboseLog("%s: %s", c.Level, c.Message)
	}
	if len(result.Errors) > 0 {
		result.Valid = false
		return outputValidationErrors(formatter, result)
	}

	return formatter.Render(result, func(w io.Writer) {
		fmt.Fprintf(w, "✓ %d graph(s) valid\n", result.Graphs)
		for _, c := range result.Cycles {
			fmt.Fprintf(w, "  %s: %s\n", c.Level, c.Message)
		}
	})
}

// outputValidationErrors reports every validation error and exits 1.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	errs := result.Errors
	failure := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))

	if formatter.Format == "json" {
		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		err := encoder.Encode(CLIResponse{
			Status: "error",
			Data:   result,
			Error:  &CLIError{Code: errs[0].Code, Message: errs[0].Message},
		})
		if err != nil {
			return err
		}
		return failure
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, e := range errs {
		fmt.Fprintf(formatter.Writer, "  %s\n", e.Error())
	}
	return failure
}
