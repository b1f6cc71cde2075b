package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/lodestar/internal/compiler"
	"github.com/roach88/lodestar/internal/ir"
)

// ErrCodeWriteFailed reports a failure writing compiled output.
const ErrCodeWriteFailed = "E009"

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string
}

// CompilationResult is the compiled content bundle.
type CompilationResult struct {
	Version     string     `json:"version"`
	ContentHash string     `json:"content_hash"`
	Graphs      []ir.Graph `json:"graphs"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile [content-dir]",
		Short: "Compile content graphs to canonical IR",
		Long: `Compile CUE and YAML content graphs to canonical JSON IR.

The bundle carries the content hash recorded on every event log entry,
so saves can be matched to the content they were played against.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := opts.Config.ContentDir
			if len(args) == 1 {
				dir = args[0]
			}
			return runCompile(opts, dir, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(cmd, opts.RootOptions)

	content, err := loadContent(formatter, dir)
	if err != nil {
		return err
	}
	for _, g := range content.Graphs {
		formatter.VerboseLog("Compiled %s %s: %d node(s)", g.Kind, g.ID, len(g.Nodes))
	}

	if errs := content.Validate(nil); len(errs) > 0 {
		return outputValidationErrors(formatter, ValidationResult{
			Graphs: len(content.Graphs),
			Files:  content.Files,
			Errors: errs,
		})
	}

	hash, err := content.Hash()
	if err != nil {
		return formatter.rejected(err)
	}
	result := CompilationResult{
		Version:     ir.SchemaVersion,
		ContentHash: hash,
		Graphs:      content.Graphs,
	}

	if opts.Output != "" {
		if err := writeIRToFile(result, opts.Output); err != nil {
			msg := fmt.Sprintf("writing output file: %v", err)
			_ = formatter.Error(ErrCodeWriteFailed, msg, nil)
			return WrapExitError(ExitCommandError, msg, err)
		}
	}

	return formatter.Render(result, func(w io.Writer) {
		outputCompileText(w, content, result, opts.Output)
	})
}

func outputCompileText(w io.Writer, content *compiler.Content, result CompilationResult, outputFile string) {
	fmt.Fprintf(w, "✓ Compiled %d graph(s) from %d file(s)\n\n", len(result.Graphs), content.Files)
	for _, g := range result.Graphs {
		choices := 0
		for _, n := range g.Nodes {
			choices += len(n.Choices)
		}
		tags := []string{string(g.Kind)}
		if g.BranchTag != "" {
			tags = append(tags, g.BranchTag)
		}
		if g.Locked {
			tags = append(tags, "locked")
		}
		fmt.Fprintf(w, "  %s (%s): %d node(s), %d choice(s)\n", g.ID, strings.Join(tags, ", "), len(g.Nodes), choices)
	}
	fmt.Fprintf(w, "\nContent hash: %s\n", result.ContentHash)
	if outputFile != "" {
		fmt.Fprintf(w, "Wrote canonical IR to %s\n", outputFile)
	}
}

// writeIRToFile writes the bundle as canonical JSON.
func writeIRToFile(result CompilationResult, path string) error {
	data, err := ir.MarshalCanonical(result)
	if err != nil {
		return fmt.Errorf("marshal IR: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
