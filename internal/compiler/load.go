package compiler

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/lodestar/internal/ir"
)

// Load error codes, shared with the CLI.
const (
	ErrCodeGeneric     = "E001" // generic/unknown error
	ErrCodeScanError   = "E002" // directory scan error
	ErrCodeNoFiles     = "E003" // no content files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeYAMLFailed  = "E007" // YAML parse failed
	ErrCodeCompile     = "E008" // graph failed to compile
)

// LoadMode controls how errors are handled during content loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadError is an error found while reading content files.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Origin locates a graph in its source file.
type Origin struct {
	File string `json:"file"`
	Line int    `json:"line,omitempty"`
}

// Content is a compiled, not yet validated, content set.
type Content struct {
	Graphs  []ir.Graph
	Origins map[string]Origin
	Files   int
}

// Validate runs ValidateGraphs over the content and fills source lines.
func (c *Content) Validate(registered []string) []ValidationError {
	errs := ValidateGraphs(c.Graphs, registered)
	for i := range errs {
		if o, ok := c.Origins[errs[i].Graph]; ok {
			errs[i].Line = o.Line
		}
	}
	return errs
}

// Hash returns the content hash of the compiled graphs.
func (c *Content) Hash() (string, error) {
	return ir.ContentHash(c.Graphs)
}

// LoadDir compiles every graph in dir. CUE files are loaded as one CUE
// instance and read from the top-level "graph" struct; each *.yaml or
// *.yml file is compiled on its own. Graphs come back sorted by id.
func LoadDir(dir string, mode LoadMode) (*Content, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("content directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing content directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	cueFiles, yamlFiles, err := scanContent(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 && len(yamlFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE or YAML files found in %s", dir)}}
	}

	content := &Content{
		Origins: make(map[string]Origin),
		Files:   len(cueFiles) + len(yamlFiles),
	}
	var errs []error
	fail := func(err error) bool {
		errs = append(errs, err)
		return mode == LoadModeFailFast
	}

	if len(cueFiles) > 0 {
		if stop := loadCUE(dir, content, fail); stop {
			return content, errs
		}
	}

	for _, path := range yamlFiles {
		data, err := os.ReadFile(path)
		if err != nil {
			if fail(&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("reading %s: %v", path, err)}) {
				return content, errs
			}
			continue
		}
		graphs, lines, err := CompileYAML(data)
		if err != nil {
			if fail(&LoadError{Code: ErrCodeYAMLFailed, Message: fmt.Sprintf("%s: %v", path, err)}) {
				return content, errs
			}
			continue
		}
		for _, g := range graphs {
			content.Graphs = append(content.Graphs, g)
			content.Origins[g.ID] = Origin{File: path, Line: lines[g.ID]}
		}
	}

	if len(content.Graphs) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: "no graphs found in content"})
	}

	sort.SliceStable(content.Graphs, func(i, j int) bool { return content.Graphs[i].ID < content.Graphs[j].ID })
	return content, errs
}

// loadCUE builds the CUE instance in dir and compiles graph.*.
// Returns true when loading must stop.
func loadCUE(dir string, content *Content, fail func(error) bool) bool {
	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return fail(&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"})
	}
	inst := instances[0]
	if inst.Err != nil {
		return fail(&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)})
	}
	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return fail(&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)})
	}

	graphsVal := value.LookupPath(cue.ParsePath("graph"))
	if !graphsVal.Exists() {
		return false
	}
	iter, err := graphsVal.Fields()
	if err != nil {
		return fail(&LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating graphs: %v", err)})
	}
	for iter.Next() {
		g, err := CompileGraph(iter.Value())
		if err != nil {
			if fail(convertCompileError(err, "graph."+iter.Selector().Unquoted())) {
				return true
			}
			continue
		}
		pos := iter.Value().Pos()
		content.Graphs = append(content.Graphs, *g)
		content.Origins[g.ID] = Origin{File: pos.Filename(), Line: pos.Line()}
	}
	return false
}

// scanContent returns the CUE and YAML files directly in dir, each sorted.
// Subdirectories are not loaded, matching the single CUE instance built
// from ".".
func scanContent(dir string) (cueFiles, yamlFiles []string, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".cue":
			cueFiles = append(cueFiles, path)
		case ".yaml", ".yml":
			yamlFiles = append(yamlFiles, path)
		}
	}
	sort.Strings(cueFiles)
	sort.Strings(yamlFiles)
	return cueFiles, yamlFiles, nil
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error, context string) *LoadError {
	var compileErr *CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    ErrCodeCompile,
			Message: fmt.Sprintf("%s: %s: %s", context, compileErr.Field, compileErr.Message),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("%s: %v", context, err)}
}
