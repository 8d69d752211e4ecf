// Package suite runs batches of equivalence checks with expected
// verdicts, read from YAML or CUE files.
package suite

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"
)

//go:embed suite.cue
var suiteDefinition string

// Expectation values.
const (
	ExpectEquivalent    = "equivalent"
	ExpectNotEquivalent = "not_equivalent"
	ExpectUnknown       = "unknown"
	ExpectError         = "error"
)

// Suite is a named list of cases sharing an optional default schema.
type Suite struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Schema is inline DDL; SchemaFile a path relative to the suite file.
	// Cases without their own schema use these.
	Schema     string `yaml:"schema,omitempty" json:"schema,omitempty"`
	SchemaFile string `yaml:"schema_file,omitempty" json:"schema_file,omitempty"`

	Cases []Case `yaml:"cases" json:"cases"`
}

// Case is one query pair and what checking it should yield.
type Case struct {
	Name       string `yaml:"name" json:"name" expr:"name"`
	Schema     string `yaml:"schema,omitempty" json:"schema,omitempty" expr:"schema"`
	SchemaFile string `yaml:"schema_file,omitempty" json:"schema_file,omitempty" expr:"schema_file"`
	Query1     string `yaml:"query1" json:"query1" expr:"query1"`
	Query2     string `yaml:"query2" json:"query2" expr:"query2"`

	// Expect is one of equivalent, not_equivalent, unknown or error.
	Expect string `yaml:"expect" json:"expect" expr:"expect"`

	// Direction optionally pins which query admits the counterexample.
	Direction string `yaml:"direction,omitempty" json:"direction,omitempty" expr:"direction"`

	// Error optionally requires the error message to contain this text.
	Error string `yaml:"error,omitempty" json:"error,omitempty" expr:"error"`
}

// LoadError reports a suite file that cannot be used.
type LoadError struct {
	Path    string
	Message string
	Pos     token.Pos
	Err     error
}

func (e *LoadError) Error() string {
	var msg string
	if e.Pos.IsValid() {
		msg = fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	} else {
		msg = fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LoadError) Unwrap() error { return e.Err }

// Load reads a suite from path. Files ending in .cue are checked against
// the #Suite definition; everything else is parsed as YAML with unknown
// fields rejected. Schema files are read relative to the suite's
// directory and inlined into each case.
func Load(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Message: "failed to read suite file", Err: err}
	}

	var s *Suite
	if strings.EqualFold(filepath.Ext(path), ".cue") {
		s, err = decodeCUE(path, data)
	} else {
		s, err = decodeYAML(path, data)
	}
	if err != nil {
		return nil, err
	}

	if err := resolveSchemas(s, filepath.Dir(path)); err != nil {
		return nil, &LoadError{Path: path, Message: "invalid suite", Err: err}
	}
	return s, nil
}

func decodeYAML(path string, data []byte) (*Suite, error) {
	var s Suite
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, &LoadError{Path: path, Message: "failed to parse YAML", Err: err}
	}
	if err := validate(&s); err != nil {
		return nil, &LoadError{Path: path, Message: "invalid suite", Err: err}
	}
	return &s, nil
}

func decodeCUE(path string, data []byte) (*Suite, error) {
	ctx := cuecontext.New()
	def := ctx.CompileString(suiteDefinition, cue.Filename("suite.cue")).LookupPath(cue.ParsePath("#Suite"))
	if err := def.Err(); err != nil {
		return nil, &LoadError{Path: path, Message: "suite definition", Err: err}
	}

	v := ctx.CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return nil, cueError(path, err)
	}
	v = def.Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, cueError(path, err)
	}

	var s Suite
	if err := v.Decode(&s); err != nil {
		return nil, cueError(path, err)
	}
	if err := validate(&s); err != nil {
		return nil, &LoadError{Path: path, Message: "invalid suite", Err: err}
	}
	return &s, nil
}

// cueError keeps the first CUE error and its position.
func cueError(path string, err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Path: path, Message: "invalid CUE", Err: err}
	}
	first := errs[0]
	le := &LoadError{Path: path, Message: first.Error()}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		le.Pos = positions[0]
	}
	return le
}

// validate mirrors the #Suite definition for YAML input.
func validate(s *Suite) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Cases) == 0 {
		return fmt.Errorf("cases list is required and must be non-empty")
	}
	seen := map[string]bool{}
	for i, c := range s.Cases {
		if c.Name == "" {
			return fmt.Errorf("case %d: name is required", i+1)
		}
		if seen[c.Name] {
			return fmt.Errorf("case %q: name is used more than once", c.Name)
		}
		seen[c.Name] = true
		if c.Query1 == "" || c.Query2 == "" {
			return fmt.Errorf("case %q: query1 and query2 are required", c.Name)
		}
		switch c.Expect {
		case ExpectEquivalent, ExpectNotEquivalent, ExpectUnknown, ExpectError:
		default:
			return fmt.Errorf("case %q: expect must be equivalent, not_equivalent, unknown or error, got %q", c.Name, c.Expect)
		}
		switch c.Direction {
		case "", "query1_only", "query2_only":
		default:
			return fmt.Errorf("case %q: direction must be query1_only or query2_only, got %q", c.Name, c.Direction)
		}
	}
	return nil
}

// resolveSchemas leaves every case with inline DDL.
func resolveSchemas(s *Suite, dir string) error {
	shared, err := schemaText(s.Schema, s.SchemaFile, dir)
	if err != nil {
		return err
	}
	for i := range s.Cases {
		c := &s.Cases[i]
		own, err := schemaText(c.Schema, c.SchemaFile, dir)
		if err != nil {
			return fmt.Errorf("case %q: %w", c.Name, err)
		}
		switch {
		case own != "":
			c.Schema = own
		case shared != "":
			c.Schema = shared
		default:
			return fmt.Errorf("case %q: no schema given", c.Name)
		}
		c.SchemaFile = ""
	}
	return nil
}

func schemaText(inline, file, dir string) (string, error) {
	if inline != "" && file != "" {
		return "", fmt.Errorf("schema and schema_file are mutually exclusive")
	}
	if file == "" {
		return inline, nil
	}
	if !filepath.IsAbs(file) {
		file = filepath.Join(dir, file)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("read schema file: %w", err)
	}
	return string(data), nil
}
