package registry

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed schema/registry.schema.json
var schemaBytes []byte

const schemaName = "registry.schema.json"

var (
	compiledSchema *jsonschema.Schema
	compileOnce    sync.Once
	compileErr     error
	printer        = message.NewPrinter(language.English)
)

// LintResult is the outcome of checking a registry document.
type LintResult struct {
	Valid  bool
	Issues []LintIssue

	// Entries counts the entries the document would contribute.
	Entries int
}

// LintIssue is one schema violation.
type LintIssue struct {
	Path    string
	Message string
	Keyword string
}

func (i LintIssue) String() string {
	path := i.Path
	if path == "" {
		path = "/"
	}
	return fmt.Sprintf("%s: %s", path, i.Message)
}

func getSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaBytes))
		if err != nil {
			compileErr = fmt.Errorf("unmarshal schema: %w", err)
			return
		}

		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaName, doc); err != nil {
			compileErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile(schemaName)
		if compileErr != nil {
			compileErr = fmt.Errorf("compile schema: %w", compileErr)
		}
	})
	return compiledSchema, compileErr
}

// Lint checks a registry document against the registry schema. The result is
// advisory: Fetch accepts any payload Parse understands. Documents that are
// not JSON at all return a *ParseError.
func Lint(data []byte) (*LintResult, error) {
	schema, err := getSchema()
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	result := &LintResult{Valid: true}
	if res, err := Parse(data); err == nil {
		result.Entries = res.Len()
	}

	err = schema.Validate(inst)
	if err == nil {
		return result, nil
	}

	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return nil, fmt.Errorf("validate: %w", err)
	}

	result.Valid = false
	result.Issues = collectIssues(ve)
	return result, nil
}

func collectIssues(ve *jsonschema.ValidationError) []LintIssue {
	var issues []LintIssue
	walkIssues(ve, &issues)
	if len(issues) == 0 {
		return []LintIssue{{Message: ve.Error()}}
	}

	seen := make(map[string]bool, len(issues))
	out := issues[:0]
	for _, issue := range issues {
		key := issue.Path + "|" + issue.Keyword + "|" + issue.Message
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, issue)
	}
	return out
}

// walkIssues collects leaf errors. oneOf produces a branch per registry
// shape, so both branches' violations are reported.
func walkIssues(ve *jsonschema.ValidationError, issues *[]LintIssue) {
	if len(ve.Causes) > 0 {
		for _, cause := range ve.Causes {
			walkIssues(cause, issues)
		}
		return
	}
	if ve.ErrorKind == nil {
		return
	}

	keyword := ""
	if kw := ve.ErrorKind.KeywordPath(); len(kw) > 0 {
		keyword = kw[len(kw)-1]
	}
	if keyword == "" || keyword == "oneOf" || keyword == "$ref" {
		return
	}

	path := ""
	if len(ve.InstanceLocation) > 0 {
		path = "/" + strings.Join(ve.InstanceLocation, "/")
	}

	*issues = append(*issues, LintIssue{
		Path:    path,
		Message: ve.ErrorKind.LocalizedString(printer),
		Keyword: keyword,
	})
}
