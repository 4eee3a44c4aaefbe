package config

import (
	"context"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"github.com/openfroyo/octavia/pkg/engine"
)

// SourceError represents a parse or evaluation error with location information.
type SourceError struct {
	// File is the source file path.
	File string `json:"file,omitempty"`

	// Line is the line number (1-indexed).
	Line int `json:"line,omitempty"`

	// Column is the column number (1-indexed).
	Column int `json:"column,omitempty"`

	// Message is the error message.
	Message string `json:"message"`
}

func (e SourceError) String() string {
	if e.File == "" {
		return e.Message
	}
	return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Message)
}

// CUEParser evaluates CUE parameter files. Every concrete regular field at
// the top level of the evaluated value is a parameter; definitions and
// hidden fields may be used for constraints and are not emitted.
type CUEParser struct {
	ctx *cue.Context
}

// NewCUEParser creates a new CUE parser.
func NewCUEParser() *CUEParser {
	return &CUEParser{
		ctx: cuecontext.New(),
	}
}

// ParseFile evaluates a single CUE file or, if path is a directory, the CUE
// package in it.
func (cp *CUEParser) ParseFile(ctx context.Context, path string) (RawParameters, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, engine.NewIOError("failed to stat CUE source", err).WithDetail("path", path)
	}

	var val cue.Value
	if info.IsDir() {
		val, err = cp.loadDirectory(path)
	} else {
		val, err = cp.loadFile(path)
	}
	if err != nil {
		return nil, err
	}

	return cp.extract(val, path)
}

// ParseInline evaluates inline CUE content.
func (cp *CUEParser) ParseInline(ctx context.Context, content string) (RawParameters, error) {
	val := cp.ctx.CompileString(content, cue.Filename("inline"))
	if err := val.Err(); err != nil {
		return nil, cp.sourceError("inline", err)
	}
	return cp.extract(val, "inline")
}

// loadDirectory loads a directory as a CUE package.
func (cp *CUEParser) loadDirectory(dir string) (cue.Value, error) {
	buildInstances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(buildInstances) == 0 {
		return cue.Value{}, engine.NewValidationError("no CUE files found", nil).
			WithCode(engine.ErrCodeInvalidSource).
			WithDetail("path", dir)
	}

	inst := buildInstances[0]
	if inst.Err != nil {
		return cue.Value{}, cp.sourceError(dir, inst.Err)
	}

	val := cp.ctx.BuildInstance(inst)
	if err := val.Err(); err != nil {
		return cue.Value{}, cp.sourceError(dir, err)
	}

	return val, nil
}

// loadFile loads a single CUE file.
func (cp *CUEParser) loadFile(path string) (cue.Value, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return cue.Value{}, engine.NewIOError("failed to read CUE source", err).WithDetail("path", path)
	}

	val := cp.ctx.CompileBytes(content, cue.Filename(path))
	if err := val.Err(); err != nil {
		return cue.Value{}, cp.sourceError(path, err)
	}

	return val, nil
}

// extract requires the value to be concrete and decodes it into parameters.
func (cp *CUEParser) extract(val cue.Value, source string) (RawParameters, error) {
	if err := val.Validate(cue.Concrete(true)); err != nil {
		return nil, cp.sourceError(source, err)
	}

	if val.Kind() != cue.StructKind {
		return nil, engine.NewValidationError("CUE parameters must be a struct", nil).
			WithCode(engine.ErrCodeInvalidSource).
			WithDetail("path", source)
	}

	var raw map[string]interface{}
	if err := val.Decode(&raw); err != nil {
		return nil, cp.sourceError(source, err)
	}

	return RawParameters(raw), nil
}

// sourceError converts CUE errors into an EngineError listing each position.
func (cp *CUEParser) sourceError(source string, err error) error {
	var sourceErrors []SourceError

	for _, e := range errors.Errors(err) {
		pos := errors.Positions(e)
		se := SourceError{Message: errors.Details(e, nil)}
		if len(pos) > 0 {
			se.File = pos[0].Filename()
			se.Line = pos[0].Line()
			se.Column = pos[0].Column()
		}
		sourceErrors = append(sourceErrors, se)
	}

	return engine.NewValidationError("invalid CUE parameter source", err).
		WithCode(engine.ErrCodeInvalidSource).
		WithDetail("path", source).
		WithDetail("errors", sourceErrors)
}
