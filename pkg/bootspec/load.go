package bootspec

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/twpayne/go-vfs/v4"
)

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "bootspec-v1.json"

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("failed to add bootspec schema: %w", err)
	}
	return compiler.Compile(schemaURL)
})

// Load reads the bootspec file at path from fs and parses it.
// The returned error is always an *Error carrying path.
func Load(fs vfs.FS, path string) (*Bootspec, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, &Error{Kind: KindIO, Path: path, Err: err}
	}

	b, err := Parse(data)
	if err != nil {
		var bErr *Error
		if errors.As(err, &bErr) {
			bErr.Path = path
			return nil, bErr
		}
		return nil, &Error{Kind: KindFormat, Path: path, Err: err}
	}
	return b, nil
}

// Parse validates data against the boot specification v1 schema and decodes it.
func Parse(data []byte) (*Bootspec, error) {
	schema, err := compiledSchema()
	if err != nil {
		return nil, err
	}

	doc, err := decodeDocument(data)
	if err != nil {
		return nil, &Error{Kind: KindFormat, Err: err}
	}
	if err := schema.Validate(doc); err != nil {
		var vErr *jsonschema.ValidationError
		if errors.As(err, &vErr) {
			return nil, &Error{Kind: KindFormat, Diagnostics: diagnostics(vErr), Err: err}
		}
		return nil, &Error{Kind: KindFormat, Err: err}
	}

	b := &Bootspec{}
	if err := json.Unmarshal(data, b); err != nil {
		return nil, &Error{Kind: KindFormat, Err: err}
	}
	return b, nil
}

// decodeDocument decodes data into the generic form the schema validates.
// Exactly one JSON value is accepted.
func decodeDocument(data []byte) (interface{}, error) {
	var doc interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if err := dec.Decode(new(interface{})); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after the JSON document")
	}
	return doc, nil
}

// diagnostics flattens a validation error tree into its leaf messages.
func diagnostics(err *jsonschema.ValidationError) []string {
	var out []string
	var walk func(*jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			location := e.InstanceLocation
			if location == "" {
				location = "/"
			}
			out = append(out, fmt.Sprintf("%s: %s", location, e.Message))
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(err)
	return out
}
