package history

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/panbanda/trendline/pkg/models"
)

// ErrInvalidRecord is returned for build records that do not match the schema.
var ErrInvalidRecord = errors.New("invalid build record")

//go:embed result.schema.json
var schemaJSON []byte

const schemaURL = "build-record.json"

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	errSchema  error
)

func recordSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
		if err != nil {
			errSchema = fmt.Errorf("parsing record schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, doc); err != nil {
			errSchema = fmt.Errorf("adding record schema: %w", err)
			return
		}
		schema, errSchema = c.Compile(schemaURL)
	})
	return schema, errSchema
}

// DecodeRecord validates data against the build record schema and decodes it.
func DecodeRecord(data []byte) (*models.AnalysisResult, error) {
	sch, err := recordSchema()
	if err != nil {
		return nil, err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if err := sch.Validate(inst); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}

	var result models.AnalysisResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return &result, nil
}

// EncodeRecord returns the JSON form of a build record.
func EncodeRecord(r *models.AnalysisResult) ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
