// Package openapi builds form schemas from OpenAPI 3 documents. Each
// operation's request body becomes a single-section schema whose fields are
// the body's top-level properties.
package openapi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"go.uber.org/zap"

	"github.com/goliatone/go-formengine/pkg/schema"
)

var (
	// ErrOperationNotFound reports an operation id absent from the document.
	ErrOperationNotFound = errors.New("openapi: operation not found")
	// ErrNoRequestBody reports an operation without a usable object body.
	ErrNoRequestBody = errors.New("openapi: operation has no object request body")
)

// BodySectionID is the id of the single section Import produces.
const BodySectionID = "body"

var methods = []string{"GET", "PUT", "POST", "DELETE", "PATCH", "HEAD", "OPTIONS", "TRACE"}

var mediaTypes = []string{"application/json", "application/x-www-form-urlencoded", "multipart/form-data"}

// Operation summarises one operation of a document.
type Operation struct {
	ID      string `json:"id"`
	Method  string `json:"method"`
	Path    string `json:"path"`
	Summary string `json:"summary,omitempty"`
	HasBody bool   `json:"hasBody"`
}

// Importer converts OpenAPI request bodies into schemas.
type Importer struct {
	validate bool
	logger   *zap.Logger
}

// Option configures an Importer.
type Option func(*Importer)

// WithValidation runs kin-openapi document validation before importing.
func WithValidation(enabled bool) Option {
	return func(im *Importer) {
		im.validate = enabled
	}
}

// WithLogger routes import diagnostics to logger.
func WithLogger(logger *zap.Logger) Option {
	return func(im *Importer) {
		if logger != nil {
			im.logger = logger
		}
	}
}

// New constructs an Importer.
func New(options ...Option) *Importer {
	im := &Importer{logger: zap.NewNop()}
	for _, opt := range options {
		if opt != nil {
			opt(im)
		}
	}
	return im
}

// Operations lists the operations of data ordered by path then method.
func (im *Importer) Operations(ctx context.Context, data []byte) ([]Operation, error) {
	doc, err := im.load(ctx, data)
	if err != nil {
		return nil, err
	}
	var out []Operation
	for _, entry := range collect(doc) {
		out = append(out, Operation{
			ID:      entry.id,
			Method:  entry.method,
			Path:    entry.path,
			Summary: entry.op.Summary,
			HasBody: requestSchema(entry.op) != nil,
		})
	}
	return out, nil
}

// Import converts the request body of operationID into a schema. Operations
// without an operationId are addressed as "<method>:<path>", e.g.
// "post:/lab-tests".
func (im *Importer) Import(ctx context.Context, data []byte, operationID string) (*schema.Schema, error) {
	doc, err := im.load(ctx, data)
	if err != nil {
		return nil, err
	}

	var match *entry
	for _, e := range collect(doc) {
		if e.id == operationID {
			match = &e
			break
		}
	}
	if match == nil {
		return nil, fmt.Errorf("%w: %q", ErrOperationNotFound, operationID)
	}

	body := requestSchema(match.op)
	if body == nil {
		return nil, fmt.Errorf("%w: %q", ErrNoRequestBody, operationID)
	}
	properties, required := flattenObject(body)
	if len(properties) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoRequestBody, operationID)
	}

	title := match.op.Summary
	if title == "" {
		title = Humanize(operationID)
	}
	out := &schema.Schema{
		ID:          operationID,
		Title:       title,
		Description: match.op.Description,
		Sections: []schema.Section{{
			ID:          BodySectionID,
			Title:       body.Title,
			Description: body.Description,
			Fields:      convertProperties(properties, required, im.logger),
		}},
	}
	im.logger.Debug("imported openapi operation",
		zap.String("operation", operationID),
		zap.Int("fields", len(out.Sections[0].Fields)),
	)
	return out, nil
}

func (im *Importer) load(ctx context.Context, data []byte) (*openapi3.T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("openapi: document payload is empty")
	}
	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document: %w", err)
	}
	if im.validate {
		if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
			return nil, fmt.Errorf("openapi: validate: %w", err)
		}
	}
	return doc, nil
}

type entry struct {
	id     string
	method string
	path   string
	op     *openapi3.Operation
}

func collect(doc *openapi3.T) []entry {
	if doc.Paths == nil {
		return nil
	}
	paths := make([]string, 0, doc.Paths.Len())
	for path := range doc.Paths.Map() {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var out []entry
	for _, path := range paths {
		item := doc.Paths.Value(path)
		if item == nil {
			continue
		}
		for _, method := range methods {
			op := item.GetOperation(method)
			if op == nil {
				continue
			}
			id := op.OperationID
			if id == "" {
				id = strings.ToLower(method) + ":" + path
			}
			out = append(out, entry{id: id, method: method, path: path, op: op})
		}
	}
	return out
}

func requestSchema(op *openapi3.Operation) *openapi3.Schema {
	if op == nil || op.RequestBody == nil || op.RequestBody.Value == nil {
		return nil
	}
	content := op.RequestBody.Value.Content
	for _, mediaType := range mediaTypes {
		if mt, ok := content[mediaType]; ok && mt != nil && mt.Schema != nil && mt.Schema.Value != nil {
			return mt.Schema.Value
		}
	}
	keys := make([]string, 0, len(content))
	for key := range content {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if mt := content[key]; mt != nil && mt.Schema != nil && mt.Schema.Value != nil {
			return mt.Schema.Value
		}
	}
	return nil
}

// flattenObject merges the properties and required lists of s and its allOf
// members. Later members win on name clashes.
func flattenObject(s *openapi3.Schema) (openapi3.Schemas, map[string]bool) {
	properties := openapi3.Schemas{}
	required := map[string]bool{}
	var walk func(*openapi3.Schema)
	walk = func(node *openapi3.Schema) {
		if node == nil {
			return
		}
		for _, ref := range node.AllOf {
			if ref != nil {
				walk(ref.Value)
			}
		}
		for name, prop := range node.Properties {
			properties[name] = prop
		}
		for _, name := range node.Required {
			required[name] = true
		}
	}
	walk(s)
	return properties, required
}
