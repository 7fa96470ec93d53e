package document

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Document is a parsed test document. Exactly one of Bill, Lab or EOB is set,
// matching Type.
type Document struct {
	Type Type
	Bill *MedicalBill
	Lab  *LabResults
	EOB  *EOB
}

func FromBill(b MedicalBill) Document {
	b.DocumentType = TypeMedicalBill
	return Document{Type: TypeMedicalBill, Bill: &b}
}

func FromLabResults(l LabResults) Document {
	l.DocumentType = TypeLabResults
	return Document{Type: TypeLabResults, Lab: &l}
}

func FromEOB(e EOB) Document {
	e.DocumentType = TypeEOB
	return Document{Type: TypeEOB, EOB: &e}
}

// Body returns the concrete document for serialization.
func (d Document) Body() any {
	switch d.Type {
	case TypeMedicalBill:
		return d.Bill
	case TypeLabResults:
		return d.Lab
	case TypeEOB:
		return d.EOB
	default:
		return nil
	}
}

func (d Document) MarshalJSON() ([]byte, error) {
	body := d.Body()
	if body == nil {
		return nil, fmt.Errorf("marshal document: %w: %q", ErrUnknownType, d.Type)
	}
	return json.Marshal(body)
}

func Load(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, err
	}
	doc, err := Parse(data)
	if err != nil {
		return Document{}, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Parse validates data against the schema for its document_type and decodes it.
func Parse(data []byte) (Document, error) {
	var header struct {
		DocumentType string `json:"document_type"`
	}
	if err := json.Unmarshal(data, &header); err != nil {
		return Document{}, fmt.Errorf("decode document: %w", err)
	}
	t, err := ParseType(header.DocumentType)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %q", err, header.DocumentType)
	}
	if err := Validate(t, data); err != nil {
		return Document{}, err
	}

	doc := Document{Type: t}
	switch t {
	case TypeMedicalBill:
		doc.Bill = &MedicalBill{}
		err = json.Unmarshal(data, doc.Bill)
	case TypeLabResults:
		doc.Lab = &LabResults{}
		err = json.Unmarshal(data, doc.Lab)
	case TypeEOB:
		doc.EOB = &EOB{}
		err = json.Unmarshal(data, doc.EOB)
	}
	if err != nil {
		return Document{}, fmt.Errorf("decode %s: %w", t, err)
	}
	return doc, nil
}

var ErrInvalid = errors.New("document failed schema validation")

// Validate checks raw JSON against the embedded schema for t.
func Validate(t Type, data []byte) error {
	schema, err := schemaFor(t)
	if err != nil {
		return err
	}
	var v any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

var (
	schemaOnce sync.Once
	schemas    map[Type]*jsonschema.Schema
	schemaErr  error
)

func schemaFor(t Type) (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schemas, schemaErr = compileSchemas()
	})
	if schemaErr != nil {
		return nil, schemaErr
	}
	s, ok := schemas[t]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
	return s, nil
}

func compileSchemas() (map[Type]*jsonschema.Schema, error) {
	out := make(map[Type]*jsonschema.Schema, len(Types()))
	for _, t := range Types() {
		name := string(t) + ".json"
		raw, err := schemaFS.ReadFile("schemas/" + name)
		if err != nil {
			return nil, err
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(name, bytes.NewReader(raw)); err != nil {
			return nil, fmt.Errorf("schema %s: %w", name, err)
		}
		compiled, err := compiler.Compile(name)
		if err != nil {
			return nil, fmt.Errorf("schema %s: %w", name, err)
		}
		out[t] = compiled
	}
	return out, nil
}

// Complexity labels a document by how many line items it carries.
func (d Document) Complexity() Complexity {
	switch d.Type {
	case TypeMedicalBill:
		if d.Bill != nil {
			return bucket(len(d.Bill.Services), 3, 1)
		}
	case TypeLabResults:
		if d.Lab != nil {
			return bucket(len(d.Lab.LabValues), 8, 4)
		}
	}
	return ComplexitySimple
}

func bucket(n, complexAbove, mediumAbove int) Complexity {
	switch {
	case n > complexAbove:
		return ComplexityComplex
	case n > mediumAbove:
		return ComplexityMedium
	default:
		return ComplexitySimple
	}
}
