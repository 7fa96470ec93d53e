package prompts

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"billdecoder/internal/document"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// DocumentMarker separates the prompt from the document text in a message.
const DocumentMarker = "[DOCUMENT]"

var ErrUnknownPrompt = errors.New("unknown prompt")

// Catalog holds the prompt templates and which of them run for each
// document type.
type Catalog struct {
	Prompts map[string]string          `yaml:"prompts"`
	Matrix  map[document.Type][]string `yaml:"matrix"`
}

// Default returns the built-in catalog.
func Default() Catalog {
	c, err := parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded prompt catalog: %v", err))
	}
	return c
}

// Load overlays the catalog at path onto the built-in one. Prompts are
// replaced by name and matrix rows by document type. An empty path returns
// the built-in catalog.
func Load(path string) (Catalog, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	override, err := parse(data)
	if err != nil {
		return c, fmt.Errorf("%s: %w", path, err)
	}
	for name, text := range override.Prompts {
		c.Prompts[name] = text
	}
	for t, names := range override.Matrix {
		c.Matrix[t] = names
	}
	if err := c.Validate(); err != nil {
		return c, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func parse(data []byte) (Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, err
	}
	if c.Prompts == nil {
		c.Prompts = map[string]string{}
	}
	if c.Matrix == nil {
		c.Matrix = map[document.Type][]string{}
	}
	return c, nil
}

// Get returns the template registered under name.
func (c Catalog) Get(name string) (string, error) {
	text, ok := c.Prompts[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownPrompt, name)
	}
	return text, nil
}

// ForType returns the prompt names to run against documents of type t.
func (c Catalog) ForType(t document.Type) []string {
	return append([]string(nil), c.Matrix[t]...)
}

// Names returns every prompt name in sorted order.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c.Prompts))
	for name := range c.Prompts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks that the matrix only names known document types and
// prompts, and that no prompt is empty.
func (c Catalog) Validate() error {
	var errs []error
	for name, text := range c.Prompts {
		if text == "" {
			errs = append(errs, fmt.Errorf("prompt %q is empty", name))
		}
	}
	for t, names := range c.Matrix {
		if !t.Valid() {
			errs = append(errs, fmt.Errorf("matrix: %w: %q", document.ErrUnknownType, t))
			continue
		}
		for _, name := range names {
			if _, ok := c.Prompts[name]; !ok {
				errs = append(errs, fmt.Errorf("matrix %s: %w: %q", t, ErrUnknownPrompt, name))
			}
		}
	}
	return errors.Join(errs...)
}

// Compose builds the message sent to the model: the prompt, a blank line,
// the document marker and the document text.
func Compose(prompt, docText string) string {
	return prompt + "\n\n" + DocumentMarker + "\n" + docText
}
