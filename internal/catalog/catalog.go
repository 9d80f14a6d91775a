// Package catalog loads exercise definitions from a YAML file.
//
// A catalog looks like:
//
//	exercises:
//	  - id: sum-two
//	    title: Sum two numbers
//	    description: Read two integers and print their sum.
//	    sandbox: managed
//	    test_cases:
//	      - input: "2 3"
//	        expected_output: "5"
package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sakif/codelab/internal/model"
)

type file struct {
	Exercises []entry `yaml:"exercises"`
}

type entry struct {
	ID          string           `yaml:"id"`
	Title       string           `yaml:"title"`
	Description string           `yaml:"description"`
	Sandbox     string           `yaml:"sandbox"`
	TestCases   []model.TestCase `yaml:"test_cases"`
}

// Load reads the catalog at path.
func Load(path string) ([]model.Exercise, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: reading %s: %w", path, err)
	}
	exercises, err := Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("catalog: %s: %w", path, err)
	}
	return exercises, nil
}

// Parse decodes a catalog document. Unknown keys are rejected so typos in
// hand-edited files surface early. Ids must be unique within the document.
func Parse(r io.Reader) ([]model.Exercise, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f file
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return []model.Exercise{}, nil
		}
		return nil, fmt.Errorf("decoding yaml: %w", err)
	}

	seen := make(map[string]bool, len(f.Exercises))
	exercises := make([]model.Exercise, 0, len(f.Exercises))
	for i, e := range f.Exercises {
		if e.ID != "" {
			if seen[e.ID] {
				return nil, fmt.Errorf("exercise %d: duplicate id %q", i, e.ID)
			}
			seen[e.ID] = true
		}
		cases := model.TestCases(e.TestCases)
		if cases == nil {
			cases = model.TestCases{}
		}
		exercises = append(exercises, model.Exercise{
			ID:          e.ID,
			Title:       e.Title,
			Description: e.Description,
			Sandbox:     e.Sandbox,
			TestCases:   cases,
		})
	}
	return exercises, nil
}
