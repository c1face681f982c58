package clim

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultTestCaseLayer groups list-form cases without a layer field.
const DefaultTestCaseLayer = "default"

// TestCase is one labelled scenario used to train and score a layer.
type TestCase struct {
	Layer    string
	Scenario string
	Decision string

	// Combined is the flattened text fed to training.
	Combined string
}

type structuredCase struct {
	Scenario string `json:"scenario"`
	Pipeline string `json:"pipeline"`
	Layer    string `json:"layer"`
	Input    string `json:"input"`
	Decision string `json:"decision"`
	Output   string `json:"output"`
	Analysis string `json:"analysis"`
}

// LoadTestCases reads every test_case_*.json in dir and groups the cases by layer.
//
// Two file shapes are accepted: a JSON list of flat objects (layer taken from
// "layer", else DefaultTestCaseLayer), or {"test_case": [...]} with the
// structured fields scenario, pipeline, layer, input, decision, output and
// analysis.
func LoadTestCases(dir string) (map[string][]TestCase, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("test case directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("test case path %s is not a directory", dir)
	}

	files, err := filepath.Glob(filepath.Join(dir, "test_case_*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list test cases: %w", err)
	}
	sort.Strings(files)

	out := make(map[string][]TestCase)
	for _, file := range files {
		cases, err := loadTestCaseFile(file)
		if err != nil {
			return nil, fmt.Errorf("error processing file %s: %w", filepath.Base(file), err)
		}
		for _, tc := range cases {
			out[tc.Layer] = append(out[tc.Layer], tc)
		}
	}
	return out, nil
}

func loadTestCaseFile(path string) ([]TestCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var items []map[string]any
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("error decoding JSON: %w", err)
		}
		cases := make([]TestCase, 0, len(items))
		for _, item := range items {
			cases = append(cases, flatCase(item))
		}
		return cases, nil
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("error decoding JSON: %w", err)
	}
	raw, ok := doc["test_case"]
	if !ok {
		return nil, fmt.Errorf("unsupported test case json format")
	}

	var items []structuredCase
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("error decoding test_case list: %w", err)
	}
	cases := make([]TestCase, 0, len(items))
	for _, c := range items {
		if c.Layer == "" {
			return nil, fmt.Errorf("missing key in the test case data: layer")
		}
		cases = append(cases, TestCase{
			Layer:    c.Layer,
			Scenario: c.Scenario,
			Decision: c.Decision,
			Combined: fmt.Sprintf("Scenario: %s\nPipeline: %s\nLayer: %s\nPrompt: %s\nDecision: %s\nOutput: %s\nAnalysis: %s",
				c.Scenario, c.Pipeline, c.Layer, c.Input, c.Decision, c.Output, c.Analysis),
		})
	}
	return cases, nil
}

func flatCase(item map[string]any) TestCase {
	keys := make([]string, 0, len(item))
	for k := range item {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %v\n", k, item[k])
	}

	tc := TestCase{Layer: DefaultTestCaseLayer, Combined: b.String()}
	if layer, ok := item["layer"].(string); ok && layer != "" {
		tc.Layer = layer
	}
	if scenario, ok := item["scenario"].(string); ok {
		tc.Scenario = scenario
	} else if input, ok := item["input"].(string); ok {
		tc.Scenario = input
	}
	if d, ok := item["decision"].(string); ok {
		tc.Decision = d
	}
	return tc
}

// TrainingData flattens test cases into the per-layer text lists fed to training.
func TrainingData(cases map[string][]TestCase) map[string][]string {
	out := make(map[string][]string, len(cases))
	for layer, list := range cases {
		for _, tc := range list {
			out[layer] = append(out[layer], tc.Combined)
		}
	}
	return out
}
