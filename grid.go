package pulsewatch

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"text/template"
)

// ExpandAddressGrid renders urlTemplate once per combination of dimension
// values and returns the resulting addresses.
//
// The template uses Go's text/template syntax with dimension keys as
// variables. Values are URL-encoded before interpolation and a key missing
// from the dimensions is an error. Combinations are produced in a stable order:
// keys sorted alphabetically, values in their given order, rightmost key
// varying fastest.
//
// Example:
//
//	addrs, err := pulsewatch.ExpandAddressGrid(
//	    "https://{{.region}}.api.example.com/health",
//	    map[string][]string{"region": {"us-east", "eu-west"}},
//	)
//	// addrs == ["https://us-east.api.example.com/health", "https://eu-west.api.example.com/health"]
func ExpandAddressGrid(urlTemplate string, dimensions map[string][]string) ([]string, error) {
	if urlTemplate == "" {
		return nil, errors.New("URL template required")
	}
	if len(dimensions) == 0 {
		return nil, errors.New("at least one dimension required")
	}
	for k, vals := range dimensions {
		if len(vals) == 0 {
			return nil, fmt.Errorf("dimension '%s' has no values", k)
		}
		for i, v := range vals {
			if v == "" {
				return nil, fmt.Errorf("dimension '%s' contains empty value at index %d", k, i)
			}
		}
	}

	tmpl, err := template.New("url").Option("missingkey=error").Parse(urlTemplate)
	if err != nil {
		return nil, fmt.Errorf("invalid URL template: %w", err)
	}

	combinations := cartesianProduct(dimensions)
	addrs := make([]string, 0, len(combinations))
	for _, combo := range combinations {
		addr, err := executeTemplate(tmpl, urlEncodeMap(combo))
		if err != nil {
			return nil, fmt.Errorf("template execution failed: %w", err)
		}
		addrs = append(addrs, addr)
	}
	return addrs, nil
}

// cartesianProduct generates all combinations of dimension values.
// Keys are sorted alphabetically for deterministic output.
// Values maintain their original slice order.
//
// Example:
//
//	Input:  {"x": ["a","b"], "y": ["1","2"]}
//	Output: [{"x":"a","y":"1"}, {"x":"a","y":"2"}, {"x":"b","y":"1"}, {"x":"b","y":"2"}]
func cartesianProduct(dims map[string][]string) []map[string]string {
	if len(dims) == 0 {
		return nil
	}

	keys := make([]string, 0, len(dims))
	for k := range dims {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	total := 1
	for _, k := range keys {
		if len(dims[k]) == 0 {
			return nil
		}
		total *= len(dims[k])
	}

	result := make([]map[string]string, 0, total)
	indices := make([]int, len(keys))
	for {
		combo := make(map[string]string, len(keys))
		for i, k := range keys {
			combo[k] = dims[k][indices[i]]
		}
		result = append(result, combo)

		// odometer increment, rightmost first
		for i := len(keys) - 1; i >= 0; i-- {
			indices[i]++
			if indices[i] < len(dims[keys[i]]) {
				break
			}
			indices[i] = 0
			if i == 0 {
				return result
			}
		}
	}
}

func urlEncodeMap(m map[string]string) map[string]string {
	result := make(map[string]string, len(m))
	for k, v := range m {
		result[k] = url.QueryEscape(v)
	}
	return result
}

func executeTemplate(tmpl *template.Template, data map[string]string) (string, error) {
	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
