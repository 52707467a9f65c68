package scan

import "sort"

// ExtractIssues normalizes the heterogeneous result-body shapes the API
// returns into a flat list. Rules are tried in order and the first match
// wins, no merging across rules:
//  1. body itself is a list
//  2. body has a list-valued field named for the kind (issues/vulnerabilities)
//  3. body has a list-valued "results" field
//  4. "results" is a mapping: concatenate its list-valued entries, then
//     append its mapping-valued entries as single items
//  5. anything else yields an empty list
func ExtractIssues(body any, listField string) []any {
	if body == nil {
		return []any{}
	}
	if list, ok := body.([]any); ok {
		return list
	}
	m, ok := body.(map[string]any)
	if !ok {
		return []any{}
	}
	if list, ok := m[listField].([]any); ok {
		return list
	}
	switch results := m["results"].(type) {
	case []any:
		return results
	case map[string]any:
		return flattenResults(results)
	}
	return []any{}
}

// flattenResults walks the mapping in sorted key order so the output is
// deterministic regardless of Go's map iteration order.
func flattenResults(results map[string]any) []any {
	keys := make([]string, 0, len(results))
	for k := range results {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	flattened := []any{}
	for _, k := range keys {
		if list, ok := results[k].([]any); ok {
			flattened = append(flattened, list...)
		}
	}
	for _, k := range keys {
		if entry, ok := results[k].(map[string]any); ok {
			flattened = append(flattened, entry)
		}
	}
	return flattened
}
