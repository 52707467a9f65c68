package scan

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestExtractIssues(t *testing.T) {
	cases := []struct {
		name      string
		body      string
		listField string
		want      []any
	}{
		{
			name:      "OK body is a list",
			body:      `[{"id":1},{"id":2}]`,
			listField: "issues",
			want:      []any{map[string]any{"id": float64(1)}, map[string]any{"id": float64(2)}},
		},
		{
			name:      "OK kind field wins over results",
			body:      `{"issues":[1,2],"results":[3,4]}`,
			listField: "issues",
			want:      []any{float64(1), float64(2)},
		},
		{
			name:      "OK vulnerabilities field",
			body:      `{"vulnerabilities":[{"id":"CVE-1"}]}`,
			listField: "vulnerabilities",
			want:      []any{map[string]any{"id": "CVE-1"}},
		},
		{
			name:      "OK results list fallback",
			body:      `{"results":[3,4]}`,
			listField: "issues",
			want:      []any{float64(3), float64(4)},
		},
		{
			name:      "OK non-list kind field falls through to results",
			body:      `{"issues":"none","results":[3]}`,
			listField: "issues",
			want:      []any{float64(3)},
		},
		{
			name:      "OK results mapping flattened lists first",
			body:      `{"results":{"b":[2,3],"a":[1],"c":{"id":4},"d":"ignored"}}`,
			listField: "issues",
			want:      []any{float64(1), float64(2), float64(3), map[string]any{"id": float64(4)}},
		},
		{
			name:      "OK unknown shape yields empty",
			body:      `{"summary":"clean"}`,
			listField: "issues",
			want:      []any{},
		},
		{
			name:      "OK scalar body yields empty",
			body:      `"done"`,
			listField: "issues",
			want:      []any{},
		},
		{
			name:      "OK results scalar yields empty",
			body:      `{"results":42}`,
			listField: "issues",
			want:      []any{},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var body any
			if err := json.Unmarshal([]byte(c.body), &body); err != nil {
				t.Fatalf("Failed to parse test body, err=%+v", err)
			}
			got := ExtractIssues(body, c.listField)
			if diff := cmp.Diff(c.want, got); diff != "" {
				t.Fatalf("Unexpected issues: diff=%s", diff)
			}
		})
	}
}

func TestExtractIssuesNilBody(t *testing.T) {
	got := ExtractIssues(nil, "issues")
	if len(got) != 0 {
		t.Fatalf("Unexpected issues for nil body: got=%+v", got)
	}
}
