// ABOUTME: Raw search-result records from the answer header and their display form
// ABOUTME: MapSnippet is the pure field-renaming projection used by the controller

package answer

// RawSnippet is a search result as sent on the wire.
type RawSnippet struct {
	RelativePath string `json:"relative_path"`
	Text         string `json:"text"`
	RepoName     string `json:"repo_name"`
	Lang         string `json:"lang"`
	StartLine    int    `json:"start_line"`
}

// DisplaySnippet is the normalized projection of a RawSnippet. Values are
// never mutated after MapSnippet returns them.
type DisplaySnippet struct {
	Path     string `json:"path" yaml:"path"`
	Code     string `json:"code" yaml:"code"`
	RepoName string `json:"repo_name" yaml:"repo_name"`
	Lang     string `json:"lang" yaml:"lang"`
	Line     int    `json:"line" yaml:"line"`
}

// MapSnippet renames the wire fields of a raw snippet.
func MapSnippet(raw RawSnippet) DisplaySnippet {
	return DisplaySnippet{
		Path:     raw.RelativePath,
		Code:     raw.Text,
		RepoName: raw.RepoName,
		Lang:     raw.Lang,
		Line:     raw.StartLine,
	}
}

// MapSnippets maps every raw snippet in order. The result is never nil, so a
// header without snippets still yields an empty list.
func MapSnippets(raw []RawSnippet) []DisplaySnippet {
	out := make([]DisplaySnippet, 0, len(raw))
	for _, r := range raw {
		out = append(out, MapSnippet(r))
	}
	return out
}
