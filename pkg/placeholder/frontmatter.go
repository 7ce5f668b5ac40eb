package placeholder

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidFrontmatter indicates malformed YAML front matter in step content.
var ErrInvalidFrontmatter = errors.New("placeholder: invalid frontmatter")

// Step is sequence step content split into its metadata and body template.
type Step struct {
	Metadata map[string]any
	Body     string
}

// Subject returns the "subject" front matter value, if any. The key is
// matched case-insensitively; an exact lowercase key wins over other spellings.
func (s *Step) Subject() string {
	if v, ok := s.Metadata["subject"].(string); ok {
		return v
	}
	keys := make([]string, 0, len(s.Metadata))
	for k := range s.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if strings.EqualFold(k, "subject") {
			if v, ok := s.Metadata[k].(string); ok {
				return v
			}
		}
	}
	return ""
}

// ParseStep extracts optional YAML front matter delimited by "---" lines.
// Content without front matter is returned as the body unchanged.
func ParseStep(content string) (*Step, error) {
	delimiter := []byte("---")
	raw := []byte(content)

	if !bytes.HasPrefix(raw, delimiter) {
		return &Step{Metadata: map[string]any{}, Body: content}, nil
	}

	rest := bytes.TrimLeft(bytes.TrimPrefix(raw, delimiter), "\r\n")
	if len(rest) == 0 {
		return nil, fmt.Errorf("%w: no content after opening delimiter", ErrInvalidFrontmatter)
	}

	end := bytes.Index(rest, delimiter)
	if end == -1 {
		return nil, fmt.Errorf("%w: closing delimiter not found", ErrInvalidFrontmatter)
	}

	front := rest[:end]
	bodyStart := end + len(delimiter)
	if bodyStart < len(rest) {
		switch {
		case rest[bodyStart] == '\r' && bodyStart+1 < len(rest) && rest[bodyStart+1] == '\n':
			bodyStart += 2
		case rest[bodyStart] == '\n':
			bodyStart++
		}
	}

	meta := map[string]any{}
	if len(bytes.TrimSpace(front)) > 0 {
		if err := yaml.Unmarshal(front, &meta); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFrontmatter, err)
		}
	}

	return &Step{Metadata: meta, Body: string(rest[bodyStart:])}, nil
}
