package listing

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/fsotosa-ops/meridian-bdr/internal/model"
)

// FileSource reads candidates from a YAML file. It serves offline runs and
// imports of profiles gathered by other means.
//
// The file holds either a list of candidates or a map with a candidates key:
//
//	candidates:
//	  - raw_text: "Ana Ruiz\nCEO at Acme"
//	    profile_url: https://www.linkedin.com/sales/lead/123
type FileSource struct {
	path string
}

// NewFileSource creates a FileSource reading path on every Fetch.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

type candidateFile struct {
	Candidates []model.Candidate `yaml:"candidates"`
}

// Fetch returns the file's candidates. listingURL is ignored; maxPages is
// ignored because the file is not paginated.
func (s *FileSource) Fetch(_ context.Context, _ string, _ int) ([]model.Candidate, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, eris.Wrapf(err, "listing: read %s", s.path)
	}

	var list []model.Candidate
	if err := yaml.Unmarshal(data, &list); err != nil {
		var wrapped candidateFile
		if err2 := yaml.Unmarshal(data, &wrapped); err2 != nil {
			return nil, eris.Wrapf(err2, "listing: decode %s", s.path)
		}
		list = wrapped.Candidates
	}

	out := list[:0]
	for _, c := range list {
		if len([]rune(c.RawText)) > MinCardText {
			out = append(out, c)
		}
	}
	return out, nil
}
