// internal/camera/filter.go
package camera

import (
	"github.com/gobwas/glob"
	"github.com/pkg/errors"
)

// Filter drops payloads that are not product codes, e.g. URLs from QR codes.
type Filter struct {
	patterns []glob.Glob
}

func NewFilter(patterns []string) (*Filter, error) {
	f := &Filter{}
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, errors.Wrapf(err, "ignore pattern %q", p)
		}
		f.patterns = append(f.patterns, g)
	}
	return f, nil
}

func (f *Filter) ShouldIgnore(payload string) bool {
	if f == nil {
		return false
	}
	for _, g := range f.patterns {
		if g.Match(payload) {
			return true
		}
	}
	return false
}
