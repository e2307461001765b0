package probe

import (
	"errors"
	"fmt"
	"strings"

	"github.com/EugeneVC/web-monitor/internal/domain"
)

// ErrUnknownTaskType is returned when no registered variant accepts a URI.
var ErrUnknownTaskType = errors.New("unknown task type")

// Variant pairs a scheme predicate with the constructor for matching sites.
type Variant struct {
	Name      string
	IsTaskFor func(uri string) bool
	New       func(site domain.Site) Task
}

var (
	HTTPVariant = Variant{
		Name:      "http",
		IsTaskFor: IsHTTPTaskFor,
		New:       func(s domain.Site) Task { return NewHTTPTask(s) },
	}
	HTTPSVariant = Variant{
		Name:      "https",
		IsTaskFor: IsHTTPSTaskFor,
		New:       func(s domain.Site) Task { return NewHTTPSTask(s) },
	}
)

// Factory picks the first registered variant whose predicate accepts the URI.
type Factory struct {
	variants []Variant
}

func NewFactory(variants ...Variant) *Factory {
	return &Factory{variants: append([]Variant(nil), variants...)}
}

// DefaultFactory registers the http and https variants.
func DefaultFactory() *Factory {
	return NewFactory(HTTPVariant, HTTPSVariant)
}

// Kind returns the name of the variant that would handle uri.
func (f *Factory) Kind(uri string) (string, error) {
	v, ok := f.lookup(uri)
	if !ok {
		return "", fmt.Errorf("%w for %q", ErrUnknownTaskType, uri)
	}
	return v.Name, nil
}

func (f *Factory) Create(site domain.Site) (Task, error) {
	if strings.TrimSpace(site.Name) == "" {
		return nil, errors.New("site name is required")
	}
	if site.CheckPeriod <= 0 {
		return nil, fmt.Errorf("site %q: check period must be positive", site.Name)
	}
	if site.Timeout <= 0 {
		return nil, fmt.Errorf("site %q: timeout must be positive", site.Name)
	}
	v, ok := f.lookup(site.URI)
	if !ok {
		return nil, fmt.Errorf("site %q: %w for %q", site.Name, ErrUnknownTaskType, site.URI)
	}
	return v.New(site), nil
}

func (f *Factory) lookup(uri string) (Variant, bool) {
	for _, v := range f.variants {
		if v.IsTaskFor(uri) {
			return v, true
		}
	}
	return Variant{}, false
}
