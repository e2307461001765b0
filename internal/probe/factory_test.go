package probe

import (
	"errors"
	"testing"
	"time"

	"github.com/EugeneVC/web-monitor/internal/domain"
)

func TestVariantsPartitionSchemes(t *testing.T) {
	cases := []struct {
		uri       string
		http      bool
		https     bool
		wantKind  string
		wantError bool
	}{
		{"http://a", true, false, "http", false},
		{"https://a", false, true, "https", false},
		{"HTTP://A", true, false, "http", false},
		{"HtTpS://a/path", false, true, "https", false},
		{"ftp://a", false, false, "", true},
		{"a", false, false, "", true},
		{"", false, false, "", true},
	}
	f := DefaultFactory()
	for _, c := range cases {
		if got := IsHTTPTaskFor(c.uri); got != c.http {
			t.Fatalf("IsHTTPTaskFor(%q)=%v want %v", c.uri, got, c.http)
		}
		if got := IsHTTPSTaskFor(c.uri); got != c.https {
			t.Fatalf("IsHTTPSTaskFor(%q)=%v want %v", c.uri, got, c.https)
		}
		kind, err := f.Kind(c.uri)
		if c.wantError {
			if !errors.Is(err, ErrUnknownTaskType) {
				t.Fatalf("Kind(%q) want ErrUnknownTaskType, got %v", c.uri, err)
			}
			continue
		}
		if err != nil || kind != c.wantKind {
			t.Fatalf("Kind(%q)=%q,%v want %q", c.uri, kind, err, c.wantKind)
		}
	}
}

func TestFactory_CreateDispatchesOnScheme(t *testing.T) {
	f := DefaultFactory()
	base := domain.Site{Name: "a", CheckPeriod: time.Second, Timeout: time.Second}

	s := base
	s.URI = "http://a"
	task, err := f.Create(s)
	if err != nil {
		t.Fatalf("create http: %v", err)
	}
	if _, ok := task.(*HTTPTask); !ok {
		t.Fatalf("want *HTTPTask, got %T", task)
	}
	if task.Site() != s {
		t.Fatalf("task should keep its site, got %+v", task.Site())
	}

	s.URI = "https://a"
	task, err = f.Create(s)
	if err != nil {
		t.Fatalf("create https: %v", err)
	}
	if _, ok := task.(*HTTPSTask); !ok {
		t.Fatalf("want *HTTPSTask, got %T", task)
	}

	s.URI = "ftp://a"
	if _, err := f.Create(s); !errors.Is(err, ErrUnknownTaskType) {
		t.Fatalf("want ErrUnknownTaskType, got %v", err)
	}
}

func TestFactory_RegistrationOrderWins(t *testing.T) {
	var picked string
	always := func(string) bool { return true }
	f := NewFactory(
		Variant{Name: "first", IsTaskFor: always, New: func(s domain.Site) Task { picked = "first"; return NewHTTPTask(s) }},
		Variant{Name: "second", IsTaskFor: always, New: func(s domain.Site) Task { picked = "second"; return NewHTTPTask(s) }},
	)
	if _, err := f.Create(domain.Site{Name: "x", URI: "x://y", CheckPeriod: 1, Timeout: 1}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if picked != "first" {
		t.Fatalf("want first registered variant, got %q", picked)
	}
}

func TestFactory_EmptyRegistry(t *testing.T) {
	f := NewFactory()
	_, err := f.Create(domain.Site{Name: "x", URI: "http://a", CheckPeriod: 1, Timeout: 1})
	if !errors.Is(err, ErrUnknownTaskType) {
		t.Fatalf("want ErrUnknownTaskType, got %v", err)
	}
	f = NewFactory(HTTPVariant)
	if _, err := f.Create(domain.Site{Name: "x", URI: "http://a", CheckPeriod: 1, Timeout: 1}); err != nil {
		t.Fatalf("with http registered: %v", err)
	}
	if _, err := f.Create(domain.Site{Name: "x", URI: "https://a", CheckPeriod: 1, Timeout: 1}); !errors.Is(err, ErrUnknownTaskType) {
		t.Fatalf("https should stay unregistered, got %v", err)
	}
}

func TestFactory_RejectsInvalidSite(t *testing.T) {
	f := DefaultFactory()
	bad := []domain.Site{
		{Name: "", URI: "http://a", CheckPeriod: time.Second, Timeout: time.Second},
		{Name: "a", URI: "http://a", CheckPeriod: 0, Timeout: time.Second},
		{Name: "a", URI: "http://a", CheckPeriod: time.Second, Timeout: -1},
	}
	for _, s := range bad {
		if _, err := f.Create(s); err == nil {
			t.Fatalf("want error for %+v", s)
		}
	}
}
