package buildinfo

import (
	"strings"
	"testing"
)

func TestTemplate(t *testing.T) {
	i := Get()
	if i.Version == "" || i.Commit == "" || i.Date == "" {
		t.Fatalf("Get() = %+v, want every field set", i)
	}
	if !strings.HasPrefix(Template(), "{{.Name}} version "+i.Version) {
		t.Errorf("Template() = %q", Template())
	}
	if !strings.Contains(String(), "commit: "+i.Commit) {
		t.Errorf("String() = %q", String())
	}
}
