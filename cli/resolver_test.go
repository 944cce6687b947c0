package cli

import (
	"context"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/google/go-cmp/cmp"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		flag string
		want any
	}{
		{"hyphen", "log-level: debug\n", "log-level", "debug"},
		{"underscore", "log_level: warn\n", "log-level", "warn"},
		{"bool", "log_pretty: false\n", "log-pretty", false},
		{"number", "timeout: 30\n", "timeout", "30"},
		{"sequence", "tags: [a, b]\n", "tags", "a,b"},
		{"missing", "log_level: warn\n", "log-format", nil},
		{"empty file", "", "log-level", nil},
		{"malformed", "log_level: [\n", "log-level", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := resolve(context.Background())(strings.NewReader(tt.yaml))
			if err != nil {
				t.Fatalf("resolve() error = %v", err)
			}

			got, err := r.Resolve(nil, nil, &kong.Flag{Value: &kong.Value{Name: tt.flag}})
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}

			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Resolve(%q) mismatch (-want +got):\n%s", tt.flag, diff)
			}
		})
	}
}

func TestBoolFlag(t *testing.T) {
	tests := []struct {
		value    string
		assigned bool
		positive bool
		want     bool
		ok       bool
	}{
		{"", false, true, true, true},
		{"", false, false, false, true},
		{"false", true, true, false, true},
		{"false", true, false, true, true},
		{"maybe", true, true, false, false},
	}

	for _, tt := range tests {
		got, ok := boolFlag(tt.value, tt.assigned, tt.positive)
		if got != tt.want || ok != tt.ok {
			t.Errorf("boolFlag(%q, %v, %v) = %v, %v; want %v, %v",
				tt.value, tt.assigned, tt.positive, got, ok, tt.want, tt.ok)
		}
	}
}

func TestScan(t *testing.T) {
	var f logConfig

	f.scan([]string{"render", "--log-level", "debug", "--log-format=text", "--no-log-pretty", "--log-caller=true", "page.tm"})

	want := logConfig{Level: "debug", Format: "text", Pretty: false, Caller: true}
	if f != want {
		t.Errorf("scan() = %+v, want %+v", f, want)
	}
}
