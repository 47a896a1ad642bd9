package permission

import (
	"strings"
	"testing"
)

func TestMissing(t *testing.T) {
	tests := []struct {
		name   string
		report Report
		want   []string
	}{
		{"all granted", Report{Granted, Granted, Granted}, nil},
		{"unknown is not missing", Report{Unknown, Unknown, Unknown}, nil},
		{"screen denied", Report{Granted, Denied, Granted}, []string{"screen recording"}},
		{"two denied", Report{Denied, Granted, Denied}, []string{"accessibility", "microphone"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.report.Missing()
			if len(got) != len(tt.want) {
				t.Fatalf("Missing() = %v, want %d entries", got, len(tt.want))
			}
			for i, w := range tt.want {
				if !strings.HasPrefix(got[i], w) {
					t.Errorf("Missing()[%d] = %q, want prefix %q", i, got[i], w)
				}
			}
		})
	}
}

func TestStatusString(t *testing.T) {
	if Granted.String() != "granted" || Denied.String() != "denied" || Unknown.String() != "unknown" {
		t.Error("unexpected status names")
	}
}
