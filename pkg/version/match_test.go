package version

import "testing"

func TestMatchPrefix(t *testing.T) {
	tests := []struct {
		tag, spec string
		want      bool
	}{
		{"2.1.0", "2.1", true},
		{"2.1.1", "2.1", true},
		{"2.1", "2.1", true},
		{"2.10.0", "2.1", false},
		{"3.0.0", "2.1", false},
		{"v1.1.0", "1.1", true},
		{"v1.1.0-beta", "1.1", true},
		{"v1.1.0", "v1.1", true},
		{"v1.10.0", "v1.1", false},
		{"2.1.0-rc.1", "2.1.0", true},
		{"2.1.0+meta", "2.1.0", true},
		{"2.10.0", "2.1.", false},
		{"2.1.5", "2.1.", true},
		{"v1.0.0", "", false},
		{"1.0.0", "v1", false},
	}

	for _, tt := range tests {
		if got := MatchPrefix(tt.tag, tt.spec); got != tt.want {
			t.Errorf("MatchPrefix(%q, %q) = %v, want %v", tt.tag, tt.spec, got, tt.want)
		}
	}
}
