package social

import "testing"

func TestClampPageSize(t *testing.T) {
	cfg := PageConfig{Default: 5, Max: 5}

	cases := []struct {
		name      string
		requested int
		want      int
	}{
		{"zero falls back to default", 0, 5},
		{"negative falls back to default", -3, 5},
		{"within bounds", 3, 3},
		{"at max", 5, 5},
		{"above max clamps", 100, 5},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClampPageSize(tc.requested, cfg); got != tc.want {
				t.Fatalf("ClampPageSize(%d) = %d, want %d", tc.requested, got, tc.want)
			}
		})
	}
}

func TestClampPageSize_ZeroConfig(t *testing.T) {
	if got := ClampPageSize(0, PageConfig{}); got != 5 {
		t.Fatalf("expected fallback default 5, got %d", got)
	}
}
