package qa

import "testing"

func TestPassed(t *testing.T) {
	tests := []struct {
		score, total int
		want         bool
	}{
		{3, 3, true},
		{2, 3, true},
		{1, 3, false},
		{1, 1, true},
		{0, 1, false},
		{2, 5, false},
		{4, 5, true},
		{0, 0, false},
	}
	for _, tt := range tests {
		if got := Passed(tt.score, tt.total); got != tt.want {
			t.Errorf("Passed(%d, %d) = %v, want %v", tt.score, tt.total, got, tt.want)
		}
	}
}
