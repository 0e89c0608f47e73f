package build

import "testing"

func TestTrimJsxText(t *testing.T) {
	tests := []struct {
		in   string
		want string
		keep bool
	}{
		{in: "hello", want: "hello", keep: true},
		{in: "  spaced  ", want: "  spaced  ", keep: true},
		{in: "\n   ", keep: false},
		{in: "  hello\n  world  ", want: "  hello world  ", keep: true},
		{in: "a\n\n   \nb", want: "a b", keep: true},
	}
	for _, tt := range tests {
		got, keep := trimJsxText(tt.in)
		if keep != tt.keep || got != tt.want {
			t.Errorf("trimJsxText(%q) = %q, %v; want %q, %v", tt.in, got, keep, tt.want, tt.keep)
		}
	}
}
