package sqlite

import "testing"

func TestLikePattern(t *testing.T) {
	cases := map[string]string{
		"  Cafe ": "%cafe%",
		"50%":     "%50!%%",
		"a_b":     "%a!_b%",
		"hi!":     "%hi!!%",
		"":        "%%",
	}
	for in, want := range cases {
		if got := LikePattern(in); got != want {
			t.Fatalf("LikePattern(%q) = %q, want %q", in, got, want)
		}
	}
}
