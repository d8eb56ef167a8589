package db

import "testing"

func TestContainsPattern(t *testing.T) {
	cases := []struct {
		term string
		want string
	}{
		{"rex", "%rex%"},
		{"100%", "%100!%%"},
		{"a_b", "%a!_b%"},
		{"hey!", "%hey!!%"},
	}
	for _, tc := range cases {
		if got := ContainsPattern(tc.term); got != tc.want {
			t.Fatalf("%q: expected %q, got %q", tc.term, tc.want, got)
		}
	}
}
