package auth

import "testing"

func TestSessionIsAuthenticated(t *testing.T) {
	if NewSession("", "key").IsAuthenticated() {
		t.Fatalf("expected guest session")
	}
	s := NewSession(" tok ", "key")
	if !s.IsAuthenticated() || s.AuthToken() != "tok" {
		t.Fatalf("unexpected session %+v", s)
	}
	if s.Guest().IsAuthenticated() || s.Guest().CartKey() != "key" {
		t.Fatalf("guest view should drop the token only")
	}
}

func TestTokenFromHeader(t *testing.T) {
	cases := map[string]string{
		"":               "",
		"Bearer abc":     "abc",
		"bearer  abc ":   "abc",
		"Basic dXNlcg==": "",
		"Bearer":         "",
	}
	for in, want := range cases {
		if got := TokenFromHeader(in); got != want {
			t.Fatalf("TokenFromHeader(%q) = %q, want %q", in, got, want)
		}
	}
}
