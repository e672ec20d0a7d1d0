package extract

import "testing"

func TestDecodeEscapes(t *testing.T) {
	cases := map[string]string{
		"no escapes":            "no escapes",
		`a\nb`:                  "a\nb",
		`a\tb`:                  "a\tb",
		`a\rb`:                  "a\rb",
		`say \"hi\"`:            `say "hi"`,
		`back\\slash`:           `back\slash`,
		`line1\n\tindented`:     "line1\n\tindented",
		`\n leading trailing\n`: "\n leading trailing\n",
	}
	for in, want := range cases {
		if got := DecodeEscapes(in); got != want {
			t.Fatalf("DecodeEscapes(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestDecodeEscapesFallsBackOnInvalidSequence(t *testing.T) {
	// An unknown escape or a dangling backslash must not fail extraction;
	// the undecoded string comes back untouched.
	for _, in := range []string{
		`bad \x sequence`,
		`dangling backslash\`,
		`mixed \n then \q bad`,
	} {
		if got := DecodeEscapes(in); got != in {
			t.Fatalf("expected fallback to raw string for %q, got %q", in, got)
		}
	}
}

func TestEscapeRoundTrip(t *testing.T) {
	// decode ∘ encode reproduces the original escaped form for every string
	// that decodes cleanly.
	escaped := []string{
		`a\nb`,
		`a\tb\rc`,
		`say \"hi\"\nagain`,
		`back\\slash\nnewline`,
		"plain",
	}
	for _, in := range escaped {
		decoded := DecodeEscapes(in)
		if got := EncodeEscapes(decoded); got != in {
			t.Fatalf("round trip for %q: decoded %q, re-encoded %q", in, decoded, got)
		}
	}
}

func TestEncodeEscapes(t *testing.T) {
	if got := EncodeEscapes("a\nb\t\"c\"\\d"); got != `a\nb\t\"c\"\\d` {
		t.Fatalf("EncodeEscapes: got %q", got)
	}
}
