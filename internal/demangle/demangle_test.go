package demangle

import "testing"

func TestAnyItanium(t *testing.T) {
	got := Any("_ZN3foo3barEi")
	want := "foo::bar(int)"
	if got != want {
		t.Errorf("Any(_ZN3foo3barEi) = %q, want %q", got, want)
	}
}

func TestAnyLeadingUnderscore(t *testing.T) {
	got := Any("_main")
	if got != "main" {
		t.Errorf("Any(_main) = %q, want main", got)
	}
}

func TestAnyUnchanged(t *testing.T) {
	for _, name := range []string{"main", "plain_symbol", ""} {
		if got := Any(name); got != name {
			t.Errorf("Any(%q) = %q, want unchanged", name, got)
		}
	}
}

func TestAnyMSVCSimple(t *testing.T) {
	got := Any("?foo@@YAXXZ")
	if got != "foo" {
		t.Errorf("Any(?foo@@YAXXZ) = %q, want foo", got)
	}
}

func TestAnyMSVCMember(t *testing.T) {
	got := Any("?bar@Widget@@QEAAXXZ")
	if got != "Widget::bar" {
		t.Errorf("Any(member) = %q, want Widget::bar", got)
	}
}

func TestAnyMSVCUnrecognizedFallsBackToInput(t *testing.T) {
	input := "?weird_no_at_at_marker"
	if got := Any(input); got != input {
		t.Errorf("Any(%q) = %q, want unchanged", input, got)
	}
}

func TestLooksRustMangledLegacy(t *testing.T) {
	name := "_ZN4core3fmt3foo17h1234567890abcdefE"
	if !looksRustMangled(name) {
		t.Errorf("expected %q to look rust-mangled", name)
	}
}

func TestLooksRustMangledV0(t *testing.T) {
	if !looksRustMangled("_RNvC6foobar3baz") {
		t.Error("expected _R-prefixed name to look rust-mangled")
	}
}
