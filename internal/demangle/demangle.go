// Package demangle turns compiler-mangled symbol names into
// human-readable ones. It multiplexes three mangling schemes — MSVC,
// Rust, and Itanium C++ — the same ordered-fallback shape the
// original symbolication library used, adapted here to Go's
// ianlancetaylor/demangle for the Rust and Itanium branches (the same
// package github.com/rhysh uses for ELF+DWARF symbolization).
package demangle

import (
	"strings"

	itanium "github.com/ianlancetaylor/demangle"
)

// Any demangles name using the first scheme that recognizes it,
// falling through MSVC -> Rust -> Itanium C++ -> leading-underscore
// strip -> identity. A scheme that recognizes the name but fails to
// fully demangle it returns the input unchanged rather than a partial
// result.
func Any(name string) string {
	if strings.HasPrefix(name, "?") {
		if out, ok := msvc(name); ok {
			return out
		}
		return name
	}

	if out, ok := rust(name); ok {
		return out
	}

	if out, ok := cpp(name); ok {
		return out
	}

	if strings.HasPrefix(name, "_") {
		return name[1:]
	}

	return name
}

// cpp demangles an Itanium C++ mangled name (the "_Z..." scheme used
// by GCC/Clang/Android NDK toolchains). It requests the function's
// parameter list but no template parameter expansion, matching the
// terse form the symbolication client expects.
func cpp(name string) (string, bool) {
	out, err := itanium.ToString(name, itanium.NoTemplateParams, itanium.NoClones)
	if err != nil {
		return "", false
	}
	return out, true
}

// rust recognizes both the legacy ("_ZN...17h<16 hex digits>E") and
// v0 ("_R...") Rust mangling schemes and renders the alternate
// (hash-suffix-stripped) form.
func rust(name string) (string, bool) {
	if !looksRustMangled(name) {
		return "", false
	}
	out, err := itanium.ToString(name, itanium.NoClones)
	if err != nil {
		return "", false
	}
	return out, true
}

func looksRustMangled(name string) bool {
	if strings.HasPrefix(name, "_R") {
		return true
	}
	if !strings.HasPrefix(name, "_ZN") {
		return false
	}
	// Legacy rustc mangling appends a 16-hex-digit hash as the final
	// path component, e.g. "...17h1234567890abcdefE".
	idx := strings.LastIndex(name, "17h")
	if idx < 0 {
		return false
	}
	rest := name[idx+3:]
	if !strings.HasSuffix(rest, "E") {
		return false
	}
	hex := rest[:len(rest)-1]
	if len(hex) != 16 {
		return false
	}
	for _, r := range hex {
		if !isHexDigit(r) {
			return false
		}
	}
	return true
}

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

// msvc stands in for the flag set the original MSVC demangler applied
// (no access specifiers, no function return types, no member/this
// type, no MS keywords, no class-type prefix, a space after commas,
// and "hugging" the type to its name) by emitting only the qualified
// name, with no parameters or return type. There is no MSVC demangling
// library anywhere in the example pack or its transitive dependency
// set (see DESIGN.md); msvc implements the documented grammar subset
// directly rather than reaching for a hand-fabricated dependency.
func msvc(name string) (string, bool) {
	d := &msvcDecoder{input: name}
	out, ok := d.decode()
	if !ok {
		return "", false
	}
	return out, true
}

type msvcDecoder struct {
	input string
	pos   int
}

// decode handles the common MSVC mangled-function shape:
// "?name@@YAXXZ" style layout, "?name@Class@@..." for members, and
// falls back to reporting failure (caller returns input unchanged)
// for constructs this minimal grammar subset does not recognize —
// overloaded operators, templates, and nested qualifiers.
func (d *msvcDecoder) decode() (string, bool) {
	if !strings.HasPrefix(d.input, "?") {
		return "", false
	}
	rest := d.input[1:]

	end := strings.Index(rest, "@@")
	if end < 0 {
		return "", false
	}

	qualified := rest[:end]
	// '?' and '$' inside the qualified name mark operators, special
	// members, templates and nested scopes, none of which are decoded.
	if strings.ContainsAny(qualified, "?$") {
		return "", false
	}
	parts := strings.Split(qualified, "@")
	reverseStrings(parts)

	name := strings.Join(parts, "::")
	if name == "" {
		return "", false
	}
	return name, true
}

func reverseStrings(s []string) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
