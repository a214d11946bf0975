package fileprovider

import "testing"

func TestDebugLinkCandidates(t *testing.T) {
	got := DebugLinkCandidates("libfoo.so")
	want := []string{
		"/usr/bin/libfoo.so.debug",
		"/usr/bin/.debug/libfoo.so.debug",
		"/usr/lib/debug/usr/bin/libfoo.so.debug",
	}
	if len(got) != len(want) {
		t.Fatalf("len(got) = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestBuildIDDebugCandidatesSplitsFirstTwoHexChars(t *testing.T) {
	got := BuildIDDebugCandidates("AABBCCDD000000000000000000000000")
	if len(got) != 1 {
		t.Fatalf("len(got) = %d, want 1", len(got))
	}
	want := "/usr/lib/debug/.build-id/aa/bbccdd000000000000000000000000.debug"
	if got[0] != want {
		t.Errorf("got[0] = %q, want %q", got[0], want)
	}
}

func TestResolveAltLinkPathAbsoluteAndRelative(t *testing.T) {
	abs := ResolveAltLinkPath("/bin", "/opt/debug/alt.debug", "")
	if abs[0] != "/opt/debug/alt.debug" {
		t.Errorf("abs[0] = %q", abs[0])
	}
	rel := ResolveAltLinkPath("/bin", "alt.debug", "")
	if rel[0] != "/bin/alt.debug" {
		t.Errorf("rel[0] = %q", rel[0])
	}
}

func TestParseDyldCachePath(t *testing.T) {
	cache, dylib, ok := ParseDyldCachePath("dyldcache:/System/Library/dyld/cache:/usr/lib/libSystem.dylib")
	if !ok {
		t.Fatal("expected ok == true")
	}
	if cache != "/System/Library/dyld/cache" || dylib != "/usr/lib/libSystem.dylib" {
		t.Errorf("cache=%q dylib=%q", cache, dylib)
	}
}

func TestParseDyldCachePathRejectsOrdinaryPath(t *testing.T) {
	if _, _, ok := ParseDyldCachePath("/usr/lib/libfoo.so"); ok {
		t.Error("expected ok == false for an ordinary path")
	}
}
