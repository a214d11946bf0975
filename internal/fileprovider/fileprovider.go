// Package fileprovider implements the host file-access interface
// (C10): given a module's debug name/Breakpad ID, it enumerates
// candidate filesystem locations for the binary and its separate
// debug file, and reads their bytes. This mirrors the
// getCandidatePathsForDebugFile/getCandidatePathsForBinary/readFile
// trio the original engine exposes as a caller-supplied JS object;
// here it is a local-filesystem implementation of the same contract.
package fileprovider

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"

	"github.com/zboralski/symbolicate/internal/request"
)

// Local is a straightforward local-disk Provider: the module's Name
// is treated as a file path (or bare filename to search beside known
// directories), with the standard GNU debug-link/build-id and
// supplementary debug-file conventions layered on top.
type Local struct {
	// SearchDirs are additional directories to look for a bare
	// filename in, beyond the module's own directory.
	SearchDirs []string
}

// CandidatePathsForBinary returns the paths to try for module's own
// binary: the literal name first (it may already be an absolute
// path), then the name resolved against each configured search
// directory.
func (l *Local) CandidatePathsForBinary(module request.Module) []string {
	var out []string
	out = append(out, module.Name)
	base := filepath.Base(module.Name)
	for _, dir := range l.SearchDirs {
		out = append(out, filepath.Join(dir, base))
	}
	return out
}

// CandidatePathsForDebugFile returns GNU debug-link-style candidates
// for module's separate debug file (split .debug/PDB), following the
// same fixed well-known locations every Breakpad-style symbolicator
// checks.
func (l *Local) CandidatePathsForDebugFile(module request.Module) []string {
	name := filepath.Base(module.Name)

	var out []string
	out = append(out, DebugLinkCandidates(name)...)
	if id := module.ID; len(id) >= 2 {
		out = append(out, BuildIDDebugCandidates(id)...)
	}

	// The module's own file is also a valid PDB/debug-file location
	// when debug info is embedded rather than split out.
	out = append(out, module.Name)
	return out
}

// ResolveAltLinkPath implements the GNU supplementary debug file
// lookup once a .gnu_debugaltlink section's path has actually been
// read from a binary: the literal path if absolute, the path resolved
// relative to the original binary's directory, and the build-id
// indexed global debug store location.
func ResolveAltLinkPath(originalDir, altPath, breakpadID string) []string {
	var out []string
	if altPath != "" {
		if filepath.IsAbs(altPath) {
			out = append(out, altPath)
		} else {
			out = append(out, filepath.Join(originalDir, altPath))
		}
	}
	out = append(out, BuildIDDebugCandidates(breakpadID)...)
	return out
}

// ReadFile reads path's full contents from local disk. A path in the
// special "dyldcache:<cachePath>:<dylibPath>" syntax is recognized and
// rejected with an error: Local does not read dyld shared caches.
func (l *Local) ReadFile(path string) ([]byte, error) {
	if cachePath, dylibPath, ok := ParseDyldCachePath(path); ok {
		return nil, &dyldCacheUnsupported{cachePath: cachePath, dylibPath: dylibPath}
	}
	return os.ReadFile(path)
}

// DyldSharedCachePaths returns no candidates by default; a host
// embedding this package on macOS would override this with the
// platform's known dyld shared cache locations.
func (l *Local) DyldSharedCachePaths() []string { return nil }

// DebugLinkCandidates returns the GNU debug-link well-known locations
// for a binary named name (e.g. "libfoo.so" -> "/usr/bin/libfoo.so.debug").
func DebugLinkCandidates(name string) []string {
	return []string{
		filepath.Join("/usr/bin", name+".debug"),
		filepath.Join("/usr/bin/.debug", name+".debug"),
		filepath.Join("/usr/lib/debug/usr/bin", name+".debug"),
	}
}

// BuildIDDebugCandidates returns the GNU build-id-indexed debug file
// location: /usr/lib/debug/.build-id/<first 2 hex>/<rest>.debug. A
// trailing age digit (an odd-length id) is dropped first.
func BuildIDDebugCandidates(breakpadID string) []string {
	idHexIn := breakpadID
	if len(idHexIn)%2 == 1 {
		idHexIn = idHexIn[:len(idHexIn)-1]
	}
	raw, err := hex.DecodeString(idHexIn)
	if err != nil || len(raw) < 2 {
		return nil
	}
	idHex := hex.EncodeToString(raw)
	return []string{filepath.Join("/usr/lib/debug/.build-id", idHex[:2], idHex[2:]+".debug")}
}

// ParseDyldCachePath recognizes the "dyldcache:<cachePath>:<dylibPath>"
// path syntax used to address a single dylib inside a dyld shared
// cache container.
func ParseDyldCachePath(path string) (cachePath, dylibPath string, ok bool) {
	const prefix = "dyldcache:"
	if !strings.HasPrefix(path, prefix) {
		return "", "", false
	}
	rest := strings.TrimPrefix(path, prefix)
	idx := strings.Index(rest, ":")
	if idx < 0 {
		return "", "", false
	}
	return rest[:idx], rest[idx+1:], true
}

type dyldCacheUnsupported struct {
	cachePath string
	dylibPath string
}

func (e *dyldCacheUnsupported) Error() string {
	return "dyld shared cache reading not implemented for " + e.dylibPath + " in " + e.cachePath
}
