// Package httpprovider is a reference response.Provider (C10) that
// fetches module binaries and debug files from a remote symbol
// server over HTTP instead of local disk, following the same
// path-template convention Breakpad-style symbol servers use:
// {baseURL}/{debugName}/{breakpadId}/{debugName}[.debug|.pdb]. Built
// on golang.org/x/net/http2 so the many per-module GETs one request
// can fan out into reuse a single negotiated HTTP/2 connection rather
// than opening one TCP+TLS handshake per candidate path.
package httpprovider

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/http2"

	"github.com/zboralski/symbolicate/internal/request"
)

// Provider fetches candidate files from a single symbol server root.
type Provider struct {
	BaseURL string
	Client  *http.Client
}

// New builds a Provider against baseURL (no trailing slash), with an
// http.Client whose transport has been upgraded to negotiate HTTP/2
// when the server supports it.
func New(baseURL string) *Provider {
	transport := &http.Transport{}
	_ = http2.ConfigureTransport(transport)
	return &Provider{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		Client:  &http.Client{Transport: transport, Timeout: 30 * time.Second},
	}
}

// CandidatePathsForBinary returns the symbol server's well-known
// location for module's own binary.
func (p *Provider) CandidatePathsForBinary(module request.Module) []string {
	name := baseName(module.Name)
	return []string{fmt.Sprintf("%s/%s/%s/%s", p.BaseURL, name, module.ID, name)}
}

// CandidatePathsForDebugFile returns the symbol server's well-known
// locations for module's separate debug file, trying the GNU/.debug
// and PDB/.pdb suffix conventions.
func (p *Provider) CandidatePathsForDebugFile(module request.Module) []string {
	name := baseName(module.Name)
	base := fmt.Sprintf("%s/%s/%s/%s", p.BaseURL, name, module.ID, name)
	return []string{base + ".debug", base + ".pdb"}
}

// ReadFile fetches path's contents. path is expected to be one of the
// URLs CandidatePathsFor{Binary,DebugFile} returned.
func (p *Provider) ReadFile(path string) ([]byte, error) {
	resp, err := p.Client.Get(path)
	if err != nil {
		return nil, fmt.Errorf("httpprovider: GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("httpprovider: GET %s: status %s", path, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// DyldSharedCachePaths returns no candidates: a remote symbol server
// has no notion of the requesting host's local dyld shared cache.
func (p *Provider) DyldSharedCachePaths() []string { return nil }

func baseName(path string) string {
	if i := strings.LastIndexAny(path, "/\\"); i >= 0 {
		return path[i+1:]
	}
	return path
}
