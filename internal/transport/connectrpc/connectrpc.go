// Package connectrpc is the thin RPC transport named in spec.md §1:
// it exposes one Connect RPC, Symbolize, that takes the v5/v6 JSON
// request body wrapped in a protobuf BytesValue and returns the §6
// response body the same way. The message itself stays opaque JSON
// bytes rather than a purpose-built proto schema, since the wire
// format this engine must speak is the JS symbolication server's
// existing JSON contract, not a new protobuf one; BytesValue lets the
// RPC ride on connect-go's protobuf codec without inventing a schema
// solely to carry bytes through it. All of the actual work is C8
// (request.Parse) and C9 (response.Resolve); this package adapts
// between an HTTP handler and those two calls.
package connectrpc

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/zboralski/symbolicate/internal/log"
	"github.com/zboralski/symbolicate/internal/request"
	"github.com/zboralski/symbolicate/internal/response"
)

// Procedure is the RPC's Connect procedure path.
const Procedure = "/symbolicate.v1.SymbolicateService/Symbolize"

// Service implements the Symbolize RPC against a response.Provider.
type Service struct {
	Provider response.Provider
}

// Symbolize parses req's body as a v5/v6 job request, resolves every
// job against s.Provider, and returns the §6 JSON response body.
func (s *Service) Symbolize(ctx context.Context, req *connect.Request[wrapperspb.BytesValue]) (*connect.Response[wrapperspb.BytesValue], error) {
	jobs, err := request.Parse(req.Msg.GetValue())
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	logger := log.NewNop()
	if log.L != nil {
		logger = log.L.WithCategory("connectrpc")
	}
	logger.Debug("symbolize request", log.Size(uint64(len(jobs))))

	responses := make([]*response.Response, len(jobs))
	for i, job := range jobs {
		select {
		case <-ctx.Done():
			return nil, connect.NewError(connect.CodeCanceled, ctx.Err())
		default:
		}
		responses[i] = response.Resolve(job, s.Provider)
	}

	body, err := response.EncodeAll(responses)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	return connect.NewResponse(wrapperspb.Bytes(body)), nil
}

// NewHandler builds the mux pattern and http.Handler for svc, mirroring
// the shape protoc-gen-connect-go emits for a generated service
// constructor.
func NewHandler(svc *Service, opts ...connect.HandlerOption) (string, http.Handler) {
	handler := connect.NewUnaryHandler(Procedure, svc.Symbolize, opts...)
	return Procedure, handler
}

// Client calls the Symbolize RPC against a remote symbolication
// service over HTTP.
type Client struct {
	inner *connect.Client[wrapperspb.BytesValue, wrapperspb.BytesValue]
}

// NewClient builds a Client that issues Connect unary RPCs to baseURL
// using httpClient.
func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	return &Client{
		inner: connect.NewClient[wrapperspb.BytesValue, wrapperspb.BytesValue](httpClient, baseURL+Procedure, opts...),
	}
}

// Symbolize sends body (a v5/v6 JSON request) and returns the raw §6
// JSON response body.
func (c *Client) Symbolize(ctx context.Context, body []byte) ([]byte, error) {
	resp, err := c.inner.CallUnary(ctx, connect.NewRequest(wrapperspb.Bytes(body)))
	if err != nil {
		return nil, err
	}
	return resp.Msg.GetValue(), nil
}
