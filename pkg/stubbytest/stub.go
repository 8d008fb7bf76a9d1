package stubbytest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Stub builds one stubby4j stub using a fluent API.
type Stub struct {
	server *Server
	def    stubDef
	err    error // First error encountered during building
}

type stubDef struct {
	Description string      `yaml:"description,omitempty"`
	Request     requestDef  `yaml:"request"`
	Response    responseDef `yaml:"response"`
}

type requestDef struct {
	Method  string            `yaml:"method"`
	URL     string            `yaml:"url"`
	Query   map[string]string `yaml:"query,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Post    string            `yaml:"post,omitempty"`
}

type responseDef struct {
	Status  int               `yaml:"status"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Body    string            `yaml:"body,omitempty"`
	Latency int64             `yaml:"latency,omitempty"`
}

// NewStub returns a builder that is not attached to a server, for use with Render.
func NewStub(method, url string) *Stub {
	return newStub(nil, method, url)
}

func newStub(s *Server, method, url string) *Stub {
	return &Stub{
		server: s,
		def: stubDef{
			Request:  requestDef{Method: strings.ToUpper(method), URL: url},
			Response: responseDef{Status: http.StatusOK},
		},
	}
}

// setError records the first error encountered during building.
func (b *Stub) setError(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Err returns any error encountered during building.
func (b *Stub) Err() error {
	return b.err
}

// Describe sets the stub description stubby shows in its logs.
func (b *Stub) Describe(description string) *Stub {
	b.def.Description = description
	return b
}

// WithStatus sets the response status code. Default is 200.
func (b *Stub) WithStatus(status int) *Stub {
	b.def.Response.Status = status
	return b
}

// WithBody sets the response body.
func (b *Stub) WithBody(body string) *Stub {
	b.def.Response.Body = body
	return b
}

// WithJSON sets the response body as JSON and the content type to match.
func (b *Stub) WithJSON(body any) *Stub {
	data, err := json.Marshal(body)
	if err != nil {
		b.setError(fmt.Errorf("WithJSON: failed to marshal body: %w", err))
		return b
	}
	b.def.Response.Body = string(data)
	return b.WithHeader("content-type", "application/json")
}

// WithHeader adds a response header.
func (b *Stub) WithHeader(key, value string) *Stub {
	if b.def.Response.Headers == nil {
		b.def.Response.Headers = make(map[string]string)
	}
	b.def.Response.Headers[strings.ToLower(key)] = value
	return b
}

// WithDelay makes stubby wait before responding.
func (b *Stub) WithDelay(d time.Duration) *Stub {
	b.def.Response.Latency = d.Milliseconds()
	return b
}

// WithQueryParam requires a query parameter on the request.
func (b *Stub) WithQueryParam(key, value string) *Stub {
	if b.def.Request.Query == nil {
		b.def.Request.Query = make(map[string]string)
	}
	b.def.Request.Query[key] = value
	return b
}

// WithRequestHeader requires a request header.
func (b *Stub) WithRequestHeader(key, value string) *Stub {
	if b.def.Request.Headers == nil {
		b.def.Request.Headers = make(map[string]string)
	}
	b.def.Request.Headers[strings.ToLower(key)] = value
	return b
}

// WithRequestBody requires the request body to equal body.
func (b *Stub) WithRequestBody(body string) *Stub {
	b.def.Request.Post = body
	return b
}

// Reply registers the stub with its server. It fails the test on a
// building error.
func (b *Stub) Reply() {
	if b.server == nil {
		return
	}
	b.server.t.Helper()
	if b.err != nil {
		b.server.t.Fatalf("stub %s %s: %v", b.def.Request.Method, b.def.Request.URL, b.err)
	}
	b.server.add(b)
}

// Render encodes stubs as a stubby4j YAML stubs file.
func Render(stubs ...*Stub) ([]byte, error) {
	defs := make([]stubDef, 0, len(stubs))
	for _, st := range stubs {
		if st.err != nil {
			return nil, st.err
		}
		defs = append(defs, st.def)
	}
	return yaml.Marshal(defs)
}
