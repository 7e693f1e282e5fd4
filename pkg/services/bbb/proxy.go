package bbbservice

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/clbanning/mxj/v2"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/config"
	"github.com/sirupsen/logrus"
)

type ResponseMode int

const (
	// ModeXML parses the body and returns the <response> element.
	ModeXML ResponseMode = iota
	// ModeRaw returns the body verbatim.
	ModeRaw
)

func init() {
	// attributes are merged into the element map as plain keys
	mxj.PrependAttrWithHyphen(false)
}

type ProxyRequest struct {
	URL         string
	Method      string
	Body        string
	ContentType string
	Mode        ResponseMode
}

type ProxyResult struct {
	Response map[string]interface{}
	Raw      string
}

// ProxyError is returned when the conferencing server could not be reached
// or did not answer with a parsable document.
type ProxyError struct {
	URL string
	Err error
}

func (e *ProxyError) Error() string {
	return fmt.Sprintf("bbb request to %s failed: %s", e.URL, e.Err)
}

func (e *ProxyError) Unwrap() error {
	return e.Err
}

type Proxy struct {
	client *http.Client
	logger *logrus.Entry
}

func NewProxy(logger *logrus.Logger) *Proxy {
	return &Proxy{
		client: &http.Client{Timeout: config.BBBRequestTimeout},
		logger: logger.WithField("service", "bbb-proxy"),
	}
}

// Call issues a GET request and returns the parsed <response> element.
func (p *Proxy) Call(ctx context.Context, url string) (map[string]interface{}, error) {
	res, err := p.CallExtended(ctx, &ProxyRequest{URL: url})
	if err != nil {
		return nil, err
	}
	return res.Response, nil
}

func (p *Proxy) CallExtended(ctx context.Context, r *ProxyRequest) (*ProxyResult, error) {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if r.Body != "" {
		body = strings.NewReader(r.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.URL, body)
	if err != nil {
		return nil, &ProxyError{URL: r.URL, Err: err}
	}
	if r.ContentType != "" {
		req.Header.Set("Content-Type", r.ContentType)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &ProxyError{URL: r.URL, Err: err}
	}
	defer resp.Body.Close()

	// the whole document is needed before it can be parsed
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProxyError{URL: r.URL, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ProxyError{URL: r.URL, Err: fmt.Errorf("unexpected status code %d", resp.StatusCode)}
	}

	if r.Mode == ModeRaw {
		return &ProxyResult{Raw: string(data)}, nil
	}

	parsed, err := ParseResponse(data)
	if err != nil {
		p.logger.WithError(err).WithField("url", r.URL).Errorln("could not parse bbb response")
		return nil, &ProxyError{URL: r.URL, Err: err}
	}
	return &ProxyResult{Response: parsed}, nil
}

// ParseResponse decodes an XML document and returns the contents of its
// <response> root. Elements with a single child are kept as maps, repeated
// children become lists, and values are not cast.
func ParseResponse(data []byte) (map[string]interface{}, error) {
	m, err := mxj.NewMapXml(data)
	if err != nil {
		return nil, err
	}

	root, ok := m["response"]
	if !ok {
		return nil, fmt.Errorf("document has no response element")
	}

	switch v := root.(type) {
	case map[string]interface{}:
		return v, nil
	case string:
		// <response/> or text only
		return map[string]interface{}{}, nil
	}
	return nil, fmt.Errorf("unexpected response element of type %T", root)
}

// Encode serializes a decoded tree back to XML under root.
func Encode(root string, m map[string]interface{}) (string, error) {
	b, err := mxj.Map(m).Xml(root)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Str reads a scalar value out of a decoded response.
func Str(m map[string]interface{}, key string) string {
	if m == nil {
		return ""
	}
	switch v := m[key].(type) {
	case string:
		return v
	case map[string]interface{}:
		if t, ok := v["#text"].(string); ok {
			return t
		}
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
	return ""
}
