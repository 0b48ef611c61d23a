package loader

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

// HTTPFetcher retrieves variants over plain GET requests, resolving
// locations against Base ("http://host:port").
type HTTPFetcher struct {
	Base   string
	Client *http.Client
}

func NewHTTPFetcher(base string) *HTTPFetcher {
	return &HTTPFetcher{
		Base:   strings.TrimRight(base, "/"),
		Client: http.DefaultClient,
	}
}

func (hf *HTTPFetcher) Fetch(ctx context.Context, location string) (io.ReadCloser, error) {
	url := location
	if strings.HasPrefix(location, "/") {
		url = hf.Base + location
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "Bad variant location %q", location)
	}

	resp, err := hf.Client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "GET %q failed", url)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, errors.Errorf("GET %q returned %s", url, resp.Status)
	}
	return resp.Body, nil
}
