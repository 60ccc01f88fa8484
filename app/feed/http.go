package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

const maxBodySize = 10 << 20

// fetch performs a GET and maps every failure to a *FetchError.
// accept, when set, vets the response Content-Type.
func fetch(ctx context.Context, client *http.Client, url, userAgent string, accept func(contentType string) bool) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Kind: FetchParse, Err: err}
	}

	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, newTransportError(url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{URL: url, Kind: FetchHTTPStatus, StatusCode: resp.StatusCode}
	}

	if contentType := resp.Header.Get("Content-Type"); accept != nil && !accept(contentType) {
		return nil, &FetchError{
			URL:  url,
			Kind: FetchContentType,
			Err:  fmt.Errorf("unexpected content type: %s", contentType),
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, newTransportError(url, err)
	}

	return data, nil
}
