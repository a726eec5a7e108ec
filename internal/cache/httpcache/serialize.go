package httpcache

import (
	"bufio"
	"bytes"
	"fmt"
	"net/http"
	"net/http/httputil"
)

// responsePrefix marks a stored body as a dumped HTTP response
const responsePrefix = "---HTTP-RESPONSE---\n"

// Serialize dumps the response with its body. resp.Body stays readable.
func Serialize(resp *http.Response) ([]byte, error) {
	b, err := httputil.DumpResponse(resp, true)
	if err != nil {
		return nil, err
	}

	return append([]byte(responsePrefix), b...), nil
}

func Deserialize(b []byte) (*http.Response, error) {
	if !bytes.HasPrefix(b, []byte(responsePrefix)) {
		n := min(len(b), len(responsePrefix))
		return nil, fmt.Errorf("invalid prefix: expected '%s', got '%s'", responsePrefix, b[:n])
	}

	resp, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(b[len(responsePrefix):])), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize response: %w", err)
	}

	return resp, nil
}
