package mailer

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// CheckResponse returns nil for 2xx responses and an ErrSendFailed-wrapped
// error carrying the status and a body excerpt otherwise.
func CheckResponse(provider string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return errors.Join(ErrSendFailed, fmt.Errorf("%s: status %d: %s", provider, resp.StatusCode, strings.TrimSpace(string(body))))
}
