// Package comm is the HTTP transport between the agents and the agency.
package comm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// ContentType of the DIDComm envelopes.
const ContentType = "application/ssi-agent-wire"

// errorMessageMaxLength is the maximum length of the response body we will
// include into the generated error message
const errorMessageMaxLength = 80

const defaultTimeout = 30 * time.Second

var ErrHTTP = errors.New("http")

var (
	// SendAndWaitReq is proxy function to route actual call to http or pseudo
	// http in tests.
	SendAndWaitReq = sendAndWaitHTTPRequest

	c = &http.Client{}
)

// Transport posts the bytes to the endpoint and returns the response body.
type Transport interface {
	PostBytes(endpoint string, data []byte) ([]byte, error)
}

// HTTP is the Transport over HTTP POST.
type HTTP struct {
	Timeout time.Duration
}

func (h HTTP) PostBytes(endpoint string, data []byte) (res []byte, err error) {
	defer err2.Handle(&err, "post bytes to %s", endpoint)

	timeout := h.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	glog.V(3).Infof("posting %d bytes to %s", len(data), endpoint)
	return SendAndWaitReq(endpoint, bytes.NewReader(data), timeout)
}

func sendAndWaitHTTPRequest(urlStr string, msg io.Reader, timeout time.Duration) (data []byte, err error) {
	return Call(http.MethodPost, urlStr, ContentType, msg, timeout)
}

// Call makes the HTTP request and returns the response body. Non 2xx
// statuses are returned as ErrHTTP.
func Call(method, urlStr, contentType string, body io.Reader, timeout time.Duration) (data []byte, err error) {
	defer err2.Handle(&err, "call http")

	if timeout == 0 {
		timeout = defaultTimeout
	}
	URL := try.To1(url.Parse(urlStr))

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	request := try.To1(http.NewRequestWithContext(ctx, method, URL.String(), body))
	request.Close = true
	if contentType != "" {
		request.Header.Set("Content-Type", contentType)
	}

	response := try.To1(c.Do(request))
	defer func() {
		if closeErr := response.Body.Close(); closeErr != nil {
			glog.Warningln("body.Close: ", closeErr)
		}
	}()

	data = try.To1(io.ReadAll(response.Body))
	return checkHTTPStatus(response, data)
}

// StatusCode returns the HTTP status code of the ErrHTTP error or 0.
func StatusCode(err error) int {
	var se *statusError
	if errors.As(err, &se) {
		return se.code
	}
	return 0
}

type statusError struct {
	code int
	msg  string
}

func (e *statusError) Error() string {
	return e.msg
}

func (e *statusError) Unwrap() error {
	return ErrHTTP
}

// checkHTTPStatus checks the status code and gets the server message
func checkHTTPStatus(response *http.Response, data []byte) ([]byte, error) {
	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		glog.Warningln("http code:", response.Status)
		contentType := response.Header.Get("Content-type")
		// from our server: text/plain; charset=utf-8
		if strings.HasPrefix(contentType, "text/plain") {
			l := min(errorMessageMaxLength, len(data))
			return nil, &statusError{code: response.StatusCode,
				msg: fmt.Sprintf("%v: %s: %s", ErrHTTP, response.Status,
					strings.TrimSpace(string(data[0:l])))}
		}
		return nil, &statusError{code: response.StatusCode,
			msg: fmt.Sprintf("%v: %s", ErrHTTP, response.Status)}
	}
	return data, nil
}
