package agency

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/findy-network/findy-didcomm/agent/comm"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// HTTPClient is the Client of a remote agency.
type HTTPClient struct {
	BaseURL string
	Timeout time.Duration
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{BaseURL: strings.TrimSuffix(baseURL, "/"), Timeout: timeout}
}

func (c *HTTPClient) Info() (info Info, err error) {
	defer err2.Handle(&err, agencyErr)

	try.To(c.call(http.MethodGet, "/info", nil, &info))
	return info, nil
}

func (c *HTTPClient) Register(pwDID, pwVerKey string) (ag *Agent, err error) {
	defer err2.Handle(&err, agencyErr)

	ag = new(Agent)
	try.To(c.call(http.MethodPost, "/agents", registerReq{PwDID: pwDID, PwVerKey: pwVerKey}, ag))
	if ag.AgentVerKey == "" {
		return nil, fmt.Errorf("%w: agent verkey missing", ErrInvalidAgencyResponse)
	}
	return ag, nil
}

func (c *HTTPClient) Unregister(pwVerKey string) (err error) {
	defer err2.Handle(&err, agencyErr)

	return c.call(http.MethodDelete, agentPath(pwVerKey), nil, nil)
}

func (c *HTTPClient) Messages(pwVerKey string, status MessageStatus) (msgs []Message, err error) {
	defer err2.Handle(&err, agencyErr)

	path := agentPath(pwVerKey) + "/messages"
	if status != "" {
		path += "?status=" + url.QueryEscape(string(status))
	}
	try.To(c.call(http.MethodGet, path, nil, &msgs))
	return msgs, nil
}

func (c *HTTPClient) Message(pwVerKey, uid string) (m *Message, err error) {
	defer err2.Handle(&err, agencyErr)

	m = new(Message)
	try.To(c.call(http.MethodGet, messagePath(pwVerKey, uid), nil, m))
	return m, nil
}

func (c *HTTPClient) UpdateStatus(pwVerKey, uid string, status MessageStatus) (err error) {
	defer err2.Handle(&err, agencyErr)

	return c.call(http.MethodPut, messagePath(pwVerKey, uid), statusReq{Status: status}, nil)
}

func (c *HTTPClient) call(method, path string, req, res any) (err error) {
	defer err2.Handle(&err)

	var body *bytes.Reader
	if req != nil {
		body = bytes.NewReader(try.To1(json.Marshal(req)))
	} else {
		body = bytes.NewReader(nil)
	}
	data, err := comm.Call(method, c.BaseURL+path, "application/json", body, c.Timeout)
	if comm.StatusCode(err) == http.StatusNotFound {
		return fmt.Errorf("%w: %w", ErrInvalidAgencyResponse, err)
	} else if err != nil {
		return err
	}
	if res == nil {
		return nil
	}
	if err := json.Unmarshal(data, res); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidAgencyResponse, err)
	}
	return nil
}

// agencyErr tags every client error as an agency error.
func agencyErr(err error) error {
	return fmt.Errorf("%w: %w", ErrAgency, err)
}

func agentPath(pwVerKey string) string {
	return "/agents/" + url.PathEscape(pwVerKey)
}

func messagePath(pwVerKey, uid string) string {
	return agentPath(pwVerKey) + "/messages/" + url.PathEscape(uid)
}
