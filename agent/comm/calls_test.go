package comm

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lainio/err2/assert"
)

func TestHTTP_PostBytes(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	var gotType string
	var gotBody []byte
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte("ok"))
	}))
	defer ts.Close()

	res, err := HTTP{Timeout: time.Second}.PostBytes(ts.URL, []byte("payload"))
	assert.NoError(err)
	assert.Equal("ok", string(res))
	assert.Equal(ContentType, gotType)
	assert.Equal("payload", string(gotBody))
}

func TestHTTP_PostBytesStatus(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		textMsg string
	}{
		{"accepted", http.StatusAccepted, ""},
		{"not found text", http.StatusNotFound, "no such agent"},
		{"server error", http.StatusInternalServerError, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.PushTester(t)
			defer assert.PopTester()
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				if tt.textMsg != "" {
					http.Error(w, tt.textMsg, tt.status)
					return
				}
				w.WriteHeader(tt.status)
			}))
			defer ts.Close()

			_, err := HTTP{}.PostBytes(ts.URL, []byte("x"))
			if tt.status < http.StatusMultipleChoices {
				assert.NoError(err)
				return
			}
			assert.Error(err)
			assert.That(errors.Is(err, ErrHTTP))
		})
	}
}

func TestSendAndWaitReqProxy(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	orig := SendAndWaitReq
	defer func() { SendAndWaitReq = orig }()

	var got []byte
	SendAndWaitReq = func(_ string, msg io.Reader, _ time.Duration) ([]byte, error) {
		got, _ = io.ReadAll(msg)
		return nil, nil
	}
	_, err := HTTP{}.PostBytes("http://nowhere", []byte("proxied"))
	assert.NoError(err)
	assert.Equal("proxied", string(got))
}

func TestPostBytes_BadURL(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()
	_, err := HTTP{Timeout: time.Second}.PostBytes("http://127.0.0.1:1/none", nil)
	assert.Error(err)
}
