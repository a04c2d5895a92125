// Package basicmessage implements the Aries basic message (RFC 0095).
package basicmessage

import (
	"fmt"
	"strconv"
	"time"

	"github.com/findy-network/findy-didcomm/agent/didcomm"
	"github.com/findy-network/findy-didcomm/agent/pltype"
	"github.com/findy-network/findy-didcomm/std/decorator"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// AriesTime marshals with the format other agents expect but accepts RFC
// 3339 as well.
type AriesTime struct {
	time.Time
}

// ISO8601 is what ACA-Py expects, it fails with the longer fractions.
const ISO8601 = "2006-01-02 15:04:05.999999Z"

type Basicmessage struct {
	didcomm.Header
	Content  string    `json:"content"`
	SentTime AriesTime `json:"sent_time"`
}

func NewBasicmessage(content string, th *decorator.Thread) *Basicmessage {
	m := &Basicmessage{
		Header:   didcomm.NewHeader(pltype.BasicMessageSend),
		Content:  content,
		SentTime: AriesTime{Time: time.Now().UTC()},
	}
	m.SetThread(th)
	return m
}

// timeLayouts are tried in order when sent_time is parsed.
var timeLayouts = []string{ISO8601, time.RFC3339Nano}

func (at *AriesTime) UnmarshalJSON(b []byte) (err error) {
	defer err2.Handle(&err, "sent_time %s", b)

	value := try.To1(strconv.Unquote(string(b)))
	for _, layout := range timeLayouts {
		var t time.Time
		if t, err = time.Parse(layout, value); err == nil {
			at.Time = t
			return nil
		}
	}
	return err
}

func (at AriesTime) MarshalJSON() ([]byte, error) {
	if y := at.Year(); y < 0 || y > 9999 {
		return nil, fmt.Errorf("sent_time year %d out of range", y)
	}
	return []byte(strconv.Quote(at.UTC().Format(ISO8601))), nil
}
