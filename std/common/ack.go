package common

import (
	"github.com/findy-network/findy-didcomm/agent/didcomm"
	"github.com/findy-network/findy-didcomm/agent/pltype"
	"github.com/findy-network/findy-didcomm/std/decorator"
)

// Ack status values
const (
	AckOK      = "OK"
	AckFail    = "FAIL"
	AckPending = "PENDING"
)

// Ack acknowledgement struct
type Ack struct {
	didcomm.Header
	Status string `json:"status"`
}

// NewAck returns an OK ack for the thread.
func NewAck(th *decorator.Thread) *Ack {
	a := &Ack{Header: didcomm.NewHeader(pltype.NotificationAck), Status: AckOK}
	a.SetThread(th)
	return a
}
