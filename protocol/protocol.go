package protocol

import (
	"github.com/findy-network/findy-didcomm/agent/didcomm"
	"github.com/findy-network/findy-didcomm/agent/pairwise"
	"github.com/findy-network/findy-didcomm/std/common"
	"github.com/findy-network/findy-didcomm/std/issuecredential"
	"github.com/findy-network/findy-didcomm/std/presentproof"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// Next returns the oldest unread message of the agent's mailbox which the
// machine accepts. The message stays unread until the caller marks it.
func Next(agent *pairwise.Agent, eligible func(didcomm.MessageHdr) bool) (
	in pairwise.Inbound, found bool, err error) {

	defer err2.Handle(&err, "next message")

	for _, msg := range try.To1(agent.GetMessages()) {
		if eligible(msg.Msg) {
			return msg, true, nil
		}
	}
	return in, false, nil
}

// Receive handles the next accepted message of the mailbox with handle and
// marks it reviewed. The message stays unread if handle fails. A failed
// status update doesn't undo the handled transition: the new state no longer
// accepts the message, so it is skipped when it's read again.
func Receive[M any](m M, agent *pairwise.Agent, eligible func(didcomm.MessageHdr) bool,
	handle func(didcomm.MessageHdr) (M, error)) (next M, err error) {

	defer err2.Handle(&err, "receive")

	in, found := try.To2(Next(agent, eligible))
	if !found {
		return m, nil
	}
	next = try.To1(handle(in.Msg))
	if err := agent.UpdateMessageStatus(in.UID); err != nil {
		glog.Warningln("message", in.UID, "left unread:", err)
	}
	return next, nil
}

// ProblemReport returns the problem report of the message when it is one of
// the problem report types.
func ProblemReport(msg didcomm.MessageHdr) (*common.ProblemReport, bool) {
	switch m := msg.(type) {
	case *common.ProblemReport:
		return m, true
	case *issuecredential.Reject:
		return &m.ProblemReport, true
	case *presentproof.Reject:
		return &m.ProblemReport, true
	}
	return nil, false
}

// IsAck tells if the message is an ack of any protocol.
func IsAck(msg didcomm.MessageHdr) bool {
	switch msg.(type) {
	case *common.Ack, *issuecredential.Ack, *presentproof.Ack:
		return true
	}
	return false
}
