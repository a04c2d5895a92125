// Package inviteaction implements the messages of the invite for action
// protocol (RFC 0351).
package inviteaction

import (
	"github.com/findy-network/findy-didcomm/agent/didcomm"
	"github.com/findy-network/findy-didcomm/agent/pltype"
	"github.com/findy-network/findy-didcomm/std/common"
	"github.com/findy-network/findy-didcomm/std/decorator"
)

type Invite struct {
	didcomm.Header
	GoalCode  string               `json:"goal_code"`
	PleaseAck *decorator.PleaseAck `json:"~please_ack,omitempty"`
}

// Ack has its own type tag but the shape of the notification ack.
type Ack struct {
	common.Ack
}

// ProblemReport has its own type tag but the shape of the RFC 0035 report.
type ProblemReport struct {
	common.ProblemReport
}

func NewInvite(goalCode string, ack bool) *Invite {
	i := &Invite{
		Header:   didcomm.NewHeader(pltype.InviteActionInvite),
		GoalCode: goalCode,
	}
	if ack {
		i.PleaseAck = &decorator.PleaseAck{}
	}
	i.SetThread(&decorator.Thread{ID: i.ID()})
	return i
}

func NewAck(th *decorator.Thread) *Ack {
	a := &Ack{Ack: *common.NewAck(th)}
	a.SetType(pltype.InviteActionAck)
	return a
}
