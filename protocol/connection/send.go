package connection

import (
	"fmt"

	"github.com/findy-network/findy-didcomm/agent/aries"
	"github.com/findy-network/findy-didcomm/agent/didcomm"
	"github.com/findy-network/findy-didcomm/agent/pairwise"
	"github.com/findy-network/findy-didcomm/std/basicmessage"
	"github.com/findy-network/findy-didcomm/std/discover"
	"github.com/findy-network/findy-didcomm/std/outofband"
	"github.com/findy-network/findy-didcomm/std/questionanswer"
	"github.com/findy-network/findy-didcomm/std/trustping"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// SendMessage sends the message to the other end of the completed
// connection.
func (c Connection) SendMessage(b *pairwise.Binder, msg didcomm.MessageHdr) (err error) {
	defer err2.Handle(&err, "send message")

	if c.State != Completed {
		return fmt.Errorf("%w: %s", ErrNotCompleted, c.State)
	}
	return c.send(b, msg)
}

func (c Connection) send(b *pairwise.Binder, msg didcomm.MessageHdr) error {
	doc := c.theirDoc()
	if c.Agent == nil || doc == nil {
		return fmt.Errorf("%w: no remote end in %s", ErrState, c.State)
	}
	return c.agent(b).SendMessage(msg, doc)
}

// SendGenericMessage sends the message JSON as it is. Text which isn't a
// message is sent as a basic message.
func (c Connection) SendGenericMessage(b *pairwise.Binder, message string) (err error) {
	defer err2.Handle(&err, "send generic message")

	if c.State != Completed {
		return fmt.Errorf("%w: %s", ErrNotCompleted, c.State)
	}

	msg, err := aries.Decode([]byte(message))
	if err != nil {
		glog.V(3).Infoln("sending text as basic message")
		msg = basicmessage.NewBasicmessage(message, nil)
	}
	return c.SendMessage(b, msg)
}

// SendPing sends a ping which asks for a response. Before the connection is
// completed the ping belongs to the connection thread.
func (c Connection) SendPing(b *pairwise.Binder, comment string) (next Connection, err error) {
	defer err2.Handle(&err, c.onError(&next, "send ping"))

	switch c.State {
	case Responded:
		c.Thread = c.Thread.Copy()
		c.Thread.IncrementSenderOrder()
		try.To(c.send(b, trustping.NewPing(comment, true, c.Thread.Copy())))
	case Completed:
		try.To(c.send(b, trustping.NewPing(comment, true, nil)))
	default:
		return c, fmt.Errorf("%w: %s", ErrState, c.State)
	}
	return c, nil
}

// SendDiscoveryFeatures asks which protocols the other end supports. The
// answer is recorded to TheirProtocols.
func (c Connection) SendDiscoveryFeatures(b *pairwise.Binder, query, comment string) (err error) {
	defer err2.Handle(&err, "send discovery features")

	if c.State != Completed {
		return fmt.Errorf("%w: %s", ErrNotCompleted, c.State)
	}
	return c.SendMessage(b, discover.NewQuery(query, comment))
}

// SendAnswer answers the question with one of its valid responses. The
// answer is signed with our pairwise key when the question asks it.
func (c Connection) SendAnswer(b *pairwise.Binder, q *questionanswer.Question,
	r questionanswer.Response) (err error) {

	defer err2.Handle(&err, "send answer")

	if c.State != Completed {
		return fmt.Errorf("%w: %s", ErrNotCompleted, c.State)
	}
	answer := try.To1(questionanswer.NewAnswer(q, r, c.Agent.PwVerKey, b.Envelope))
	return c.SendMessage(b, answer)
}

// SendReuse tells the inviter of the out-of-band invitation that this
// connection is used instead of a new one.
func (c Connection) SendReuse(b *pairwise.Binder, inv *outofband.Invitation) (err error) {
	defer err2.Handle(&err, "send handshake reuse")

	if c.State != Completed {
		return fmt.Errorf("%w: %s", ErrNotCompleted, c.State)
	}
	return c.SendMessage(b, outofband.NewHandshakeReuse(inv.ID()))
}
