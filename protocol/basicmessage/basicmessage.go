/*
Package basicmessage keeps the basic messages of the completed connections.
Sent messages are stored when the send succeeds, and received ones when they
are read from the mailbox. Basic messages have no state machine, the record
is all there is.
*/
package basicmessage

import (
	"time"

	"github.com/findy-network/findy-didcomm/agent/didcomm"
	"github.com/findy-network/findy-didcomm/agent/pairwise"
	"github.com/findy-network/findy-didcomm/agent/pltype"
	"github.com/findy-network/findy-didcomm/agent/psm"
	"github.com/findy-network/findy-didcomm/agent/storage/wrapper"
	"github.com/findy-network/findy-didcomm/protocol"
	"github.com/findy-network/findy-didcomm/protocol/connection"
	"github.com/findy-network/findy-didcomm/std/basicmessage"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// Message is a basic message of the connection.
type Message struct {
	ConnectionID string    `json:"connection_id"`
	Content      string    `json:"content"`
	SentTime     time.Time `json:"sent_time"`
	SentByMe     bool      `json:"sent_by_me"`
}

type Messages struct {
	reg *psm.Registry[Message]
}

func New(store wrapper.Store) *Messages {
	return &Messages{reg: psm.New[Message](store, pltype.ProtocolBasicMessage)}
}

// Send sends the content to the connection and stores the message.
func (m *Messages) Send(b *pairwise.Binder, connID string, conn connection.CompletedConnection,
	content string) (id string, err error) {

	defer err2.Handle(&err, "send basic message")

	msg := basicmessage.NewBasicmessage(content, nil)
	try.To(conn.Send(b, msg))
	glog.V(1).Infoln("basic message sent to", connID)

	return m.reg.Add(Message{
		ConnectionID: connID,
		Content:      content,
		SentTime:     msg.SentTime.Time,
		SentByMe:     true,
	})
}

// Receive stores the unread basic messages of the connection and returns
// their IDs.
func (m *Messages) Receive(b *pairwise.Binder, connID string, conn connection.CompletedConnection) (ids []string, err error) {
	defer err2.Handle(&err, "receive basic messages")

	agent := b.Agent(conn.Agent)
	for {
		in, found := try.To2(protocol.Next(agent, func(msg didcomm.MessageHdr) bool {
			_, ok := msg.(*basicmessage.Basicmessage)
			return ok
		}))
		if !found {
			return ids, nil
		}
		bm := in.Msg.(*basicmessage.Basicmessage)
		glog.V(3).Infof("basic message from %s: %s", connID, bm.Content)
		id := try.To1(m.reg.Add(Message{
			ConnectionID: connID,
			Content:      bm.Content,
			SentTime:     bm.SentTime.Time,
		}))
		try.To(agent.UpdateMessageStatus(in.UID))
		ids = append(ids, id)
	}
}

// List returns the messages of the connection in the order they were
// stored.
func (m *Messages) List(connID string) (msgs []Message, err error) {
	defer err2.Handle(&err, "list basic messages")

	for _, id := range try.To1(m.reg.IDs()) {
		msg := try.To1(m.reg.Get(id))
		if msg.ConnectionID == connID {
			msgs = append(msgs, msg)
		}
	}
	return msgs, nil
}
