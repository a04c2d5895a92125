// Package decorator implements the Aries message decorators: ~thread,
// ~attach and ~please_ack.
package decorator

import (
	"fmt"
)

// Thread is the ~thread decorator. It is used both on the wire and as the
// conversation state of the protocol state machines. SenderOrder counts our
// own outbound messages and ReceivedOrders the inbound messages per peer.
type Thread struct {
	ID             string            `json:"thid,omitempty"`
	PID            string            `json:"pthid,omitempty"`
	SenderOrder    uint64            `json:"sender_order"`
	ReceivedOrders map[string]uint64 `json:"received_orders,omitempty"`
}

// ThreadOrderError is returned when an inbound message is out of the order
// we expect from the sender.
type ThreadOrderError struct {
	Sender   string
	Expected uint64
	Received uint64
}

func (e *ThreadOrderError) Error() string {
	return fmt.Sprintf("message out of order from %s: expected sender_order %d, received %d",
		e.Sender, e.Expected, e.Received)
}

func NewThread(ID, PID string) *Thread {
	realPID := ""
	if ID != PID {
		realPID = PID
	}
	return &Thread{ID: ID, PID: realPID}
}

func (t *Thread) SetThid(id string) {
	t.ID = id
}

// SetPthid sets the parent thread. A parent equal to the thread itself is
// left out like NewThread does.
func (t *Thread) SetPthid(pid string) {
	if pid == t.ID {
		pid = ""
	}
	t.PID = pid
}

// Copy returns a deep copy of the thread which is safe to put on an outbound
// message.
func (t *Thread) Copy() *Thread {
	if t == nil {
		return nil
	}
	c := *t
	if t.ReceivedOrders != nil {
		c.ReceivedOrders = make(map[string]uint64, len(t.ReceivedOrders))
		for k, v := range t.ReceivedOrders {
			c.ReceivedOrders[k] = v
		}
	}
	return &c
}

func (t *Thread) IncrementSenderOrder() {
	t.SenderOrder++
}

// UpdateReceivedOrder records a message received from the peer. The first
// message from a peer is recorded with order 0.
func (t *Thread) UpdateReceivedOrder(peer string) {
	if t.ReceivedOrders == nil {
		t.ReceivedOrders = make(map[string]uint64)
	}
	if order, ok := t.ReceivedOrders[peer]; ok {
		t.ReceivedOrders[peer] = order + 1
		return
	}
	t.ReceivedOrders[peer] = 0
}

// ExpectedOrder returns the sender_order we expect next from the peer.
func (t *Thread) ExpectedOrder(peer string) uint64 {
	if order, ok := t.ReceivedOrders[peer]; ok {
		return order + 1
	}
	return 0
}

// CheckMessageOrder checks the incoming thread against what has been recorded
// for the sender so far. It must be called before UpdateReceivedOrder for the
// same message.
func (t *Thread) CheckMessageOrder(sender string, incoming *Thread) error {
	var got uint64
	if incoming != nil {
		got = incoming.SenderOrder
	}
	expected := t.ExpectedOrder(sender)
	if got != expected {
		return &ThreadOrderError{Sender: sender, Expected: expected, Received: got}
	}
	return nil
}

// IsReply tells if the thread belongs to the conversation started by id.
func (t *Thread) IsReply(id string) bool {
	if t == nil {
		return false
	}
	return t.ID == id
}
