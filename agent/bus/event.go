/*
Package bus delivers the state changes of the protocol machines to the
listeners of the wallet. Notifications sent when no one listens are buffered
and handed to the first listener which is added.
*/
package bus

import (
	"container/list"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/lainio/err2/assert"
)

// listenerBuffer is the channel size of a listener. A listener which doesn't
// keep up loses the notifications over it.
const listenerBuffer = 64

type ListenerKey struct {
	WalletName string
	ClientID   string
}

func (k ListenerKey) String() string {
	return "ListenerKey:" + k.WalletName + "|" + k.ClientID
}

// Notify tells that the machine ID of the protocol moved from PrevState to
// State.
type Notify struct {
	ID             string `json:"id"`
	ProtocolFamily string `json:"protocol_family"`
	Role           string `json:"role,omitempty"`
	PrevState      string `json:"prev_state,omitempty"`
	State          string `json:"state"`
	Timestamp      int64  `json:"timestamp"`
}

type NotifyChan chan Notify

type Station struct {
	sync.Mutex
	listeners map[ListenerKey]NotifyChan

	// buffer stores notifications if no one listens
	buffer *list.List
}

func NewStation() *Station {
	return &Station{
		listeners: make(map[ListenerKey]NotifyChan),
		buffer:    list.New(),
	}
}

// AddListener adds the listener and sends the buffered notifications to it.
func (s *Station) AddListener(key ListenerKey) NotifyChan {
	s.Lock()
	defer s.Unlock()

	_, alreadyExists := s.listeners[key]
	assert.That(!alreadyExists, "key: %s, already exists", key)

	c := make(NotifyChan, listenerBuffer)
	s.listeners[key] = c
	glog.V(4).Infoln("notify ADD for:", key)

	// using linked list this way it's safe to remove items during iteration
	for e := s.buffer.Front(); e != nil; {
		old := e
		e = e.Next()
		if !trySend(c, old.Value.(Notify)) {
			break
		}
		s.buffer.Remove(old)
	}
	return c
}

// RmListener removes the listener and closes its channel.
func (s *Station) RmListener(key ListenerKey) {
	s.Lock()
	defer s.Unlock()

	glog.V(4).Infoln("notify RM for:", key)
	if ch, ok := s.listeners[key]; ok {
		close(ch)
		delete(s.listeners, key)
	}
}

// Broadcast sends the notification to all the listeners. If no one is
// listening the notification is buffered.
func (s *Station) Broadcast(n Notify) {
	s.Lock()
	defer s.Unlock()

	if n.Timestamp == 0 {
		n.Timestamp = time.Now().UnixNano()
	}
	if len(s.listeners) == 0 {
		glog.V(3).Infoln("there are no one to listen us, buffering", n.ID)
		s.buffer.PushBack(n)
		return
	}
	for key, ch := range s.listeners {
		if !trySend(ch, n) {
			glog.Warningln("listener is full, notification dropped:", key)
		}
	}
}

// Buffered returns the number of notifications waiting for a listener.
func (s *Station) Buffered() int {
	s.Lock()
	defer s.Unlock()
	return s.buffer.Len()
}

func trySend(ch NotifyChan, n Notify) bool {
	select {
	case ch <- n:
		return true
	default:
		return false
	}
}
