package decorator

import (
	"errors"
	"testing"

	"github.com/lainio/err2/assert"
)

func TestNewThread(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	for _, tc := range []struct{ id, pid, want string }{
		{"inv-1", "", ""},
		{"inv-1", "inv-1", ""},
		{"req-1", "inv-1", "inv-1"},
	} {
		th := NewThread(tc.id, tc.pid)
		assert.Equal(th.ID, tc.id)
		assert.Equal(th.PID, tc.want)
		assert.Equal(th.SenderOrder, uint64(0))
	}
}

func TestThread_SetThidPthid(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	th := &Thread{}
	th.SetThid("req-1")
	th.SetPthid("inv-1")
	assert.Equal(th.ID, "req-1")
	assert.Equal(th.PID, "inv-1")

	th.SetPthid("req-1")
	assert.Equal(th.PID, "")
}

func TestThread_ReceivedOrder(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	const did = "did:sov:peer"
	th := NewThread("thread-id", "")
	assert.Equal(th.ExpectedOrder(did), uint64(0))

	th.UpdateReceivedOrder(did)
	assert.Equal(th.ReceivedOrders[did], uint64(0))

	th.UpdateReceivedOrder(did)
	assert.Equal(th.ReceivedOrders[did], uint64(1))
	assert.Equal(th.ExpectedOrder(did), uint64(2))
}

func TestThread_SenderOrder(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	th := NewThread("thread-id", "")
	first := th.Copy()
	th.IncrementSenderOrder()
	second := th.Copy()
	th.IncrementSenderOrder()

	assert.Equal(first.SenderOrder, uint64(0))
	assert.Equal(second.SenderOrder-first.SenderOrder, uint64(1))
	assert.Equal(th.SenderOrder, uint64(2))
}

func TestThread_CheckMessageOrder(t *testing.T) {
	const did = "qwertytyyu"
	type step struct {
		senderOrder uint64
		wantErr     bool
	}
	tests := []struct {
		name  string
		steps []step
	}{
		{"in order", []step{{0, false}, {1, false}, {2, false}}},
		{"first not zero", []step{{1, true}}},
		{"duplicate", []step{{0, false}, {1, false}, {1, true}}},
		{"gap", []step{{0, false}, {2, true}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.PushTester(t)
			defer assert.PopTester()

			th := NewThread("thid", "")
			for _, s := range tt.steps {
				err := th.CheckMessageOrder(did, &Thread{ID: "thid", SenderOrder: s.senderOrder})
				if s.wantErr {
					assert.Error(err)
					var orderErr *ThreadOrderError
					assert.That(errors.As(err, &orderErr))
					assert.Equal(orderErr.Received, s.senderOrder)
					return
				}
				assert.NoError(err)
				th.UpdateReceivedOrder(did)
			}
		})
	}
}

func TestThread_IsReply(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	var nilThread *Thread
	assert.That(!nilThread.IsReply("id"))
	assert.That(!(&Thread{}).IsReply("id"))
	assert.That(NewThread("id", "").IsReply("id"))
	assert.That(!NewThread("id", "").IsReply("other"))
}

func TestThread_Copy(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	th := NewThread("id", "pid")
	th.UpdateReceivedOrder("peer")
	c := th.Copy()
	th.UpdateReceivedOrder("peer")

	assert.Equal(c.ReceivedOrders["peer"], uint64(0))
	assert.Equal(c.PID, "pid")
}

func TestAttachment(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	payload := []byte(`{"schema_id":"1"}`)
	att := NewAttachment("libindy-cred-offer-0", payload)
	got, err := AttachmentBytes(att)
	assert.NoError(err)
	assert.DeepEqual(got, payload)
	assert.Equal(att[0].MimeType, MimeTypeJSON)

	_, err = AttachmentBytes(nil)
	assert.That(errors.Is(err, ErrAttachmentNotFound))

	_, err = Attachment{Data: AttachmentData{Base64: "!!"}}.Bytes()
	assert.Error(err)
}
