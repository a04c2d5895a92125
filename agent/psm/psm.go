/*
Package psm is the persistent registry of the protocol state machines. The
host owns the machines: it adds them with an opaque ID and drives them by that
ID. Calls with the same ID are serialised and the machine value is stored
after every successful transition. Different IDs proceed in parallel.
*/
package psm

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/findy-network/findy-common-go/dto"
	"github.com/findy-network/findy-didcomm/agent/storage/wrapper"
	"github.com/golang/glog"
	"github.com/google/uuid"
	"github.com/hyperledger/aries-framework-go/spi/storage"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

var ErrNotFound = errors.New("state machine not found")

// StateKey identifies the machine. The protocol keeps the IDs of different
// machine kinds apart in the same bucket.
type StateKey struct {
	Protocol string `json:"protocol"`
	ID       string `json:"id"`
}

func (k StateKey) String() string {
	return k.Protocol + "/" + k.ID
}

// PSM is the stored record of a machine.
type PSM struct {
	Key       StateKey        `json:"key"`
	Timestamp int64           `json:"timestamp"`
	Machine   json.RawMessage `json:"machine"`
}

type lock struct {
	sync.Mutex
	refs int
}

// Registry keeps the machines of one protocol. M is the machine value type
// which must marshal to JSON.
type Registry[M any] struct {
	protocol string
	store    wrapper.Store

	l     sync.Mutex
	locks map[string]*lock
}

func New[M any](store wrapper.Store, protocol string) *Registry[M] {
	return &Registry[M]{
		protocol: protocol,
		store:    store,
		locks:    make(map[string]*lock),
	}
}

// Add stores a new machine and returns its ID.
func (r *Registry[M]) Add(m M) (id string, err error) {
	defer err2.Handle(&err, "psm add")

	id = uuid.New().String()
	try.To(r.Put(id, m))
	return id, nil
}

// Put stores the machine with the ID.
func (r *Registry[M]) Put(id string, m M) (err error) {
	defer err2.Handle(&err, "psm put %s", id)

	unlock := r.lock(id)
	defer unlock()
	return r.put(id, m)
}

func (r *Registry[M]) Get(id string) (m M, err error) {
	defer err2.Handle(&err, "psm get %s", id)

	unlock := r.lock(id)
	defer unlock()
	return r.get(id)
}

// Update runs the transition f for the machine and stores the new value. If
// f fails, the stored machine stays as it was.
func (r *Registry[M]) Update(id string, f func(m M) (M, error)) (m M, err error) {
	defer err2.Handle(&err, "psm update %s", id)

	unlock := r.lock(id)
	defer unlock()

	m = try.To1(f(try.To1(r.get(id))))
	try.To(r.put(id, m))
	return m, nil
}

func (r *Registry[M]) Delete(id string) (err error) {
	defer err2.Handle(&err, "psm delete %s", id)

	unlock := r.lock(id)
	defer unlock()

	try.To1(r.get(id))
	try.To(r.store.Delete(r.key(id).String()))
	glog.V(1).Infoln("--- rm PSM:", r.key(id))
	return nil
}

// IDs returns the IDs of the protocol's machines in the order they were
// first stored.
func (r *Registry[M]) IDs() (ids []string, err error) {
	defer err2.Handle(&err, "psm ids")

	var all []PSM
	try.To1(r.store.GetAll(func(d []byte) []byte {
		var p PSM
		if err := json.Unmarshal(d, &p); err != nil {
			glog.Warningln("bad psm record:", err)
			return d
		}
		if p.Key.Protocol == r.protocol {
			all = append(all, p)
		}
		return d
	}))
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Timestamp < all[j].Timestamp
	})
	ids = make([]string, 0, len(all))
	for _, p := range all {
		ids = append(ids, p.Key.ID)
	}
	return ids, nil
}

func (r *Registry[M]) key(id string) StateKey {
	return StateKey{Protocol: r.protocol, ID: id}
}

func (r *Registry[M]) put(id string, m M) (err error) {
	defer err2.Handle(&err)

	k := r.key(id)
	p := PSM{
		Key:       k,
		Timestamp: time.Now().UnixNano(),
		Machine:   dto.ToJSONBytes(m),
	}
	if old, err := r.record(k); err == nil {
		p.Timestamp = old.Timestamp
	}
	try.To(r.store.Put(k.String(), dto.ToJSONBytes(p)))
	glog.V(7).Infoln("psm stored:", k)
	return nil
}

func (r *Registry[M]) get(id string) (m M, err error) {
	defer err2.Handle(&err)

	p := try.To1(r.record(r.key(id)))
	try.To(json.Unmarshal(p.Machine, &m))
	return m, nil
}

func (r *Registry[M]) record(k StateKey) (p *PSM, err error) {
	d, err := r.store.Get(k.String())
	if errors.Is(err, storage.ErrDataNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, k)
	} else if err != nil {
		return nil, err
	}
	p = new(PSM)
	if err := json.Unmarshal(d, p); err != nil {
		return nil, err
	}
	return p, nil
}

// lock locks the ID and returns the unlock function.
func (r *Registry[M]) lock(id string) func() {
	r.l.Lock()
	l, ok := r.locks[id]
	if !ok {
		l = &lock{}
		r.locks[id] = l
	}
	l.refs++
	r.l.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		r.l.Lock()
		l.refs--
		if l.refs == 0 {
			delete(r.locks, id)
		}
		r.l.Unlock()
	}
}
