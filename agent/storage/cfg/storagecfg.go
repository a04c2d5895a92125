// Package cfg shares the open agent storages of the process. A bolt file can
// be opened only once, so the wallet and the agency of the same process get
// the same storage instance when they name the same file.
package cfg

import (
	"path/filepath"
	"sync"

	"github.com/findy-network/findy-didcomm/agent/storage/api"
	"github.com/findy-network/findy-didcomm/agent/storage/mgddb"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// AgentStorage is the config of one storage file.
type AgentStorage struct {
	api.AgentStorageConfig
}

type shared struct {
	s     *mgddb.Storage
	users int
}

var open = struct {
	sync.Mutex
	files map[string]*shared
}{
	files: make(map[string]*shared),
}

// UniqueID is the bolt file path without the extension.
func (c *AgentStorage) UniqueID() string {
	return filepath.Join(c.FilePath, c.AgentID)
}

// Open returns the storage of the file. The first user creates it, the
// others share it. Each Open is paired with a Close.
func (c *AgentStorage) Open() (s *mgddb.Storage, err error) {
	defer err2.Handle(&err, "open storage %s", c.AgentID)

	open.Lock()
	defer open.Unlock()

	f, ok := open.files[c.UniqueID()]
	if !ok {
		s = try.To1(mgddb.New(c.AgentStorageConfig))
		open.files[c.UniqueID()] = &shared{s: s, users: 1}
		glog.V(5).Infoln("storage created:", c.UniqueID())
		return s, nil
	}
	if f.users == 0 {
		try.To(f.s.Open())
	}
	f.users++
	glog.V(5).Infoln("storage shared:", c.UniqueID(), f.users)
	return f.s, nil
}

// Close releases the storage. The file is closed when its last user is
// gone. Extra closes are ignored.
func (c *AgentStorage) Close() (err error) {
	defer err2.Handle(&err, "close storage %s", c.AgentID)

	open.Lock()
	defer open.Unlock()

	f, ok := open.files[c.UniqueID()]
	if !ok || f.users == 0 {
		glog.Warningln("storage not open:", c.UniqueID())
		return nil
	}
	f.users--
	if f.users == 0 {
		try.To(f.s.Close())
		glog.V(5).Infoln("storage closed:", c.UniqueID())
	}
	return nil
}
