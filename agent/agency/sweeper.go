package agency

import (
	"time"

	"github.com/go-co-op/gocron"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// StartSweeper removes the reviewed messages at every interval until the
// returned scheduler is stopped.
func (a *Agency) StartSweeper(interval time.Duration) (s *gocron.Scheduler, err error) {
	defer err2.Handle(&err, "start sweeper")

	s = gocron.NewScheduler(time.Now().Location())
	try.To1(s.Every(interval).Do(func() {
		if _, err := a.Sweep(); err != nil {
			glog.Warningln("mailbox sweep:", err)
		}
	}))
	s.StartAsync()
	glog.V(1).Infoln("mailbox sweeper started, interval:", interval)
	return s, nil
}
