package ssi

import (
	"sync"

	"github.com/findy-network/findy-wrapper-go"
	"github.com/findy-network/findy-wrapper-go/dto"
)

// Future is a pending findy-wrapper-go call. The result is read from the
// channel at the first access and kept for the later ones.
type Future struct {
	l  sync.Mutex
	ch findy.Channel
	r  *dto.Result
}

func NewFuture(ch findy.Channel) *Future {
	return &Future{ch: ch}
}

// Result blocks until the call is ready.
func (f *Future) Result() (dto.Result, error) {
	f.l.Lock()
	defer f.l.Unlock()

	if f.r == nil {
		r := <-f.ch
		f.r = &r
	}
	return *f.r, f.r.Err()
}

func (f *Future) Handle() (int, error) {
	r, err := f.Result()
	return r.Handle(), err
}

func (f *Future) Str1() (string, error) {
	r, err := f.Result()
	return r.Str1(), err
}

func (f *Future) Strs() (s1, s2 string, err error) {
	r, err := f.Result()
	return r.Str1(), r.Str2(), err
}
