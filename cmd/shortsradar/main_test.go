package main

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
)

func TestRefreshSkipsWhileRunning(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var runs atomic.Int32

	job := cron.NewChain(skipOverlap).Then(cron.FuncJob(func() {
		runs.Add(1)
		close(started)
		<-release
	}))

	done := make(chan struct{})
	go func() {
		job.Run()
		close(done)
	}()
	<-started

	// Returns at once: the first run holds the slot.
	job.Run()
	close(release)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("first run did not finish")
	}
	if got := runs.Load(); got != 1 {
		t.Errorf("expected 1 run, got %d", got)
	}
}

func TestNewSchedulerAcceptsRefreshSpec(t *testing.T) {
	s := newScheduler()
	if _, err := s.AddFunc("0 */6 * * *", func() {}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := s.AddFunc("every six hours", func() {}); err == nil {
		t.Error("expected error for invalid schedule")
	}
}
