package eventuate

import (
	"context"
	"sync"
)

// swimlaneTask is one unit of work enqueued on a swimlane: a message and
// the continuation that ultimately runs the decorator chain and handler.
type swimlaneTask struct {
	message *Message
	consume func(ctx context.Context, msg *Message) error
	done    func(err error)
}

// swimlaneDispatcher is a single-writer FIFO queue keyed by partition. At
// most one worker goroutine runs per swimlane at a time; the queue drains
// strictly in enqueue order.
type swimlaneDispatcher struct {
	mu      sync.Mutex
	queue   []swimlaneTask
	running bool
	stopped bool

	cancel context.CancelFunc
	ctx    context.Context
	wg     sync.WaitGroup

	logger Logger
}

func newSwimlaneDispatcher(parent context.Context, logger Logger) *swimlaneDispatcher {
	ctx, cancel := context.WithCancel(parent)
	return &swimlaneDispatcher{ctx: ctx, cancel: cancel, logger: logger}
}

// Dispatch enqueues task and, if no worker is currently running, starts one.
// Returns false if the swimlane has been stopped; the caller must treat
// that as a dropped message.
func (s *swimlaneDispatcher) Dispatch(task swimlaneTask) bool {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return false
	}
	s.queue = append(s.queue, task)
	needsWorker := !s.running
	if needsWorker {
		s.running = true
	}
	s.mu.Unlock()

	if needsWorker {
		s.wg.Add(1)
		go s.runWorker()
	}
	return true
}

// runWorker drains the queue strictly in order. It exits when the queue
// is observably empty under the mutex, a two-phase check that closes the
// enqueue-during-exit race: a Dispatch landing after the last dequeue but
// before running==false is observed will spawn its own worker instead of
// being silently dropped. It also exits once Stop has marked the lane
// stopped, leaving queued tasks unstarted. After a handler error it exits
// at once and leaves running set: tasks still queued, and tasks
// dispatched later, are neither run nor completed, so the partition's
// offset stops advancing.
func (s *swimlaneDispatcher) runWorker() {
	defer s.wg.Done()
	for {
		task, ok := s.dequeue()
		if !ok {
			return
		}

		if s.ctx.Err() != nil {
			if task.done != nil {
				task.done(ErrShuttingDown)
			}
			continue
		}

		err := task.consume(s.ctx, task.message)
		if task.done != nil {
			task.done(err)
		}
		if err != nil {
			s.logger.Errorf("swimlane worker: handler error, halting lane: %v", err)
			return
		}
	}
}

func (s *swimlaneDispatcher) dequeue() (swimlaneTask, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 || s.stopped {
		s.running = false
		return swimlaneTask{}, false
	}
	task := s.queue[0]
	s.queue = s.queue[1:]
	return task, true
}

// Stop marks the swimlane stopped (rejecting further Dispatch calls) and
// waits for the current worker to finish. When cancelCurrent is true it
// also cancels the swimlane's context first, so a cooperating in-flight
// handler can abort; when false the in-flight handler is left to run to
// completion. In both cases tasks still queued and not yet started are
// abandoned: the worker exits after its in-flight task. Idempotent.
func (s *swimlaneDispatcher) Stop(cancelCurrent bool) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.mu.Unlock()

	if cancelCurrent {
		s.cancel()
	}
	s.wg.Wait()
	s.cancel()
}

// swimlaneSet is the lazily populated partitionNumber -> swimlaneDispatcher
// map owned by a single subscription's broker consumer. Population happens
// exclusively from the consumer's fetch goroutine, so no synchronization
// guards the map itself.
type swimlaneSet struct {
	ctx    context.Context
	logger Logger
	lanes  map[int]*swimlaneDispatcher
}

func newSwimlaneSet(ctx context.Context, logger Logger) *swimlaneSet {
	return &swimlaneSet{ctx: ctx, logger: logger, lanes: make(map[int]*swimlaneDispatcher)}
}

func (s *swimlaneSet) lane(partition int) *swimlaneDispatcher {
	lane, ok := s.lanes[partition]
	if !ok {
		lane = newSwimlaneDispatcher(s.ctx, s.logger)
		s.lanes[partition] = lane
	}
	return lane
}

// StopAll stops every swimlane in the set. cancelCurrent selects the
// shutdown policy applied to each lane's in-flight handler.
func (s *swimlaneSet) StopAll(cancelCurrent bool) {
	for _, lane := range s.lanes {
		lane.Stop(cancelCurrent)
	}
}
