/*
Copyright 2014-2017 Bo Blanton

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

/*
   the standard worker/dispatcher queue pair

   workers register their job channel on the workpool, the dispatcher pulls
   from the shared job queue and hands the job to whichever worker checked in
*/

package dispatch

import (
	logging "gopkg.in/op/go-logging.v1"
)

var log = logging.MustGetLogger("dispatch")

type Worker struct {
	workpool chan chan IJob
	jobs     chan IJob
	shutdown chan bool
	errQueue chan error
	retries  int
}

func NewWorker(workpool chan chan IJob) *Worker {
	return &Worker{
		workpool: workpool,
		jobs:     make(chan IJob),
		shutdown: make(chan bool, 1),
	}
}

func (w *Worker) Workpool() chan chan IJob { return w.workpool }
func (w *Worker) Jobs() chan IJob          { return w.jobs }
func (w *Worker) Shutdown() chan bool      { return w.shutdown }

func (w *Worker) Start() error {
	go func() {
		for {
			// check in
			w.workpool <- w.jobs
			select {
			case job := <-w.jobs:
				err := job.DoWork()
				for err != nil {
					rt, ok := job.(IRetryJob)
					if !ok || rt.OnRetry() >= w.retries {
						break
					}
					rt.IncRetry()
					err = job.DoWork()
				}
				if err == nil {
					continue
				}
				if w.errQueue != nil {
					select {
					case w.errQueue <- err:
					default:
						log.Error("job failed: %v", err)
					}
				} else {
					log.Error("job failed: %v", err)
				}
			case <-w.shutdown:
				return
			}
		}
	}()
	return nil
}

func (w *Worker) Stop() error {
	w.shutdown <- true
	return nil
}

type Dispatch struct {
	workpool  chan chan IJob
	jobQueue  chan IJob
	errQueue  chan error
	workers   []*Worker
	numWorker int
	retries   int
	shutdown  chan bool
}

func NewDispatch(numWorker int, workpool chan chan IJob, jobQueue chan IJob) *Dispatch {
	return &Dispatch{
		workpool:  workpool,
		jobQueue:  jobQueue,
		errQueue:  make(chan error, numWorker),
		numWorker: numWorker,
		shutdown:  make(chan bool, 1),
	}
}

func (d *Dispatch) Workpool() chan chan IJob { return d.workpool }
func (d *Dispatch) JobsQueue() chan IJob     { return d.jobQueue }
func (d *Dispatch) ErrorQueue() chan error   { return d.errQueue }
func (d *Dispatch) Retries() int             { return d.retries }

func (d *Dispatch) SetRetries(n int) {
	d.retries = n
	for _, w := range d.workers {
		w.retries = n
	}
}

func (d *Dispatch) Run() error {
	for i := 0; i < d.numWorker; i++ {
		w := NewWorker(d.workpool)
		w.retries = d.retries
		w.errQueue = d.errQueue
		d.workers = append(d.workers, w)
		w.Start()
	}
	go d.dispatch()
	go d.drainErrors()
	return nil
}

func (d *Dispatch) Shutdown() {
	for _, w := range d.workers {
		w.Stop()
	}
	d.shutdown <- true
	d.workers = nil
}

func (d *Dispatch) dispatch() {
	for {
		select {
		case job := <-d.jobQueue:
			jobChan := <-d.workpool
			jobChan <- job
		case <-d.shutdown:
			return
		}
	}
}

func (d *Dispatch) drainErrors() {
	for err := range d.errQueue {
		log.Error("dispatch job error: %v", err)
	}
}
