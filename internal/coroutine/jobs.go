package coroutine

// Job is one host-job microtask (a promise reaction, a finalization-
// registry callback, an async resumption).
type Job func()

// JobQueue is the per-runtime FIFO host-job queue. Jobs run strictly
// in enqueue order (spec.md §5 "Host jobs run in FIFO order"); the
// loader drains it between interpreter runs, never concurrently with
// bytecode.
type JobQueue struct {
	jobs []Job
}

// NewJobQueue creates an empty queue.
func NewJobQueue() *JobQueue { return &JobQueue{} }

// Enqueue appends a job.
func (q *JobQueue) Enqueue(j Job) { q.jobs = append(q.jobs, j) }

// Len reports how many jobs are pending.
func (q *JobQueue) Len() int { return len(q.jobs) }

// RunOne pops and runs the head job, reporting whether one existed.
func (q *JobQueue) RunOne() bool {
	if len(q.jobs) == 0 {
		return false
	}
	j := q.jobs[0]
	q.jobs = q.jobs[1:]
	j()
	return true
}

// Drain runs jobs until the queue is empty, including any enqueued by
// the jobs themselves.
func (q *JobQueue) Drain() {
	for q.RunOne() {
	}
}
