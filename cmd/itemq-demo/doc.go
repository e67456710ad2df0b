// Command itemq-demo runs a simulated workload through an item queue.
//
// Items sleep for a duration drawn from a jittered backoff sequence. The
// queue starts with a small batch followed by a pause point; the Empty
// handler tops it up until the requested number of items has been queued,
// and the Pause handler resumes it after --pause-for. A summary table is
// printed when the queue is done.
package main
