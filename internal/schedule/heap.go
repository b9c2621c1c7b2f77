package schedule

import "time"

// entry is one pending (guild, job) occurrence.
type entry struct {
	fireAt  time.Time
	guildID string
	job     string
}

// queue orders entries by fire time. container/heap interface.
type queue []*entry

func (q queue) Len() int           { return len(q) }
func (q queue) Less(i, j int) bool { return q[i].fireAt.Before(q[j].fireAt) }
func (q queue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *queue) Push(x any)        { *q = append(*q, x.(*entry)) }

func (q *queue) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return e
}
