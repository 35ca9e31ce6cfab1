package jobqueue

import "fmt"

// keys builds the store key for each of a queue's collections. The queue name
// is wrapped in curly braces so that on a Redis cluster all collections of one
// queue hash to the same slot.
type keys struct {
	prefix string
}

func newKeys(queue string) keys {
	return keys{prefix: fmt.Sprintf("jobqueue:{%s}:", queue)}
}

// state returns the key of the ordered collection for one job status.
func (k keys) state(s Status) string {
	return k.prefix + string(s)
}

// records returns the key of the id-indexed record collection.
func (k keys) records() string {
	return k.prefix + "jobs"
}

// all returns every key owned by the queue, states first.
func (k keys) all() []string {
	out := make([]string, 0, len(Statuses)+1)
	for _, s := range Statuses {
		out = append(out, k.state(s))
	}
	return append(out, k.records())
}
