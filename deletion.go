package hellfire

// DeletionQueue collects teardown actions and runs them in reverse order
// of registration. Destroying in LIFO order guarantees a resource is
// released before the resources it depends on: an image view before the
// image memory it views, a pipeline before its layout.
//
// Two instances exist in a running engine: a global queue drained only at
// shutdown, and one queue per frame slot drained at the start of that
// slot's reuse.
type DeletionQueue struct {
	actions []func()
}

// Push registers an action. The action is never executed immediately.
func (q *DeletionQueue) Push(action func()) {
	q.actions = append(q.actions, action)
}

// Len reports the number of pending actions.
func (q *DeletionQueue) Len() int {
	return len(q.actions)
}

// Flush executes every pending action, newest first, and leaves the
// queue empty and reusable.
func (q *DeletionQueue) Flush() {
	for i := len(q.actions) - 1; i >= 0; i-- {
		q.actions[i]()
	}
	q.actions = q.actions[:0]
}
