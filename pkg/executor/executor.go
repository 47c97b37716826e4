// Package executor abstracts the concurrency substrate the engine runs
// handler invocations on. The engine never constructs its own substrate; the
// embedding application supplies one, and the default simply spawns
// goroutines. Blocking on completion is expressed with ordinary channel
// receives, so no counterpart primitive is needed.
package executor

// Executor spawns independently progressing units of work. Spawn returns
// immediately; the task runs concurrently with the caller. Implementations
// must not run the task inline, or handler invocations would stall the read
// loop that scheduled them.
type Executor interface {
	Spawn(task func())
}

// Func adapts a function to the Executor interface.
type Func func(task func())

// Spawn implements Executor.
func (f Func) Spawn(task func()) { f(task) }

type goroutineExecutor struct{}

func (goroutineExecutor) Spawn(task func()) { go task() }

// Goroutines returns the default executor, one goroutine per task.
func Goroutines() Executor { return goroutineExecutor{} }
