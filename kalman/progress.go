package kalman

// Op names a recursion reported to a Progress.
type Op string

const (
	OpForward  Op = "forward"
	OpForecast Op = "forecast"
	OpSimulate Op = "simulate"
)

// Progress observes the timestep loops of a Filter. Implementations must
// not affect results.
type Progress interface {
	// Begin is called before the first timestep of a run.
	Begin(op Op, total int)
	// Step is called after timestep t has been produced.
	Step(op Op, t int)
	// End is called once the run finished; err is nil on success.
	End(op Op, err error)
}

// RetryObserver is implemented by a Progress that wants to know how many
// diagonal increments sampling needed during a simulation.
type RetryObserver interface {
	DiagonalRetries(op Op, n int)
}

// ProgressFunc adapts a function called on every timestep to Progress.
type ProgressFunc func(op Op, t int)

// Begin does nothing.
func (f ProgressFunc) Begin(Op, int) {}

// Step calls f.
func (f ProgressFunc) Step(op Op, t int) { f(op, t) }

// End does nothing.
func (f ProgressFunc) End(Op, error) {}

type noProgress struct{}

func (noProgress) Begin(Op, int) {}
func (noProgress) Step(Op, int)  {}
func (noProgress) End(Op, error) {}

func progressOrDefault(p Progress) Progress {
	if p == nil {
		return noProgress{}
	}
	return p
}
