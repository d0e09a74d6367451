package shell

// PromptKind selects the prompt the input loop shows next.
type PromptKind int

const (
	// PromptFresh means no statement is pending.
	PromptFresh PromptKind = iota
	// PromptContinuation means a statement is being accumulated.
	PromptContinuation
)

// Prompt strings shown by the interactive shell.
const (
	FreshPrompt        = "firebolt> "
	ContinuationPrompt = "     ...> "
)

// String returns the prompt text for the kind.
func (p PromptKind) String() string {
	if p == PromptContinuation {
		return ContinuationPrompt
	}
	return FreshPrompt
}

// DispatchResult is the outcome of feeding one line to the Accumulator.
type DispatchResult struct {
	// Terminate is set when the session should end (.exit / .quit).
	Terminate bool
	// Prompt is meaningful only when Terminate is false.
	Prompt PromptKind
	// Dispatched counts statements handed to the executor, including the
	// implicit .tables query.
	Dispatched int
	// Err is the first error returned by the executor or formatter. Statements
	// after the failing one on the same line are not executed.
	Err error
}

// Continue builds a non-terminating result.
func Continue(p PromptKind) DispatchResult {
	return DispatchResult{Prompt: p}
}

// Terminate builds a result that ends the session.
func Terminate() DispatchResult {
	return DispatchResult{Terminate: true}
}
