package iso7816

// A Transaction is one C-APDU and the R-APDU that answered it.
//
// A Trace is the chronological list of transactions behind one logical
// operation. A SELECT answered with '61 XX' produces two entries: the SELECT
// and the GET RESPONSE that fetched the FCP. The outcome is the final entry.

// Transaction represents a completed Command-Response pair.
type Transaction struct {
	Command  *CommandAPDU
	Response *ResponseAPDU
}

// IsSuccess checks if the transaction ended with a successful status.
// It returns false if the response is missing.
func (t *Transaction) IsSuccess() bool {
	if t.Response == nil {
		return false
	}
	return t.Response.Status.IsSuccess()
}

// Trace is a sequence of transactions (Command-Response pairs).
type Trace []Transaction

// Last returns the final transaction of the trace, or nil when empty.
func (t Trace) Last() *Transaction {
	if len(t) == 0 {
		return nil
	}
	return &t[len(t)-1]
}

// IsSuccess checks if the final transaction in the trace was successful.
func (t Trace) IsSuccess() bool {
	last := t.Last()
	if last == nil {
		return false
	}
	return last.IsSuccess()
}

// Status returns the final status word, or zero for an empty or incomplete trace.
func (t Trace) Status() StatusWord {
	last := t.Last()
	if last == nil || last.Response == nil {
		return 0
	}
	return last.Response.Status
}

// Data returns the response data of the final transaction.
func (t Trace) Data() []byte {
	last := t.Last()
	if last == nil || last.Response == nil {
		return nil
	}
	return last.Response.Data
}

// Err converts an unsuccessful trace into a *StatusError.
func (t Trace) Err() error {
	if t.IsSuccess() {
		return nil
	}
	var ins InsCode
	if len(t) > 0 && t[0].Command != nil {
		ins = t[0].Command.Instruction.Raw
	}
	return &StatusError{Instruction: ins, Status: t.Status()}
}
