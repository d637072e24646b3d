package iso7816

import (
	"errors"
	"testing"
)

func makeTx(sw StatusWord) Transaction {
	return Transaction{
		Command:  &CommandAPDU{Instruction: mustInstruction(INS_READ_BINARY)},
		Response: &ResponseAPDU{Status: sw},
	}
}

func TestTransaction_IsSuccess(t *testing.T) {
	tests := []struct {
		name string
		tx   Transaction
		want bool
	}{
		{"Success (9000)", makeTx(SW_NO_ERROR), true},
		{"Bytes available (6110)", makeTx(NewStatusWord(0x61, 0x10)), true},
		{"File not found (6A82)", makeTx(SW_ERR_FILE_NOT_FOUND), false},
		{"Nil response", Transaction{Command: &CommandAPDU{}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tx.IsSuccess(); got != tt.want {
				t.Errorf("Transaction.IsSuccess() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTrace_Logic(t *testing.T) {
	t.Run("Empty Trace", func(t *testing.T) {
		var tr Trace
		if tr.Last() != nil || tr.IsSuccess() || tr.Status() != 0 || tr.Data() != nil {
			t.Error("Empty trace should have no outcome")
		}
	})

	t.Run("61XX then 9000", func(t *testing.T) {
		tr := Trace{makeTx(NewStatusWord(0x61, 0x10)), makeTx(SW_NO_ERROR)}
		if !tr.IsSuccess() || tr.Err() != nil {
			t.Error("Trace should be successful if the last action succeeded")
		}
	})

	t.Run("Failure at the end", func(t *testing.T) {
		tr := Trace{makeTx(SW_NO_ERROR), makeTx(SW_ERR_RECORD_NOT_FOUND)}

		var se *StatusError
		if !errors.As(tr.Err(), &se) {
			t.Fatalf("Err() = %v, want *StatusError", tr.Err())
		}
		if se.Status != SW_ERR_RECORD_NOT_FOUND || se.Instruction != INS_READ_BINARY {
			t.Errorf("StatusError = %+v", se)
		}
	})
}
