package iso7816

import (
	"context"
	"fmt"
	"sync"
)

// CLIENT & PROTOCOL LOGIC:
// The Client drives a physical connection and handles the ISO 7816-3 transport
// procedures that T=0 exposes to the application layer:
//
// 1. "61 XX" (Response Available): a GET RESPONSE with Le = XX is sent on the
//    same logical channel.
// 2. "6C XX" (Wrong Length): the original command is re-sent with Le = XX.
//
// Send returns the Trace of every atomic exchange. Exchanges are serialized:
// a card connection carries one command at a time.

// maxProcedureSteps bounds the 61XX/6CXX follow-ups of one logical command.
const maxProcedureSteps = 8

// Transmitter abstracts the physical card connection.
// *scard.Card satisfies it.
type Transmitter interface {
	Transmit(cmd []byte) ([]byte, error)
}

// Client manages the high-level communication with the card.
type Client struct {
	mu   sync.Mutex
	Card Transmitter
}

// NewClient creates a new Client instance.
func NewClient(card Transmitter) *Client {
	return &Client{Card: card}
}

// Send transmits a command and handles protocol logic (61xx, 6Cxx).
// The context is checked before every exchange; a transmission already on the
// wire is not interrupted.
func (c *Client) Send(ctx context.Context, cmd *CommandAPDU) (Trace, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var trace Trace
	current := cmd

	for step := 0; step < maxProcedureSteps; step++ {
		if err := ctx.Err(); err != nil {
			return trace, err
		}

		resp, err := c.transmit(current)
		if err != nil {
			return trace, err
		}
		trace = append(trace, Transaction{Command: current, Response: resp})

		sw1, sw2 := resp.Status.SW1(), resp.Status.SW2()

		switch sw1 {
		case 0x61:
			respCls := cmd.Class
			respCls.IsChained = false
			current = NewCommandAPDU(respCls, mustInstruction(INS_GET_RESPONSE), 0x00, 0x00, nil, leFromSW2(sw2))

		case 0x6C:
			// Clone so the caller's command keeps its original Le.
			retry := *current
			retry.Ne = leFromSW2(sw2)
			current = &retry

		default:
			return trace, nil
		}
	}

	return trace, fmt.Errorf("%s: too many transport procedure steps", cmd.Instruction.Raw)
}

// Do sends a command and converts a non-success final status into a *StatusError.
func (c *Client) Do(ctx context.Context, cmd *CommandAPDU) ([]byte, error) {
	trace, err := c.Send(ctx, cmd)
	if err != nil {
		return nil, err
	}
	if err := trace.Err(); err != nil {
		return nil, err
	}
	return trace.Data(), nil
}

func (c *Client) transmit(cmd *CommandAPDU) (*ResponseAPDU, error) {
	raw, err := cmd.Bytes()
	if err != nil {
		return nil, fmt.Errorf("encoding error: %w", err)
	}

	rawResp, err := c.Card.Transmit(raw)
	if err != nil {
		return nil, fmt.Errorf("transmission error: %w", err)
	}

	return ParseResponseAPDU(rawResp)
}

// leFromSW2 maps the SW2 length hint to Ne, where 0x00 means 256.
func leFromSW2(sw2 byte) int {
	if sw2 == 0 {
		return MaxShortLe
	}
	return int(sw2)
}
