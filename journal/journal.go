// Package journal records the outcome of every executed invocation.
// Entries are written after an invocation ends and never feed back into
// a later one.
package journal

import (
	"context"
	"time"

	"github.com/govm-net/harness/core"
	"github.com/govm-net/harness/host"
)

// Entry is one recorded invocation
type Entry struct {
	ID            uint64          `json:"id"`
	Contract      core.Address    `json:"contract"`
	Function      string          `json:"function"`
	Arguments     [][]byte        `json:"arguments"`
	ReturnCode    core.ReturnCode `json:"return_code"`
	ReturnData    [][]byte        `json:"return_data"`
	ReturnMessage string          `json:"return_message,omitempty"`
	Time          time.Time       `json:"time"`
}

// NewEntry captures out together with the arguments it was invoked with
func NewEntry(out *host.Output, args [][]byte) *Entry {
	return &Entry{
		Contract:      out.Contract,
		Function:      out.Function,
		Arguments:     args,
		ReturnCode:    out.ReturnCode,
		ReturnData:    out.ReturnData,
		ReturnMessage: out.ReturnMessage,
		Time:          time.Now(),
	}
}

// Filter narrows List. Zero values match everything; entries come back
// newest first.
type Filter struct {
	Contract *core.Address
	Function string
	Limit    int
}

// Match reports whether e passes the contract and function conditions of f
func (f Filter) Match(e *Entry) bool {
	if f.Contract != nil && *f.Contract != e.Contract {
		return false
	}
	if f.Function != "" && f.Function != e.Function {
		return false
	}
	return true
}

// Journal stores invocation outcomes
type Journal interface {
	// Record appends e and assigns its ID
	Record(ctx context.Context, e *Entry) error
	// List returns the entries matching filter, newest first
	List(ctx context.Context, filter Filter) ([]Entry, error)
	Close() error
}
