package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/govm-net/harness/core"
	"github.com/govm-net/harness/host"
	"github.com/govm-net/harness/journal"
)

type outputView struct {
	Contract      string   `json:"contract"`
	Function      string   `json:"function"`
	ReturnCode    string   `json:"return_code"`
	ReturnData    []string `json:"return_data"`
	ReturnMessage string   `json:"return_message,omitempty"`
}

type entryView struct {
	ID        uint64   `json:"id"`
	Time      string   `json:"time"`
	Arguments []string `json:"arguments"`
	outputView
}

func newOutputView(out *host.Output) outputView {
	return outputView{
		Contract:      out.Contract.String(),
		Function:      out.Function,
		ReturnCode:    out.ReturnCode.String(),
		ReturnData:    hexList(out.ReturnData),
		ReturnMessage: out.ReturnMessage,
	}
}

func newEntryView(e *journal.Entry) entryView {
	return entryView{
		ID:        e.ID,
		Time:      e.Time.UTC().Format(time.RFC3339),
		Arguments: hexList(e.Arguments),
		outputView: outputView{
			Contract:      e.Contract.String(),
			Function:      e.Function,
			ReturnCode:    e.ReturnCode.String(),
			ReturnData:    hexList(e.ReturnData),
			ReturnMessage: e.ReturnMessage,
		},
	}
}

func hexList(items [][]byte) []string {
	list := make([]string, len(items))
	for i, item := range items {
		list[i] = hex.EncodeToString(item)
	}
	return list
}

// statusLine renders a return code as a heading, e.g. "Status: User Error"
func statusLine(code core.ReturnCode) string {
	return "Status: " + cases.Title(language.English).String(code.String())
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
