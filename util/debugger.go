package util

import (
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
)

const consoleWidth = 79

// truncateAt bounds frames printed by a truncating debugger.
const truncateAt = 4 * consoleWidth

// StderrDebugger prints debug information out on the console.
type StderrDebugger struct {
	// Truncate shortens long frames, READY and GUILD_CREATE are huge.
	Truncate bool
	// Out defaults to os.Stderr.
	Out io.Writer

	mu sync.Mutex
}

func (s *StderrDebugger) writeOut(prefix, str string, width int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.Out
	if out == nil {
		out = os.Stderr
	}

	if s.Truncate && len(str) > truncateAt {
		str = str[:truncateAt] + "..."
	}

	indent := "    "
	width -= len(indent)

	io.WriteString(out, prefix+" ")
	var i int
	for i = 1; i*width < len(str); i++ {
		io.WriteString(out, str[(i-1)*width:i*width]+"\n"+indent)
	}
	io.WriteString(out, str[(i-1)*width:]+"\n")
}

// Incoming implements Debugger.Incoming
func (s *StderrDebugger) Incoming(b []byte) {
	s.writeOut(color.CyanString("<<<"), string(b), consoleWidth)
}

// Outgoing implements Debugger.Outgoing
func (s *StderrDebugger) Outgoing(b []byte) {
	s.writeOut(color.GreenString(">>>"), string(b), consoleWidth)
}

// Error implements Debugger.Error
func (s *StderrDebugger) Error(e error) {
	col := color.New(color.FgBlack, color.BgRed)
	s.writeOut(col.SprintfFunc()("ERR"), e.Error(), consoleWidth)
}
