package fast

import (
	"fmt"
	"io"
	"os"
)

// InstrumentedState is the execution engine: it owns a VMState and the descriptor table of one run.
type InstrumentedState struct {
	state *VMState
	files *FileTable
}

func NewInstrumentedState(state *VMState, stdIn io.Reader, stdOut, stdErr io.Writer) *InstrumentedState {
	return &InstrumentedState{
		state: state,
		files: NewFileTable(stdIn, stdOut, stdErr),
	}
}

// NewVM loads binary and binds the guest's standard streams to those of the process.
func NewVM(binary []byte) (*InstrumentedState, error) {
	state, err := LoadImage(binary)
	if err != nil {
		return nil, err
	}
	return NewInstrumentedState(state, os.Stdin, os.Stdout, os.Stderr), nil
}

func (m *InstrumentedState) State() *VMState {
	return m.state
}

func (m *InstrumentedState) Files() *FileTable {
	return m.files
}

// Step runs a single instruction. It is a no-op once the program halted.
func (m *InstrumentedState) Step() error {
	if m.state.Halted {
		return nil
	}
	return m.step()
}

// Execute runs until the program halts or the instruction pointer leaves the image.
// The first failing instruction ends the run.
func (m *InstrumentedState) Execute() error {
	s := m.state
	for s.Running() {
		step, ip := s.Step, s.IP
		if err := m.step(); err != nil {
			return fmt.Errorf("failed at step %d (IP: %08x): %w", step, ip, err)
		}
	}
	return nil
}

// Close releases every file the guest opened.
func (m *InstrumentedState) Close() error {
	return m.files.Close()
}
