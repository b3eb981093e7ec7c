package knob

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-ps"
)

// ErrAlreadyRunning indicates another daemon instance owns the pins.
var ErrAlreadyRunning = errors.New("another volume-knob instance is already running")

// ensureSingleInstance refuses to start while another instance of this
// executable is running: two readers of the same GPIO value files would steal
// each other's edges and desynchronize the decoder.
func ensureSingleInstance() error {
	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}

	name := filepath.Base(executable)
	self := os.Getpid()

	processes, err := ps.Processes()
	if err != nil {
		return fmt.Errorf("list processes: %w", err)
	}

	for _, process := range processes {
		if process.Pid() == self {
			continue
		}

		if process.Executable() == name {
			return fmt.Errorf("%w (pid %d)", ErrAlreadyRunning, process.Pid())
		}
	}

	return nil
}
