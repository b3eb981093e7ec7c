package gpio

import (
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// Edge selects which level transitions wake up an edge wait.
type Edge string

// Edge trigger modes understood by the sysfs GPIO interface.
const (
	EdgeNone    Edge = "none"
	EdgeRising  Edge = "rising"
	EdgeFalling Edge = "falling"
	EdgeBoth    Edge = "both"
)

const (
	baseDir      = "/sys/class/gpio"
	exportFile   = baseDir + "/export"
	unexportFile = baseDir + "/unexport"
)

// exportTimeout bounds the wait for udev to adjust permissions on a freshly
// exported pin. Without it a non-root process races udev and loses.
const exportTimeout = 2 * time.Second

var (
	// errUnknownLevel is returned when the value file holds neither '0' nor '1'.
	errUnknownLevel = errors.New("unknown pin level")
	// errUnknownEdge is returned for an unrecognized edge trigger.
	errUnknownEdge = errors.New("unknown edge trigger")
)

// Pin is a single exported sysfs GPIO input.
type Pin struct {
	// number is the kernel GPIO number.
	number int
	// value is the open sysfs value file.
	value *os.File
	// buf is the reusable one-byte read buffer.
	buf []byte
	// pollfd is the reusable poll descriptor for edge waits.
	pollfd []unix.PollFd
}

// Open exports the GPIO, configures it as an input and opens its value file.
func Open(number int) (*Pin, error) {
	if err := export(number); err != nil {
		return nil, fmt.Errorf("export gpio%d: %w", number, err)
	}

	if err := writeAttr(number, "direction", "in"); err != nil {
		_ = unexport(number)

		return nil, fmt.Errorf("gpio%d direction: %w", number, err)
	}

	value, err := os.OpenFile(attrPath(number, "value"), os.O_RDONLY, 0)
	if err != nil {
		_ = unexport(number)

		return nil, fmt.Errorf("gpio%d value: %w", number, err)
	}

	return &Pin{
		number: number,
		value:  value,
		buf:    make([]byte, 1),
		pollfd: []unix.PollFd{{
			Fd:     int32(value.Fd()),
			Events: unix.POLLPRI | unix.POLLERR,
		}},
	}, nil
}

// Number returns the kernel GPIO number.
func (p *Pin) Number() int {
	return p.number
}

// SetEdge configures which transitions generate poll wakeups on the value file.
func (p *Pin) SetEdge(e Edge) error {
	switch e {
	case EdgeNone, EdgeRising, EdgeFalling, EdgeBoth:
	default:
		return fmt.Errorf("gpio%d: %q: %w", p.number, e, errUnknownEdge)
	}

	if err := writeAttr(p.number, "edge", string(e)); err != nil {
		return fmt.Errorf("gpio%d edge: %w", p.number, err)
	}

	return nil
}

// Read returns the current level of the pin, true for high.
func (p *Pin) Read() (bool, error) {
	if _, err := p.value.ReadAt(p.buf, 0); err != nil {
		return false, fmt.Errorf("gpio%d read: %w", p.number, err)
	}

	switch p.buf[0] {
	case '0':
		return false, nil
	case '1':
		return true, nil
	default:
		return false, fmt.Errorf("gpio%d: %q: %w", p.number, p.buf[0], errUnknownLevel)
	}
}

// Wait blocks until an edge fires or the timeout elapses, then reads the
// level. The second return reports whether an edge actually fired.
func (p *Pin) Wait(timeout time.Duration) (level, fired bool, err error) {
	p.pollfd[0].Revents = 0

	n, err := unix.Poll(p.pollfd, int(timeout.Milliseconds()))
	if err != nil {
		// Poll is routinely interrupted by signals; that is not a failure.
		if errors.Is(err, unix.EINTR) {
			return false, false, nil
		}

		return false, false, fmt.Errorf("gpio%d poll: %w", p.number, err)
	}

	if n == 0 {
		return false, false, nil
	}

	level, err = p.Read()
	if err != nil {
		return false, false, err
	}

	return level, true, nil
}

// Close releases the value file and unexports the pin.
func (p *Pin) Close() error {
	if err := p.value.Close(); err != nil {
		_ = unexport(p.number)

		return fmt.Errorf("gpio%d close: %w", p.number, err)
	}

	return unexport(p.number)
}

// attrPath builds the sysfs path of one pin attribute file.
func attrPath(number int, attr string) string {
	return fmt.Sprintf("%s/gpio%d/%s", baseDir, number, attr)
}

// writeAttr writes a value into one pin attribute file.
func writeAttr(number int, attr, value string) error {
	f, err := os.OpenFile(attrPath(number, attr), os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.WriteString(value)

	return err
}

// export makes the pin visible under sysfs and waits for its value file to
// become accessible. Exporting an already exported pin is a no-op.
func export(number int) error {
	value := attrPath(number, "value")
	if unix.Access(value, unix.R_OK) == nil {
		return nil
	}

	f, err := os.OpenFile(exportFile, os.O_WRONLY, 0)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(f, "%d", number)
	_ = f.Close()

	if err != nil {
		return err
	}

	return waitAccessible(value)
}

// unexport removes the pin from sysfs.
func unexport(number int) error {
	f, err := os.OpenFile(unexportFile, os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = fmt.Fprintf(f, "%d", number)

	return err
}

// waitAccessible polls until the file is readable or the export timeout expires.
func waitAccessible(path string) error {
	const step = time.Millisecond

	for waited := time.Duration(0); waited < exportTimeout; waited += step {
		if unix.Access(path, unix.R_OK) == nil {
			return nil
		}

		time.Sleep(step)
	}

	return fmt.Errorf("%s: not accessible after export", path)
}
