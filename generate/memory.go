package generate

import (
	"os"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/teranos/cxxbind/errors"
)

// memoryProbe reads the resident set size of this process
type memoryProbe struct {
	proc *process.Process
}

func newMemoryProbe() (*memoryProbe, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, errors.Wrap(err, "failed to open own process")
	}
	return &memoryProbe{proc: p}, nil
}

// residentMB returns the current RSS in MiB
func (m *memoryProbe) residentMB() (float64, error) {
	info, err := m.proc.MemoryInfo()
	if err != nil {
		return 0, errors.Wrap(err, "failed to get memory info")
	}
	return float64(info.RSS) / (1 << 20), nil
}
