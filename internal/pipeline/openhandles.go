package pipeline

import (
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"path/filepath"
	"strings"
)

// CommandRunner abstracts process invocation so open-handle detection is
// testable without shelling out to the real lsof binary.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// execRunner shells out via os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.Output()
}

// NewExecRunner returns a CommandRunner backed by the real OS process.
func NewExecRunner() CommandRunner { return execRunner{} }

// OpenFileHandles returns the set of paths under folder currently held
// open by any process, using `lsof +D <folder>`. Failure to invoke the
// tool (missing binary, permission error, non-Unix platform) yields an
// empty set: fail-open, since blocking every lock on a diagnostic tool
// being present would hurt usability more than it protects data.
func OpenFileHandles(ctx context.Context, runner CommandRunner, folder string) (map[string]bool, error) {
	out, err := runner.Run(ctx, "lsof", "+D", folder)
	if err != nil {
		return map[string]bool{}, nil
	}
	return parseLsofOutput(out, folder), nil
}

// parseLsofOutput extracts the NAME column of `lsof +D` output, keeping
// only entries that fall under folder.
func parseLsofOutput(out []byte, folder string) map[string]bool {
	result := make(map[string]bool)
	scanner := bufio.NewScanner(bytes.NewReader(out))

	var nameCol int = -1
	first := true
	for scanner.Scan() {
		line := scanner.Text()
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if first {
			first = false
			for i, h := range fields {
				if strings.EqualFold(h, "NAME") {
					nameCol = i
				}
			}
			continue
		}
		if nameCol < 0 || nameCol >= len(fields) {
			continue
		}
		name := strings.Join(fields[nameCol:], " ")
		abs, err := filepath.Abs(name)
		if err != nil {
			continue
		}
		rel, err := filepath.Rel(folder, abs)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		result[abs] = true
	}
	return result
}
