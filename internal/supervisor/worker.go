package supervisor

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
)

// EnvWorkerID marks a process as a pool worker and carries its slot number.
const EnvWorkerID = "CV_AGENT_WORKER_ID"

// listenerFD is the descriptor number the inherited listener arrives on:
// the first entry of ExtraFiles, after stdin/stdout/stderr.
const listenerFD = 3

// WorkerEnv returns env extended with the worker id, replacing any previous
// value.
func WorkerEnv(env []string, id int) []string {
	result := make([]string, 0, len(env)+1)
	for _, entry := range env {
		if strings.HasPrefix(entry, EnvWorkerID+"=") {
			continue
		}
		result = append(result, entry)
	}

	return append(result, fmt.Sprintf("%s=%d", EnvWorkerID, id))
}

// WorkerID reports the worker slot number, or 0 when the process was not
// started by a supervisor.
func WorkerID() int {
	id, err := strconv.Atoi(os.Getenv(EnvWorkerID))
	if err != nil || id < 1 {
		return 0
	}
	return id
}

// InheritedListener recovers the TCP listener passed down by the supervisor.
func InheritedListener() (net.Listener, error) {
	file := os.NewFile(listenerFD, "listener")
	if file == nil {
		return nil, fmt.Errorf("no inherited listener on fd %d", listenerFD)
	}
	defer file.Close()

	ln, err := net.FileListener(file)
	if err != nil {
		return nil, fmt.Errorf("recover inherited listener: %w", err)
	}

	return ln, nil
}
