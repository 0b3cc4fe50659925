package shutdown

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"parley/pkg/logger"
	"parley/pkg/state"
)

type exitRequest struct {
	Time      string `json:"time"`
	Reason    string `json:"reason"`
	CrashPath string `json:"crash_path,omitempty"`
}

// Abort logs a fatal condition, writes diagnostics and exits. The delay
// gives log sinks time to flush.
func Abort(contextMsg string, err error) {
	logger.Error("startup_fatal", "msg", contextMsg, "error", err)
	dumpPath, reqPath, derr := writeDiagnostics(contextMsg, err)
	if derr != nil {
		logger.Error("abort_diagnostics_failed", "error", derr)
		fmt.Fprintf(os.Stderr, "FAILED TO WRITE CRASH DUMP: %v\n", derr)
	} else {
		logger.Info("wrote_crash_dump", "path", dumpPath, "request", reqPath)
	}
	time.Sleep(2 * time.Second)
	os.Exit(2)
}

// writeDiagnostics writes a crash dump (goroutine stacks plus the reason)
// and a machine-readable abort request referencing it.
func writeDiagnostics(reason string, cause error) (string, string, error) {
	crashDir := state.PathsVar.Crash
	abortDir := state.PathsVar.Abort
	if crashDir == "" {
		crashDir = "./crash"
		abortDir = "./abort"
	}
	if e := os.MkdirAll(crashDir, 0o700); e != nil {
		return "", "", fmt.Errorf("failed to create crash dir: %w", e)
	}
	if e := os.MkdirAll(abortDir, 0o700); e != nil {
		return "", "", fmt.Errorf("failed to create abort dir: %w", e)
	}

	ts := time.Now().UnixNano()
	dumpPath := filepath.Join(crashDir, fmt.Sprintf("crash-%d.log", ts))

	buf := make([]byte, 1<<20)
	n := runtime.Stack(buf, true)
	body := fmt.Sprintf("reason: %s\nerror: %v\n\n%s", reason, cause, buf[:n])
	if err := os.WriteFile(dumpPath, []byte(body), 0o600); err != nil {
		return "", "", fmt.Errorf("failed to write crash dump: %w", err)
	}

	req := exitRequest{
		Time:      time.Now().UTC().Format(time.RFC3339Nano),
		Reason:    reason,
		CrashPath: dumpPath,
	}
	reqPath := filepath.Join(abortDir, fmt.Sprintf("abort-%d.json", ts))
	b, _ := json.Marshal(req)
	if err := os.WriteFile(reqPath, b, 0o600); err != nil {
		return dumpPath, "", fmt.Errorf("failed to write abort request: %w", err)
	}
	return dumpPath, reqPath, nil
}
