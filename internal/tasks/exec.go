package tasks

import (
	"bytes"
	"context"
	"errors"
	"os/exec"

	crunchizeerrors "github.com/hristovelev/crunchize/internal/errors"
)

// runTool invokes an external command, capturing stdout and stderr
// separately (tools like oiiotool and ocioconvert report progress on
// stdout and errors on stderr). A missing executable and a nonzero exit
// are both reported as CrunchizeError operation errors.
func runTool(ctx context.Context, name string, args ...string) (stdout, stderr string, err error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	runErr := cmd.Run()
	stdout, stderr = outBuf.String(), errBuf.String()

	if runErr == nil {
		return stdout, stderr, nil
	}

	var execErr *exec.Error
	if errors.As(runErr, &execErr) {
		return stdout, stderr, crunchizeerrors.ErrToolNotFound(name)
	}

	ce := crunchizeerrors.ErrToolFailed(name, runErr)
	ce.Why = stderr
	return stdout, stderr, ce
}
