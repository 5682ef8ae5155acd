package launcher

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/wagiedev/mcp-harness-go/internal/errors"
)

// Resolver locates executables for harness sessions.
type Resolver struct {
	log *slog.Logger
}

// NewResolver creates a resolver. A nil logger discards output.
func NewResolver(log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	return &Resolver{log: log.With("component", "launcher")}
}

// Resolve returns the path to run for executable.
//
// Returns LaunchError when the executable is empty, missing, a directory or
// lacks execute permission.
func (r *Resolver) Resolve(executable string) (string, error) {
	if strings.TrimSpace(executable) == "" {
		return "", &errors.LaunchError{Executable: executable, Err: fmt.Errorf("empty executable")}
	}

	if !strings.ContainsRune(executable, filepath.Separator) && !strings.ContainsRune(executable, '/') {
		r.log.Debug("Searching PATH for executable", "executable", executable)

		path, err := exec.LookPath(executable)
		if err != nil {
			r.log.Debug("Executable not found in PATH", "executable", executable, "error", err)

			return "", &errors.LaunchError{
				Executable:    executable,
				SearchedPaths: []string{"$PATH"},
				Err:           err,
			}
		}

		r.log.Debug("Found executable in PATH", "path", path)

		return path, nil
	}

	r.log.Debug("Using explicit executable path", "path", executable)

	info, err := os.Stat(executable)
	if err != nil {
		return "", &errors.LaunchError{
			Executable:    executable,
			SearchedPaths: []string{executable},
			Err:           err,
		}
	}

	if info.IsDir() {
		return "", &errors.LaunchError{Executable: executable, Err: fmt.Errorf("is a directory")}
	}

	if !isExecutable(info.Mode()) {
		return "", &errors.LaunchError{Executable: executable, Err: fs.ErrPermission}
	}

	return executable, nil
}

func isExecutable(mode fs.FileMode) bool {
	if runtime.GOOS == "windows" {
		return mode.IsRegular()
	}

	return mode.IsRegular() && mode.Perm()&0o111 != 0
}
