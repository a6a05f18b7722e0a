package build

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kurtosis-tech/stacktrace"
	"github.com/rkb-chain/rkb-devnet/internal/runner"
	"github.com/sirupsen/logrus"
)

const (
	stateFileMode = 0644
	stateDirMode  = 0755
)

type Outcome string

const (
	// The watched paths were unchanged since the last successful run
	OutcomeSkipped   Outcome = "skipped"
	OutcomeSucceeded Outcome = "succeeded"
)

type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) (*runner.Result, error)
}

// Task builds the execution-layer node binary, gated on a content fingerprint
// of the watched source paths so a re-run of the bootstrap doesn't rebuild an
// unchanged tree.
type Task struct {
	command       []string
	watchedPaths  []string
	stateFilepath string
	runner        commandRunner
}

func NewTask(command []string, watchedPaths []string, stateFilepath string, cmdRunner commandRunner) *Task {
	return &Task{
		command:       command,
		watchedPaths:  watchedPaths,
		stateFilepath: stateFilepath,
		runner:        cmdRunner,
	}
}

// RunIfChanged executes the build command when the fingerprint of the watched
// paths differs from the one recorded after the last successful run. A failed
// build is fatal: the node container can't start without its binary.
func (task *Task) RunIfChanged(ctx context.Context) (Outcome, error) {
	if len(task.command) == 0 {
		return "", stacktrace.NewError("A build task requires a non-empty command")
	}

	fingerprint, err := Fingerprint(task.watchedPaths)
	if err != nil {
		return "", stacktrace.Propagate(err, "An error occurred fingerprinting the watched paths %v", task.watchedPaths)
	}

	lastFingerprint := task.readLastFingerprint()
	if fingerprint == lastFingerprint {
		logrus.Infof("Watched paths are unchanged since the last build; skipping '%v'", strings.Join(task.command, " "))
		return OutcomeSkipped, nil
	}

	logrus.Infof("Building: %v", strings.Join(task.command, " "))
	result, err := task.runner.Run(ctx, task.command[0], task.command[1:]...)
	if err != nil {
		return "", stacktrace.Propagate(err, "An error occurred running build command '%v'", strings.Join(task.command, " "))
	}
	if !result.Success() {
		return "", stacktrace.NewError(
			"Build command '%v' exited with code %v; stderr:\n%v",
			strings.Join(task.command, " "),
			result.ExitCode,
			result.Stderr,
		)
	}

	if err := task.writeLastFingerprint(fingerprint); err != nil {
		return "", stacktrace.Propagate(err, "An error occurred recording the build fingerprint")
	}
	return OutcomeSucceeded, nil
}

func (task *Task) readLastFingerprint() string {
	contents, err := os.ReadFile(task.stateFilepath)
	if err != nil {
		// Missing or unreadable state means "never built"
		return ""
	}
	return strings.TrimSpace(string(contents))
}

func (task *Task) writeLastFingerprint(fingerprint string) error {
	if err := os.MkdirAll(filepath.Dir(task.stateFilepath), stateDirMode); err != nil {
		return stacktrace.Propagate(err, "An error occurred creating the state directory for '%v'", task.stateFilepath)
	}
	if err := os.WriteFile(task.stateFilepath, []byte(fingerprint+"\n"), stateFileMode); err != nil {
		return stacktrace.Propagate(err, "An error occurred writing fingerprint file '%v'", task.stateFilepath)
	}
	return nil
}

// Fingerprint hashes the contents of all regular files under the given paths,
// prefixed with their slash-separated relative path so renames change the
// result. Files are visited in sorted order to keep the hash deterministic.
// Paths that don't exist are skipped rather than failing, so a manifest can
// watch optional files like an override config.
func Fingerprint(watchedPaths []string) (string, error) {
	files := []string{}
	for _, watchedPath := range watchedPaths {
		info, err := os.Stat(watchedPath)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return "", stacktrace.Propagate(err, "An error occurred stat-ing watched path '%v'", watchedPath)
		}
		if !info.IsDir() {
			files = append(files, watchedPath)
			continue
		}
		err = filepath.WalkDir(watchedPath, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if entry.Type().IsRegular() {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return "", stacktrace.Propagate(err, "An error occurred walking watched path '%v'", watchedPath)
		}
	}
	sort.Strings(files)

	hasher := sha256.New()
	for _, file := range files {
		hasher.Write([]byte(filepath.ToSlash(file)))
		hasher.Write([]byte{0})
		fp, err := os.Open(file)
		if err != nil {
			return "", stacktrace.Propagate(err, "An error occurred opening watched file '%v'", file)
		}
		_, err = io.Copy(hasher, fp)
		fp.Close()
		if err != nil {
			return "", stacktrace.Propagate(err, "An error occurred hashing watched file '%v'", file)
		}
		hasher.Write([]byte{0})
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
