package script

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/amonks/assetpipe/internal/mutex"
	"github.com/amonks/assetpipe/internal/styles"
)

// Script is a wrapper around exec.Cmd, offering a focused API and robust
// cancelation.
type Script struct {
	Dir  string
	Env  map[string]string
	Text string
}

// New creates a new Script with the given working directory, environment, and
// text. Scripts do nothing until they are started, and can be started many
// times concurrently. If dir is the empty string, the script is run in the
// current working directory. Env is appended to the current environment.
// Script is evaluated in a new bash process. Effectively, it is equivalent to
//
//	$ cd $DIR && $ENV bash -c "$TEXT"
func New(dir string, env map[string]string, text string) Script {
	return Script{
		Dir:  dir,
		Env:  env,
		Text: text,
	}
}

// GracePeriod is how long a canceled script has to exit after SIGINT before
// it is sent SIGKILL.
var GracePeriod = 2 * time.Second

// Start executes the script, and does not return until the script is done
// executing. The returned error will be nil only if the process exits with
// status code 0 and is not interrupted by a context cancelation.
//
// Execution can be canceled with the provided context. When canceled, we first
// send SIGINT to the script's process group, then, if it doesn't exit within
// the grace period, SIGKILL. Start always returns an error if the context is
// canceled before the script is complete.
func (s Script) Start(ctx context.Context, stdout, stderr io.Writer) error {
	return (&execution{
		script: s,
		cmdMu:  mutex.New("script"),
		stdout: stdout,
		stderr: stderr,
	}).run(ctx)
}

type execution struct {
	script Script

	cmd   *exec.Cmd
	cmdMu *mutex.Mutex

	stdout io.Writer
	stderr io.Writer
}

func (x *execution) run(ctx context.Context) error {
	if err := x.startCmd(); err != nil {
		return err
	}
	defer x.cleanup()

	exit := x.wait()
	select {
	case err := <-exit:
		return err
	case <-ctx.Done():
		fmt.Fprintln(x.stderr, styles.Log.Render("canceled; stopping"))
	}

	errs := []error{ctx.Err()}

	if err := x.signal(syscall.SIGINT); err != nil {
		errs = append(errs, err)
	}

	select {
	case <-exit:
		return errors.Join(errs...)
	case <-time.After(GracePeriod):
	}

	if err := x.signal(syscall.SIGKILL); err != nil {
		errs = append(errs, err)
	}
	<-exit

	return errors.Join(errs...)
}

func (x *execution) startCmd() error {
	defer x.cmdMu.Lock("startCmd").Unlock()

	bash, err := exec.LookPath("bash")
	if err != nil {
		return fmt.Errorf("finding bash: %w", err)
	}

	env := os.Environ()
	keys := make([]string, 0, len(x.script.Env))
	for k := range x.script.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+x.script.Env[k])
	}

	x.cmd = exec.Command(bash, "-c", x.script.Text)
	x.cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	x.cmd.Dir = x.script.Dir
	x.cmd.Stdout = x.stdout
	x.cmd.Stderr = x.stderr
	x.cmd.Env = env

	return x.cmd.Start()
}

func (x *execution) wait() <-chan error {
	exit := make(chan error, 1)
	cmd := x.getCmd()
	go func() {
		err := cmd.Wait()
		var exitErr *exec.ExitError
		switch {
		case err == nil:
			exit <- nil
		case errors.As(err, &exitErr) && exitErr.ExitCode() > 0:
			exit <- fmt.Errorf("exit %d", exitErr.ExitCode())
		case strings.Contains(err.Error(), "signal: "):
			exit <- errors.New(strings.TrimPrefix(err.Error(), "signal: "))
		default:
			exit <- fmt.Errorf("wait err: %w", err)
		}
	}()
	return exit
}

func (x *execution) signal(sig syscall.Signal) error {
	defer x.cmdMu.Lock("signal").Unlock()

	if x.cmd == nil || x.cmd.Process == nil {
		return nil
	}
	if err := syscall.Kill(-x.cmd.Process.Pid, sig); err != nil && !errors.Is(err, syscall.ESRCH) {
		return fmt.Errorf("%s error: %w", strings.ToLower(sig.String()), err)
	}
	return nil
}

func (x *execution) cleanup() {
	defer x.cmdMu.Lock("cleanup").Unlock()
	x.cmd = nil
}

func (x *execution) getCmd() *exec.Cmd {
	defer x.cmdMu.Lock("getCmd").Unlock()
	return x.cmd
}
