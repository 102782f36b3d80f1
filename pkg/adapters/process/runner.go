package process

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/aretw0/nodechain/pkg/registry"
)

// ErrNoResult is returned when the subprocess printed no result line.
var ErrNoResult = errors.New("bridge process produced no result line")

// Client calls dispatch functions in another process by running
// `<binary> [args...] exec <module> <function> <args...>` and reading the result line.
type Client struct {
	cfg BridgeConfig
}

// NewClient creates a bridge client.
func NewClient(cfg BridgeConfig) *Client {
	if cfg.Binary == "" {
		cfg.Binary = DefaultBinary
	}
	return &Client{cfg: cfg}
}

// Config returns the client configuration.
func (c *Client) Config() BridgeConfig {
	return c.cfg
}

// Command builds the command line for a call.
func (c *Client) Command(module, function string, args []string) []string {
	argv := make([]string, 0, len(c.cfg.Args)+3+len(args))
	argv = append(argv, c.cfg.Args...)
	argv = append(argv, "exec", module, function)
	argv = append(argv, args...)
	return argv
}

// Call runs one function in the bridge process.
//
// A result line is returned as is, even if the process exited with a failure status,
// since failing functions report through the envelope. An error is returned only when
// no result could be read.
func (c *Client) Call(ctx context.Context, module, function string, args ...string) (registry.Result, error) {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	bin, err := exec.LookPath(c.cfg.Binary)
	if err != nil {
		return registry.Result{}, fmt.Errorf("bridge binary %q: %w", c.cfg.Binary, err)
	}

	cmd := exec.CommandContext(ctx, bin, c.Command(module, function, args)...)
	cmd.Dir = c.cfg.Dir
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = c.cfg.Grace

	env := cmd.Environ()
	for k, v := range c.cfg.Environment {
		env = append(env, k+"="+v)
	}
	cmd.Env = env

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	if line := lastLine(stdout.Bytes()); line != nil {
		if res, err := registry.ParseResult(line); err == nil {
			return res, nil
		}
	}

	if ctx.Err() != nil {
		return registry.Result{}, fmt.Errorf("%s.%s: %w", module, function, ctx.Err())
	}
	if runErr != nil {
		return registry.Result{}, fmt.Errorf("%s.%s failed: %w. Stderr: %s",
			module, function, runErr, strings.TrimSpace(stderr.String()))
	}
	return registry.Result{}, fmt.Errorf("%s.%s: %w", module, function, ErrNoResult)
}

// lastLine returns the last non-empty line of out. Earlier lines may carry stray prints
// from the host application.
func lastLine(out []byte) []byte {
	var last []byte
	sc := bufio.NewScanner(bytes.NewReader(out))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		if line := bytes.TrimSpace(sc.Bytes()); len(line) > 0 {
			last = bytes.Clone(line)
		}
	}
	return last
}
