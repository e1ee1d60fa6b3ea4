package cluster

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds a single kubectl invocation
const DefaultTimeout = 20 * time.Second

// ExecTimeout bounds a command executed inside a pod
const ExecTimeout = 15 * time.Second

// CommandError represents a command execution error with detailed information
type CommandError struct {
	Command string
	Args    []string
	Err     error
	Stderr  string
}

// Error returns the formatted error message
func (ce *CommandError) Error() string {
	return fmt.Sprintf("command '%s %s' failed: %v\nstderr: %s",
		ce.Command, strings.Join(ce.Args, " "), ce.Err, ce.Stderr)
}

// Unwrap exposes the underlying execution error
func (ce *CommandError) Unwrap() error {
	return ce.Err
}

// Executor abstracts the cluster-control CLI so checks can be tested
// against a fake
type Executor interface {
	// Run invokes the CLI against the configured namespace
	Run(args ...string) (string, error)

	// ExecInPod runs a command inside a running pod
	ExecInPod(pod string, command ...string) (string, error)
}

// Kubectl invokes the kubectl CLI scoped to a single namespace
type Kubectl struct {
	// Namespace every invocation is scoped to
	Namespace string

	// Timeout bounds a single invocation
	Timeout time.Duration

	// ExecTimeout bounds commands run inside a pod
	ExecTimeout time.Duration
}

// NewKubectl creates a namespace-scoped kubectl wrapper with default timeouts
func NewKubectl(namespace string) *Kubectl {
	return &Kubectl{
		Namespace:   namespace,
		Timeout:     DefaultTimeout,
		ExecTimeout: ExecTimeout,
	}
}

// Run executes a kubectl command against the configured namespace and
// returns its trimmed stdout
func (k *Kubectl) Run(args ...string) (string, error) {
	return k.run(k.Timeout, args...)
}

// ExecInPod runs a command inside a pod via kubectl exec, bounded by the
// exec timeout
func (k *Kubectl) ExecInPod(pod string, command ...string) (string, error) {
	args := append([]string{"exec", pod, "--"}, command...)
	return k.run(k.ExecTimeout, args...)
}

// run executes kubectl with the namespace flag prepended and the given timeout
func (k *Kubectl) run(timeout time.Duration, args ...string) (string, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	fullArgs := append([]string{"-n", k.Namespace}, args...)
	cmd := exec.CommandContext(ctx, "kubectl", fullArgs...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	if ctx.Err() == context.DeadlineExceeded {
		return "", fmt.Errorf("kubectl timed out after %s", timeout)
	}

	if err != nil {
		return "", &CommandError{
			Command: "kubectl",
			Args:    fullArgs,
			Err:     err,
			Stderr:  stderr.String(),
		}
	}

	return strings.TrimSpace(stdout.String()), nil
}

// configMapManifest is the slice of a ConfigMap manifest the grader reads
type configMapManifest struct {
	Data map[string]string `json:"data"`
}

// ConfigMapKey fetches a ConfigMap as JSON and extracts one data field.
// A missing key is an error; the caller decides how it grades.
func (k *Kubectl) ConfigMapKey(name, key string) (string, error) {
	out, err := k.Run("get", "configmap", name, "-o", "json")
	if err != nil {
		return "", fmt.Errorf("failed to get configmap %s: %w", name, err)
	}

	var cm configMapManifest
	if err := json.Unmarshal([]byte(out), &cm); err != nil {
		return "", fmt.Errorf("failed to parse configmap %s: %w", name, err)
	}

	value, ok := cm.Data[key]
	if !ok {
		return "", fmt.Errorf("configmap %s has no %q key", name, key)
	}

	return value, nil
}

// IsKubectlAvailable checks if the 'kubectl' command is available
func IsKubectlAvailable() bool {
	_, err := exec.LookPath("kubectl")
	return err == nil
}
