package database

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dammyboss/postgresql-failover-connection-pool/pkg/rubric"
	"github.com/dammyboss/postgresql-failover-connection-pool/pkg/types"
)

// fakeExecutor records pod exec invocations and plays back canned output
type fakeExecutor struct {
	out string
	err error

	pod     string
	command []string
}

func (f *fakeExecutor) Run(args ...string) (string, error) {
	return f.out, f.err
}

func (f *fakeExecutor) ExecInPod(pod string, command ...string) (string, error) {
	f.pod = pod
	f.command = command
	return f.out, f.err
}

func testTarget() Target {
	return DefaultTarget("bleater")
}

func TestDefaultTarget(t *testing.T) {
	target := DefaultTarget("bleater")

	assert.Equal(t, "bleater-postgresql-0", target.Pod)
	assert.Equal(t, "bleater", target.User)
	assert.Equal(t, "bleater", target.Database)
	assert.Equal(t, "pgbouncer.bleater.svc.cluster.local", target.Host)
}

func TestAccessibilityCheckPasses(t *testing.T) {
	executor := &fakeExecutor{out: " ?column? \n----------\n        1\n(1 row)"}
	check := NewAccessibilityCheck(executor, testTarget())

	result, err := check.Run()
	require.NoError(t, err)
	assert.Equal(t, types.StatusPassed, result.Status)
	assert.Equal(t, rubric.CriterionDatabaseAccessible, result.Criterion)

	// The query must travel through the proxy service
	assert.Equal(t, "bleater-postgresql-0", executor.pod)
	assert.Contains(t, executor.command, "pgbouncer.bleater.svc.cluster.local")
	assert.Contains(t, executor.command, "SELECT 1;")
}

func TestAccessibilityCheckFailsOnExecError(t *testing.T) {
	executor := &fakeExecutor{err: fmt.Errorf("connection refused")}
	check := NewAccessibilityCheck(executor, testTarget())

	result, err := check.Run()
	require.NoError(t, err)
	assert.Equal(t, types.StatusFailed, result.Status)
	assert.Contains(t, result.Detail, "connection refused")
}

func TestAccessibilityCheckFailsOnUnexpectedOutput(t *testing.T) {
	executor := &fakeExecutor{out: "(0 rows)"}
	check := NewAccessibilityCheck(executor, testTarget())

	result, err := check.Run()
	require.NoError(t, err)
	assert.Equal(t, types.StatusFailed, result.Status)
}

func TestIntegrityCheckPasses(t *testing.T) {
	executor := &fakeExecutor{out: "     1\n"}
	check := NewIntegrityCheck(executor, testTarget(), rubric.Default().Thresholds)

	result, err := check.Run()
	require.NoError(t, err)
	assert.Equal(t, types.StatusPassed, result.Status)
	assert.Equal(t, rubric.CriterionDataIntegrity, result.Criterion)

	assert.Contains(t, executor.command, "SELECT COUNT(*) FROM bleats WHERE id=99999;")
	assert.Contains(t, executor.command, "-t")
}

func TestIntegrityCheckFailsOnWrongCount(t *testing.T) {
	executor := &fakeExecutor{out: "0"}
	check := NewIntegrityCheck(executor, testTarget(), rubric.Default().Thresholds)

	result, err := check.Run()
	require.NoError(t, err)
	assert.Equal(t, types.StatusFailed, result.Status)
	assert.Contains(t, result.Message, "expected 1")
}

func TestIntegrityCheckRejectsLooseMatch(t *testing.T) {
	// A count of 11 contains the digit 1 but is still the wrong answer
	executor := &fakeExecutor{out: "11"}
	check := NewIntegrityCheck(executor, testTarget(), rubric.Default().Thresholds)

	result, err := check.Run()
	require.NoError(t, err)
	assert.Equal(t, types.StatusFailed, result.Status)
}

func TestIntegrityCheckFailsOnGarbageOutput(t *testing.T) {
	executor := &fakeExecutor{out: "ERROR: relation \"bleats\" does not exist"}
	check := NewIntegrityCheck(executor, testTarget(), rubric.Default().Thresholds)

	result, err := check.Run()
	require.NoError(t, err)
	assert.Equal(t, types.StatusFailed, result.Status)
}

func TestIntegrityCheckFailsOnExecError(t *testing.T) {
	executor := &fakeExecutor{err: fmt.Errorf("pod not found")}
	check := NewIntegrityCheck(executor, testTarget(), rubric.Default().Thresholds)

	result, err := check.Run()
	require.NoError(t, err)
	assert.Equal(t, types.StatusFailed, result.Status)
}

func TestDirectChecksCarryConfiguredTimeout(t *testing.T) {
	accessibility := NewDirectAccessibilityCheck("postgres://x", 5*time.Second)
	assert.Equal(t, 5*time.Second, accessibility.timeout)

	integrity := NewDirectIntegrityCheck("postgres://x", 5*time.Second, rubric.Default().Thresholds)
	assert.Equal(t, 5*time.Second, integrity.timeout)
}

func TestDirectChecksDefaultTimeout(t *testing.T) {
	accessibility := NewDirectAccessibilityCheck("postgres://x", 0)
	assert.Equal(t, DefaultProbeTimeout, accessibility.timeout)

	integrity := NewDirectIntegrityCheck("postgres://x", 0, rubric.Default().Thresholds)
	assert.Equal(t, DefaultProbeTimeout, integrity.timeout)
}
