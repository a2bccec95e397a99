package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/gait_stabilizer/internal/config"
	"github.com/relabs-tech/gait_stabilizer/internal/gait"
	"github.com/relabs-tech/gait_stabilizer/internal/joint"
)

const simConfig = `
PWM_BACKEND=sim
SIM_PITCH_BIAS=6
SIM_NOISE=0
MQTT_BROKER=
SETTLE_DELAY_MS=0
DWELL_MS=0
SAMPLE_INTERVAL_MS=0
ITERATIONS=3
`

// The global config can be set once per test binary, so every tool that
// reads it is exercised here.
func TestToolsOnSimulatedRig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stabilizer_config.txt")
	require.NoError(t, os.WriteFile(path, []byte(simConfig), 0o644))
	require.NoError(t, config.InitGlobal(path))
	require.Equal(t, "sim", config.Get().PWMBackend)

	t.Run("tuner saves best pattern", func(t *testing.T) {
		out := filepath.Join(dir, "best.yaml")
		require.NoError(t, RunTuner(context.Background(), out))

		p, err := gait.LoadPattern(out)
		require.NoError(t, err)
		require.NoError(t, p.Validate())
		assert.Len(t, p.Phases, 4)
		// the sim leans forward, so the hips come back
		assert.Less(t, p.Phases[0].Angles[joint.HipLeft], 95.0)
	})

	t.Run("tuner stops on cancel", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.NoError(t, RunTuner(ctx, ""))
	})

	t.Run("pose applies and saves", func(t *testing.T) {
		out := filepath.Join(dir, "pose.yaml")
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		require.NoError(t, RunPose(ctx, "", out, []string{"hip_left=80"}))

		pose, err := gait.LoadPose(out)
		require.NoError(t, err)
		assert.Equal(t, 80.0, pose[joint.HipLeft])
		assert.Equal(t, 120.0, pose[joint.KneeLeft])
	})

	t.Run("pose rejects bad override", func(t *testing.T) {
		assert.Error(t, RunPose(context.Background(), "", "", []string{"tail=3"}))
	})

	t.Run("release", func(t *testing.T) {
		assert.NoError(t, RunRelease())
	})

	t.Run("orientation until timeout", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		assert.NoError(t, RunOrientation(ctx, 10*time.Millisecond, true))
	})
}
