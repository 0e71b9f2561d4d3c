package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iota-uz/slatrack/modules/recruitment/domain/sla"
)

func TestLoadConfigService(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stages.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
stages:
  - stepName: PRECALL
    plannedMinutes: 30
    enabled: true
  - stepName: PROBATION
    plannedMinutes: 259200
    enabled: false
`), 0o644))

	svc, err := LoadConfigService(path)
	require.NoError(t, err)

	precall, ok := svc.Stage("PRECALL")
	require.True(t, ok)
	require.Equal(t, 30, precall.PlannedMinutes)
	require.True(t, precall.Enabled)

	probation, ok := svc.Stage("PROBATION")
	require.True(t, ok)
	require.False(t, probation.Enabled)

	_, ok = svc.Stage("OFFER")
	require.False(t, ok)

	all := svc.All()
	require.Len(t, all, 2)
	require.Equal(t, "PRECALL", all[0].StepName)
}

func TestLoadConfigService_MissingFile(t *testing.T) {
	_, err := LoadConfigService(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestNewConfigService_LastDuplicateWins(t *testing.T) {
	svc := NewConfigService([]sla.StageConfig{
		{StepName: "PRECALL", PlannedMinutes: 30, Enabled: true},
		{StepName: "PRECALL", PlannedMinutes: 45, Enabled: true},
	})
	cfg, ok := svc.Stage("PRECALL")
	require.True(t, ok)
	require.Equal(t, 45, cfg.PlannedMinutes)
	require.Len(t, svc.All(), 1)
}
