// Copyright 2025 ragforge authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragforge/ragengine/pkg/docstore"
)

// stubValidate bypasses the real network-backed testConnection calls so
// Coordinator's create/update/activate logic can be exercised without
// live provider credentials. Restored via the returned func.
func stubValidate(t *testing.T) {
	t.Helper()
	original := validateFn
	validateFn = func(ctx context.Context, cfg Configuration) (providers, error) {
		return providers{}, nil
	}
	t.Cleanup(func() { validateFn = original })
}

func newTestCoordinator(t *testing.T) *Coordinator {
	t.Helper()
	return New("", docstore.NewMemoryRegistry(), nil, nil)
}

func TestCreate_AssignsIDAndPersists(t *testing.T) {
	stubValidate(t)
	c := newTestCoordinator(t)

	cfg, err := c.Create(context.Background(), Configuration{Owner: "alice"})
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.ID)

	got, err := c.Get(cfg.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Owner)
}

func TestCreate_ActiveDeactivatesOthers(t *testing.T) {
	stubValidate(t)
	c := newTestCoordinator(t)
	ctx := context.Background()

	first, err := c.Create(ctx, Configuration{Owner: "alice", Active: true})
	require.NoError(t, err)

	_, err = c.Create(ctx, Configuration{Owner: "alice", Active: true})
	require.NoError(t, err)

	reloaded, err := c.Get(first.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.Active)
}

func TestActivate_SwitchesActiveConfiguration(t *testing.T) {
	stubValidate(t)
	c := newTestCoordinator(t)
	ctx := context.Background()

	a, err := c.Create(ctx, Configuration{Owner: "alice", Active: true})
	require.NoError(t, err)
	b, err := c.Create(ctx, Configuration{Owner: "alice"})
	require.NoError(t, err)

	_, err = c.Activate(ctx, b.ID, "alice")
	require.NoError(t, err)

	reloadedA, err := c.Get(a.ID)
	require.NoError(t, err)
	reloadedB, err := c.Get(b.ID)
	require.NoError(t, err)
	assert.False(t, reloadedA.Active)
	assert.True(t, reloadedB.Active)
}

func TestActivate_WrongOwnerFails(t *testing.T) {
	stubValidate(t)
	c := newTestCoordinator(t)
	ctx := context.Background()

	a, err := c.Create(ctx, Configuration{Owner: "alice"})
	require.NoError(t, err)

	_, err = c.Activate(ctx, a.ID, "bob")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdate_SkipsRevalidationWhenProvidersUntouched(t *testing.T) {
	c := newTestCoordinator(t)
	ctx := context.Background()

	stubValidate(t)
	cfg, err := c.Create(ctx, Configuration{Owner: "alice", Name: "first"})
	require.NoError(t, err)

	// validateFn now points at the real network-backed validate; an update
	// that only touches Name must not call it.
	validateFn = validate

	newName := "renamed"
	updated, err := c.Update(ctx, cfg.ID, Patch{Name: &newName})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Name)
}

func TestGetActivePipeline_NoConfigurationFails(t *testing.T) {
	c := newTestCoordinator(t)
	_, err := c.GetActivePipeline("nobody")
	assert.Error(t, err)
}

func TestSystemStatus_NoActiveConfigurationReportsFalse(t *testing.T) {
	c := newTestCoordinator(t)
	status, err := c.SystemStatus(context.Background(), "nobody")
	require.NoError(t, err)
	assert.False(t, status.HasActiveConfig)
	assert.Equal(t, 0, status.DocumentCount)
}

func TestBootstrap_NoAPIKeyIsNoop(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	c := newTestCoordinator(t)
	_, created, err := c.Bootstrap(context.Background(), "alice")
	require.NoError(t, err)
	assert.False(t, created)
}

func TestBootstrap_ExistingConfigurationIsNoop(t *testing.T) {
	stubValidate(t)
	c := newTestCoordinator(t)
	ctx := context.Background()
	_, err := c.Create(ctx, Configuration{Owner: "alice"})
	require.NoError(t, err)

	t.Setenv("OPENAI_API_KEY", "sk-test")
	_, created, err := c.Bootstrap(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, created)
}

func TestStore_PersistsAndReloadsFromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "configurations.yaml")

	s := newStore(path)
	require.NoError(t, s.put(Configuration{ID: "cfg-1", Owner: "alice", Name: "one"}))

	reloaded := newStore(path)
	reloaded.load()
	got, ok := reloaded.get("cfg-1")
	require.True(t, ok)
	assert.Equal(t, "one", got.Name)
}

func TestStore_MissingFileStartsEmpty(t *testing.T) {
	s := newStore(filepath.Join(t.TempDir(), "missing.yaml"))
	s.load()
	assert.Empty(t, s.list(""))
}

func TestStore_CorruptFileStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "configurations.yaml")
	require.NoError(t, os.WriteFile(path, []byte("not: [valid yaml"), 0o644))

	s := newStore(path)
	s.load()
	assert.Empty(t, s.list(""))
}

func TestPatch_AppliesOnlySetFields(t *testing.T) {
	original := Configuration{Owner: "alice", Name: "before"}
	newName := "after"
	merged := original.applyPatch(Patch{Name: &newName})
	assert.Equal(t, "after", merged.Name)
	assert.Equal(t, "alice", merged.Owner)
}
