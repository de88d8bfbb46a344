package reconcile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nagctl/internal/nagios"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nagios")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755))
	return path
}

const hostsCfg = `# managed hosts
define host {
    host_name  web1
    alias      Web 1
    address    10.0.0.1
}

define host {
    host_name  web2
    alias      Web 2
}
`

func TestApply_Create(t *testing.T) {
	dir := t.TempDir()
	r := New(nil)

	req := Request{
		Type:       nagios.TypeHost,
		Parameters: map[string]interface{}{"host_name": "web1", "alias": "Web 1"},
		State:      StatePresent,
		Update:     true,
		ConfigDir:  dir,
	}
	res := r.Apply(context.Background(), req)
	require.False(t, res.Failed, res.Message)
	assert.True(t, res.Changed)

	want := filepath.Join(dir, "pynag", "host", "web1.cfg")
	assert.Equal(t, want, res.Path)
	assert.Equal(t, "define host {\n    host_name  web1\n    alias  Web 1\n}\n", readFile(t, want))
}

func TestApply_CreateIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	r := New(nil)
	req := Request{
		Type:       nagios.TypeHost,
		Parameters: map[string]interface{}{"host_name": "web1", "alias": "Web 1"},
		State:      StatePresent,
		Update:     true,
		ConfigDir:  dir,
	}

	first := r.Apply(context.Background(), req)
	require.False(t, first.Failed, first.Message)
	require.True(t, first.Changed)
	content := readFile(t, first.Path)

	second := r.Apply(context.Background(), req)
	require.False(t, second.Failed, second.Message)
	assert.False(t, second.Changed)
	assert.Equal(t, content, readFile(t, first.Path), "second run leaves the file byte-identical")
}

func TestApply_CreateIntoExplicitPath(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "extra.cfg")
	writeFile(t, target, "define host {\n    host_name  old\n}\n")

	r := New(nil)
	res := r.Apply(context.Background(), Request{
		Type:       nagios.TypeHost,
		Parameters: map[string]interface{}{"host_name": "web1"},
		State:      StatePresent,
		Update:     true,
		ConfigDir:  dir,
		Path:       target,
	})
	require.False(t, res.Failed, res.Message)
	assert.True(t, res.Changed)
	assert.Equal(t, "define host {\n    host_name  old\n}\ndefine host {\n    host_name  web1\n}\n", readFile(t, target))
}

func TestApply_CreateIntoUnloadedPath(t *testing.T) {
	// The target file exists on disk but is outside the scanned tree, so the
	// store never loaded it. Its content must survive the append.
	dir := t.TempDir()
	target := filepath.Join(t.TempDir(), "extra.cfg")
	writeFile(t, target, "define host {\n    host_name  keepme\n}\n")

	r := New(nil)
	res := r.Apply(context.Background(), Request{
		Type:       nagios.TypeHost,
		Parameters: map[string]interface{}{"host_name": "web9"},
		State:      StatePresent,
		Update:     true,
		ConfigDir:  dir,
		Path:       target,
	})
	require.False(t, res.Failed, res.Message)
	assert.True(t, res.Changed)

	content := readFile(t, target)
	assert.Contains(t, content, "host_name  keepme")
	assert.Contains(t, content, "host_name  web9")
	assert.Equal(t, "define host {\n    host_name  keepme\n}\ndefine host {\n    host_name  web9\n}\n", content)
}

func TestApply_Update(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hosts.cfg")
	writeFile(t, path, hostsCfg)

	r := New(nil)
	res := r.Apply(context.Background(), Request{
		Type:       nagios.TypeHost,
		Parameters: map[string]interface{}{"host_name": "web1", "alias": "Web One"},
		State:      StatePresent,
		Update:     true,
		ConfigDir:  dir,
	})
	require.False(t, res.Failed, res.Message)
	assert.True(t, res.Changed)
	assert.Equal(t, path, res.Path)

	// Only the alias line changed; everything else is byte-identical,
	// including the untouched web2 block and the leading comment.
	assert.Equal(t, `# managed hosts
define host {
    host_name  web1
    alias      Web One
    address    10.0.0.1
}

define host {
    host_name  web2
    alias      Web 2
}
`, readFile(t, path))
}

func TestApply_UpdateDisabled(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hosts.cfg")
	writeFile(t, path, hostsCfg)

	r := New(nil)
	res := r.Apply(context.Background(), Request{
		Type:       nagios.TypeHost,
		Parameters: map[string]interface{}{"host_name": "web1", "alias": "Ignored"},
		State:      StatePresent,
		Update:     false,
		ConfigDir:  dir,
	})
	require.False(t, res.Failed, res.Message)
	assert.False(t, res.Changed)
	assert.Contains(t, res.Message, "update disabled")
	assert.Equal(t, hostsCfg, readFile(t, path))
}

func TestApply_RemoveAttribute(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hosts.cfg")
	writeFile(t, path, hostsCfg)

	r := New(nil)
	res := r.Apply(context.Background(), Request{
		Type:       nagios.TypeHost,
		Parameters: map[string]interface{}{"host_name": "web1", "address": nil},
		State:      StatePresent,
		Update:     true,
		ConfigDir:  dir,
	})
	require.False(t, res.Failed, res.Message)
	assert.True(t, res.Changed)
	assert.NotContains(t, readFile(t, path), "address")

	// Removing an attribute the object never had is a no-op.
	res = r.Apply(context.Background(), Request{
		Type:       nagios.TypeHost,
		Parameters: map[string]interface{}{"host_name": "web1", "address": nil},
		State:      StatePresent,
		Update:     true,
		ConfigDir:  dir,
	})
	require.False(t, res.Failed, res.Message)
	assert.False(t, res.Changed)
}

func TestApply_AbsentMissingObject(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "hosts.cfg"), hostsCfg)

	r := New(nil)
	res := r.Apply(context.Background(), Request{
		Type:       nagios.TypeHost,
		Parameters: map[string]interface{}{"host_name": "db9"},
		State:      StateAbsent,
		ConfigDir:  dir,
	})
	require.False(t, res.Failed, res.Message)
	assert.False(t, res.Changed)
	assert.Contains(t, res.Message, "not present")
}

func TestApply_DeleteWithCascade(t *testing.T) {
	dir := t.TempDir()
	hosts := filepath.Join(dir, "hosts.cfg")
	groups := filepath.Join(dir, "groups.cfg")
	writeFile(t, hosts, hostsCfg)
	writeFile(t, groups, `define hostgroup {
    hostgroup_name  web
    members         web1,web2
}
`)

	r := New(nil)
	res := r.Apply(context.Background(), Request{
		Type:       nagios.TypeHost,
		Parameters: map[string]interface{}{"host_name": "web1"},
		State:      StateAbsent,
		ConfigDir:  dir,
	})
	require.False(t, res.Failed, res.Message)
	assert.True(t, res.Changed)
	assert.Equal(t, hosts, res.Path)

	assert.NotContains(t, readFile(t, hosts), "web1")
	assert.Contains(t, readFile(t, hosts), "web2")
	assert.Contains(t, readFile(t, groups), "members         web2\n")
}

func TestApply_DeleteEmptyFiles(t *testing.T) {
	dir := t.TempDir()
	solo := filepath.Join(dir, "solo.cfg")
	writeFile(t, solo, "define host {\n    host_name  web1\n}\n")

	t.Run("kept by default", func(t *testing.T) {
		r := New(nil)
		res := r.Apply(context.Background(), Request{
			Type:       nagios.TypeHost,
			Parameters: map[string]interface{}{"host_name": "web1"},
			State:      StateAbsent,
			ConfigDir:  dir,
		})
		require.False(t, res.Failed, res.Message)
		assert.Equal(t, "", readFile(t, solo))
	})

	t.Run("removed on request", func(t *testing.T) {
		writeFile(t, solo, "define host {\n    host_name  web1\n}\n")
		r := New(nil)
		res := r.Apply(context.Background(), Request{
			Type:             nagios.TypeHost,
			Parameters:       map[string]interface{}{"host_name": "web1"},
			State:            StateAbsent,
			ConfigDir:        dir,
			DeleteEmptyFiles: true,
		})
		require.False(t, res.Failed, res.Message)
		_, err := os.Stat(solo)
		assert.True(t, os.IsNotExist(err))
	})
}

func TestApply_ServiceCompoundKey(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "services.cfg"), `define service {
    host_name            web1
    service_description  Ping
    check_command        check_ping
}

define service {
    host_name            web2
    service_description  Ping
    check_command        check_ping
}
`)

	r := New(nil)
	res := r.Apply(context.Background(), Request{
		Type: nagios.TypeService,
		Parameters: map[string]interface{}{
			"service_description": "Ping",
			"host_name":           "web1",
			"max_check_attempts":  3,
		},
		State:     StatePresent,
		Update:    true,
		ConfigDir: dir,
	})
	require.False(t, res.Failed, res.Message)
	assert.True(t, res.Changed)

	content := readFile(t, filepath.Join(dir, "services.cfg"))
	assert.Contains(t, content, "max_check_attempts  3")

	// The missing required key attribute makes the lookup ambiguous.
	res = r.Apply(context.Background(), Request{
		Type:       nagios.TypeService,
		Parameters: map[string]interface{}{"host_name": "web1"},
		State:      StatePresent,
		Update:     true,
		ConfigDir:  dir,
	})
	assert.True(t, res.Failed)
	assert.Contains(t, res.Message, "service_description")
}

func TestApply_TemplateObject(t *testing.T) {
	dir := t.TempDir()
	r := New(nil)

	req := Request{
		Type: nagios.TypeHost,
		Parameters: map[string]interface{}{
			"name":           "generic-host",
			"register":       0,
			"check_interval": 5,
		},
		State:     StatePresent,
		Update:    true,
		ConfigDir: dir,
	}
	res := r.Apply(context.Background(), req)
	require.False(t, res.Failed, res.Message)
	assert.True(t, res.Changed)

	path := filepath.Join(dir, "pynag", "host", "generic-host.cfg")
	content := readFile(t, path)
	assert.Contains(t, content, "    name  generic-host\n")
	assert.Contains(t, content, "    register  0\n")

	// Templates are keyed by name, never by host_name.
	res = r.Apply(context.Background(), req)
	require.False(t, res.Failed, res.Message)
	assert.False(t, res.Changed)
}

func TestApply_ValidationRollback(t *testing.T) {
	dir := t.TempDir()
	mainCfg := filepath.Join(dir, "nagios.cfg")
	hosts := filepath.Join(dir, "hosts.cfg")
	writeFile(t, mainCfg, "cfg_file=hosts.cfg\n")
	writeFile(t, hosts, hostsCfg)

	r := New(nil)
	res := r.Apply(context.Background(), Request{
		Type:       nagios.TypeHost,
		Parameters: map[string]interface{}{"host_name": "web1", "alias": "Broken"},
		State:      StatePresent,
		Update:     true,
		NagiosCfg:  mainCfg,
		Validate:   true,
		NagiosBin:  writeScript(t, `echo "Error: bad config"; exit 1`),
	})

	assert.True(t, res.Failed)
	assert.True(t, res.Reverted)
	assert.Contains(t, res.Message, "changes reverted")
	assert.Equal(t, hostsCfg, readFile(t, hosts), "file restored byte-for-byte")
}

func TestApply_ValidationPass(t *testing.T) {
	dir := t.TempDir()
	mainCfg := filepath.Join(dir, "nagios.cfg")
	hosts := filepath.Join(dir, "hosts.cfg")
	writeFile(t, mainCfg, "cfg_file=hosts.cfg\n")
	writeFile(t, hosts, hostsCfg)

	r := New(nil)
	res := r.Apply(context.Background(), Request{
		Type:       nagios.TypeHost,
		Parameters: map[string]interface{}{"host_name": "web1", "alias": "Web One"},
		State:      StatePresent,
		Update:     true,
		NagiosCfg:  mainCfg,
		Validate:   true,
		NagiosBin:  writeScript(t, "exit 0"),
	})

	require.False(t, res.Failed, res.Message)
	assert.True(t, res.Changed)
	assert.False(t, res.Reverted)
	assert.Contains(t, readFile(t, hosts), "Web One")
}

func TestApply_Backup(t *testing.T) {
	dir := t.TempDir()
	hosts := filepath.Join(dir, "hosts.cfg")
	writeFile(t, hosts, hostsCfg)

	r := New(nil)
	res := r.Apply(context.Background(), Request{
		Type:       nagios.TypeHost,
		Parameters: map[string]interface{}{"host_name": "web1", "alias": "Web One"},
		State:      StatePresent,
		Update:     true,
		ConfigDir:  dir,
		Backup:     true,
	})
	require.False(t, res.Failed, res.Message)
	require.Len(t, res.Backups, 1)
	assert.Equal(t, hostsCfg, readFile(t, res.Backups[0]), "backup holds the pre-change content")
}

func TestApply_InvalidParameters(t *testing.T) {
	r := New(nil)

	t.Run("unsupported value type", func(t *testing.T) {
		res := r.Apply(context.Background(), Request{
			Type:       nagios.TypeHost,
			Parameters: map[string]interface{}{"host_name": true},
			State:      StatePresent,
			ConfigDir:  t.TempDir(),
		})
		assert.True(t, res.Failed)
	})

	t.Run("missing key attribute", func(t *testing.T) {
		res := r.Apply(context.Background(), Request{
			Type:       nagios.TypeHost,
			Parameters: map[string]interface{}{"alias": "x"},
			State:      StatePresent,
			ConfigDir:  t.TempDir(),
		})
		assert.True(t, res.Failed)
		assert.Contains(t, res.Message, "host_name")
	})
}

func TestParseState(t *testing.T) {
	tests := []struct {
		in      string
		want    State
		wantErr bool
	}{
		{"", StatePresent, false},
		{"present", StatePresent, false},
		{"absent", StateAbsent, false},
		{"gone", "", true},
	}
	for _, tt := range tests {
		got, err := ParseState(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}
