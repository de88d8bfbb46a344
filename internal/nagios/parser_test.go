package nagios

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBlocks(t *testing.T) {
	content := `# hosts for the web tier

define host {
    host_name  web1
    alias      Web 1   ; primary
    use        generic-host
}

define hostgroup {
    hostgroup_name  web
    members         web1, web2
}
`
	lines := SplitLines(content)
	blocks, err := ParseBlocks("hosts.cfg", lines)
	require.NoError(t, err)
	require.Len(t, blocks, 2)

	host := blocks[0]
	assert.Equal(t, TypeHost, host.Type)
	assert.Equal(t, "hosts.cfg", host.File)
	assert.Equal(t, 2, host.Start)
	assert.Equal(t, 6, host.End)

	alias, ok := host.Get("alias")
	require.True(t, ok)
	assert.Equal(t, "Web 1", alias, "trailing comment should be stripped from the value")

	group := blocks[1]
	assert.Equal(t, TypeHostgroup, group.Type)
	members, ok := group.Get("members")
	require.True(t, ok)
	assert.Equal(t, "web1, web2", members)
}

func TestParseBlocks_CompactDefine(t *testing.T) {
	lines := SplitLines("define service{\n\thost_name\tweb1\n\tservice_description\tPing\n}\n")
	blocks, err := ParseBlocks("svc.cfg", lines)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, TypeService, blocks[0].Type)

	desc, ok := blocks[0].Get("service_description")
	require.True(t, ok)
	assert.Equal(t, "Ping", desc)
}

func TestParseBlocks_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "unterminated block",
			content: "define host {\n    host_name  web1\n",
		},
		{
			name:    "define without brace",
			content: "define host\n",
		},
		{
			name:    "define without type",
			content: "define {\n}\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBlocks("bad.cfg", SplitLines(tt.content))
			assert.Error(t, err)
		})
	}
}

func TestSplitJoinRoundTrip(t *testing.T) {
	contents := []string{
		"",
		"define host {\n}\n",
		"no trailing newline",
		"# comment\n\n\ndefine host {\n    host_name  a\n}\n",
	}
	for _, c := range contents {
		assert.Equal(t, c, JoinLines(SplitLines(c)))
	}
}

func TestParseBlocks_UnknownTypeTolerated(t *testing.T) {
	lines := SplitLines("define serviceextinfo {\n    host_name  web1\n}\n")
	blocks, err := ParseBlocks("extinfo.cfg", lines)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, ObjectType("serviceextinfo"), blocks[0].Type)
}
