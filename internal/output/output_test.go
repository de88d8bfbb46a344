package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nagctl/internal/nagios"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatTable, false},
		{"table", FormatTable, false},
		{"json", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestRowFor(t *testing.T) {
	lines := nagios.SplitLines(`define service {
    host_name            web1
    service_description  Ping
}

define host {
    name      generic-host
    register  0
}
`)
	blocks, err := nagios.ParseBlocks("objects.cfg", lines)
	require.NoError(t, err)
	require.Len(t, blocks, 2)

	svc := RowFor(blocks[0])
	assert.Equal(t, "service", svc.Type)
	assert.Equal(t, "web1_Ping", svc.Name, "key values in key-attribute order")
	assert.Equal(t, 1, svc.Line, "lines are 1-based for display")

	tmpl := RowFor(blocks[1])
	assert.Equal(t, "generic-host", tmpl.Name, "templates are named by their name attribute")
	assert.Equal(t, 6, tmpl.Line)
}

func TestRenderRows_JSON(t *testing.T) {
	rows := []Row{{Type: "host", Name: "web1", File: "hosts.cfg", Line: 2}}

	var buf bytes.Buffer
	require.NoError(t, RenderRows(&buf, FormatJSON, rows))

	var decoded []Row
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, rows, decoded)
}

func TestRenderBlock_Table(t *testing.T) {
	lines := nagios.SplitLines("# comment\ndefine host {\n    host_name  web1\n}\n")
	blocks, err := nagios.ParseBlocks("hosts.cfg", lines)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, RenderBlock(&buf, FormatTable, blocks[0], lines))
	assert.Equal(t, "define host {\n    host_name  web1\n}\n", buf.String(), "raw definition lines without surrounding text")
}
