package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestTemplatesAreStubLists(t *testing.T) {
	for _, id := range List() {
		t.Run(id, func(t *testing.T) {
			data, err := Get(id)
			require.NoError(t, err)

			var stubs []map[string]any
			require.NoError(t, yaml.Unmarshal(data, &stubs))
			assert.NotEmpty(t, stubs)
			for _, s := range stubs {
				assert.Contains(t, s, "request")
				assert.Contains(t, s, "response")
			}
		})
	}
}

func TestGet_CaseInsensitive(t *testing.T) {
	_, err := Get("REST")
	assert.NoError(t, err)
}

func TestGet_Unknown(t *testing.T) {
	_, err := Get("graphql")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "default, rest")
}
