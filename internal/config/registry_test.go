package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atvirokodosprendimai/audito/internal/core/domain"
)

const sampleTypes = `
contentTypes:
  - uid: api::article.article
    displayName: Article
  - uid: api::tag.tag
    displayName: " Tag "
  - uid: plugin::audito.audito
    displayName: Audit
  - uid: plugin::users-permissions.user
    displayName: User
`

func TestParseRegistry(t *testing.T) {
	reg, err := ParseRegistry([]byte(sampleTypes))
	require.NoError(t, err)
	assert.Equal(t, 4, reg.Len())

	ct, ok := reg.Lookup("api::tag.tag")
	require.True(t, ok)
	assert.Equal(t, "Tag", ct.DisplayName)

	watched := reg.Watched(domain.AuditModelUID, domain.AppModelPrefix)
	assert.Equal(t, []string{"api::article.article", "api::tag.tag"}, watched.Models())
}

func TestParseRegistryRejectsBadEntries(t *testing.T) {
	cases := map[string]string{
		"missing uid":   "contentTypes:\n  - displayName: X\n",
		"duplicate uid": "contentTypes:\n  - uid: api::a.a\n  - uid: api::a.a\n",
		"unknown field": "contentTypes:\n  - uid: api::a.a\n    kind: collection\n",
		"not yaml":      "contentTypes: [",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseRegistry([]byte(doc))
			require.Error(t, err)
		})
	}
}

func TestParseRegistryEmpty(t *testing.T) {
	reg, err := ParseRegistry(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, reg.Len())
}

func TestLoadRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "content-types.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleTypes), 0o600))

	reg, err := LoadRegistry(path)
	require.NoError(t, err)
	_, ok := reg.Lookup("api::article.article")
	assert.True(t, ok)

	_, err = LoadRegistry(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
