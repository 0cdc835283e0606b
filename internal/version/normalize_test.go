package version

import (
	"testing"

	"github.com/ralt/upgrade-advisor/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		tag  string
		info *models.ProjectInfo
		want string
	}{
		{"prefix", "v1.2.3\n", &models.ProjectInfo{TagPrefix: "v"}, "1.2.3"},
		{"regexp prefix", "release-1.2.3", &models.ProjectInfo{TagPrefix: "^release-"}, "1.2.3"},
		{"pattern", "foo-1_2_3-final", &models.ProjectInfo{TagPattern: `^foo-(.*)-final$`, Separator: "_"}, "1.2.3"},
		{"pattern wins over prefix", "v1.2", &models.ProjectInfo{TagPattern: `^v(.*)$`, TagPrefix: "1"}, "1.2"},
		{"separator", "1_2_3", &models.ProjectInfo{Separator: "_"}, "1.2.3"},
		{"nothing declared", "1.2.3\n\n", &models.ProjectInfo{}, "1.2.3"},
		{"nil info", "1.2.3\n", nil, "1.2.3"},
		{"keeps inner whitespace", " 1.2 \n", &models.ProjectInfo{}, " 1.2 "},
		{"broken prefix is literal", "(1.2", &models.ProjectInfo{TagPrefix: "("}, "1.2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.tag, tt.info))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	infos := []*models.ProjectInfo{
		{TagPrefix: "v"},
		{TagPrefix: "^release-", Separator: "_"},
		{TagPattern: `^pkg-(\d+(?:\.\d+)*)$`},
	}
	tags := []string{"v1.2.3\n", "release-1_2_3", "pkg-1.2.3", "1.0"}

	for _, info := range infos {
		n := NewNormalizer(info)
		for _, tag := range tags {
			once := n.Normalize(tag)
			assert.Equal(t, once, n.Normalize(once), "tag %q", tag)
		}
	}
}

func TestNormalizeAllDropsEmpty(t *testing.T) {
	n := NewNormalizer(&models.ProjectInfo{TagPrefix: "v"})
	assert.Equal(t, []string{"1.0", "2.0"}, n.NormalizeAll([]string{"v1.0\n", "v\n", "v2.0"}))
}
