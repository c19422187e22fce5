package preset_repo

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"hidesync/internal/domain/preset"
)

func TestPresetRepoSatisfiesRepository(t *testing.T) {
	var repo preset.Repository = NewPresetRepo(nil)
	assert.NotNil(t, repo)
}
