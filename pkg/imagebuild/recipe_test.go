package imagebuild

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DrPeryCox/pres-gen-new/pkg/errs"
)

func TestDefaultRecipeIsValid(t *testing.T) {
	require.NoError(t, DefaultRecipe().Validate())
}

func TestRecipeValidate(t *testing.T) {
	base := DefaultRecipe()

	tests := []struct {
		name   string
		mutate func(*Recipe)
		wantOK bool
	}{
		{"valid", func(r *Recipe) {}, true},
		{"no packages is fine", func(r *Recipe) { r.SystemPackages = nil }, true},
		{"empty base name", func(r *Recipe) { r.Base.Name = "" }, false},
		{"empty base tag", func(r *Recipe) { r.Base.Tag = "" }, false},
		{"latest tag not pinned", func(r *Recipe) { r.Base.Tag = "latest" }, false},
		{"relative workdir", func(r *Recipe) { r.WorkDir = "app" }, false},
		{"no manifests", func(r *Recipe) { r.Manifests = nil }, false},
		{"manifest with path", func(r *Recipe) { r.Manifests = []string{"sub/go.mod"} }, false},
		{"empty install command", func(r *Recipe) { r.InstallCommand = "  " }, false},
		{"blank package name", func(r *Recipe) { r.SystemPackages = []string{"ffmpeg", " "} }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := base
			r.SystemPackages = append([]string(nil), base.SystemPackages...)
			r.Manifests = append([]string(nil), base.Manifests...)
			tt.mutate(&r)
			err := r.Validate()
			if tt.wantOK {
				assert.NoError(t, err)
			} else {
				assert.True(t, errs.HasCode(err, errs.CodeRecipeInvalid), "expected RECIPE_INVALID, got %v", err)
			}
		})
	}
}

func TestLoadRecipe(t *testing.T) {
	dir := t.TempDir()
	recipePath := filepath.Join(dir, "recipe.yaml")
	content := `
base:
  name: python
  tag: "3.11-slim"
systemPackages:
  - poppler-utils
  - ffmpeg
workDir: /app
manifests:
  - requirements.txt
installCommand: pip install --no-cache-dir -r requirements.txt
`
	require.NoError(t, os.WriteFile(recipePath, []byte(content), 0644))

	r, err := LoadRecipe(recipePath)
	require.NoError(t, err)
	assert.Equal(t, "python:3.11-slim", r.Base.Ref())
	assert.Equal(t, []string{"poppler-utils", "ffmpeg"}, r.SystemPackages)
	assert.Equal(t, "/app", r.WorkDir)
	assert.Equal(t, []string{"requirements.txt"}, r.Manifests)
}

func TestLoadRecipeMissingFile(t *testing.T) {
	_, err := LoadRecipe(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.True(t, errs.HasCode(err, errs.CodeIoError))
}

func TestLoadRecipeRejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	recipePath := filepath.Join(dir, "recipe.yaml")
	content := `
base:
  name: python
  tag: "3.11-slim"
workDir: /app
manifests: [requirements.txt]
installCommand: pip install -r requirements.txt
entrypoint: ["python", "main.py"]
`
	require.NoError(t, os.WriteFile(recipePath, []byte(content), 0644))

	_, err := LoadRecipe(recipePath)
	assert.True(t, errs.HasCode(err, errs.CodeRecipeInvalid), "entrypoint is not part of a recipe, got %v", err)
}
