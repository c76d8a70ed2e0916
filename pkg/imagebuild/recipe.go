// Package imagebuild models the container image build pipeline: a declarative
// recipe rendered to a Dockerfile, a content-addressed layer plan, and an
// executor that drives docker build.
package imagebuild

import (
	"fmt"
	"os"
	"path"
	"strings"

	"sigs.k8s.io/yaml"

	"github.com/DrPeryCox/pres-gen-new/pkg/errs"
)

// BaseImage identifies the immutable starting filesystem by name and tag.
type BaseImage struct {
	Name string `json:"name"`
	Tag  string `json:"tag"`
}

func (b BaseImage) Ref() string {
	return b.Name + ":" + b.Tag
}

// Recipe is the declarative build recipe: base image, system packages,
// working directory, dependency manifests installed ahead of the source
// copy, and deliberately no runtime entrypoint.
type Recipe struct {
	Base           BaseImage `json:"base"`
	SystemPackages []string  `json:"systemPackages,omitempty"`
	WorkDir        string    `json:"workDir"`
	Manifests      []string  `json:"manifests"`
	InstallCommand string    `json:"installCommand"`
}

// DefaultRecipe reproduces this repository's own Dockerfile: a pinned Go
// toolchain image with the native media tools the service shells out to.
func DefaultRecipe() Recipe {
	return Recipe{
		Base:           BaseImage{Name: "golang", Tag: "1.23-bookworm"},
		SystemPackages: []string{"poppler-utils", "ffmpeg"},
		WorkDir:        "/app",
		Manifests:      []string{"go.mod", "go.sum"},
		InstallCommand: "go mod download",
	}
}

// LoadRecipe reads a recipe from a YAML file.
func LoadRecipe(filePath string) (Recipe, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return Recipe{}, errs.New(errs.CodeIoError, "imagebuild", fmt.Sprintf("failed to read recipe %s", filePath), err)
	}
	var r Recipe
	if err := yaml.UnmarshalStrict(data, &r); err != nil {
		return Recipe{}, errs.New(errs.CodeRecipeInvalid, "imagebuild", fmt.Sprintf("failed to parse recipe %s", filePath), err)
	}
	if err := r.Validate(); err != nil {
		return Recipe{}, err
	}
	return r, nil
}

// Validate checks the recipe for mistakes that would make the build
// non-deterministic or unbuildable.
func (r Recipe) Validate() error {
	if r.Base.Name == "" {
		return errs.New(errs.CodeRecipeInvalid, "imagebuild", "base image name must not be empty", nil)
	}
	if r.Base.Tag == "" || r.Base.Tag == "latest" {
		return errs.New(errs.CodeRecipeInvalid, "imagebuild", fmt.Sprintf("base image tag must be pinned, got %q", r.Base.Tag), nil)
	}
	if !path.IsAbs(r.WorkDir) {
		return errs.New(errs.CodeRecipeInvalid, "imagebuild", fmt.Sprintf("working directory must be an absolute path, got %q", r.WorkDir), nil)
	}
	if len(r.Manifests) == 0 {
		return errs.New(errs.CodeRecipeInvalid, "imagebuild", "at least one dependency manifest is required", nil)
	}
	for _, m := range r.Manifests {
		if m == "" || strings.Contains(m, "/") {
			return errs.New(errs.CodeRecipeInvalid, "imagebuild", fmt.Sprintf("manifest must be a bare filename, got %q", m), nil)
		}
	}
	if strings.TrimSpace(r.InstallCommand) == "" {
		return errs.New(errs.CodeRecipeInvalid, "imagebuild", "install command must not be empty", nil)
	}
	for _, p := range r.SystemPackages {
		if strings.TrimSpace(p) == "" {
			return errs.New(errs.CodeRecipeInvalid, "imagebuild", "system package names must not be blank", nil)
		}
	}
	return nil
}
