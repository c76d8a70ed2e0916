package imagebuild

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/DrPeryCox/pres-gen-new/pkg/errs"
)

// Layer is one build instruction together with its content-addressed cache
// key. A layer's key covers the instruction text, the full parent chain, and
// the digest of any files the instruction copies in, so two layers share a
// key exactly when the instruction and everything before it are identical.
type Layer struct {
	Instruction string
	Key         string
}

// Plan is the ordered layer chain derived from a recipe and a build context.
type Plan struct {
	Recipe Recipe
	Layers []Layer
}

// NewPlan computes the layer chain for the recipe against the on-disk build
// context. It fails fast if a declared manifest file is absent: the build
// would be aborted at the dependency-install step anyway, and no partial
// image may be produced.
func NewPlan(r Recipe, contextDir string) (*Plan, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	manifestDigest, err := manifestsDigest(r, contextDir)
	if err != nil {
		return nil, err
	}
	sourceDigest, err := contextDigest(contextDir)
	if err != nil {
		return nil, err
	}

	plan := &Plan{Recipe: r}
	parent := ""
	for _, instruction := range r.Instructions() {
		content := ""
		switch {
		case strings.HasPrefix(instruction, "COPY . ."):
			content = sourceDigest
		case strings.HasPrefix(instruction, "COPY "):
			content = manifestDigest
		}
		key := layerKey(parent, instruction, content)
		plan.Layers = append(plan.Layers, Layer{Instruction: instruction, Key: key})
		parent = key
	}
	return plan, nil
}

// Key returns the cache key of the final layer, identifying the whole image.
func (p *Plan) Key() string {
	if len(p.Layers) == 0 {
		return ""
	}
	return p.Layers[len(p.Layers)-1].Key
}

// DivergesAt compares two plans and returns the 1-based index of the first
// layer whose key differs, or 0 if the plans are identical. Every layer after
// the divergence point is invalidated by construction.
func (p *Plan) DivergesAt(other *Plan) int {
	for i := range p.Layers {
		if i >= len(other.Layers) || p.Layers[i].Key != other.Layers[i].Key {
			return i + 1
		}
	}
	if len(other.Layers) > len(p.Layers) {
		return len(p.Layers) + 1
	}
	return 0
}

func layerKey(parent, instruction, contentDigest string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\n%s\n%s", parent, instruction, contentDigest)
	return hex.EncodeToString(h.Sum(nil))
}

// manifestsDigest hashes the declared manifest files in recipe order.
func manifestsDigest(r Recipe, contextDir string) (string, error) {
	h := sha256.New()
	for _, name := range r.Manifests {
		p := filepath.Join(contextDir, name)
		f, err := os.Open(p)
		if err != nil {
			if os.IsNotExist(err) {
				return "", errs.New(errs.CodeManifestMissing, "imagebuild", fmt.Sprintf("dependency manifest %s not found in build context", name), err)
			}
			return "", errs.New(errs.CodeIoError, "imagebuild", fmt.Sprintf("failed to read manifest %s", name), err)
		}
		fmt.Fprintf(h, "%s\n", name)
		if _, err := io.Copy(h, f); err != nil {
			f.Close()
			return "", errs.New(errs.CodeIoError, "imagebuild", fmt.Sprintf("failed to hash manifest %s", name), err)
		}
		f.Close()
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// contextDigest hashes the whole build context in lexical walk order,
// honoring .dockerignore patterns when the file is present.
func contextDigest(contextDir string) (string, error) {
	var matcher *ignore.GitIgnore
	dockerignorePath := filepath.Join(contextDir, ".dockerignore")
	if content, err := os.ReadFile(dockerignorePath); err == nil {
		matcher = ignore.CompileIgnoreLines(strings.Split(string(content), "\n")...)
	}

	h := sha256.New()
	err := filepath.WalkDir(contextDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		relPath, err := filepath.Rel(contextDir, p)
		if err != nil || relPath == "." {
			return nil
		}
		if matcher != nil {
			pathToMatch := relPath
			if d.IsDir() {
				pathToMatch = relPath + string(filepath.Separator)
			}
			if matcher.MatchesPath(pathToMatch) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}
		if d.IsDir() {
			return nil
		}
		f, err := os.Open(p)
		if err != nil {
			return err
		}
		defer f.Close()
		fmt.Fprintf(h, "%s\n", filepath.ToSlash(relPath))
		_, err = io.Copy(h, f)
		return err
	})
	if err != nil {
		return "", errs.New(errs.CodeIoError, "imagebuild", "failed to hash build context", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
