package imagebuild

import (
	"strings"
)

// Instructions expands the recipe into the ordered build instructions, one
// per image layer. Render and NewPlan both derive from this list so the
// rendered Dockerfile and the layer plan can never disagree.
func (r Recipe) Instructions() []string {
	instructions := []string{
		"FROM " + r.Base.Ref(),
	}

	if len(r.SystemPackages) > 0 {
		// The apt cache prune is part of the same instruction on purpose:
		// the metadata must never survive into the committed layer.
		instructions = append(instructions,
			"RUN apt-get update && apt-get install -y --no-install-recommends "+
				strings.Join(r.SystemPackages, " ")+
				" && rm -rf /var/lib/apt/lists/*")
	}

	instructions = append(instructions,
		"WORKDIR "+r.WorkDir,
		"COPY "+strings.Join(r.Manifests, " ")+" ./",
		"RUN "+r.InstallCommand,
		"COPY . .",
	)

	// No CMD or ENTRYPOINT: the run command is supplied by the orchestrator.
	return instructions
}

// Render produces the Dockerfile text for the recipe. The output is a pure
// function of the recipe, so identical recipes always render byte-identical
// Dockerfiles.
func Render(r Recipe) (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}
	return strings.Join(r.Instructions(), "\n\n") + "\n", nil
}
