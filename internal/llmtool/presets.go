package llmtool

// PromptPreset holds reusable constraints and rules for structured prompts.
type PromptPreset struct {
	Constraints []string
	Rules       []string
}

// ApplyPresets prepends preset constraints/rules to a structured prompt spec.
func ApplyPresets(spec StructuredPromptSpec, presets ...PromptPreset) StructuredPromptSpec {
	if len(presets) == 0 {
		return spec
	}
	var merged PromptPreset
	for _, p := range presets {
		merged.Constraints = append(merged.Constraints, p.Constraints...)
		merged.Rules = append(merged.Rules, p.Rules...)
	}
	spec.Constraints = append(merged.Constraints, spec.Constraints...)
	spec.Rules = append(merged.Rules, spec.Rules...)
	return spec
}

// PresetStrictJSON asks for a bare JSON object.
func PresetStrictJSON() PromptPreset {
	return PromptPreset{
		Constraints: []string{
			"Return ONLY a valid JSON object.",
			"Match the schema exactly; no extra top-level fields.",
			"No markdown fences, comments, or trailing commas.",
		},
	}
}

// PresetValidHCL keeps generated Terraform self-contained.
func PresetValidHCL() PromptPreset {
	return PromptPreset{
		Constraints: []string{
			"terraformCode must be valid Terraform HCL for every resource in nodes.",
			"Escape newlines and quotes inside terraformCode so the JSON stays valid.",
		},
		Rules: []string{
			"Use canonical service types for serviceType (for example EC2, S3, RDS, Lambda, VPC).",
		},
	}
}

// PresetKeepIdentity forbids renaming what the user supplied.
func PresetKeepIdentity() PromptPreset {
	return PromptPreset{
		Constraints: []string{
			"Do not rename, re-id, add or drop nodes or edges that the input fixes.",
		},
	}
}
