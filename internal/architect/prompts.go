package architect

import (
	"nebula/internal/architecture"
	"nebula/internal/llmtool"
)

var generateSpec = llmtool.ApplyPresets(llmtool.StructuredPromptSpec{
	Purpose:      "Design a cloud architecture that satisfies the user's request.",
	Background:   "You are an expert cloud architect and DevOps engineer. The result is rendered as a node/edge diagram next to its Terraform code.",
	OutputSchema: architecture.FormatInstructions(),
	Rules: []string{
		"Model every provisioned resource as a node and every dependency or network path as an edge.",
		"Give each node a short human label that names the resource kind (for example \"Web Server Instance\", \"Orders Database\").",
		"Write a one-paragraph summary of the design.",
	},
	Assumptions:  []string{"If the cloud is not stated, use aws."},
	OutputFormat: "JSON only.",
	Language:     "English",
}, llmtool.PresetStrictJSON(), llmtool.PresetValidHCL())

var codeSyncSpec = llmtool.ApplyPresets(llmtool.StructuredPromptSpec{
	Purpose:      "The user edited the Terraform code by hand. Re-derive the diagram so it matches the new code.",
	Background:   "You are a cloud DevOps expert keeping a diagram and its Terraform code in sync.",
	OutputSchema: architecture.FormatInstructions(),
	Rules: []string{
		"Extract every resource in the new code as a node (for example aws_instance becomes an EC2 node).",
		"Extract relationships between resources as edges.",
		"Reuse ids and labels from the previous diagram for resources that still exist.",
		"Update the summary to describe the new infrastructure.",
		"Copy the new code into terraformCode exactly as given.",
	},
	OutputFormat: "JSON only.",
	Language:     "English",
}, llmtool.PresetStrictJSON())

var visualSyncSpec = llmtool.ApplyPresets(llmtool.StructuredPromptSpec{
	Purpose:      "The user edited the diagram by hand. Regenerate the Terraform code so it matches the new nodes and edges.",
	Background:   "You are a cloud architect keeping a diagram and its Terraform code in sync. The previous code is given for context.",
	OutputSchema: architecture.FormatInstructions(),
	Rules: []string{
		"Add a resource for every node that has none in the previous code.",
		"Remove resources whose node is gone.",
		"Update references where edges changed.",
		"Keep provider blocks, variables and unrelated resources as they are.",
		"Update the summary to reflect the change.",
		"Return the nodes and edges exactly as given.",
	},
	OutputFormat: "JSON only.",
	Language:     "English",
}, llmtool.PresetStrictJSON(), llmtool.PresetValidHCL(), llmtool.PresetKeepIdentity())
