package architecture

// formatSchema is the JSON Schema for State. It is embedded verbatim in
// generation prompts so the provider sees the exact contract.
const formatSchema = `{
  "type": "object",
  "required": ["summary", "nodes", "edges", "terraformCode"],
  "properties": {
    "summary": {"type": "string", "description": "One line explanation of the architecture"},
    "nodes": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "label", "serviceType"],
        "properties": {
          "id": {"type": "string", "description": "Unique ID for the node (e.g. 'ec2-1')"},
          "label": {"type": "string", "description": "Name of the service (e.g. 'Web Server')"},
          "type": {"type": "string", "default": "cloudNode", "description": "Diagram node type"},
          "provider": {"type": "string", "enum": ["aws", "azure", "gcp"], "default": "aws"},
          "serviceType": {"type": "string", "description": "Specific service (e.g. 'EC2', 'S3', 'RDS', 'Lambda', 'VPC')"}
        }
      }
    },
    "edges": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "source", "target"],
        "properties": {
          "id": {"type": "string"},
          "source": {"type": "string", "description": "ID of the starting node"},
          "target": {"type": "string", "description": "ID of the ending node"}
        }
      }
    },
    "terraformCode": {"type": "string", "description": "Terraform HCL code for the defined resources"}
  }
}`

// FormatInstructions returns the output contract to embed in a prompt.
func FormatInstructions() string {
	return "The output must be a single JSON object conforming to this JSON Schema. " +
		"Every edge source and target must be the id of a node in \"nodes\".\n```\n" +
		formatSchema + "\n```"
}

// Schema returns the bare JSON Schema text.
func Schema() string { return formatSchema }
