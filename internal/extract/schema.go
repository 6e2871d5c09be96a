package extract

import "github.com/santhosh-tekuri/jsonschema/v5"

// pagePayloadSchema is the documented response contract the prompt asks the
// model to follow. Strict-stage parses must satisfy it to count as Clean.
const pagePayloadSchema = `{
  "type": "object",
  "required": ["type", "fields"],
  "properties": {
    "type": {"type": "string"},
    "fields": {"type": "object"}
  }
}`

var payloadSchema = jsonschema.MustCompileString("page_payload.json", pagePayloadSchema)
