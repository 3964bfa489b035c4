package reqfile

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// requestSchema constrains JSON request documents; YAML documents are
// checked structurally by the loader instead.
const requestSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["method", "url"],
  "additionalProperties": false,
  "properties": {
    "method": {
      "type": "string",
      "enum": ["GET", "POST", "PUT", "DELETE", "PATCH", "HEAD", "OPTIONS", "TRACE", "CONNECT"]
    },
    "url": {"type": "string", "minLength": 1},
    "headers": {"type": "object", "additionalProperties": {"type": "string"}},
    "query_params": {"type": "object", "additionalProperties": {"type": "string"}},
    "auth": {
      "type": "object",
      "required": ["type"],
      "properties": {
        "type": {"type": "string", "enum": ["none", "basic", "bearer", "api_key"]},
        "username": {"type": "string"},
        "password": {"type": "string"},
        "token": {"type": "string"},
        "key": {"type": "string"},
        "value": {"type": "string"},
        "in": {"type": "string", "enum": ["header", "query"]}
      }
    },
    "body": {
      "type": "object",
      "required": ["type"],
      "properties": {
        "type": {"type": "string", "enum": ["none", "raw", "form", "multipart", "binary"]},
        "content": {"type": "string"},
        "content_type": {"type": "string"},
        "fields": {"type": "object", "additionalProperties": {"type": "string"}},
        "parts": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["name"],
            "properties": {
              "name": {"type": "string"},
              "value": {"type": "string"},
              "file": {"type": "string"},
              "filename": {"type": "string"},
              "content_type": {"type": "string"}
            }
          }
        },
        "data_base64": {"type": "string"},
        "filename": {"type": "string"}
      }
    },
    "cookies": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "value"],
        "properties": {
          "name": {"type": "string"},
          "value": {"type": "string"}
        }
      }
    },
    "timeout_ms": {"type": "integer", "minimum": 0},
    "follow_redirects": {"type": "boolean"},
    "max_redirects": {"type": "integer", "minimum": 0},
    "verify_ssl": {"type": "boolean"},
    "proxy": {
      "type": "object",
      "required": ["url"],
      "properties": {
        "url": {"type": "string"},
        "username": {"type": "string"},
        "password": {"type": "string"}
      }
    }
  }
}`

// ValidateJSON checks a JSON request document against the request
// schema and returns a combined message for every violation.
func ValidateJSON(document []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(requestSchema)
	documentLoader := gojsonschema.NewBytesLoader(document)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}

	var violations []string
	for _, desc := range result.Errors() {
		violations = append(violations, desc.String())
	}
	return fmt.Errorf("schema validation failed: %s", strings.Join(violations, "; "))
}
