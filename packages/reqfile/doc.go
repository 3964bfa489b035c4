// Package reqfile loads declarative request files (YAML or JSON) and
// lowers them into engine requests. JSON documents can additionally be
// validated against an embedded JSON schema.
package reqfile
