// Package memory provides an in-memory subject provider for examples and
// tests. Production deployments implement [goRevoke.SubjectProvider]
// against their own user storage.
package memory
