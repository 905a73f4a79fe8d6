// Package jwt issues and verifies the signed access and refresh tokens
// used by the goRevoke engine. Each token kind signs under its own secret.
package jwt
