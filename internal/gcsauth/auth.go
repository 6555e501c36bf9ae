// Package gcsauth provides the real, production AuthProvider and
// ZoneProvider implementations (spec section 6). Both are external
// collaborators from the core's point of view -- token/credential
// acquisition and zone detection are explicitly out of scope of the
// filesystem engine itself (spec section 1) -- but a usable library
// needs a real realization of them, not just the fakes tests script
// against.
package gcsauth

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/compute/metadata"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// DefaultScope is the OAuth2 scope requested for Application Default
// Credentials; read-write access to Cloud Storage.
const DefaultScope = "https://www.googleapis.com/auth/devstorage.read_write"

// ADCAuthProvider resolves a bearer token from Application Default
// Credentials (GOOGLE_APPLICATION_CREDENTIALS, gcloud auth, or the
// metadata server), matching the credential resolution the teacher's GCP
// gateway backend describes in its package doc.
type ADCAuthProvider struct {
	source oauth2.TokenSource
}

// NewADCAuthProvider resolves Application Default Credentials for scope
// (DefaultScope if empty) and returns a provider backed by them.
func NewADCAuthProvider(ctx context.Context, scope string) (*ADCAuthProvider, error) {
	if scope == "" {
		scope = DefaultScope
	}
	creds, err := google.FindDefaultCredentials(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("gcsauth: resolving application default credentials: %w", err)
	}
	return &ADCAuthProvider{source: creds.TokenSource}, nil
}

// GetToken implements gcsrequest.AuthProvider.
func (p *ADCAuthProvider) GetToken(ctx context.Context) (string, error) {
	tok, err := p.source.Token()
	if err != nil {
		return "", fmt.Errorf("gcsauth: fetching token: %w", err)
	}
	return tok.AccessToken, nil
}

// GCEZoneProvider resolves the current zone from the GCE metadata
// server, for use when Options.AllowedLocations is {"auto"}.
type GCEZoneProvider struct{}

// GetZone implements gcsrequest.ZoneProvider. It returns e.g.
// "us-east1-b", matching the format spec section 6 requires (the
// leading region portion, up to the last '-', is the effective allowed
// location).
func (GCEZoneProvider) GetZone(ctx context.Context) (string, error) {
	zonePath, err := metadata.ZoneWithContext(ctx)
	if err != nil {
		return "", fmt.Errorf("gcsauth: fetching zone from metadata server: %w", err)
	}
	// zonePath looks like "projects/123456/zones/us-east1-b".
	if idx := strings.LastIndexByte(zonePath, '/'); idx >= 0 {
		return zonePath[idx+1:], nil
	}
	return zonePath, nil
}

// EffectiveRegion extracts the region prefix from a zone, e.g.
// "us-east1-b" -> "us-east1" (up to the last '-').
func EffectiveRegion(zone string) string {
	if idx := strings.LastIndexByte(zone, '-'); idx >= 0 {
		return zone[:idx]
	}
	return zone
}
