package gcsrequest

import "context"

// FakeAuthProvider always returns Token, mirroring the original system's
// FakeAuthProvider returning "fake_token".
type FakeAuthProvider struct {
	Token string
}

func (p FakeAuthProvider) GetToken(ctx context.Context) (string, error) {
	if p.Token == "" {
		return "fake_token", nil
	}
	return p.Token, nil
}

// FakeZoneProvider always returns Zone, mirroring the original system's
// FakeZoneProvider returning "us-east1-b".
type FakeZoneProvider struct {
	Zone string
}

func (p FakeZoneProvider) GetZone(ctx context.Context) (string, error) {
	if p.Zone == "" {
		return "us-east1-b", nil
	}
	return p.Zone, nil
}
