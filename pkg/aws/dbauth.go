package aws

import (
	"context"
	"fmt"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/rds/auth"
)

type tokenSigner func(ctx context.Context, endpoint, region, user string, creds awsv2.CredentialsProvider) (string, error)

func defaultTokenSigner(ctx context.Context, endpoint, region, user string, creds awsv2.CredentialsProvider) (string, error) {
	return auth.BuildAuthToken(ctx, endpoint, region, user, creds)
}

// BuildDBAuthToken signs a short-lived IAM authentication token for the
// database endpoint. The token substitutes for the database password and
// expires after 15 minutes.
func (s *SDKService) BuildDBAuthToken(ctx context.Context, profile, region, host string, port int, username string) (string, error) {
	if region == "" {
		return "", fmt.Errorf("a region is required to sign a DB auth token")
	}

	cfg, err := s.loadConfig(ctx, profile, region)
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s:%d", host, port)
	token, err := s.signToken(ctx, endpoint, region, username, cfg.Credentials)
	if err != nil {
		return "", fmt.Errorf("building auth token for %s: %w", endpoint, err)
	}

	return token, nil
}
