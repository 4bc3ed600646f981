package aws

import (
	"context"
	"time"
)

// Identity captures the principal that authenticated with STS.
type Identity struct {
	Arn     string
	Account string
}

// Credentials are temporary or long-lived AWS credentials.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string

	// Expires is zero for credentials without a known expiry.
	Expires time.Time
}

// ClusterInfo describes an EKS cluster's control plane.
type ClusterInfo struct {
	Name                 string
	Arn                  string
	Status               string
	Version              string
	PlatformVersion      string
	Endpoint             string
	CertificateAuthority []byte // PEM
}

// Service handles identity, credential, cluster and database token
// operations against AWS APIs.
type Service interface {
	GetCallerIdentity(ctx context.Context, profile string) (Identity, error)
	RetrieveCredentials(ctx context.Context, profile string) (Credentials, error)
	GetSessionToken(ctx context.Context, profile string, durationSeconds int32) (Credentials, error)
	DescribeCluster(ctx context.Context, profile, region, name string) (ClusterInfo, error)
	BuildDBAuthToken(ctx context.Context, profile, region, host string, port int, username string) (string, error)
}

// EndpointProber checks whether a cluster API endpoint is reachable.
// The returned string is the server's version when it allows anonymous
// version reads, otherwise empty.
type EndpointProber interface {
	Probe(ctx context.Context, endpoint string, caPEM []byte) (string, error)
}
