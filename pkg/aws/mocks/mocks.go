package mocks

import (
	"context"
	"fmt"

	awslib "github.com/eculver/aws-session/pkg/aws"
)

type Service struct {
	GetCallerIdentityFunc   func(ctx context.Context, profile string) (awslib.Identity, error)
	RetrieveCredentialsFunc func(ctx context.Context, profile string) (awslib.Credentials, error)
	GetSessionTokenFunc     func(ctx context.Context, profile string, durationSeconds int32) (awslib.Credentials, error)
	DescribeClusterFunc     func(ctx context.Context, profile, region, name string) (awslib.ClusterInfo, error)
	BuildDBAuthTokenFunc    func(ctx context.Context, profile, region, host string, port int, username string) (string, error)

	GetCallerIdentityCalls   int
	RetrieveCredentialsCalls int
	GetSessionTokenCalls     int
	DescribeClusterCalls     int
	BuildDBAuthTokenCalls    int
}

func (m *Service) GetCallerIdentity(ctx context.Context, profile string) (awslib.Identity, error) {
	m.GetCallerIdentityCalls++
	if m.GetCallerIdentityFunc == nil {
		return awslib.Identity{}, fmt.Errorf("GetCallerIdentityFunc is not set")
	}
	return m.GetCallerIdentityFunc(ctx, profile)
}

func (m *Service) RetrieveCredentials(ctx context.Context, profile string) (awslib.Credentials, error) {
	m.RetrieveCredentialsCalls++
	if m.RetrieveCredentialsFunc == nil {
		return awslib.Credentials{}, fmt.Errorf("RetrieveCredentialsFunc is not set")
	}
	return m.RetrieveCredentialsFunc(ctx, profile)
}

func (m *Service) GetSessionToken(ctx context.Context, profile string, durationSeconds int32) (awslib.Credentials, error) {
	m.GetSessionTokenCalls++
	if m.GetSessionTokenFunc == nil {
		return awslib.Credentials{}, fmt.Errorf("GetSessionTokenFunc is not set")
	}
	return m.GetSessionTokenFunc(ctx, profile, durationSeconds)
}

func (m *Service) DescribeCluster(ctx context.Context, profile, region, name string) (awslib.ClusterInfo, error) {
	m.DescribeClusterCalls++
	if m.DescribeClusterFunc == nil {
		return awslib.ClusterInfo{}, fmt.Errorf("DescribeClusterFunc is not set")
	}
	return m.DescribeClusterFunc(ctx, profile, region, name)
}

func (m *Service) BuildDBAuthToken(ctx context.Context, profile, region, host string, port int, username string) (string, error) {
	m.BuildDBAuthTokenCalls++
	if m.BuildDBAuthTokenFunc == nil {
		return "", fmt.Errorf("BuildDBAuthTokenFunc is not set")
	}
	return m.BuildDBAuthTokenFunc(ctx, profile, region, host, port, username)
}

type Prober struct {
	ProbeFunc func(ctx context.Context, endpoint string, caPEM []byte) (string, error)

	ProbeCalls   int
	LastEndpoint string
	LastCAPEM    []byte
}

func (m *Prober) Probe(ctx context.Context, endpoint string, caPEM []byte) (string, error) {
	m.ProbeCalls++
	m.LastEndpoint = endpoint
	m.LastCAPEM = caPEM

	if m.ProbeFunc == nil {
		return "", fmt.Errorf("ProbeFunc is not set")
	}

	return m.ProbeFunc(ctx, endpoint, caPEM)
}
