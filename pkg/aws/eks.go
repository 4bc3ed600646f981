package aws

import (
	"context"
	"encoding/base64"
	"fmt"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eks"
)

type eksAPI interface {
	DescribeCluster(ctx context.Context, params *eks.DescribeClusterInput, optFns ...func(*eks.Options)) (*eks.DescribeClusterOutput, error)
}

type eksClientFactory interface {
	NewFromConfig(cfg awsv2.Config) eksAPI
}

type defaultEKSClientFactory struct{}

func (defaultEKSClientFactory) NewFromConfig(cfg awsv2.Config) eksAPI {
	return eks.NewFromConfig(cfg)
}

// DescribeCluster fetches control plane details for the named EKS cluster.
func (s *SDKService) DescribeCluster(ctx context.Context, profile, region, name string) (ClusterInfo, error) {
	cfg, err := s.loadConfig(ctx, profile, region)
	if err != nil {
		return ClusterInfo{}, err
	}

	out, err := s.eksFactory.NewFromConfig(cfg).DescribeCluster(ctx, &eks.DescribeClusterInput{
		Name: awsv2.String(name),
	})
	if err != nil {
		return ClusterInfo{}, err
	}

	cluster := out.Cluster
	if cluster == nil {
		return ClusterInfo{}, fmt.Errorf("EKS returned no description for cluster %q", name)
	}

	info := ClusterInfo{
		Name:            awsv2.ToString(cluster.Name),
		Arn:             awsv2.ToString(cluster.Arn),
		Status:          string(cluster.Status),
		Version:         awsv2.ToString(cluster.Version),
		PlatformVersion: awsv2.ToString(cluster.PlatformVersion),
		Endpoint:        awsv2.ToString(cluster.Endpoint),
	}

	if cluster.CertificateAuthority != nil && cluster.CertificateAuthority.Data != nil {
		pemData, err := base64.StdEncoding.DecodeString(*cluster.CertificateAuthority.Data)
		if err != nil {
			return ClusterInfo{}, fmt.Errorf("decoding cluster certificate authority: %w", err)
		}
		info.CertificateAuthority = pemData
	}

	return info, nil
}
