package aws

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const probeTimeout = 15 * time.Second

type probeHTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClusterProber checks EKS control plane reachability over HTTPS. Cluster
// endpoints are only routable from inside the VPC network, so an unreachable
// endpoint usually means the operator's VPN is down.
type ClusterProber struct {
	newClient func(caPEM []byte) (probeHTTPClient, error)
}

// NewClusterProber creates a prober with sane defaults.
func NewClusterProber() *ClusterProber {
	return &ClusterProber{newClient: newProbeClient}
}

func newProbeClient(caPEM []byte) (probeHTTPClient, error) {
	client := &http.Client{Timeout: probeTimeout}

	if len(caPEM) > 0 {
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caPEM) {
			return nil, fmt.Errorf("cluster certificate authority contains no usable certificates")
		}
		client.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{RootCAs: pool},
		}
	}

	return client, nil
}

// Probe issues an unauthenticated GET against the cluster's /version
// endpoint, trusting the cluster's own certificate authority. Any HTTP
// response means the endpoint is reachable; the Kubernetes version is
// returned when the server allows anonymous version reads.
func (p *ClusterProber) Probe(ctx context.Context, endpoint string, caPEM []byte) (string, error) {
	client, err := p.newClient(caPEM)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"/version", nil)
	if err != nil {
		return "", fmt.Errorf("failed to build probe request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("cluster endpoint unreachable (Uhm... VPN on ?): %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Reachable; anonymous access to /version is commonly denied.
		return "", nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read probe response: %w", err)
	}

	var versionResp struct {
		GitVersion string `json:"gitVersion"`
	}

	if err := json.Unmarshal(body, &versionResp); err != nil {
		return "", fmt.Errorf("failed to parse version response: %w", err)
	}

	return versionResp.GitVersion, nil
}
