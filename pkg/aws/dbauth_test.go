package aws

import (
	"context"
	"errors"
	"strings"
	"testing"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
)

func TestSDKServiceBuildDBAuthToken(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name          string
		loader        configLoader
		region        string
		signErr       error
		wantToken     string
		wantSigned    bool
		wantErrSubstr string
	}{
		{
			name:       "success",
			loader:     fakeConfigLoader{cfg: awsv2.Config{}},
			region:     "us-east-1",
			wantToken:  "signed-token",
			wantSigned: true,
		},
		{
			name:          "missing region",
			loader:        fakeConfigLoader{cfg: awsv2.Config{}},
			region:        "",
			wantErrSubstr: "a region is required to sign a DB auth token",
		},
		{
			name:          "config load failure",
			loader:        fakeConfigLoader{err: errors.New("load failed")},
			region:        "us-east-1",
			wantErrSubstr: "failed to load AWS config: load failed",
		},
		{
			name:          "signer failure",
			loader:        fakeConfigLoader{cfg: awsv2.Config{}},
			region:        "us-east-1",
			signErr:       errors.New("sign failed"),
			wantErrSubstr: "building auth token for db.example.com:3306: sign failed",
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var signed bool
			var gotEndpoint, gotRegion, gotUser string
			signer := func(ctx context.Context, endpoint, region, user string, creds awsv2.CredentialsProvider) (string, error) {
				signed = true
				gotEndpoint, gotRegion, gotUser = endpoint, region, user
				if tc.signErr != nil {
					return "", tc.signErr
				}
				return "signed-token", nil
			}

			svc := newSDKService(tc.loader, fakeSTSFactory{}, fakeEKSFactory{}, signer)
			token, err := svc.BuildDBAuthToken(context.Background(), "test-profile", tc.region, "db.example.com", 3306, "app_user")

			if tc.wantErrSubstr != "" {
				if err == nil {
					t.Fatalf("expected error containing %q but got nil", tc.wantErrSubstr)
				}
				if !strings.Contains(err.Error(), tc.wantErrSubstr) {
					t.Fatalf("expected error containing %q, got %v", tc.wantErrSubstr, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("BuildDBAuthToken returned error: %v", err)
			}

			if token != tc.wantToken {
				t.Fatalf("unexpected token: %q", token)
			}

			if !tc.wantSigned {
				return
			}
			if !signed {
				t.Fatal("expected the signer to be invoked")
			}
			if gotEndpoint != "db.example.com:3306" {
				t.Fatalf("unexpected endpoint: %q", gotEndpoint)
			}
			if gotRegion != "us-east-1" {
				t.Fatalf("unexpected region: %q", gotRegion)
			}
			if gotUser != "app_user" {
				t.Fatalf("unexpected user: %q", gotUser)
			}
		})
	}
}

func TestSDKServiceBuildDBAuthTokenSkipsSignerWithoutRegion(t *testing.T) {
	t.Parallel()

	var signed bool
	signer := func(ctx context.Context, endpoint, region, user string, creds awsv2.CredentialsProvider) (string, error) {
		signed = true
		return "signed-token", nil
	}

	svc := newSDKService(fakeConfigLoader{cfg: awsv2.Config{}}, fakeSTSFactory{}, fakeEKSFactory{}, signer)
	if _, err := svc.BuildDBAuthToken(context.Background(), "test-profile", "", "db.example.com", 3306, "app_user"); err == nil {
		t.Fatal("expected an error for a missing region")
	}

	if signed {
		t.Fatal("signer should not run without a region")
	}
}
