package cmd

import (
	"reflect"
	"strings"
	"testing"

	"github.com/eculver/aws-session/pkg/config"
)

func TestResolveTarget(t *testing.T) {
	t.Setenv("AWS_PROFILE", "")

	cfg := testConfig()

	devTarget := sessionTarget{
		envName:   "dev",
		profile:   "dev-p",
		cluster:   "dev-cluster",
		region:    "us-west-2",
		namespace: "apps",
		database:  config.Database{Host: "db.dev.example.com", Port: 3306, Username: "app_user"},
		tunnel:    config.Tunnel{Service: "db-proxy", Namespace: "apps", LocalPort: 3306, RemotePort: 3306},
		logs:      config.Logs{Namespace: "apps", Component: "api", Container: "api"},
	}

	overriddenTarget := devTarget
	overriddenTarget.profile = "override-p"
	overriddenTarget.cluster = "override-cluster"
	overriddenTarget.region = "eu-west-1"
	overriddenTarget.database = config.Database{Host: "db.other.example.com", Port: 5432, Username: "admin"}

	testCases := []struct {
		name    string
		opts    *rootOptions
		flags   targetFlags
		want    sessionTarget
		wantErr string
	}{
		{
			name: "environment fields flow through",
			opts: &rootOptions{envName: "dev", cfg: cfg},
			want: devTarget,
		},
		{
			name: "flags override environment",
			opts: &rootOptions{envName: "dev", cfg: cfg},
			flags: targetFlags{
				profile: "override-p",
				cluster: "override-cluster",
				region:  "eu-west-1",
				dbHost:  "db.other.example.com",
				dbPort:  5432,
				dbUser:  "admin",
			},
			want: overriddenTarget,
		},
		{
			name: "default environment is used when none selected",
			opts: &rootOptions{cfg: cfg},
			want: devTarget,
		},
		{
			name:  "flags alone without config",
			opts:  &rootOptions{},
			flags: targetFlags{profile: "p", cluster: "c", region: "r", dbHost: "h", dbUser: "u"},
			want: sessionTarget{
				profile:  "p",
				cluster:  "c",
				region:   "r",
				database: config.Database{Host: "h", Port: 3306, Username: "u"},
			},
		},
		{
			name:    "unknown environment",
			opts:    &rootOptions{envName: "prod", cfg: cfg},
			wantErr: `environment "prod" is not configured`,
		},
		{
			name:    "environment requested without config",
			opts:    &rootOptions{envName: "dev"},
			wantErr: `environment "dev" requested but no config file was found`,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, err := resolveTarget(tc.opts, tc.flags)

			if tc.wantErr != "" {
				if err == nil {
					t.Fatalf("expected error containing %q but got nil", tc.wantErr)
				}
				if !strings.Contains(err.Error(), tc.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("resolveTarget returned error: %v", err)
			}

			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("unexpected target:\n got: %+v\nwant: %+v", got, tc.want)
			}
		})
	}
}

func TestResolveTargetAmbientProfile(t *testing.T) {
	t.Setenv("AWS_PROFILE", "ambient-p")

	got, err := resolveTarget(&rootOptions{}, targetFlags{})
	if err != nil {
		t.Fatalf("resolveTarget returned error: %v", err)
	}
	if got.profile != "ambient-p" {
		t.Fatalf("expected ambient profile, got %q", got.profile)
	}

	got, err = resolveTarget(&rootOptions{}, targetFlags{profile: "flag-p"})
	if err != nil {
		t.Fatalf("resolveTarget returned error: %v", err)
	}
	if got.profile != "flag-p" {
		t.Fatalf("expected flag profile to win, got %q", got.profile)
	}
}

func TestSessionTargetValidation(t *testing.T) {
	t.Parallel()

	var empty sessionTarget

	if err := empty.requireCluster(); err == nil || !strings.Contains(err.Error(), "an EKS cluster is required") {
		t.Fatalf("unexpected cluster error: %v", err)
	}
	if err := empty.requireDatabase(); err == nil || !strings.Contains(err.Error(), "a database host is required") {
		t.Fatalf("unexpected database error: %v", err)
	}
	if err := empty.requireRegion(); err == nil || !strings.Contains(err.Error(), "a region is required") {
		t.Fatalf("unexpected region error: %v", err)
	}

	hostOnly := sessionTarget{database: config.Database{Host: "db.example.com"}}
	if err := hostOnly.requireDatabase(); err == nil || !strings.Contains(err.Error(), "a database username is required") {
		t.Fatalf("unexpected username error: %v", err)
	}

	full := sessionTarget{
		cluster:  "c",
		region:   "r",
		database: config.Database{Host: "h", Username: "u"},
	}
	if err := full.requireCluster(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := full.requireDatabase(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := full.requireRegion(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
