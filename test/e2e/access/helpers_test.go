package access_test

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcexec "github.com/testcontainers/testcontainers-go/exec"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/catedeguzman-it/finmark-sub001/pkg/accesssdk"
	"github.com/catedeguzman-it/finmark-sub001/pkg/cryptox"
	"github.com/catedeguzman-it/finmark-sub001/pkg/jwtx"
)

/*
 * Container setup and helpers for the access service end-to-end tests. The
 * tests play the identity provider themselves: they generate a signing key,
 * hand the service its JWKS and mint bearer tokens with it.
 */

const (
	testImageName = "finmark-access-test:latest"

	testIssuer   = "https://idp.finmark.test/"
	testAudience = "finmark"
	testKID      = "e2e-key"

	rootSubject = "idp|root"
	rootEmail   = "root@finmark.test"
)

var testSigner jwtx.Signer

// TestMain builds the image once before all tests and removes it after.
func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		fmt.Fprintln(os.Stdout, "skipping access e2e tests in short mode")
		os.Exit(0)
	}

	pemKey, err := cryptox.GenerateEd25519Key()
	if err == nil {
		testSigner, err = jwtx.NewSigner(jwtx.AlgEdDSA, testKID, pemKey)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create test signer: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stdout, "Building Access Service Docker image...")
	if err := buildDockerImage(); err != nil {
		fmt.Fprintf(os.Stderr, "\nFailed to build Docker image: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, " done\n")

	exitCode := m.Run()

	fmt.Fprintf(os.Stdout, "Cleaning up Access Service Docker image...")
	cleanupDockerImage()
	fmt.Fprintf(os.Stdout, " done\n")

	os.Exit(exitCode)
}

func buildDockerImage() error {
	cmd := exec.CommandContext(context.Background(), "docker", "build",
		"-t", testImageName,
		"-f", "../../../cmd/access/Dockerfile",
		"../../../")
	cmd.Stdout = os.Stdout
	return cmd.Run()
}

func cleanupDockerImage() {
	_ = exec.CommandContext(context.Background(), "docker", "rmi", "-f", testImageName).Run()
}

type accessContainer struct {
	BaseURL   string
	container testcontainers.Container
}

// setupAccessContainer starts the service with relaxed rate limits and a
// root_admin membership for rootSubject.
func setupAccessContainer(t *testing.T) *accessContainer {
	return startContainer(t, map[string]string{
		"RATELIMIT_STRICT_REQUESTS":   "1000",
		"RATELIMIT_STRICT_WINDOW_SEC": "60",
		"RATELIMIT_STRICT_BURST":      "1000",
		"RATELIMIT_MODERATE_REQUESTS": "1000",
		"RATELIMIT_MODERATE_BURST":    "1000",
	})
}

// setupAccessContainerWithDefaultRateLimits is for the rate limit tests only.
func setupAccessContainerWithDefaultRateLimits(t *testing.T) *accessContainer {
	return startContainer(t, nil)
}

func startContainer(t *testing.T, extraEnv map[string]string) *accessContainer {
	t.Helper()
	ctx := context.Background()

	jwks, err := json.Marshal(jwtx.JWKS{Keys: []jwtx.JWK{testSigner.PublicJWK()}})
	require.NoError(t, err)

	env := map[string]string{
		"ACCESS_IDP_ISSUER":       testIssuer,
		"ACCESS_IDP_AUDIENCE":     testAudience,
		"ACCESS_IDP_ALGORITHM":    jwtx.AlgEdDSA,
		"ACCESS_IDP_JWKS_FILE":    "/etc/access/jwks.json",
		"ACCESS_INVITE_LINK_BASE": "https://app.finmark.test/invite",
		"ACCESS_ENV":              "test",
		"ACCESS_LOG_LEVEL":        "info",
	}
	for k, v := range extraEnv {
		env[k] = v
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        testImageName,
			ExposedPorts: []string{"8080/tcp"},
			Env:          env,
			Files: []testcontainers.ContainerFile{{
				Reader:            bytes.NewReader(jwks),
				ContainerFilePath: "/etc/access/jwks.json",
				FileMode:          0o644,
			}},
			WaitingFor: wait.ForHTTP("/readyz").
				WithPort("8080/tcp").
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	mappedPort, err := container.MappedPort(ctx, "8080")
	require.NoError(t, err)
	host, err := container.Host(ctx)
	require.NoError(t, err)

	c := &accessContainer{
		BaseURL:   fmt.Sprintf("http://%s:%s", host, mappedPort.Port()),
		container: container,
	}
	c.cli(t, "users", "add",
		"--subject", rootSubject,
		"--email", rootEmail,
		"--role", "root_admin",
		"--org", "1",
	)
	return c
}

// cli runs the access binary inside the container and fails the test on a
// non-zero exit.
func (c *accessContainer) cli(t *testing.T, args ...string) string {
	t.Helper()

	code, out, err := c.container.Exec(context.Background(), append([]string{"/access"}, args...), tcexec.Multiplexed())
	require.NoError(t, err)
	raw, _ := io.ReadAll(out)
	require.Equal(t, 0, code, "access %v: %s", args, raw)
	return string(raw)
}

// addMember provisions a membership through the CLI.
func (c *accessContainer) addMember(t *testing.T, subject, email, role string, org int64) {
	t.Helper()
	c.cli(t, "users", "add",
		"--subject", subject,
		"--email", email,
		"--role", role,
		"--org", strconv.FormatInt(org, 10),
	)
}

// client returns an SDK client carrying a freshly minted token for subject.
func (c *accessContainer) client(t *testing.T, subject, email string) *accesssdk.Client {
	t.Helper()
	return accesssdk.NewClient(c.BaseURL).WithToken(mintToken(t, subject, email))
}

func (c *accessContainer) anonymous() *accesssdk.Client {
	return accesssdk.NewClient(c.BaseURL)
}

func mintToken(t *testing.T, subject, email string) string {
	t.Helper()

	tok, err := testSigner.Sign(jwtx.NewClaims(subject, email, testIssuer, []string{testAudience}, time.Hour, time.Now()))
	require.NoError(t, err)
	return tok
}

func assertAPIError(t *testing.T, err error, status int, code string) {
	t.Helper()

	var apiErr *accesssdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, status, apiErr.StatusCode, apiErr.Error())
	require.Equal(t, code, apiErr.Code)
}

func assertHealthy(t *testing.T, health *accesssdk.HealthResponse, err error) {
	t.Helper()
	require.NoError(t, err)
	require.NotNil(t, health)
	require.Equal(t, "ok", health.Status)
}
