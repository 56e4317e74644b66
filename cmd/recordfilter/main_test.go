package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

var (
	buildOnce  sync.Once
	binaryPath string
	buildErr   error
)

// testFixturePath returns the path to test fixtures
func testFixturePath(filename string) string {
	return filepath.Join("..", "..", "internal", "config", "testdata", filename)
}

// buildCLI builds the CLI binary once per test run.
func buildCLI(t *testing.T) string {
	t.Helper()
	buildOnce.Do(func() {
		dir, err := os.MkdirTemp("", "recordfilter-cli")
		if err != nil {
			buildErr = err
			return
		}
		binaryPath = filepath.Join(dir, "recordfilter")
		buildCmd := exec.Command("go", "build", "-o", binaryPath, ".")
		var out bytes.Buffer
		buildCmd.Stderr = &out
		if err := buildCmd.Run(); err != nil {
			buildErr = errors.New(out.String())
		}
	})
	if buildErr != nil {
		t.Fatalf("failed to build CLI: %v", buildErr)
	}
	return binaryPath
}

// runCLI runs the CLI binary and returns stdout, stderr, and exit code
func runCLI(t *testing.T, args ...string) (stdout, stderr string, exitCode int) {
	t.Helper()

	cmd := exec.Command(buildCLI(t), args...)
	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	err := cmd.Run()
	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			t.Fatalf("failed to run CLI: %v", err)
		}
	}

	return stdout, stderr, exitCode
}

func writeDataFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCLI_Help(t *testing.T) {
	stdout, _, exitCode := runCLI(t, "--help")

	if exitCode != ExitSuccess {
		t.Errorf("expected exit code 0, got %d", exitCode)
	}
	for _, want := range []string{"recordfilter", "users", "orders", "products", "run", "validate"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected help to contain %q", want)
		}
	}
}

func TestCLI_Scenarios(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "active users",
			args: []string{"users", "--active=true"},
			want: "Id : 1 | Name : Alice\nId : 3 | Name : Charlie\nId : 5 | Name : Eve\n",
		},
		{
			name: "high value completed orders",
			args: []string{"orders", "--min-total", "1000", "--status", "Completed"},
			want: "Order ID: 2, Total Amount: 1500, Status: Completed\nOrder ID: 4, Total Amount: 1200, Status: Completed\n",
		},
		{
			name: "product search",
			args: []string{"products", "--search", "TV", "--category", "Elec", "--min-price", "80"},
			want: "Name : TV | Category : Elec | Price : 800\n",
		},
		{
			name: "status is case-insensitive",
			args: []string{"orders", "--status", "cancelled"},
			want: "Order ID: 5, Total Amount: 300, Status: Cancelled\n",
		},
		{
			name: "unset flags impose no constraint",
			args: []string{"users"},
			want: "Id : 1 | Name : Alice\nId : 2 | Name : Bob\nId : 3 | Name : Charlie\nId : 4 | Name : David\nId : 5 | Name : Eve\n",
		},
		{
			name: "blank search imposes no constraint",
			args: []string{"products", "--search", "  ", "--category", "IOS"},
			want: "Name : Phone | Category : IOS | Price : 4000\n",
		},
		{
			name: "blank status and min total impose no constraint",
			args: []string{"orders", "--status", "", "--min-total", " ", "--data", testFixturePath("orders-data.json")},
			want: "Order ID: 10, Total Amount: 1000, Status: Completed\nOrder ID: 11, Total Amount: 1000.01, Status: Completed\nOrder ID: 12, Total Amount: 2500, Status: Pending\n",
		},
		{
			name: "blank min price imposes no constraint",
			args: []string{"products", "--min-price", "", "--category", "IOS"},
			want: "Name : Phone | Category : IOS | Price : 4000\n",
		},
		{
			name: "no matches",
			args: []string{"products", "--search", "tv"},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, stderr, exitCode := runCLI(t, append(tt.args, "--quiet")...)
			if exitCode != ExitSuccess {
				t.Fatalf("expected exit code %d, got %d\nstderr: %s", ExitSuccess, exitCode, stderr)
			}
			if stdout != tt.want {
				t.Errorf("stdout = %q, want %q", stdout, tt.want)
			}
		})
	}
}

func TestCLI_RejectedCriteria(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "negative min total", args: []string{"orders", "--min-total", "-1"}, want: "minTotal=-1"},
		{name: "negative min price", args: []string{"products", "--min-price", "-0.5"}, want: "minPrice=-0.5"},
		{name: "unknown status", args: []string{"orders", "--status", "Shipped"}, want: "status=Shipped"},
		{name: "non-numeric bound", args: []string{"orders", "--min-total", "lots"}, want: "minTotal=lots"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, stderr, exitCode := runCLI(t, tt.args...)
			if exitCode != ExitValidationError {
				t.Errorf("expected exit code %d, got %d", ExitValidationError, exitCode)
			}
			if !strings.Contains(stderr, "✗ Invalid criterion") || !strings.Contains(stderr, tt.want) {
				t.Errorf("expected rejection naming %q, got: %s", tt.want, stderr)
			}
			if stdout != "" {
				t.Errorf("expected no results on stdout, got: %s", stdout)
			}
		})
	}
}

func TestCLI_JSONOutput(t *testing.T) {
	stdout, stderr, exitCode := runCLI(t, "orders", "--min-total", "1000", "--output", "json", "--quiet")
	if exitCode != ExitSuccess {
		t.Fatalf("expected exit code %d, got %d\nstderr: %s", ExitSuccess, exitCode, stderr)
	}

	var doc struct {
		QueryID string           `json:"queryId"`
		Kind    string           `json:"kind"`
		Total   int              `json:"total"`
		Matched int              `json:"matched"`
		Records []map[string]any `json:"records"`
	}
	if err := json.Unmarshal([]byte(stdout), &doc); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, stdout)
	}
	if doc.QueryID == "" || doc.Kind != "orders" || doc.Total != 5 || doc.Matched != 2 {
		t.Errorf("unexpected document: %+v", doc)
	}
}

func TestCLI_InvalidOutputFormat(t *testing.T) {
	_, stderr, exitCode := runCLI(t, "users", "--output", "xml")
	if exitCode != ExitValidationError {
		t.Errorf("expected exit code %d, got %d", ExitValidationError, exitCode)
	}
	if !strings.Contains(stderr, "unknown output format") {
		t.Errorf("expected output format error, got: %s", stderr)
	}
}

func TestCLI_DataFile(t *testing.T) {
	stdout, stderr, exitCode := runCLI(t, "orders", "--min-total", "1000", "--quiet",
		"--data", testFixturePath("orders-data.json"))
	if exitCode != ExitSuccess {
		t.Fatalf("expected exit code %d, got %d\nstderr: %s", ExitSuccess, exitCode, stderr)
	}

	want := "Order ID: 11, Total Amount: 1000.01, Status: Completed\nOrder ID: 12, Total Amount: 2500, Status: Pending\n"
	if stdout != want {
		t.Errorf("stdout = %q, want %q", stdout, want)
	}
}

func TestCLI_DataFileErrors(t *testing.T) {
	t.Run("syntax error", func(t *testing.T) {
		_, stderr, exitCode := runCLI(t, "users", "--data", testFixturePath("invalid-json.json"))
		if exitCode != ExitParseError {
			t.Errorf("expected exit code %d, got %d", ExitParseError, exitCode)
		}
		if !strings.Contains(stderr, "Parse errors") {
			t.Errorf("expected parse errors, got: %s", stderr)
		}
	})

	t.Run("malformed record", func(t *testing.T) {
		path := writeDataFile(t, "users.json", `[{"id": 1, "name": "A", "active": "yes"}]`)
		_, stderr, exitCode := runCLI(t, "users", "--data", path)
		if exitCode != ExitValidationError {
			t.Errorf("expected exit code %d, got %d", ExitValidationError, exitCode)
		}
		if !strings.Contains(stderr, "users[0].active") {
			t.Errorf("expected record location in error, got: %s", stderr)
		}
	})
}

func TestCLI_RunQueryFile(t *testing.T) {
	tests := []struct {
		name string
		file string
		want string
	}{
		{
			name: "orders from sample data",
			file: "valid-orders.json",
			want: "Order ID: 2, Total Amount: 1500, Status: Completed\nOrder ID: 4, Total Amount: 1200, Status: Completed\n",
		},
		{
			name: "users yaml",
			file: "valid-users.yaml",
			want: "Id : 1 | Name : Alice\nId : 3 | Name : Charlie\nId : 5 | Name : Eve\n",
		},
		{
			name: "inline records",
			file: "valid-products.yaml",
			want: "Name : TV | Category : Elec | Price : 800\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, stderr, exitCode := runCLI(t, "run", "--quiet", testFixturePath(tt.file))
			if exitCode != ExitSuccess {
				t.Fatalf("expected exit code %d, got %d\nstderr: %s", ExitSuccess, exitCode, stderr)
			}
			if stdout != tt.want {
				t.Errorf("stdout = %q, want %q", stdout, tt.want)
			}
		})
	}
}

func TestCLI_RunInlineRecordsIgnoreDataFile(t *testing.T) {
	path := writeDataFile(t, "broken.json", `[{"name": "TV", "price": `)

	stdout, stderr, exitCode := runCLI(t, "run", "--quiet", "--data", path, testFixturePath("valid-products.yaml"))
	if exitCode != ExitSuccess {
		t.Fatalf("expected exit code %d, got %d\nstderr: %s", ExitSuccess, exitCode, stderr)
	}
	if want := "Name : TV | Category : Elec | Price : 800\n"; stdout != want {
		t.Errorf("stdout = %q, want %q", stdout, want)
	}
}

func TestCLI_RunErrors(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		wantCode int
		wantErr  string
	}{
		{name: "parse error", file: "invalid-json.json", wantCode: ExitParseError, wantErr: "Parse errors"},
		{name: "schema error", file: "invalid-schema-missing-kind.json", wantCode: ExitValidationError, wantErr: "Validation errors"},
		{name: "unknown status", file: "invalid-criterion-status.json", wantCode: ExitValidationError, wantErr: "Invalid criterion"},
		{name: "negative bound", file: "negative-bound.yaml", wantCode: ExitValidationError, wantErr: "minPrice=-5"},
		{name: "inapplicable criterion", file: "criterion-wrong-kind.json", wantCode: ExitValidationError, wantErr: "minPrice"},
		{name: "malformed records", file: "invalid-records.json", wantCode: ExitValidationError, wantErr: "Invalid records"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, stderr, exitCode := runCLI(t, "run", testFixturePath(tt.file))
			if exitCode != tt.wantCode {
				t.Errorf("expected exit code %d, got %d\nstderr: %s", tt.wantCode, exitCode, stderr)
			}
			if !strings.Contains(stderr, tt.wantErr) {
				t.Errorf("expected stderr to contain %q, got: %s", tt.wantErr, stderr)
			}
		})
	}
}

func TestCLI_RunReportsEveryCriterion(t *testing.T) {
	_, stderr, exitCode := runCLI(t, "run", testFixturePath("several-bad-criteria.yaml"))

	if exitCode != ExitValidationError {
		t.Errorf("expected exit code %d, got %d\nstderr: %s", ExitValidationError, exitCode, stderr)
	}
	for _, want := range []string{"minTotal=-1", "status=Shipped"} {
		if !strings.Contains(stderr, want) {
			t.Errorf("expected stderr to contain %q, got: %s", want, stderr)
		}
	}
}

func TestCLI_ValidateValid(t *testing.T) {
	stdout, stderr, exitCode := runCLI(t, "validate", testFixturePath("valid-orders.json"))

	if exitCode != ExitSuccess {
		t.Errorf("expected exit code %d, got %d\nstderr: %s", ExitSuccess, exitCode, stderr)
	}
	if !strings.Contains(stdout, "valid") {
		t.Errorf("expected output to contain 'valid', got: %s", stdout)
	}
}

func TestCLI_ValidateVerbose(t *testing.T) {
	stdout, _, exitCode := runCLI(t, "validate", "--verbose", testFixturePath("valid-products.yaml"))

	if exitCode != ExitSuccess {
		t.Errorf("expected exit code %d, got %d", ExitSuccess, exitCode)
	}
	for _, want := range []string{"Query: search-products", "Kind: products", "Inline records: 4"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected verbose output to contain %q, got: %s", want, stdout)
		}
	}
}

func TestCLI_ValidateQuiet(t *testing.T) {
	stdout, _, exitCode := runCLI(t, "validate", "--quiet", testFixturePath("valid-orders.json"))

	if exitCode != ExitSuccess {
		t.Errorf("expected exit code %d, got %d", ExitSuccess, exitCode)
	}
	if stdout != "" {
		t.Errorf("expected quiet mode to suppress output, got: %s", stdout)
	}
}

func TestCLI_ValidateErrors(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		wantCode int
		wantErr  string
	}{
		{name: "invalid json", path: testFixturePath("invalid-json.json"), wantCode: ExitParseError, wantErr: "Parse errors"},
		{name: "missing file", path: "nonexistent.json", wantCode: ExitParseError, wantErr: "Parse errors"},
		{name: "unknown kind", path: testFixturePath("invalid-schema-unknown-kind.yaml"), wantCode: ExitValidationError, wantErr: "Validation errors"},
		{name: "unknown status", path: testFixturePath("invalid-criterion-status.json"), wantCode: ExitValidationError, wantErr: "status=Shipped"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, stderr, exitCode := runCLI(t, "validate", tt.path)
			if exitCode != tt.wantCode {
				t.Errorf("expected exit code %d, got %d", tt.wantCode, exitCode)
			}
			if !strings.Contains(stderr, tt.wantErr) {
				t.Errorf("expected stderr to contain %q, got: %s", tt.wantErr, stderr)
			}
		})
	}
}

func TestCLI_ValidateMissingArg(t *testing.T) {
	_, stderr, exitCode := runCLI(t, "validate")

	if exitCode == ExitSuccess {
		t.Error("expected non-zero exit code for missing argument")
	}
	if !strings.Contains(stderr, "accepts 1 arg") {
		t.Errorf("expected error about missing argument, got: %s", stderr)
	}
}

func TestCLI_HumanLogs(t *testing.T) {
	_, stderr, exitCode := runCLI(t, "users", "--active=false", "--log-format", "human")
	if exitCode != ExitSuccess {
		t.Fatalf("expected exit code %d, got %d", ExitSuccess, exitCode)
	}
	if !strings.Contains(stderr, "query completed") || strings.Contains(stderr, `"msg"`) {
		t.Errorf("expected human-readable logs on stderr, got: %s", stderr)
	}
}

func TestCLI_Version(t *testing.T) {
	stdout, stderr, exitCode := runCLI(t, "version")

	if exitCode != ExitSuccess {
		t.Errorf("expected exit code %d, got %d\nstderr: %s", ExitSuccess, exitCode, stderr)
	}
	for _, want := range []string{"Version:", "Commit:", "Build Date:"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected output to contain %q, got: %s", want, stdout)
		}
	}
}
