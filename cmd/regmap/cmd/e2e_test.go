package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/OpenTraceLab/OpenTraceRegmap/internal/logging"
	"github.com/OpenTraceLab/OpenTraceRegmap/pkg/hwio"
)

const testdata = "../../../testdata"

var (
	econT     = filepath.Join(testdata, "regmaps", "econ_t.yaml")
	econTVals = filepath.Join(testdata, "values", "econt_config.yaml")
	econTOvr  = filepath.Join(testdata, "values", "econt_overrides.txt")
)

// resetFlags restores every flag variable so runs do not leak into each other.
func resetFlags() {
	verbose = false
	logLevel = logging.Levels[0]

	translateFlags.reset()
	translateOut = ""
	translateOnto = ""

	writeFlags.reset()
	transportKind = string(hwio.InterfaceKindSim)
	chipAddress = "0x20"
	addressWidth = 2
	verifyWrites = false
	byteWrites = false
	readModifyWrite = false
	writeOut = ""
	metricsTextfile = ""
	transportTimeout = hwio.DefaultTimeout

	decodeChip = ""
	decodeValuesOut = ""
	diffSchema = ""
	diffChip = ""
}

// runCLI executes the root command with args and returns what it printed.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	// Capture stdout
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	// Read in background to prevent pipe buffer from blocking on Windows
	var buf bytes.Buffer
	done := make(chan struct{})
	go func() {
		buf.ReadFrom(r)
		close(done)
	}()

	resetFlags()
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()

	w.Close()
	os.Stdout = old
	<-done

	return buf.String(), err
}

// TestTranslateE2E tests the translate command end-to-end
func TestTranslateE2E(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		wantErr     bool
		wantContain []string
		wantMissing []string
	}{
		{
			name: "defaults",
			args: []string{"translate", econT},
			wantContain: []string{
				"0x380 0x13\n",
				"0x381 0xcc\n",
				"0x381 0x9c\n",
				"0x3a0 0x23\n0x3a0 0xa1\n",
				"0x3a9 0x22\n0x3a9 0x1\n",
				"0x3ab 0xd4\n",
			},
		},
		{
			name:        "values file",
			args:        []string{"translate", econT, "-c", econTVals},
			wantContain: []string{"0x380 0x25\n", "0x3a9 0xab\n0x3a9 0x0\n"},
		},
		{
			name:        "override file",
			args:        []string{"translate", econT, "--overrides", econTOvr},
			wantContain: []string{"0x3a0 0x23\n0x3a0 0x31\n", "0x3ab 0xd5\n"},
		},
		{
			name:        "set wins over values file",
			args:        []string{"translate", econT, "-c", econTVals, "--set", "ALIGNER.RW.CONFIG_i2c_config_mask=0x7"},
			wantContain: []string{"0x380 0x27\n"},
		},
		{
			name:        "block filter",
			args:        []string{"translate", econT, "--block", "ERRTOP"},
			wantContain: []string{"0x3a0 0x23\n"},
			wantMissing: []string{"0x380", "0x3ab"},
		},
		{
			name:    "unknown parameter",
			args:    []string{"translate", econT, "--set", "ERRTOP.RW.CONFIG_nope=1"},
			wantErr: true,
		},
		{
			name:    "bad expression",
			args:    []string{"translate", econT, "--set", "ERRTOP.RW="},
			wantErr: true,
		},
		{
			name:        "param filter",
			args:        []string{"translate", econT, "--param", "^CONFIG_err"},
			wantContain: []string{"0x3a0 0x0\n0x3a0 0xa0\n"},
			wantMissing: []string{"0x380", "0x3a9"},
		},
		{
			name:    "missing file",
			args:    []string{"translate", "does-not-exist.yaml"},
			wantErr: true,
		},
		{
			name:    "bad order",
			args:    []string{"translate", econT, "--order", "random"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := runCLI(t, tt.args...)

			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error but got none")
				}
				return
			}
			if err != nil {
				t.Errorf("Unexpected error: %v\nOutput: %s", err, output)
				return
			}

			for _, want := range tt.wantContain {
				if !strings.Contains(output, want) {
					t.Errorf("Output missing %q\nFull output:\n%s", want, output)
				}
			}
			for _, unwanted := range tt.wantMissing {
				if strings.Contains(output, unwanted) {
					t.Errorf("Output unexpectedly contains %q\nFull output:\n%s", unwanted, output)
				}
			}
		})
	}
}

// TestWriteE2E writes through the simulator with verification
func TestWriteE2E(t *testing.T) {
	dir := t.TempDir()
	metricsFile := filepath.Join(dir, "regmap.prom")

	output, err := runCLI(t, "write", econT, "--verify", "--metrics-textfile", metricsFile)
	if err != nil {
		t.Fatalf("Unexpected error: %v\nOutput: %s", err, output)
	}
	if !strings.Contains(output, "Wrote 6 registers (22 bytes)") {
		t.Errorf("Output missing summary\nFull output:\n%s", output)
	}

	metrics, err := os.ReadFile(metricsFile)
	if err != nil {
		t.Fatalf("metrics file: %v", err)
	}
	for _, want := range []string{"regmap_registers_written_total 6", "regmap_bytes_written_total 22", "regmap_verify_failures_total 0"} {
		if !strings.Contains(string(metrics), want) {
			t.Errorf("metrics missing %q:\n%s", want, metrics)
		}
	}

	output, err = runCLI(t, "write", econT, "--byte-writes", "--read-modify-write")
	if err != nil {
		t.Fatalf("Unexpected error: %v\nOutput: %s", err, output)
	}
	if !strings.Contains(output, "0x3ab 0xd4\n") {
		t.Errorf("Output missing 0x3ab\nFull output:\n%s", output)
	}

	if _, err := runCLI(t, "write", econT, "--i2c-addr", "0x80"); err == nil {
		t.Error("Expected error for 8-bit chip address")
	}
	if _, err := runCLI(t, "write", econT, "--transport", "ftdi"); err == nil {
		t.Error("Expected error for unknown transport")
	}
}

// TestImageRoundTripE2E saves images, decodes them and compares them
func TestImageRoundTripE2E(t *testing.T) {
	dir := t.TempDir()
	before := filepath.Join(dir, "before.cbor")
	after := filepath.Join(dir, "after.cbor")
	values := filepath.Join(dir, "decoded.yaml")

	if out, err := runCLI(t, "translate", econT, "--out", before); err != nil {
		t.Fatalf("translate: %v\n%s", err, out)
	}
	if out, err := runCLI(t, "translate", econT, "--set", "ERRTOP.RW.CONFIG_err_mask=3", "--out", after); err != nil {
		t.Fatalf("translate: %v\n%s", err, out)
	}

	output, err := runCLI(t, "decode", econT, after, "--values-out", values)
	if err != nil {
		t.Fatalf("decode: %v\n%s", err, output)
	}
	for _, want := range []string{
		"ERRTOP.RW.CONFIG_err_mask = 0x3\n",
		"ERRTOP.RW.CONFIG_wrn_mask = 0x123\n",
		"FMTBUF.RW.CONFIG_eporttx_numen = 0xD\n",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("decode output missing %q\nFull output:\n%s", want, output)
		}
	}

	// The decoded values file feeds back into translate
	output, err = runCLI(t, "translate", econT, "-c", values)
	if err != nil {
		t.Fatalf("translate -c decoded: %v\n%s", err, output)
	}
	if !strings.Contains(output, "0x3a0 0x31\n") {
		t.Errorf("decoded values did not round-trip\nFull output:\n%s", output)
	}

	output, err = runCLI(t, "diff", before, after, "--schema", econT)
	if err != nil {
		t.Fatalf("diff: %v\n%s", err, output)
	}
	for _, want := range []string{
		"~ 0x03A0 23 A1 -> 23 31",
		"ERRTOP.RW.CONFIG_err_mask: 0xA -> 0x3",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("diff output missing %q\nFull output:\n%s", want, output)
		}
	}
	if strings.Contains(output, "CONFIG_wrn_mask") {
		t.Errorf("unchanged parameter reported\nFull output:\n%s", output)
	}

	output, err = runCLI(t, "diff", before, before)
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	if !strings.Contains(output, "No differences.") {
		t.Errorf("identical images differ\nFull output:\n%s", output)
	}

	// Only ERRTOP is rewritten; every other register of the seed is dropped
	output, err = runCLI(t, "translate", econT, "--block", "ERRTOP", "--onto", after)
	if err != nil {
		t.Fatalf("translate --onto: %v\n%s", err, output)
	}
	if output != "0x3a0 0x23\n0x3a0 0xa1\n" {
		t.Errorf("unexpected --onto output:\n%s", output)
	}
}

// TestChipsE2E summarizes every register map in testdata
func TestChipsE2E(t *testing.T) {
	output, err := runCLI(t, "chips", filepath.Join(testdata, "regmaps"))
	if err != nil {
		t.Fatalf("Unexpected error: %v\nOutput: %s", err, output)
	}
	for _, want := range []string{
		"econd      2 parameters   2 registers",
		"econt     10 parameters   6 registers",
		"econ_t.yaml",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("Output missing %q\nFull output:\n%s", want, output)
		}
	}
	if strings.Index(output, "econd") > strings.Index(output, "econt") {
		t.Errorf("chips not sorted\nFull output:\n%s", output)
	}

	if _, err := runCLI(t, "chips", "does-not-exist"); err == nil {
		t.Error("Expected error for missing directory")
	}
}
