package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeImage(t *testing.T, dir string, code []byte) string {
	t.Helper()
	in := filepath.Join(dir, "prog.bin")
	if err := os.WriteFile(in, code, 0644); err != nil {
		t.Fatal(err)
	}
	return in
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	in := writeImage(t, dir, []byte{0xD0, 0, 0, 0x01, 0xF0, 0, 0, 0})
	out := filepath.Join(dir, "prog.dsp")
	var stdout bytes.Buffer
	if err := run(&stdout, in, out); err != nil {
		t.Fatal(err)
	}
	if stdout.Len() != 0 {
		t.Errorf("output file given, but stdout got %q", stdout.String())
	}
	text, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(text), "jmp L_01") || !strings.Contains(string(text), "L_01:") {
		t.Errorf("got:\n%s", text)
	}

	in = writeImage(t, dir, []byte{0xD0, 0})
	if err := run(&stdout, in, out); err == nil {
		t.Error("truncated image accepted")
	}
}

func TestRunToStdout(t *testing.T) {
	in := writeImage(t, t.TempDir(), []byte{0x94, 0, 0, 0x07, 0xF0, 0, 0, 0})
	cmd := newRootCmd()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetArgs([]string{in})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(stdout.String(), "\n"), "\n")
	if len(lines) != 2 || strings.TrimSpace(lines[0]) != "mvi 7,pl" || strings.TrimSpace(lines[1]) != "end" {
		t.Errorf("got:\n%s", stdout.String())
	}
}
