package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestUIURL(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{":8080", "http://localhost:8080/"},
		{"127.0.0.1:9000", "http://127.0.0.1:9000/"},
	}
	for _, tt := range tests {
		if got := uiURL(tt.addr); got != tt.want {
			t.Errorf("uiURL(%q) = %q, want %q", tt.addr, got, tt.want)
		}
	}
}

func TestFindWebDir(t *testing.T) {
	dataDir := t.TempDir()
	if got := findWebDir(dataDir); got != "" && filepath.Base(got) != "web" {
		t.Errorf("findWebDir() = %q", got)
	}

	web := filepath.Join(dataDir, "web")
	if err := os.Mkdir(web, 0755); err != nil {
		t.Fatal(err)
	}
	if got := findWebDir(dataDir); filepath.Base(got) != "web" {
		t.Errorf("findWebDir() = %q, want a web directory", got)
	}
}
