package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LoadSystemPrompt returns <dir>/<name>.system.txt when it exists and is not
// empty, otherwise def. An empty dir always yields def.
func LoadSystemPrompt(dir, name, def string) string {
	if p, err := loadPrompt(dir, name, "system"); err == nil {
		return p
	}
	return def
}

func loadPrompt(dir, name, tp string) (string, error) {
	if strings.TrimSpace(dir) == "" {
		return "", fmt.Errorf("prompt dir is empty")
	}
	p := filepath.Join(dir, fmt.Sprintf("%s.%s.txt", name, tp))
	b, err := os.ReadFile(p)
	if err != nil {
		return "", err
	}
	s := strings.TrimSpace(string(b))
	if s == "" {
		return "", fmt.Errorf("prompt %s is empty", p)
	}
	return s, nil
}
