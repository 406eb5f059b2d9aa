// Package prompts renders the model prompts kept as embedded YAML files.
// Each file is a mode; each of its variants is compiled as base_prompt
// followed by the variant body.
package prompts

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed templates/*.yaml
var templateFS embed.FS

// Modes used by the interview pipeline.
const (
	ModeQuestions = "questions"
	ModeEvaluate  = "evaluate"
	ModeSummary   = "summary"
)

var requiredModes = []string{ModeQuestions, ModeEvaluate, ModeSummary}

// Renderer renders a prompt for a mode and variant.
type Renderer interface {
	Render(mode, variant string, data interface{}) (string, error)
	Modes() []string
}

type promptFile struct {
	Base     string            `yaml:"base_prompt"`
	Variants map[string]string `yaml:"variants"`
}

// Manager holds the compiled templates, keyed by "mode/variant".
type Manager struct {
	compiled map[string]*template.Template
	modes    []string
}

var funcs = template.FuncMap{
	"join": strings.Join,
	"inc":  func(i int) int { return i + 1 },
}

// Load compiles the embedded templates and checks every pipeline mode exists.
func Load() (*Manager, error) {
	return loadFS(templateFS, "templates")
}

func loadFS(fsys fs.FS, dir string) (*Manager, error) {
	files, err := fs.Glob(fsys, path.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("list prompt templates: %w", err)
	}

	m := &Manager{compiled: make(map[string]*template.Template)}
	for _, file := range files {
		mode := strings.TrimSuffix(path.Base(file), ".yaml")
		if err := m.compileFile(fsys, file, mode); err != nil {
			return nil, err
		}
		m.modes = append(m.modes, mode)
	}
	sort.Strings(m.modes)

	for _, mode := range requiredModes {
		if i := sort.SearchStrings(m.modes, mode); i == len(m.modes) || m.modes[i] != mode {
			return nil, fmt.Errorf("prompt mode %q has no template file", mode)
		}
	}
	return m, nil
}

func (m *Manager) compileFile(fsys fs.FS, file, mode string) error {
	raw, err := fs.ReadFile(fsys, file)
	if err != nil {
		return fmt.Errorf("read %s: %w", file, err)
	}
	var pf promptFile
	if err := yaml.Unmarshal(raw, &pf); err != nil {
		return fmt.Errorf("parse %s: %w", file, err)
	}
	if len(pf.Variants) == 0 {
		return fmt.Errorf("%s defines no variants", file)
	}

	for variant, body := range pf.Variants {
		text := body
		if pf.Base != "" {
			text = pf.Base + "\n\n" + body
		}
		key := mode + "/" + variant
		tmpl, err := template.New(key).Funcs(funcs).Parse(text)
		if err != nil {
			return fmt.Errorf("compile %s: %w", key, err)
		}
		m.compiled[key] = tmpl
	}
	return nil
}

func (m *Manager) Render(mode, variant string, data interface{}) (string, error) {
	key := mode + "/" + variant
	tmpl, ok := m.compiled[key]
	if !ok {
		return "", fmt.Errorf("no prompt template %s", key)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", key, err)
	}
	return buf.String(), nil
}

// Modes lists the loaded modes in order.
func (m *Manager) Modes() []string {
	return append([]string(nil), m.modes...)
}
