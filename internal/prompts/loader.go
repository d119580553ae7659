// Package prompts holds the localized prompt templates used by Quality
// Gate, Plan Critic, Council, Heart, and Harvester. The templates are
// data under a language key, embedded per-language and overridable by a
// user config directory. Not all prompt text goes through them:
// llmgateway's JSON-only re-prompt and Forge's "PREVIOUS PLAN FEEDBACK"
// heading are English strings in code.
package prompts

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"text/template"
)

//go:embed en/*.md fr/*.md
var builtinFS embed.FS

// defaultLanguage is used whenever a requested template is missing for
// the caller's configured language.
const defaultLanguage = "en"

// Load returns the prompt template for name in the given language.
// Resolution order: user override
// (~/.config/conductor/prompts/<lang>/<name>) → embedded <lang>/<name>
// → embedded en/<name>.
func Load(lang, name string) (*template.Template, error) {
	if lang == "" {
		lang = defaultLanguage
	}

	if configDir, err := os.UserConfigDir(); err == nil {
		userPath := filepath.Join(configDir, "conductor", "prompts", lang, name)
		if data, err := os.ReadFile(userPath); err == nil {
			return template.New(name).Parse(string(data))
		}
	}

	data, err := builtinFS.ReadFile(filepath.Join(lang, name))
	if err != nil {
		data, err = builtinFS.ReadFile(filepath.Join(defaultLanguage, name))
		if err != nil {
			return nil, fmt.Errorf("loading prompt template %s/%s: %w", lang, name, err)
		}
	}
	return template.New(name).Parse(string(data))
}

// Execute loads a template for the given language and executes it with
// the given data map.
func Execute(lang, name string, data map[string]string) (string, error) {
	tmpl, err := Load(lang, name)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing prompt template %s/%s: %w", lang, name, err)
	}
	return buf.String(), nil
}

// List returns the names of all available prompt templates for lang.
func List(lang string) ([]string, error) {
	if lang == "" {
		lang = defaultLanguage
	}
	entries, err := builtinFS.ReadDir(lang)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}
