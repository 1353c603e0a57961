package assist

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const queryTemplate = `You are an expert OWL Ontology Reasoner and Semantics Engine.
You are provided with the following RDF/XML ontology data:

` + "```xml" + `
{{ontology}}
` + "```" + `

The user will provide a Description Logic (DL) class expression, likely in
Manchester syntax or a natural language approximation.

Your task is to:
1. Parse the class expression (e.g. "Researcher and appliesMethod some Interview").
2. Reason over the provided ontology data to find entities that match it.
3. Return the result in strict JSON:

{
  "subclasses": ["labels of classes that are subclasses of the expression"],
  "instances": ["labels of named individuals that are instances of the expression"],
  "explanation": "a brief one-sentence explanation of the reasoning used"
}

If nothing matches, return empty arrays. Do not invent entities absent from the data.`

const chatTemplate = `You are an expert Semantic Web and Ontology Assistant.
You are provided with the following RDF/XML ontology data:

` + "```xml" + `
{{ontology}}
` + "```" + `
(The data may be truncated if too large; treat it as the main context.)

The user will ask a question about this ontology. Your goal is to:
1. Interpret the question.
2. Write a valid SPARQL query that would answer it from the ontology structure
   (classes, properties, individuals), using the rdf, rdfs and owl prefixes and
   the ontology's base URI.
3. Answer the question in natural language from the data provided.

Put the SPARQL query in a code block.`

var builtinTemplates = map[Mode]string{
	ModeQuery: queryTemplate,
	ModeChat:  chatTemplate,
}

// Template is a system prompt for one mode.
type Template struct {
	Mode      Mode
	Content   string
	Variables []string
	Override  bool
}

// promptDir holds user overrides, one <mode>.md file per mode.
func promptDir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "ontoview", "prompts")
}

// LoadTemplate returns the user override for mode, or the built-in template.
func LoadTemplate(mode Mode) (*Template, error) {
	content, ok := builtinTemplates[mode]
	if !ok {
		return nil, fmt.Errorf("no prompt for mode %q", mode)
	}
	t := &Template{Mode: mode, Content: content}
	if data, err := os.ReadFile(filepath.Join(promptDir(), string(mode)+".md")); err == nil {
		t.Content = string(data)
		t.Override = true
	}
	t.Variables = extractVariables(t.Content)
	return t, nil
}

// SaveTemplate writes an override for mode.
func SaveTemplate(mode Mode, content string) error {
	if _, ok := builtinTemplates[mode]; !ok {
		return fmt.Errorf("no prompt for mode %q", mode)
	}
	dir := promptDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, string(mode)+".md"), []byte(content), 0o644)
}

// Templates lists the effective template of every mode.
func Templates() []Template {
	var out []Template
	for mode := range builtinTemplates {
		if t, err := LoadTemplate(mode); err == nil {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Mode < out[j].Mode })
	return out
}

// Render substitutes variables in a prompt.
func Render(content string, vars map[string]string) string {
	result := content
	for k, v := range vars {
		result = strings.ReplaceAll(result, "{{"+k+"}}", v)
	}
	return result
}

// extractVariables finds all {{var}} patterns in content.
func extractVariables(content string) []string {
	seen := make(map[string]bool)
	var vars []string
	for {
		start := strings.Index(content, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}}")
		if end == -1 {
			break
		}
		name := strings.TrimSpace(content[start+2 : start+end])
		if name != "" && !seen[name] {
			vars = append(vars, name)
			seen[name] = true
		}
		content = content[start+end+2:]
	}
	return vars
}
