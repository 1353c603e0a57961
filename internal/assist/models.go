package assist

import "fmt"

// Model is a hosted model the gemini backend can call.
type Model struct {
	ID      string
	Name    string
	Context int
}

// Models lists the known generateContent models.
var Models = []Model{
	{ID: "gemini-2.5-pro", Name: "Gemini 2.5 Pro", Context: 1048576},
	{ID: "gemini-2.5-flash", Name: "Gemini 2.5 Flash", Context: 1048576},
	{ID: "gemini-2.5-flash-lite", Name: "Gemini 2.5 Flash Lite", Context: 1048576},
	{ID: "gemini-2.0-flash", Name: "Gemini 2.0 Flash", Context: 1048576},
}

// FindModel searches for a model by ID, then by ID prefix.
func FindModel(query string) *Model {
	for _, m := range Models {
		if m.ID == query {
			return &m
		}
	}
	// Fuzzy: prefix match
	for _, m := range Models {
		if len(query) >= 3 && len(m.ID) >= len(query) && m.ID[:len(query)] == query {
			return &m
		}
	}
	return nil
}

// FormatContext returns a human-readable context window size.
func FormatContext(ctx int) string {
	if ctx >= 1000000 {
		return fmt.Sprintf("%.1fM", float64(ctx)/1000000)
	}
	return fmt.Sprintf("%dk", ctx/1000)
}
