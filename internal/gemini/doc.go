// Package gemini implements intent.Model on top of the Gemini API.
//
// The client asks for JSON output and returns the text of the first
// candidate. Parsing and validating that text is left to the intent
// package.
package gemini
