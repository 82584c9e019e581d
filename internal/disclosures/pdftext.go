package disclosures

import (
	"bytes"
	"fmt"
	"os/exec"
)

// CommandExtractor extracts PDF text by piping the document through an
// external converter, pdftotext by default.
type CommandExtractor struct {
	Command string
	Args    []string
}

// NewPdftotextExtractor returns an extractor backed by poppler's pdftotext,
// reading the PDF from stdin and writing plain text to stdout.
func NewPdftotextExtractor() *CommandExtractor {
	return &CommandExtractor{
		Command: "pdftotext",
		Args:    []string{"-layout", "-", "-"},
	}
}

// Text runs the converter over the document bytes.
func (e *CommandExtractor) Text(pdf []byte) (string, error) {
	cmd := exec.Command(e.Command, e.Args...)
	cmd.Stdin = bytes.NewReader(pdf)

	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s failed: %w: %s", e.Command, err, stderr.String())
	}
	return out.String(), nil
}
