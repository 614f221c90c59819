package nlp

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html/charset"

	ferrors "github.com/revlogica/orchestrator/internal/foundation/errors"
)

// PlainText strips XML markup from a document and returns its character data
// with whitespace collapsed, suitable as input for entity extraction.
// Comments, processing instructions, and directives carry no manuscript text
// and are skipped.
func PlainText(document string) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader([]byte(document)))
	dec.CharsetReader = charset.NewReaderLabel
	// Legacy manuscripts carry HTML-era named entities; map them to their
	// text instead of failing the whole document.
	dec.Entity = xml.HTMLEntity

	var parts []string
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return "", ferrors.ValidationError("document is not parseable XML").
				WithCause(err).
				Build()
		}
		cd, ok := tok.(xml.CharData)
		if !ok {
			continue
		}
		if text := strings.TrimSpace(string(cd)); text != "" {
			parts = append(parts, strings.Join(strings.Fields(text), " "))
		}
	}
	return strings.Join(parts, " "), nil
}
