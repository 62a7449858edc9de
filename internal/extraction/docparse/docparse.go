// Package docparse produces plain text from uploaded documents. It is a best
// effort producer; layout is not preserved.
package docparse

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/yungbote/cvextract/internal/extraction/errs"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// ExtractText returns the document's text. kind is a file extension with or
// without the leading dot; unknown kinds are read as text.
func ExtractText(content []byte, kind string) (string, error) {
	const op = "docparse.extract_text"
	if len(content) == 0 {
		return "", errs.New(errs.KindInvalidInput, op, "document is empty", errs.ErrEmptyDocument)
	}

	var (
		text string
		err  error
	)
	switch normalizeKind(kind) {
	case "pdf":
		text, err = pdfText(content)
	case "docx":
		text, err = docxText(content)
	default:
		text, err = decodeText(content)
	}
	if err != nil {
		return "", errs.New(errs.KindInvalidInput, op, fmt.Sprintf("read %s document", normalizeKind(kind)), err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errs.New(errs.KindInvalidInput, op, "no text found in document", errs.ErrEmptyDocument)
	}
	return text, nil
}

func normalizeKind(kind string) string {
	k := strings.ToLower(strings.TrimSpace(kind))
	return strings.TrimPrefix(k, ".")
}

func pdfText(content []byte) (text string, err error) {
	// the pdf reader panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", err
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func docxText(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", err
	}
	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return "", errors.New("word/document.xml not found")
	}
	rc, err := doc.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	var (
		sb     strings.Builder
		inText bool
	)
	dec := xml.NewDecoder(rc)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				sb.WriteByte('\t')
			case "br", "cr":
				sb.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return sb.String(), nil
}

// decodeText keeps valid UTF-8, honours UTF-16 byte order marks and falls
// back to Windows-1252.
func decodeText(content []byte) (string, error) {
	switch {
	case bytes.HasPrefix(content, []byte{0xEF, 0xBB, 0xBF}):
		return string(content[3:]), nil
	case bytes.HasPrefix(content, []byte{0xFF, 0xFE}):
		return decodeWith(unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder().Bytes, content)
	case bytes.HasPrefix(content, []byte{0xFE, 0xFF}):
		return decodeWith(unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder().Bytes, content)
	case utf8.Valid(content):
		return string(content), nil
	default:
		return decodeWith(charmap.Windows1252.NewDecoder().Bytes, content)
	}
}

func decodeWith(decode func([]byte) ([]byte, error), content []byte) (string, error) {
	out, err := decode(content)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
