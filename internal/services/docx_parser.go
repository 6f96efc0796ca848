package services

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

type DocxParserService interface {
	ExtractText(data []byte) (string, error)
}

type docxParserService struct{}

func NewDocxParserService() DocxParserService {
	return &docxParserService{}
}

// ExtractText returns the raw text of word/document.xml, one line per paragraph.
func (d *docxParserService) ExtractText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open zip: %w", err)
	}

	var docFile *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return "", fmt.Errorf("word/document.xml not found in archive")
	}

	rc, err := docFile.Open()
	if err != nil {
		return "", fmt.Errorf("open document.xml: %w", err)
	}
	defer rc.Close()

	return docxRawText(rc)
}

func docxRawText(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)
	var out strings.Builder
	// propsDepth counts open pPr/rPr elements; w:tab inside them is a tab
	// stop definition, not a tab character. rPr nests inside pPr.
	var inText bool
	var propsDepth int

	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("decode document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "pPr", "rPr":
				propsDepth++
			case "tab":
				if propsDepth == 0 {
					out.WriteByte('\t')
				}
			case "br", "cr":
				out.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				out.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "pPr", "rPr":
				if propsDepth > 0 {
					propsDepth--
				}
			case "p":
				out.WriteByte('\n')
			}
		}
	}

	return strings.TrimRight(out.String(), "\n"), nil
}
