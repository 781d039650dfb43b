package gateways

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/ochairo/sqlitefetch/internal/domain/entities"
)

// SQLiteDownloadPage extracts the artifact reference from the sqlite.org
// download page. The filename is the text of the element with id
// FilenameElementID; the hash is the second token of the first <small> note
// in the block two levels above it, e.g. "(SHA3-256: 4f0e...9a1c)".
//
// This knows today's markup and nothing more. If the page changes, write a
// new MarkupExtractor rather than teaching this one to guess.
type SQLiteDownloadPage struct {
	FilenameElementID string
}

// NewSQLiteDownloadPage creates an extractor keyed on the given element id
func NewSQLiteDownloadPage(filenameElementID string) *SQLiteDownloadPage {
	if filenameElementID == "" {
		filenameElementID = entities.DefaultFilenameElementID
	}
	return &SQLiteDownloadPage{FilenameElementID: filenameElementID}
}

// Extract parses body and returns a complete reference or an *entities.ExtractionError
func (p *SQLiteDownloadPage) Extract(body []byte) (*entities.ArtifactReference, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, &entities.ExtractionError{Reason: fmt.Sprintf("parse HTML: %v", err)}
	}

	el := getNodeByID(p.FilenameElementID, doc)
	if el == nil {
		return nil, &entities.ExtractionError{
			Reason: fmt.Sprintf("no element with id %q", p.FilenameElementID),
		}
	}

	filename := strings.TrimSpace(textContent(el))
	if filename == "" {
		return nil, &entities.ExtractionError{
			Reason: fmt.Sprintf("element %q has no text", p.FilenameElementID),
		}
	}

	block := el.Parent
	if block != nil {
		block = block.Parent
	}
	if block == nil {
		return nil, &entities.ExtractionError{
			Reason: fmt.Sprintf("element %q has no enclosing block", p.FilenameElementID),
		}
	}

	note := firstElementExcluding(atom.Small, block, el)
	if note == nil {
		return nil, &entities.ExtractionError{Reason: "no <small> hash note near filename"}
	}

	hash, err := hashFromNote(textContent(note))
	if err != nil {
		return nil, err
	}

	return &entities.ArtifactReference{
		Filename:     filename,
		ExpectedHash: hash,
	}, nil
}

// hashFromNote isolates the digest from a note like "(SHA3-256: abc123 456)"
func hashFromNote(note string) (string, error) {
	fields := strings.Fields(note)
	if len(fields) < 2 {
		return "", &entities.ExtractionError{
			Reason: fmt.Sprintf("hash note %q has fewer than two tokens", strings.TrimSpace(note)),
		}
	}

	hash := strings.TrimRight(fields[1], ")")
	if hash == "" {
		return "", &entities.ExtractionError{
			Reason: fmt.Sprintf("hash note %q has an empty hash token", strings.TrimSpace(note)),
		}
	}
	return hash, nil
}

func getNodeByID(id string, node *html.Node) *html.Node {
	if node.Type == html.ElementNode && getAttribute("id", node) == id {
		return node
	}
	for next := node.FirstChild; next != nil; next = next.NextSibling {
		if el := getNodeByID(id, next); el != nil {
			return el
		}
	}
	return nil
}

// firstElementExcluding does a depth-first search for the first element of
// type a under root, never descending into skip.
func firstElementExcluding(a atom.Atom, root, skip *html.Node) *html.Node {
	for next := root.FirstChild; next != nil; next = next.NextSibling {
		if next == skip {
			continue
		}
		if next.Type == html.ElementNode && next.DataAtom == a {
			return next
		}
		if found := firstElementExcluding(a, next, skip); found != nil {
			return found
		}
	}
	return nil
}

func getAttribute(k string, n *html.Node) string {
	for _, a := range n.Attr {
		if a.Key == k {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(node *html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
			return
		}
		for next := node.FirstChild; next != nil; next = next.NextSibling {
			walk(next)
		}
	}
	walk(n)
	return b.String()
}
