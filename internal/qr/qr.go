// Package qr renders the table QR codes customers scan to open the menu.
package qr

import (
	"encoding/base64"
	"fmt"
	"html/template"
	"io"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

const (
	DefaultSize = 300
	MinSize     = 64
	MaxSize     = 1024
)

// TableURL is the link encoded for a table. A non-empty override wins.
func TableURL(base string, number int32, override string) string {
	if override = strings.TrimSpace(override); override != "" {
		return override
	}
	return fmt.Sprintf("%s/menu/%d?src=qr", strings.TrimRight(base, "/"), number)
}

// ClampSize maps a requested pixel size into [MinSize, MaxSize]; zero or
// negative means DefaultSize.
func ClampSize(size int) int {
	switch {
	case size <= 0:
		return DefaultSize
	case size < MinSize:
		return MinSize
	case size > MaxSize:
		return MaxSize
	}
	return size
}

// PNG encodes content as a square PNG. Output is deterministic for the same
// content and size.
func PNG(content string, size int) ([]byte, error) {
	if content == "" {
		return nil, fmt.Errorf("qr content is empty")
	}
	png, err := qrcode.Encode(content, qrcode.Medium, ClampSize(size))
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}

// Entry is one table on the print page.
type Entry struct {
	TableNumber int32
	Capacity    int32
	URL         string
}

type printEntry struct {
	Entry
	Image template.URL
}

var printPage = template.Must(template.New("print").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Table QR codes</title>
<style>
body { font-family: sans-serif; }
.grid { display: flex; flex-wrap: wrap; gap: 24px; }
.card { border: 1px solid #ccc; padding: 16px; text-align: center; page-break-inside: avoid; }
.url { font-size: 10px; color: #666; word-break: break-all; max-width: {{.Size}}px; }
</style>
</head>
<body>
<div class="grid">
{{range .Entries}}<div class="card">
<h2>Table {{.TableNumber}}</h2>
<img src="{{.Image}}" width="{{$.Size}}" height="{{$.Size}}" alt="QR code for table {{.TableNumber}}">
<p>Seats {{.Capacity}}</p>
<p class="url">{{.URL}}</p>
</div>
{{end}}</div>
</body>
</html>
`))

// WritePrintPage renders every entry as an inline image on one HTML page.
func WritePrintPage(w io.Writer, entries []Entry, size int) error {
	size = ClampSize(size)
	rendered := make([]printEntry, 0, len(entries))
	for _, e := range entries {
		png, err := PNG(e.URL, size)
		if err != nil {
			return fmt.Errorf("table %d: %w", e.TableNumber, err)
		}
		rendered = append(rendered, printEntry{
			Entry: e,
			Image: template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png)),
		})
	}

	return printPage.Execute(w, struct {
		Size    int
		Entries []printEntry
	}{Size: size, Entries: rendered})
}
