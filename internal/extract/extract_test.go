package extract

import (
	"archive/zip"
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildDocx(t *testing.T, body string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	files := map[string]string{
		"[Content_Types].xml": `<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"></Types>`,
		"word/_rels/document.xml.rels": `<?xml version="1.0" encoding="UTF-8"?>` +
			`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`,
		"word/document.xml": `<?xml version="1.0" encoding="UTF-8"?>` +
			`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
			body + `</w:body></w:document>`,
	}
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	return buf.Bytes()
}

func TestTextPlain(t *testing.T) {
	got, err := Text("text/plain; charset=utf-8", []byte("Python developer"))
	require.NoError(t, err)
	assert.Equal(t, "Python developer", got)

	got, err = Text(MIMEMarkdown, []byte("# Resume"))
	require.NoError(t, err)
	assert.Equal(t, "# Resume", got)
}

func TestTextDocx(t *testing.T) {
	data := buildDocx(t,
		`<w:p><w:r><w:t>Senior Go developer</w:t></w:r></w:p>`+
			`<w:p><w:r><w:t>Docker &amp; Kubernetes</w:t></w:r></w:p>`)

	got, err := Text(MIMEDocx, data)
	require.NoError(t, err)
	assert.Equal(t, "Senior Go developer\nDocker & Kubernetes", got)
}

func TestTextParseErrors(t *testing.T) {
	tests := []struct {
		name string
		mime string
	}{
		{name: "broken pdf", mime: MIMEPDF},
		{name: "broken docx", mime: MIMEDocx},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Text(tt.mime, []byte("definitely not a document"))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrParse), "expected ErrParse, got %v", err)
		})
	}
}

func TestTextUnsupportedType(t *testing.T) {
	_, err := Text("image/png", []byte{0x89, 0x50})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedType)
	assert.False(t, Supported("image/png"))
	assert.True(t, Supported("Application/PDF"))
}

func TestMIMEFromPath(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"cv.PDF":           MIMEPDF,
		"cv.docx":          MIMEDocx,
		"jobs/backend.txt": MIMEPlain,
		"notes.md":         MIMEMarkdown,
		"cv.doc":           "",
		"noext":            "",
	}

	for path, want := range tests {
		path, want := path, want
		t.Run(path, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, want, MIMEFromPath(path))
		})
	}
}

func TestStripXML(t *testing.T) {
	got := stripXML(`<w:p><w:r><w:t xml:space="preserve">Led </w:t></w:r><w:r><w:t>teams</w:t></w:r></w:p><w:p/>`)
	assert.Equal(t, "Led teams", got)
}
