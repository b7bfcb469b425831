package httpclient

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
)

// File is one file part of a multipart form.
type File struct {
	Name    string // file name sent to the server
	Content io.Reader
}

// OpenFile reads path into a File ready to attach.
func OpenFile(path string) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &File{Name: filepath.Base(path), Content: bytes.NewReader(b)}, nil
}

// Form is a multipart/form-data body. Passing a *Form as a request body
// skips the JSON content type and lets the writer set the boundary.
type Form struct {
	fields []formField
	files  []formFile
}

type formField struct{ name, value string }

type formFile struct {
	field string
	file  *File
}

func NewForm() *Form { return &Form{} }

// Set appends a text field.
func (f *Form) Set(name, value string) *Form {
	f.fields = append(f.fields, formField{name, value})
	return f
}

// Attach appends a file field.
func (f *Form) Attach(field string, file *File) *Form {
	f.files = append(f.files, formFile{field, file})
	return f
}

// Value returns the first value of a text field.
func (f *Form) Value(name string) (string, bool) {
	for _, fl := range f.fields {
		if fl.name == name {
			return fl.value, true
		}
	}
	return "", false
}

func (f *Form) encode() (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, fl := range f.fields {
		if err := w.WriteField(fl.name, fl.value); err != nil {
			return nil, "", err
		}
	}
	for _, ff := range f.files {
		part, err := w.CreateFormFile(ff.field, ff.file.Name)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, ff.file.Content); err != nil {
			return nil, "", fmt.Errorf("copy %s: %w", ff.file.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
