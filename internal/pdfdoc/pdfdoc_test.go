// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdfdoc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdf2jpg/internal/pdfdoc/pdftest"
)

func TestInspect(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		path    func() string
		want    Info
		wantErr bool
	}{
		{
			name: "counts pages",
			path: func() string { return pdftest.Write(t, dir, "three.pdf", pdftest.Letter(3), pdftest.Options{}) },
			want: Info{PageCount: 3},
		},
		{
			name: "password protected is locked, not an error",
			path: func() string {
				return pdftest.Write(t, dir, "locked.pdf", pdftest.Letter(2), pdftest.Options{Encrypted: true})
			},
			want: Info{Locked: true},
		},
		{
			name: "not a pdf",
			path: func() string {
				p := filepath.Join(dir, "junk.pdf")
				require.NoError(t, os.WriteFile(p, []byte("hello"), 0o644))
				return p
			},
			wantErr: true,
		},
		{
			name:    "missing file",
			path:    func() string { return filepath.Join(dir, "absent.pdf") },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Inspect(tt.path())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOpen_PasswordProtected(t *testing.T) {
	path := pdftest.Write(t, t.TempDir(), "locked.pdf", pdftest.Letter(1), pdftest.Options{Encrypted: true})
	_, err := Open(path)
	assert.ErrorIs(t, err, ErrPasswordProtected)
}

func TestOpen_AES256IsUnsupportedNotDamaged(t *testing.T) {
	for _, user := range []string{"", "secret"} {
		path := pdftest.Write(t, t.TempDir(), "aes.pdf", pdftest.Letter(1), pdftest.Options{AES256: true, UserPassword: user})

		_, err := Open(path)
		assert.ErrorIs(t, err, ErrUnsupportedEncryption, "user password %q", user)

		_, err = Inspect(path)
		assert.ErrorIs(t, err, ErrUnsupportedEncryption, "user password %q", user)
	}
}

func TestPageBox(t *testing.T) {
	pages := []pdftest.Page{
		{},
		{Width: 842, Height: 595},
		{Width: 612, Height: 792, Rotate: 90},
		{Width: 612, Height: 792, CropBox: []float64{36, 36, 576, 756}},
		{Rotate: -90},
	}
	path := pdftest.Write(t, t.TempDir(), "boxes.pdf", pages, pdftest.Options{})

	doc, err := Open(path)
	require.NoError(t, err)
	defer doc.Close()
	require.Equal(t, 5, doc.NumPage())

	want := []PageBox{
		{Width: 612, Height: 792},
		{Width: 842, Height: 595},
		{Width: 612, Height: 792, Rotation: 90},
		{Width: 540, Height: 720},
		{Width: 612, Height: 792, Rotation: 270},
	}
	for i, w := range want {
		got, err := doc.PageBox(i + 1)
		require.NoError(t, err, "page %d", i+1)
		assert.Equal(t, w, got, "page %d", i+1)
	}

	_, err = doc.PageBox(6)
	assert.Error(t, err)
	_, err = doc.PageBox(0)
	assert.Error(t, err)
}

func TestPageBox_InheritedRotation(t *testing.T) {
	path := pdftest.Write(t, t.TempDir(), "rot.pdf", pdftest.Letter(2), pdftest.Options{Rotate: 270})
	doc, err := Open(path)
	require.NoError(t, err)
	defer doc.Close()

	box, err := doc.PageBox(2)
	require.NoError(t, err)
	assert.Equal(t, 270, box.Rotation)
}

func TestNormalizeRotation(t *testing.T) {
	tests := map[int]int{0: 0, 90: 90, 180: 180, 270: 270, 360: 0, 450: 90, -90: 270, -180: 180, 45: 0}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeRotation(in), "rotation %d", in)
	}
}
