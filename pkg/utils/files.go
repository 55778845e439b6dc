// Package utils holds small helpers shared by the command line tools.
package utils

import (
	"archive/zip"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"

	"github.com/bodgit/sevenzip"
)

// LoadFile loads the given file and performs decompression if necessary.
// Plain .gb/.gbc images are returned as-is; .zip, .gz and .7z archives are
// unpacked and the first file inside is returned.
func LoadFile(filename string) ([]byte, error) {
	// open the file
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// read the file into a byte slice
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	var decoder io.Reader
	switch ext := filepath.Ext(filename); ext {
	case ".gz":
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
		decoder, err = gzip.NewReader(f)
		if err != nil {
			return nil, err
		}
	case ".zip":
		zipReader, err := zip.NewReader(f, int64(len(data)))
		if err != nil {
			return nil, err
		}

		// read the first file in the zip file
		decoder, err = zipReader.File[0].Open()
		if err != nil {
			return nil, err
		}
	case ".7z":
		r, err := sevenzip.NewReader(f, int64(len(data)))
		if err != nil {
			return nil, err
		}

		// read the first file in the archive
		decoder, err = r.File[0].Open()
		if err != nil {
			return nil, err
		}
	default:
		// return the data as is
		return data, nil
	}

	// read the decompressed data into a byte slice
	return io.ReadAll(decoder)
}

// WriteFile writes data to filename, creating parent directories as needed.
func WriteFile(filename string, data []byte) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return err
		}
	}
	return os.WriteFile(filename, data, 0o644)
}
