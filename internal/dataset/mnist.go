// Package dataset loads MNIST-style IDX files into tensors and turns them
// into training and evaluation samples for the network.
package dataset

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gorgonia.org/tensor"
)

const (
	imagesMagic = 2051
	labelsMagic = 2049

	// NumClasses is the number of MNIST digit classes.
	NumClasses = 10

	maxImageSide    = 1 << 12
	maxSamples      = 1 << 26
	preallocSamples = 1024
)

// ErrBadLabel indicates a label outside [0, classes).
var ErrBadLabel = errors.New("dataset: label out of range")

func open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}
	zr, err := gzip.NewReader(bufio.NewReader(f))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("gzip %s: %w", path, err)
	}
	return &gzipFile{Reader: zr, f: f}, nil
}

type gzipFile struct {
	*gzip.Reader
	f *os.File
}

func (g *gzipFile) Close() error {
	err := g.Reader.Close()
	if cerr := g.f.Close(); err == nil {
		err = cerr
	}
	return err
}

// ReadIDXImages reads an IDX image file into a [n, rows*cols] float64
// tensor with pixels scaled to [0, 1]. limit > 0 caps the number of images.
//
// IDX file format for images:
//
//	magic number: 0x00000803 (2051)
//	number of images: 4 bytes
//	number of rows: 4 bytes
//	number of cols: 4 bytes
//	pixel data: unsigned bytes (0-255)
func ReadIDXImages(path string, limit int) (*tensor.Dense, error) {
	r, err := open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	if err := readMagic(r, imagesMagic); err != nil {
		return nil, err
	}
	var dims [3]uint32
	if err := binary.Read(r, binary.BigEndian, &dims); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	n, rows, cols := int(dims[0]), int(dims[1]), int(dims[2])
	if limit > 0 && limit < n {
		n = limit
	}
	if n == 0 || rows == 0 || cols == 0 {
		return nil, fmt.Errorf("%s: no image data (%d images of %dx%d)", path, n, rows, cols)
	}
	if rows > maxImageSide || cols > maxImageSide {
		return nil, fmt.Errorf("%s: image size %dx%d exceeds %dx%d", path, rows, cols, maxImageSide, maxImageSide)
	}
	size := rows * cols
	if n > maxSamples {
		return nil, fmt.Errorf("%s: %d images exceeds %d", path, n, maxSamples)
	}

	// grow with the data actually read so a lying header cannot force a
	// huge allocation
	raw := make([]byte, size)
	norm := make([]float64, 0, min(n, preallocSamples)*size)
	for i := 0; i < n; i++ {
		if _, err := io.ReadFull(r, raw); err != nil {
			return nil, fmt.Errorf("read image %d: %w", i, err)
		}
		for _, px := range raw {
			norm = append(norm, float64(px)/255.0)
		}
	}
	return tensor.New(tensor.Of(tensor.Float64), tensor.WithShape(n, size), tensor.WithBacking(norm)), nil
}

// ReadIDXLabels reads an IDX label file. limit > 0 caps the number of labels.
//
// IDX file format for labels:
//
//	magic number: 0x00000801 (2049)
//	number of labels: 4 bytes
//	label data: unsigned bytes
func ReadIDXLabels(path string, limit int) ([]int, error) {
	r, err := open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	if err := readMagic(r, labelsMagic); err != nil {
		return nil, err
	}
	var count uint32
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	n := int(count)
	if limit > 0 && limit < n {
		n = limit
	}
	if n > maxSamples {
		return nil, fmt.Errorf("%s: %d labels exceeds %d", path, n, maxSamples)
	}

	raw, err := io.ReadAll(io.LimitReader(r, int64(n)))
	if err != nil {
		return nil, fmt.Errorf("read labels: %w", err)
	}
	if len(raw) != n {
		return nil, fmt.Errorf("read labels: got %d of %d: %w", len(raw), n, io.ErrUnexpectedEOF)
	}
	labels := make([]int, n)
	for i, b := range raw {
		labels[i] = int(b)
	}
	return labels, nil
}

func readMagic(r io.Reader, want uint32) error {
	var magic uint32
	if err := binary.Read(r, binary.BigEndian, &magic); err != nil {
		return fmt.Errorf("failed to read magic: %w", err)
	}
	if magic != want {
		return fmt.Errorf("invalid magic number: got %d, want %d", magic, want)
	}
	return nil
}

// LoadMNIST reads a pair of image and label files into a Set.
func LoadMNIST(imagesPath, labelsPath string, limit int) (*Set, error) {
	images, err := ReadIDXImages(imagesPath, limit)
	if err != nil {
		return nil, fmt.Errorf("load images %s: %w", imagesPath, err)
	}
	labels, err := ReadIDXLabels(labelsPath, limit)
	if err != nil {
		return nil, fmt.Errorf("load labels %s: %w", labelsPath, err)
	}
	return NewSet(images, labels, NumClasses)
}
