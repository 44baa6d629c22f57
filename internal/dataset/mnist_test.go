package dataset

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func idxImages(t *testing.T, n, rows, cols int) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	require.NoError(t, binary.Write(buf, binary.BigEndian, []uint32{imagesMagic, uint32(n), uint32(rows), uint32(cols)}))
	for i := 0; i < n*rows*cols; i++ {
		buf.WriteByte(byte(i % 256))
	}
	return buf.Bytes()
}

func idxLabels(t *testing.T, labels ...byte) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	require.NoError(t, binary.Write(buf, binary.BigEndian, []uint32{labelsMagic, uint32(len(labels))}))
	buf.Write(labels)
	return buf.Bytes()
}

func mustWrite(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func gzipped(t *testing.T, data []byte) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	zw := gzip.NewWriter(buf)
	_, err := zw.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestReadIDXImages(t *testing.T) {
	path := mustWrite(t, "images.idx", idxImages(t, 3, 2, 2))

	images, err := ReadIDXImages(path, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4}, []int(images.Shape()))

	data := images.Data().([]float64)
	assert.Equal(t, 0.0, data[0])
	assert.InDelta(t, 11.0/255.0, data[11], 1e-12)
	for _, v := range data {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}

	limited, err := ReadIDXImages(path, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4}, []int(limited.Shape()))
}

func TestReadIDXGzip(t *testing.T) {
	images := mustWrite(t, "images.idx.gz", gzipped(t, idxImages(t, 2, 3, 3)))
	labels := mustWrite(t, "labels.idx.gz", gzipped(t, idxLabels(t, 4, 9)))

	set, err := LoadMNIST(images, labels, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, set.Len())
	assert.Equal(t, 9, set.Features())
	assert.Equal(t, []int{4, 9}, set.Labels)
}

func TestReadIDXErrors(t *testing.T) {
	_, err := ReadIDXImages(filepath.Join(t.TempDir(), "missing"), 0)
	assert.Error(t, err)

	_, err = ReadIDXImages(mustWrite(t, "labels.idx", idxLabels(t, 1, 2)), 0)
	assert.ErrorContains(t, err, "invalid magic number")

	_, err = ReadIDXLabels(mustWrite(t, "images.idx", idxImages(t, 1, 1, 1)), 0)
	assert.ErrorContains(t, err, "invalid magic number")

	truncated := idxImages(t, 2, 2, 2)
	_, err = ReadIDXImages(mustWrite(t, "short.idx", truncated[:len(truncated)-1]), 0)
	assert.ErrorContains(t, err, "read image 1")

	_, err = ReadIDXImages(mustWrite(t, "empty.idx", idxImages(t, 0, 2, 2)), 0)
	assert.ErrorContains(t, err, "no image data")

	_, err = ReadIDXImages(mustWrite(t, "notgz.idx.gz", idxImages(t, 1, 1, 1)), 0)
	assert.ErrorContains(t, err, "gzip")
}

func TestLoadMNISTMismatch(t *testing.T) {
	images := mustWrite(t, "images.idx", idxImages(t, 3, 2, 2))

	_, err := LoadMNIST(images, mustWrite(t, "labels.idx", idxLabels(t, 1, 2)), 0)
	assert.ErrorContains(t, err, "3 images but 2 labels")

	_, err = LoadMNIST(images, mustWrite(t, "bad.idx", idxLabels(t, 1, 2, 10)), 0)
	assert.ErrorIs(t, err, ErrBadLabel)

	set, err := LoadMNIST(images, mustWrite(t, "labels3.idx", idxLabels(t, 1, 2, 3, 4)), 3)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, set.Labels)
}

func TestReadIDXCorruptHeader(t *testing.T) {
	header := func(values ...uint32) []byte {
		buf := &bytes.Buffer{}
		require.NoError(t, binary.Write(buf, binary.BigEndian, values))
		return buf.Bytes()
	}

	_, err := ReadIDXImages(mustWrite(t, "huge.idx", header(imagesMagic, 0xFFFFFFFF, 0xFFFF, 0xFFFF)), 0)
	assert.ErrorContains(t, err, "exceeds")

	_, err = ReadIDXImages(mustWrite(t, "many.idx", header(imagesMagic, 0xFFFFFFFF, 28, 28)), 0)
	assert.ErrorContains(t, err, "exceeds")

	// plausible count, missing pixels
	_, err = ReadIDXImages(mustWrite(t, "short.idx", header(imagesMagic, 60000, 28, 28)), 0)
	assert.ErrorIs(t, err, io.EOF)

	_, err = ReadIDXLabels(mustWrite(t, "huge-labels.idx", header(labelsMagic, 0x7FFFFFFF)), 0)
	assert.ErrorContains(t, err, "exceeds")

	_, err = ReadIDXLabels(mustWrite(t, "short-labels.idx", header(labelsMagic, 60000)), 0)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	_, err = ReadIDXImages(mustWrite(t, "magic-only.idx", header(imagesMagic)), 0)
	assert.ErrorContains(t, err, "read header")

	_, err = ReadIDXLabels(mustWrite(t, "truncated.idx", []byte{0, 0}), 0)
	assert.ErrorContains(t, err, "failed to read magic")
}
