package main

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnthonyKot/gon/internal/config"
)

func writeIDX(t *testing.T, dir string, n int) (images, labels string) {
	t.Helper()
	img := &bytes.Buffer{}
	require.NoError(t, binary.Write(img, binary.BigEndian, []uint32{2051, uint32(n), 2, 2}))
	lbl := &bytes.Buffer{}
	require.NoError(t, binary.Write(lbl, binary.BigEndian, []uint32{2049, uint32(n)}))
	for i := 0; i < n; i++ {
		class := i % 2
		px := []byte{0, 0, 0, 0}
		px[class*3] = 255
		img.Write(px)
		lbl.WriteByte(byte(class))
	}
	images = filepath.Join(dir, "images.idx")
	labels = filepath.Join(dir, "labels.idx")
	require.NoError(t, os.WriteFile(images, img.Bytes(), 0o644))
	require.NoError(t, os.WriteFile(labels, lbl.Bytes(), 0o644))
	return images, labels
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	images, labels := writeIDX(t, t.TempDir(), 30)
	cfg := config.Default()
	cfg.Sizes = []int{4, 5, 10}
	cfg.Epochs = 2
	cfg.Seed = 1
	cfg.TrainImages, cfg.TrainLabels = images, labels
	cfg.TestImages, cfg.TestLabels = images, labels
	cfg.TrainingSize = 20
	cfg.ValidationSize = 6
	cfg.TestSize = 8
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestLoadData(t *testing.T) {
	cfg := testConfig(t)

	d, err := loadData(cfg)
	require.NoError(t, err)
	assert.Len(t, d.training, 20)
	assert.Len(t, d.validation, 6)
	assert.Len(t, d.test, 8)
	assert.Equal(t, 10, d.training[0].Target.Len())
	assert.Equal(t, 4, d.training[0].Input.Len())
}

func TestLoadDataAllSamples(t *testing.T) {
	cfg := testConfig(t)
	cfg.TrainingSize = 0
	cfg.ValidationSize = 0
	cfg.TestImages, cfg.TestLabels = "", ""

	d, err := loadData(cfg)
	require.NoError(t, err)
	assert.Len(t, d.training, 30)
	assert.Empty(t, d.validation)
	assert.Empty(t, d.test)
}

func TestLoadDataValidationTooLarge(t *testing.T) {
	cfg := testConfig(t)
	cfg.TrainingSize = 0
	cfg.ValidationSize = 30

	_, err := loadData(cfg)
	assert.ErrorContains(t, err, "validation split")
}

func TestRun(t *testing.T) {
	cfg := testConfig(t)
	cfg.Workers = 2
	cfg.LogEvery = 1
	require.NoError(t, run(cfg))
}

func TestRunDimensionMismatch(t *testing.T) {
	cfg := testConfig(t)
	cfg.Sizes = []int{5, 10}
	assert.Error(t, run(cfg))
}
