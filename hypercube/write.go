package hypercube

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"github.com/pkg/errors"
)

// WriteNPY writes a (height, width, band) float32 array to an NPY v1.0 file
// in C order, the on-disk layout the indexer expects. It exists for dataset
// preparation and test fixtures; npyio's writer only handles 1-D slices and
// 2-D matrices, not shaped 3-D arrays.
func WriteNPY(path string, height, width, bands int, data []float32) error {
	if height <= 0 || width <= 0 || bands <= 0 {
		return errors.Errorf("hypercube: invalid dimensions (%d, %d, %d)", height, width, bands)
	}
	if want := height * width * bands; len(data) != want {
		return errors.Errorf("hypercube: data holds %d values, shape (%d, %d, %d) needs %d",
			len(data), height, width, bands, want)
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "hypercube: create %s", path)
	}
	defer f.Close()

	header := fmt.Sprintf("{'descr': '<f4', 'fortran_order': False, 'shape': (%d, %d, %d), }", height, width, bands)
	// Magic (6) + version (2) + header length (2) + header must be a
	// multiple of 64 bytes, header terminated by a newline.
	pad := 64 - (10+len(header)+1)%64
	if pad == 64 {
		pad = 0
	}
	for i := 0; i < pad; i++ {
		header += " "
	}
	header += "\n"

	buf := make([]byte, 0, 10+len(header)+4*len(data))
	buf = append(buf, 0x93, 'N', 'U', 'M', 'P', 'Y', 1, 0)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(header)))
	buf = append(buf, header...)
	for _, v := range data {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
	}
	if _, err := f.Write(buf); err != nil {
		return errors.Wrapf(err, "hypercube: write %s", path)
	}
	return nil
}
