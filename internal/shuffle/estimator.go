package shuffle

import (
	"fmt"
	"os"
)

// TotalInputSize sums the on-disk byte size of all input files. Compressed
// inputs are counted at their stored size; nothing is decompressed for
// estimation.
func TotalInputSize(paths []string) (int64, error) {
	var total int64
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return 0, fmt.Errorf("stat input %s: %w", path, err)
		}
		total += info.Size()
	}
	return total, nil
}
